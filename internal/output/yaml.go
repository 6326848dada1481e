package output

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/vbsnap/internal/machine"
)

// YAMLFormatter formats records as YAML.
type YAMLFormatter struct{}

// FormatMachine formats a single record as YAML.
func (f *YAMLFormatter) FormatMachine(rec machine.Record) (string, error) {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal machine to YAML: %w", err)
	}

	return string(data), nil
}

// FormatMachineList formats a list of records as YAML.
// Outputs as a YAML stream (multiple documents separated by ---).
func (f *YAMLFormatter) FormatMachineList(recs []machine.Record) (string, error) {
	if len(recs) == 0 {
		return "", nil
	}

	var buf bytes.Buffer

	for i, rec := range recs {
		data, err := yaml.Marshal(rec)
		if err != nil {
			return "", fmt.Errorf("failed to marshal machine %s to YAML: %w", rec.Name, err)
		}

		// Add document separator between machines (but not before the first one)
		if i > 0 {
			buf.WriteString("---\n")
		}

		buf.Write(data)
	}

	return buf.String(), nil
}
