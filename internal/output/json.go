package output

import (
	"encoding/json"
	"fmt"

	"github.com/jbweber/vbsnap/internal/machine"
)

// JSONFormatter formats records as JSON.
type JSONFormatter struct{}

// FormatMachine formats a single record as JSON.
func (f *JSONFormatter) FormatMachine(rec machine.Record) (string, error) {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal machine to JSON: %w", err)
	}

	return string(data) + "\n", nil
}

// FormatMachineList formats a list of records as a JSON array.
func (f *JSONFormatter) FormatMachineList(recs []machine.Record) (string, error) {
	if len(recs) == 0 {
		return "[]\n", nil
	}

	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal machines to JSON: %w", err)
	}

	return string(data) + "\n", nil
}
