package output

import (
	"fmt"
	"strings"

	"github.com/jbweber/vbsnap/internal/machine"
)

// TextFormatter prints each machine as a header line followed by one
// indented line per network:
//
//	clone1 (3005):
//		eth1: net-a
type TextFormatter struct{}

// FormatMachine formats a single record.
func (f *TextFormatter) FormatMachine(rec machine.Record) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d):\n", rec.Name, rec.ConsolePort)
	if len(rec.Networks) == 0 {
		b.WriteString("\tNo Networks\n")
		return b.String(), nil
	}
	for _, key := range rec.Networks.Keys() {
		fmt.Fprintf(&b, "\t%s: %s\n", key, rec.Networks[key])
	}
	return b.String(), nil
}

// FormatMachineList formats every record in order.
func (f *TextFormatter) FormatMachineList(recs []machine.Record) (string, error) {
	var b strings.Builder
	for _, rec := range recs {
		s, err := f.FormatMachine(rec)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}
