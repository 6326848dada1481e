// Package output provides formatters for displaying machine records in
// various formats (text, table, YAML, JSON).
package output

import (
	"fmt"

	"github.com/jbweber/vbsnap/internal/machine"
)

// Format represents an output format type.
type Format string

const (
	// FormatText is the compact listing vbsnap has always printed.
	FormatText Format = "text"
	// FormatTable is a human-readable table format.
	FormatTable Format = "table"
	// FormatYAML is a YAML format for declarative configs.
	FormatYAML Format = "yaml"
	// FormatJSON is a JSON format for machine consumption.
	FormatJSON Format = "json"
)

// Formatter formats machine records for output.
type Formatter interface {
	// FormatMachine formats a single record.
	FormatMachine(rec machine.Record) (string, error)

	// FormatMachineList formats a list of records.
	FormatMachineList(recs []machine.Record) (string, error)
}

// Options contains options for formatting output.
type Options struct {
	// Format specifies the output format.
	Format Format
	// NoHeaders omits headers in table format.
	NoHeaders bool
}

// NewFormatter creates a new Formatter based on the specified format.
func NewFormatter(opts Options) (Formatter, error) {
	switch opts.Format {
	case FormatText, "":
		return &TextFormatter{}, nil
	case FormatTable:
		return &TableFormatter{NoHeaders: opts.NoHeaders}, nil
	case FormatYAML:
		return &YAMLFormatter{}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (supported: text, table, yaml, json)", opts.Format)
	}
}

// ValidateFormat checks if a format string is valid.
func ValidateFormat(format string) error {
	f := Format(format)
	switch f {
	case FormatText, FormatTable, FormatYAML, FormatJSON:
		return nil
	default:
		return fmt.Errorf("invalid format: %s (valid formats: text, table, yaml, json)", format)
	}
}
