package output

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/jbweber/vbsnap/internal/machine"
)

// TableFormatter formats records as human-readable tables.
type TableFormatter struct {
	// NoHeaders omits the header row.
	NoHeaders bool
}

// FormatMachine formats a single record as a table row.
func (f *TableFormatter) FormatMachine(rec machine.Record) (string, error) {
	return f.FormatMachineList([]machine.Record{rec})
}

// FormatMachineList formats a list of records as a table.
func (f *TableFormatter) FormatMachineList(recs []machine.Record) (string, error) {
	if len(recs) == 0 {
		return "No machines found\n", nil
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "NAME\tPORT\tSTATE\tNETWORKS\tSNAPSHOTS")
	}

	for _, rec := range recs {
		port := "-"
		if rec.Complete() {
			port = strconv.Itoa(rec.ConsolePort)
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			rec.Name, port, orDash(rec.State), formatNetworks(rec.Networks), orDash(strings.Join(rec.Snapshots, ",")))
	}

	_ = w.Flush()
	return buf.String(), nil
}

// formatNetworks renders networks as "eth1=net-a,eth2=net-b".
func formatNetworks(n machine.Networks) string {
	if len(n) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(n))
	for _, key := range n.Keys() {
		parts = append(parts, key+"="+n[key])
	}
	return strings.Join(parts, ",")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
