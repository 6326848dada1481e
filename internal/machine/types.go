// Package machine defines the records vbsnap keeps for each VirtualBox
// machine it manages, and the document they are persisted in.
//
// JSON keys are kept compatible with cache files written by earlier
// versions of the tool ("uart" for the console port).
package machine

import (
	"maps"
	"slices"
	"sort"
)

// DefaultGroup is the host group scanned when nothing else is configured.
const DefaultGroup = "/LinuxNetwork"

// Record is one virtual machine known to the inventory.
type Record struct {
	// Name is the VirtualBox machine name. Unique within an inventory.
	Name string `json:"name" yaml:"name"`

	// Group is the host-side group path (or comma separated paths) the
	// machine belongs to.
	Group string `json:"group" yaml:"group"`

	// ConsolePort is the TCP port UART 1 listens on in tcpserver mode.
	// Zero means the port was never parsed for this machine.
	ConsolePort int `json:"uart,omitempty" yaml:"uart,omitempty"`

	// Networks maps an interface key ("eth1") to an internal network name.
	// +optional
	Networks Networks `json:"networks,omitempty" yaml:"networks,omitempty"`

	// Snapshots lists snapshot names in the order the host reports them.
	// +optional
	Snapshots []string `json:"snapshots,omitempty" yaml:"snapshots,omitempty"`

	// UUID is the machine UUID reported by the host.
	// +optional
	UUID string `json:"uuid,omitempty" yaml:"uuid,omitempty"`

	// State is the run state reported by the host ("running", "powered off").
	// +optional
	State string `json:"state,omitempty" yaml:"state,omitempty"`
}

// Networks maps interface keys to internal network names.
type Networks map[string]string

// Keys returns the interface keys in sorted order.
func (n Networks) Keys() []string {
	keys := make([]string, 0, len(n))
	for k := range n {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Complete reports whether the record carries a parsed console port.
// Incomplete records must be refreshed before they are relied upon.
func (r Record) Complete() bool {
	return r.ConsolePort > 0
}

// HasSnapshots reports whether the host listed any snapshot for the machine.
func (r Record) HasSnapshots() bool {
	return len(r.Snapshots) > 0
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	if r.Networks != nil {
		out.Networks = maps.Clone(r.Networks)
	}
	if r.Snapshots != nil {
		out.Snapshots = slices.Clone(r.Snapshots)
	}
	return out
}

// Inventory is the persisted document: the scan group plus every record
// that matched it, in storage order.
type Inventory struct {
	// Group is the scan filter. It is fixed when the inventory is first created.
	Group string `json:"group" yaml:"group"`

	// Machines holds the records in storage order.
	Machines []Record `json:"machines" yaml:"machines"`
}
