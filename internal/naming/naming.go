// Package naming provides the naming conventions vbsnap applies to
// VirtualBox resources: snapshot names, adapter numbering, interface keys,
// DMI metadata strings and the "<clone>[:<port>]" argument format.
//
// These rules are shared by the parser (reading names back from the host)
// and the orchestrator (creating them).
package naming

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// snapshotSuffix is appended to a base machine name for the snapshot
	// clones are linked against.
	snapshotSuffix = "_vbsnap"

	// FirstCloneNIC is the adapter number the first clone network goes on.
	// Adapter 1 stays on whatever the base machine uses (usually NAT).
	FirstCloneNIC = 2

	// MaxCloneNetworks is how many internal networks a clone can be given.
	MaxCloneNetworks = 3

	// ExtraDataDMIVendor is the extradata key for the BIOS DMI system vendor.
	ExtraDataDMIVendor = "VBoxInternal/Devices/pcbios/0/Config/DmiSystemVendor"

	// ExtraDataDMISKU is the extradata key for the BIOS DMI system SKU.
	ExtraDataDMISKU = "VBoxInternal/Devices/pcbios/0/Config/DmiSystemSKU"
)

// applianceExtensions are the image formats "VBoxManage import" accepts.
var applianceExtensions = []string{".ova", ".ovf"}

// InterfaceKey returns the inventory key for a zero-based adapter index.
//
// Example: 1 → "eth1"
func InterfaceKey(adapterIndex int) string {
	return fmt.Sprintf("eth%d", adapterIndex)
}

// SnapshotName returns the snapshot name taken on a base machine before it
// is first cloned.
//
// Example: "base1" → "base1_vbsnap"
func SnapshotName(baseName string) string {
	return baseName + snapshotSuffix
}

// CloneNIC returns the adapter number for the i-th (zero-based) network
// given to a clone.
//
// Example: 0 → 2
func CloneNIC(i int) int {
	return FirstCloneNIC + i
}

// DMIVendor returns the DMI system vendor string for a clone.
//
// Example: "clone1" → "CLONE1"
func DMIVendor(cloneName string) string {
	return strings.ToUpper(cloneName)
}

// DMISKU returns the DMI system SKU string encoding the console port and
// the networks of a clone. The trailing dot is kept when there are no
// networks; guests parse this string as-is.
//
// Example: 3005, ["net-a", "net-b"] → "port3005.net-a.net-b"
func DMISKU(port int, networks []string) string {
	return fmt.Sprintf("port%d.", port) + strings.Join(networks, ".")
}

// ParseCloneSpec splits a "<name>[:<port>]" argument.
// A missing port is returned as 0.
func ParseCloneSpec(spec string) (name string, port int, err error) {
	name, portStr, hasPort := strings.Cut(spec, ":")
	if name == "" {
		return "", 0, fmt.Errorf("clone name is empty in %q", spec)
	}
	if !hasPort {
		return name, 0, nil
	}
	if strings.Contains(portStr, ":") {
		return "", 0, fmt.Errorf("too many ':' in %q", spec)
	}

	port, err = strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in %q: %w", spec, err)
	}
	if port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return name, port, nil
}

// IsApplianceImage reports whether path names an OVA/OVF appliance.
func IsApplianceImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range applianceExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ApplianceName returns the appliance file name without directory and
// extension.
//
// Example: "~/images/protocols-lab.ova" → "protocols-lab"
func ApplianceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
