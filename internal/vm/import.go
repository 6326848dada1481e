package vm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jbweber/vbsnap/internal/appliance"
	"github.com/jbweber/vbsnap/internal/naming"
)

// Import imports an OVA/OVF appliance and rescans the host.
//
// If a machine named after the appliance is already known, the appliance is
// assumed to be imported and nothing is done.
func (m *Manager) Import(ctx context.Context, path string) error {
	path, err := expandHome(path)
	if err != nil {
		return err
	}

	name := naming.ApplianceName(path)
	log := m.log.WithField("appliance", name)

	if m.store.Has(name) {
		log.Info("This appliance already exists")
		return nil
	}

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("failed to access appliance: %w", err)
	}
	format, err := appliance.DetectFormat(path)
	if err != nil {
		return fmt.Errorf("failed to inspect appliance %s: %w", path, err)
	}

	log.WithField("format", format).Info("Importing appliance")
	if err := m.tool.Import(ctx, path); err != nil {
		return err
	}

	log.Info("Rescanning host")
	return m.scan.Refresh(ctx)
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to expand %s: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
