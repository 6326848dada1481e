package vm

import (
	"fmt"
	"io"

	"github.com/jbweber/vbsnap/internal/inventory"
)

// Show prints one machine from the inventory.
func (m *Manager) Show(name string) error {
	rec, ok := m.store.Get(name)
	if !ok {
		return fmt.Errorf("cannot show %q: %w", name, inventory.ErrNotFound)
	}

	out, err := m.formatter.FormatMachine(rec)
	if err != nil {
		return fmt.Errorf("failed to format machine: %w", err)
	}
	return m.write(out)
}

// List prints every machine in the inventory in storage order.
func (m *Manager) List() error {
	out, err := m.formatter.FormatMachineList(m.store.Machines())
	if err != nil {
		return fmt.Errorf("failed to format machines: %w", err)
	}
	return m.write(out)
}

func (m *Manager) write(s string) error {
	if _, err := io.WriteString(m.out, s); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
