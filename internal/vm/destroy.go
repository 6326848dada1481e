package vm

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/jbweber/vbsnap/internal/inventory"
)

// Erase deletes every snapshot of a known machine, unregisters and deletes
// it, then removes it from the inventory.
//
// A VBoxManage failure aborts the erase with the inventory unchanged.
func (m *Manager) Erase(ctx context.Context, name string) error {
	rec, ok := m.store.Get(name)
	if !ok {
		return fmt.Errorf("cannot erase %q: %w", name, inventory.ErrNotFound)
	}
	log := m.log.WithField("machine", name)

	for _, snapshot := range rec.Snapshots {
		log.Infof("Deleting snapshot %s", snapshot)
		if err := m.tool.DeleteSnapshot(ctx, name, snapshot); err != nil {
			return err
		}
	}

	log.Info("Unregistering and deleting machine")
	if err := m.tool.UnregisterVM(ctx, name); err != nil {
		return err
	}

	if err := m.store.Delete(name); err != nil {
		return err
	}
	if err := m.store.Persist(); err != nil {
		return err
	}

	log.Info("Machine erased")
	return nil
}

// EraseAll erases every known machine, last one first, so clones go before
// the bases they are linked to. It keeps going after a failure and returns
// all failures together.
func (m *Manager) EraseAll(ctx context.Context) error {
	var result *multierror.Error

	names := m.store.Names()
	for i := len(names) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			result = multierror.Append(result, err)
			break
		}
		if err := m.Erase(ctx, names[i]); err != nil {
			m.log.WithField("machine", names[i]).WithError(err).Error("Failed to erase machine")
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}
