package vm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/jbweber/vbsnap/internal/inventory"
	"github.com/jbweber/vbsnap/internal/naming"
	"github.com/jbweber/vbsnap/internal/vbox"
)

// CloneRequest describes a linked clone to create.
type CloneRequest struct {
	// Base is the known machine to clone.
	Base string
	// Name is the new machine name.
	Name string
	// Port is the console port. Zero allocates the next free one.
	Port int
	// Networks are attached as internal networks starting at adapter 2.
	Networks []string
}

// Clone creates a linked clone of a known base machine.
//
// This orchestrates the whole clone:
//  1. Check the base is known and the clone is not
//  2. Pick the console port (explicit or next free)
//  3. Snapshot the base if it has no snapshot yet, and rescan it
//  4. Clone from the first snapshot of the base
//  5. Set the console port and internal networks
//  6. Tag the DMI vendor and SKU
//  7. Rescan the clone into the inventory
//
// If step 5 or 6 fails, the clone is unregistered and deleted again.
func (m *Manager) Clone(ctx context.Context, req CloneRequest) (err error) {
	log := m.log.WithFields(logrus.Fields{"machine": req.Name, "base": req.Base})

	// Step 1: Validate the request against the inventory
	base, ok := m.store.Get(req.Base)
	if !ok {
		return fmt.Errorf("base machine %q: %w", req.Base, inventory.ErrNotFound)
	}
	if m.store.Has(req.Name) {
		return fmt.Errorf("cannot clone to %q: %w", req.Name, ErrAlreadyExists)
	}
	if len(req.Networks) > naming.MaxCloneNetworks {
		return fmt.Errorf("a clone takes at most %d networks, got %d", naming.MaxCloneNetworks, len(req.Networks))
	}

	// Step 2: Console port
	port, err := m.consolePort(req)
	if err != nil {
		return err
	}
	log = log.WithField("port", port)

	// Step 3: Base snapshot
	if !base.HasSnapshots() {
		snapshot := naming.SnapshotName(req.Base)
		log.Infof("Taking snapshot %s of %s", snapshot, req.Base)
		if err := m.tool.TakeSnapshot(ctx, req.Base, snapshot); err != nil {
			return err
		}

		var found bool
		base, found, err = m.scan.RefreshOne(ctx, req.Base)
		if err != nil {
			return fmt.Errorf("failed to rescan base machine: %w", err)
		}
		if !found || !base.HasSnapshots() {
			return fmt.Errorf("snapshot %s of %s not visible after taking it", snapshot, req.Base)
		}
	}
	snapshot := base.Snapshots[0]

	// Step 4: Clone
	log.Infof("Cloning from snapshot %s", snapshot)
	if err := m.tool.CloneVM(ctx, vbox.CloneOptions{
		Base:     req.Base,
		Name:     req.Name,
		Group:    m.store.Group(),
		Snapshot: snapshot,
	}); err != nil {
		return err
	}

	configured := false
	defer func() {
		if err != nil && !configured {
			cleanupWithDeps(ctx, req.Name, m.tool, log)
		}
	}()

	// Step 5: Console port and networks
	log.Info("Configuring console port and networks")
	if err = m.tool.ModifyVM(ctx, req.Name, vbox.ModifyOptions{
		ConsolePort:      port,
		InternalNetworks: req.Networks,
	}); err != nil {
		return err
	}

	// Step 6: DMI tags
	log.Info("Setting DMI vendor and SKU")
	if err = m.tool.SetExtraData(ctx, req.Name, naming.ExtraDataDMIVendor, naming.DMIVendor(req.Name)); err != nil {
		return err
	}
	if err = m.tool.SetExtraData(ctx, req.Name, naming.ExtraDataDMISKU, naming.DMISKU(port, req.Networks)); err != nil {
		return err
	}
	configured = true

	// Step 7: Rescan the clone
	rec, found, err := m.scan.RefreshOne(ctx, req.Name)
	if err != nil {
		return fmt.Errorf("failed to rescan clone: %w", err)
	}
	switch {
	case !found:
		log.Warnf("Clone is not in group %s and was not added to the inventory", m.store.Group())
	case !rec.Complete():
		log.Warn("Clone has no console port yet and is not provisioned")
	default:
		log.Info("Clone created successfully")
	}
	return nil
}

// consolePort returns the requested port after checking it is free, or the
// next free one.
func (m *Manager) consolePort(req CloneRequest) (int, error) {
	if req.Port > 0 {
		if owner, used := m.store.PortInUse(req.Port, req.Name); used {
			return 0, fmt.Errorf("port %d is assigned to %s: %w", req.Port, owner, ErrPortInUse)
		}
		return req.Port, nil
	}

	port, err := m.store.NextConsolePort()
	if errors.Is(err, inventory.ErrEmptyInventory) {
		return m.startPort, nil
	}
	return port, err
}

// cleanupWithDeps attempts to remove a half-built clone.
//
// This is best-effort: it logs errors but never returns one.
func cleanupWithDeps(ctx context.Context, name string, tool hostTool, log logrus.FieldLogger) {
	log.Warn("Cleaning up after failed clone")

	// The original context may be what failed; cleanup still runs.
	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}

	if err := tool.UnregisterVM(ctx, name); err != nil {
		log.WithError(err).Warn("Failed to unregister clone")
		return
	}
	log.Info("Cleanup complete")
}
