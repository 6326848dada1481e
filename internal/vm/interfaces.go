package vm

import (
	"context"

	"github.com/jbweber/vbsnap/internal/machine"
	"github.com/jbweber/vbsnap/internal/vbox"
)

// hostTool defines the VBoxManage operations needed for machine management.
// This wraps operations from *vbox.Client to allow for testing.
//
// In production, this is satisfied by *vbox.Client.
// In tests, this is satisfied by mock implementations.
type hostTool interface {
	// Import imports an OVA/OVF appliance
	Import(ctx context.Context, path string) error

	// TakeSnapshot takes a snapshot of a machine
	TakeSnapshot(ctx context.Context, machine, snapshot string) error

	// DeleteSnapshot deletes a snapshot of a machine
	DeleteSnapshot(ctx context.Context, machine, snapshot string) error

	// CloneVM creates and registers a linked clone
	CloneVM(ctx context.Context, opts vbox.CloneOptions) error

	// ModifyVM sets the console port and internal networks of a machine
	ModifyVM(ctx context.Context, machine string, opts vbox.ModifyOptions) error

	// SetExtraData sets one extradata key on a machine
	SetExtraData(ctx context.Context, machine, key, value string) error

	// UnregisterVM unregisters a machine and deletes its files
	UnregisterVM(ctx context.Context, machine string) error
}

// refresher defines the inventory rescans the operations trigger.
//
// In production, this is satisfied by *reconcile.Reconciler.
// In tests, this is satisfied by a reconciler over a fake host.
type refresher interface {
	// Refresh rescans every machine on the host
	Refresh(ctx context.Context) error

	// RefreshOne rescans a single machine
	RefreshOne(ctx context.Context, name string) (machine.Record, bool, error)
}
