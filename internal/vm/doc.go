// Package vm provides high-level machine pool operations.
//
// This package orchestrates the lower-level components (the VBoxManage
// client, the reconciler and the inventory store) to provide the operations
// vbsnap exposes on the command line:
//   - Import: Import an OVA/OVF appliance and rescan the host
//   - Show / List: Print one or all known machines
//   - Clone: Create a linked clone with a console port and internal networks
//   - Erase / EraseAll: Delete snapshots, unregister and forget machines
//
// Error Handling:
//
// A VBoxManage failure aborts the operation before the inventory is
// changed. If a clone fails after the clone itself was registered, the
// package attempts to unregister and delete it again. Cleanup errors are
// logged but do not replace the original error.
//
// Context Support:
//
// Operations that call VBoxManage accept a context.Context for cancellation.
// If the context is cancelled during a clone, cleanup is still attempted.
package vm
