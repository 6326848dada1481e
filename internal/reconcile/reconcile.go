// Package reconcile keeps the inventory in line with the machines the host
// actually has registered.
package reconcile

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/jbweber/vbsnap/internal/inventory"
	"github.com/jbweber/vbsnap/internal/machine"
	"github.com/jbweber/vbsnap/internal/parser"
	"github.com/jbweber/vbsnap/internal/vbox"
)

// lister reads machine listings from the host.
//
// In production, this is satisfied by *vbox.Client.
// In tests, this is satisfied by mock implementations.
type lister interface {
	// ListVMsLong returns the long listing of every registered machine
	ListVMsLong(ctx context.Context) (string, error)

	// ShowVMInfo returns the long listing of one machine
	ShowVMInfo(ctx context.Context, name string) (string, error)
}

// Options tune a Reconciler.
type Options struct {
	// Prune removes records for machines that no longer appear in a full
	// host listing.
	Prune bool
}

// Reconciler merges host listings into an inventory store.
type Reconciler struct {
	tool  lister
	store *inventory.Store
	log   logrus.FieldLogger
	opts  Options
}

// New returns a Reconciler that scans with tool and writes into store.
func New(tool lister, store *inventory.Store, log logrus.FieldLogger, opts Options) *Reconciler {
	return &Reconciler{tool: tool, store: store, log: log, opts: opts}
}

// Refresh re-reads every machine from the host and upserts those in the
// store's group, then persists.
//
// A tool failure is logged and returned with the store untouched. The whole
// listing is parsed before anything is merged, so malformed output also
// leaves the store untouched.
func (r *Reconciler) Refresh(ctx context.Context) error {
	r.log.Debugf("Scanning host for machines in group %s", r.store.Group())

	out, err := r.tool.ListVMsLong(ctx)
	if err != nil {
		r.log.WithError(err).WithField("stderr", vbox.ToolStderr(err)).Error("Failed to list machines")
		return err
	}

	records, err := parser.ParseAll(out, r.store.Group())
	if err != nil {
		return fmt.Errorf("failed to parse machine listing: %w", err)
	}

	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		r.store.Upsert(rec)
		seen[rec.Name] = true
	}

	if r.opts.Prune {
		for _, name := range r.store.Names() {
			if seen[name] {
				continue
			}
			r.log.WithField("machine", name).Info("Removing machine no longer registered on the host")
			if err := r.store.Delete(name); err != nil {
				return fmt.Errorf("failed to prune %s: %w", name, err)
			}
		}
	}

	r.log.Debugf("Scan found %d machine(s)", len(records))
	return r.store.Persist()
}

// RefreshOne re-reads a single machine and upserts it when it is in the
// store's group. The returned bool reports whether it was.
func (r *Reconciler) RefreshOne(ctx context.Context, name string) (machine.Record, bool, error) {
	log := r.log.WithField("machine", name)

	out, err := r.tool.ShowVMInfo(ctx, name)
	if err != nil {
		log.WithError(err).WithField("stderr", vbox.ToolStderr(err)).Error("Failed to read machine info")
		return machine.Record{}, false, err
	}

	records, err := parser.ParseAll(out, r.store.Group())
	if err != nil {
		return machine.Record{}, false, fmt.Errorf("failed to parse info for %s: %w", name, err)
	}

	for _, rec := range records {
		if rec.Name != name {
			continue
		}
		r.store.Upsert(rec)
		if err := r.store.Persist(); err != nil {
			return rec, true, err
		}
		return rec, true, nil
	}

	log.Debugf("Machine is not in group %s", r.store.Group())
	return machine.Record{}, false, nil
}
