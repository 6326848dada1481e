package vm

import (
	"errors"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/jbweber/vbsnap/internal/inventory"
	"github.com/jbweber/vbsnap/internal/output"
	"github.com/jbweber/vbsnap/internal/reconcile"
	"github.com/jbweber/vbsnap/internal/vbox"
)

var (
	// ErrPortInUse is returned when a clone asks for a console port another
	// machine already has.
	ErrPortInUse = errors.New("console port already in use")

	// ErrAlreadyExists is returned when a clone name is already known.
	ErrAlreadyExists = errors.New("machine already exists")
)

// DefaultStartPort is the console port handed out when the inventory has no
// machine to count up from.
const DefaultStartPort = 3000

// Options configures a Manager.
type Options struct {
	// Formatter renders Show and List output. Defaults to text.
	Formatter output.Formatter
	// Out receives Show and List output. Defaults to stdout.
	Out io.Writer
	// StartPort is used when the inventory is empty. Defaults to
	// DefaultStartPort.
	StartPort int
	// Log receives progress messages.
	Log logrus.FieldLogger
}

// Manager runs machine operations against the host and keeps the
// inventory up to date.
type Manager struct {
	tool      hostTool
	scan      refresher
	store     *inventory.Store
	formatter output.Formatter
	out       io.Writer
	startPort int
	log       logrus.FieldLogger
}

// NewManager creates a Manager backed by a VBoxManage client and a
// reconciler over the same store.
func NewManager(client *vbox.Client, rec *reconcile.Reconciler, store *inventory.Store, opts Options) *Manager {
	return newManagerWithDeps(client, rec, store, opts)
}

// newManagerWithDeps creates a Manager with injected dependencies.
// This allows for testing by accepting interfaces instead of concrete types.
func newManagerWithDeps(tool hostTool, scan refresher, store *inventory.Store, opts Options) *Manager {
	if opts.Formatter == nil {
		opts.Formatter = &output.TextFormatter{}
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.StartPort == 0 {
		opts.StartPort = DefaultStartPort
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	return &Manager{
		tool:      tool,
		scan:      scan,
		store:     store,
		formatter: opts.Formatter,
		out:       opts.Out,
		startPort: opts.StartPort,
		log:       opts.Log,
	}
}

// Known reports whether name is in the inventory.
func (m *Manager) Known(name string) bool {
	return m.store.Has(name)
}
