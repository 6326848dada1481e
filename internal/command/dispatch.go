package command

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/jbweber/vbsnap/internal/vm"
)

// UsageText is printed for Usage, Undefined and "help".
const UsageText = `
    vbsnap - Creation and management of virtual machines

    Usage:
    vbsnap
    vbsnap list
    vbsnap [<image>.ova | <image>.ovf]
    vbsnap <VM>
    vbsnap <BaseVM> <CloneVM>[:<Port>] [<eth1-net> [<eth2-net> [<eth3-net>]]]
    vbsnap erase [--all | <CloneVM>]

    vbsnap --cli - Activate CLI interface
        use cmds without program name
        use 'help' for showing this message
        use 'quit' or Ctrl+D for quit
`

// operations defines the machine operations commands run.
//
// In production, this is satisfied by *vm.Manager.
// In tests, this is satisfied by mock implementations.
type operations interface {
	Known(name string) bool
	Import(ctx context.Context, path string) error
	Show(name string) error
	List() error
	Clone(ctx context.Context, req vm.CloneRequest) error
	Erase(ctx context.Context, name string) error
	EraseAll(ctx context.Context) error
}

// Dispatcher classifies argument lists and runs the resulting commands.
type Dispatcher struct {
	ops   operations
	usage io.Writer
	log   logrus.FieldLogger
}

// NewDispatcher returns a Dispatcher running commands on ops. Usage text is
// written to usage.
func NewDispatcher(ops *vm.Manager, usage io.Writer, log logrus.FieldLogger) *Dispatcher {
	return newDispatcherWithDeps(ops, usage, log)
}

func newDispatcherWithDeps(ops operations, usage io.Writer, log logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{ops: ops, usage: usage, log: log}
}

// Run classifies args against the current inventory and dispatches the
// result.
func (d *Dispatcher) Run(ctx context.Context, args []string) error {
	return d.Dispatch(ctx, Classify(args, d.ops.Known))
}

// Dispatch runs cmd.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) error {
	switch c := cmd.(type) {
	case Usage:
		return d.Usage()
	case List:
		return d.ops.List()
	case Import:
		return d.ops.Import(ctx, c.Path)
	case Show:
		return d.ops.Show(c.Name)
	case Clone:
		return d.ops.Clone(ctx, vm.CloneRequest{
			Base:     c.Base,
			Name:     c.Name,
			Port:     c.Port,
			Networks: c.Networks,
		})
	case Erase:
		return d.ops.Erase(ctx, c.Name)
	case EraseAll:
		return d.ops.EraseAll(ctx)
	case Undefined:
		entry := d.log.WithField("input", c.Input)
		if c.Reason != "" {
			entry = entry.WithField("reason", c.Reason)
		}
		entry.Errorf("Undefined command «%s»", c.Input)
		return d.Usage()
	default:
		return fmt.Errorf("unhandled command %T", cmd)
	}
}

// Usage writes the usage text.
func (d *Dispatcher) Usage() error {
	if _, err := io.WriteString(d.usage, UsageText); err != nil {
		return fmt.Errorf("failed to write usage: %w", err)
	}
	return nil
}
