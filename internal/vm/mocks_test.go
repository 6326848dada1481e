package vm

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jbweber/vbsnap/internal/naming"
	"github.com/jbweber/vbsnap/internal/vbox"
)

// hostMachine is a machine registered on fakeHost.
type hostMachine struct {
	name      string
	group     string
	port      int
	nics      map[int]string // adapter number -> internal network
	snapshots []string
}

// fakeHost keeps the machines a VirtualBox host would have and prints them
// the way "VBoxManage list --long vms" does.
type fakeHost struct {
	mu       sync.Mutex
	machines []*hostMachine
}

func newFakeHost(machines ...*hostMachine) *fakeHost {
	return &fakeHost{machines: machines}
}

func (h *fakeHost) find(name string) *hostMachine {
	for _, hm := range h.machines {
		if hm.name == name {
			return hm
		}
	}
	return nil
}

func (h *fakeHost) remove(name string) {
	for i, hm := range h.machines {
		if hm.name == name {
			h.machines = append(h.machines[:i], h.machines[i+1:]...)
			return
		}
	}
}

func (h *fakeHost) ListVMsLong(_ context.Context) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var b strings.Builder
	for _, hm := range h.machines {
		render(&b, hm)
	}
	return b.String(), nil
}

func (h *fakeHost) ShowVMInfo(_ context.Context, name string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	hm := h.find(name)
	if hm == nil {
		return "", toolError("showvminfo")
	}
	var b strings.Builder
	render(&b, hm)
	return b.String(), nil
}

func render(b *strings.Builder, hm *hostMachine) {
	fmt.Fprintf(b, "Name:                        %s\n", hm.name)
	fmt.Fprintf(b, "Groups:                      %s\n", hm.group)
	fmt.Fprintf(b, "NIC 1:                       MAC: 080027000001, Attachment: NAT, Cable connected: on\n")

	nics := make([]int, 0, len(hm.nics))
	for n := range hm.nics {
		nics = append(nics, n)
	}
	sort.Ints(nics)
	for _, n := range nics {
		fmt.Fprintf(b, "NIC %d:                       MAC: 08002700000%d, Attachment: Internal Network '%s', Cable connected: on\n", n, n, hm.nics[n])
	}

	fmt.Fprintf(b, "UART 1:                      I/O base: 0x03f8, IRQ: 4, attached to tcp server port '%d'\n", hm.port)
	if len(hm.snapshots) > 0 {
		b.WriteString("Snapshots:\n\n")
		for _, s := range hm.snapshots {
			fmt.Fprintf(b, "   Name: %s (UUID: 0d1e2f3a-4b5c-4d6e-8f70-8192a3b4c5d6) *\n", s)
		}
	}
	b.WriteString("\n")
}

func toolError(subcommand string) error {
	return &vbox.ToolError{Tool: "VBoxManage", Args: []string{subcommand}, ExitCode: 1, Stderr: "VBoxManage: error: failed"}
}

// mockHostTool is a mock implementation of the hostTool interface for testing.
// By default every call succeeds and updates host.
type mockHostTool struct {
	mu   sync.Mutex
	host *fakeHost

	// Configurable behavior
	importFunc         func(ctx context.Context, path string) error
	takeSnapshotFunc   func(ctx context.Context, machine, snapshot string) error
	deleteSnapshotFunc func(ctx context.Context, machine, snapshot string) error
	cloneVMFunc        func(ctx context.Context, opts vbox.CloneOptions) error
	modifyVMFunc       func(ctx context.Context, machine string, opts vbox.ModifyOptions) error
	setExtraDataFunc   func(ctx context.Context, machine, key, value string) error
	unregisterVMFunc   func(ctx context.Context, machine string) error

	// Call tracking
	calls               []string // format: "subcommand machine"
	importCalls         []string
	takeSnapshotCalls   []string // format: "machine/snapshot"
	deleteSnapshotCalls []string // format: "machine/snapshot"
	cloneVMCalls        []vbox.CloneOptions
	modifyVMCalls       []vbox.ModifyOptions
	setExtraDataCalls   map[string]string // key -> value
	unregisterVMCalls   []string
}

// newMockHostTool creates a new mock tool operating on host.
func newMockHostTool(host *fakeHost) *mockHostTool {
	m := &mockHostTool{host: host, setExtraDataCalls: map[string]string{}}

	// Default: import registers a machine named after the appliance
	m.importFunc = func(ctx context.Context, path string) error {
		host.mu.Lock()
		defer host.mu.Unlock()
		host.machines = append(host.machines, &hostMachine{
			name:  naming.ApplianceName(path),
			group: "/LinuxNetwork",
			port:  4000,
		})
		return nil
	}

	// Default: snapshots are appended
	m.takeSnapshotFunc = func(ctx context.Context, machine, snapshot string) error {
		host.mu.Lock()
		defer host.mu.Unlock()
		hm := host.find(machine)
		if hm == nil {
			return toolError("snapshot")
		}
		hm.snapshots = append(hm.snapshots, snapshot)
		return nil
	}

	// Default: snapshot is removed
	m.deleteSnapshotFunc = func(ctx context.Context, machine, snapshot string) error {
		host.mu.Lock()
		defer host.mu.Unlock()
		hm := host.find(machine)
		if hm == nil {
			return toolError("snapshot")
		}
		for i, s := range hm.snapshots {
			if s == snapshot {
				hm.snapshots = append(hm.snapshots[:i], hm.snapshots[i+1:]...)
				return nil
			}
		}
		return toolError("snapshot")
	}

	// Default: clone copies the base settings
	m.cloneVMFunc = func(ctx context.Context, opts vbox.CloneOptions) error {
		host.mu.Lock()
		defer host.mu.Unlock()
		base := host.find(opts.Base)
		if base == nil || host.find(opts.Name) != nil {
			return toolError("clonevm")
		}
		nics := map[int]string{}
		for k, v := range base.nics {
			nics[k] = v
		}
		host.machines = append(host.machines, &hostMachine{
			name:  opts.Name,
			group: opts.Group,
			port:  base.port,
			nics:  nics,
		})
		return nil
	}

	// Default: port and networks are applied
	m.modifyVMFunc = func(ctx context.Context, machine string, opts vbox.ModifyOptions) error {
		host.mu.Lock()
		defer host.mu.Unlock()
		hm := host.find(machine)
		if hm == nil {
			return toolError("modifyvm")
		}
		hm.port = opts.ConsolePort
		if hm.nics == nil {
			hm.nics = map[int]string{}
		}
		for i, network := range opts.InternalNetworks {
			hm.nics[naming.CloneNIC(i)] = network
		}
		return nil
	}

	// Default: extradata succeeds
	m.setExtraDataFunc = func(ctx context.Context, machine, key, value string) error {
		return nil
	}

	// Default: machine is removed
	m.unregisterVMFunc = func(ctx context.Context, machine string) error {
		host.mu.Lock()
		defer host.mu.Unlock()
		if host.find(machine) == nil {
			return toolError("unregistervm")
		}
		host.remove(machine)
		return nil
	}

	return m
}

func (m *mockHostTool) Import(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "import "+path)
	m.importCalls = append(m.importCalls, path)
	return m.importFunc(ctx, path)
}

func (m *mockHostTool) TakeSnapshot(ctx context.Context, machine, snapshot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "snapshot-take "+machine)
	m.takeSnapshotCalls = append(m.takeSnapshotCalls, machine+"/"+snapshot)
	return m.takeSnapshotFunc(ctx, machine, snapshot)
}

func (m *mockHostTool) DeleteSnapshot(ctx context.Context, machine, snapshot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "snapshot-delete "+machine)
	m.deleteSnapshotCalls = append(m.deleteSnapshotCalls, machine+"/"+snapshot)
	return m.deleteSnapshotFunc(ctx, machine, snapshot)
}

func (m *mockHostTool) CloneVM(ctx context.Context, opts vbox.CloneOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "clonevm "+opts.Name)
	m.cloneVMCalls = append(m.cloneVMCalls, opts)
	return m.cloneVMFunc(ctx, opts)
}

func (m *mockHostTool) ModifyVM(ctx context.Context, machine string, opts vbox.ModifyOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "modifyvm "+machine)
	m.modifyVMCalls = append(m.modifyVMCalls, opts)
	return m.modifyVMFunc(ctx, machine, opts)
}

func (m *mockHostTool) SetExtraData(ctx context.Context, machine, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "setextradata "+machine)
	m.setExtraDataCalls[key] = value
	return m.setExtraDataFunc(ctx, machine, key, value)
}

func (m *mockHostTool) UnregisterVM(ctx context.Context, machine string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "unregistervm "+machine)
	m.unregisterVMCalls = append(m.unregisterVMCalls, machine)
	return m.unregisterVMFunc(ctx, machine)
}
