package vbox

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/jbweber/vbsnap/internal/naming"
)

// Client exposes the VBoxManage subcommands vbsnap uses.
type Client struct {
	runner Runner
	log    logrus.FieldLogger
}

// NewClient wraps runner.
func NewClient(runner Runner, log logrus.FieldLogger) *Client {
	return &Client{runner: runner, log: log}
}

// CloneOptions describes a linked clone.
type CloneOptions struct {
	// Base is the machine to clone.
	Base string
	// Name is the new machine name.
	Name string
	// Group is the host group the clone is registered in.
	Group string
	// Snapshot is the base snapshot the clone is linked against.
	Snapshot string
}

// ModifyOptions describes the console and network settings of a clone.
type ModifyOptions struct {
	// ConsolePort is the TCP port UART 1 serves on.
	ConsolePort int
	// InternalNetworks are attached in order starting at adapter 2.
	InternalNetworks []string
}

// ListVMsLong returns the long listing of every registered machine.
func (c *Client) ListVMsLong(ctx context.Context) (string, error) {
	res, err := c.runner.Run(ctx, "list", "--long", "vms")
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// ShowVMInfo returns the long listing of one machine.
func (c *Client) ShowVMInfo(ctx context.Context, name string) (string, error) {
	res, err := c.runner.Run(ctx, "showvminfo", name)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// Import imports an OVA/OVF appliance.
func (c *Client) Import(ctx context.Context, path string) error {
	return c.exec(ctx, "import", path)
}

// TakeSnapshot takes snapshot on machine.
func (c *Client) TakeSnapshot(ctx context.Context, machine, snapshot string) error {
	return c.exec(ctx, "snapshot", machine, "take", snapshot)
}

// DeleteSnapshot deletes snapshot from machine.
func (c *Client) DeleteSnapshot(ctx context.Context, machine, snapshot string) error {
	return c.exec(ctx, "snapshot", machine, "delete", snapshot)
}

// CloneVM creates and registers a linked clone.
func (c *Client) CloneVM(ctx context.Context, opts CloneOptions) error {
	return c.exec(ctx, cloneArgs(opts)...)
}

// ModifyVM sets the console port and internal networks of machine.
func (c *Client) ModifyVM(ctx context.Context, machine string, opts ModifyOptions) error {
	return c.exec(ctx, modifyArgs(machine, opts)...)
}

// SetExtraData sets one extradata key on machine.
func (c *Client) SetExtraData(ctx context.Context, machine, key, value string) error {
	return c.exec(ctx, "setextradata", machine, key, value)
}

// UnregisterVM unregisters machine and deletes its files.
func (c *Client) UnregisterVM(ctx context.Context, machine string) error {
	return c.exec(ctx, "unregistervm", "--delete", machine)
}

// exec runs a mutating subcommand and logs its output.
func (c *Client) exec(ctx context.Context, args ...string) error {
	res, err := c.runner.Run(ctx, args...)
	if res.Stdout != "" {
		c.log.WithField("subcommand", Subcommand(args)).Debug(res.Stdout)
	}
	return err
}

func cloneArgs(opts CloneOptions) []string {
	return []string{
		"clonevm", opts.Base,
		"--groups=" + opts.Group,
		"--name=" + opts.Name,
		"--options=Link",
		"--register",
		"--snapshot", opts.Snapshot,
	}
}

func modifyArgs(machine string, opts ModifyOptions) []string {
	args := []string{"modifyvm", machine, "--uartmode1", "tcpserver", strconv.Itoa(opts.ConsolePort)}
	for i, network := range opts.InternalNetworks {
		nic := naming.CloneNIC(i)
		args = append(args,
			fmt.Sprintf("--nic%d", nic), "intnet",
			fmt.Sprintf("--intnet%d", nic), network,
			fmt.Sprintf("--cableconnected%d", nic), "on",
		)
	}
	return args
}
