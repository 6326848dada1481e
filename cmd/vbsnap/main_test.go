package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbweber/vbsnap/internal/config"
	"github.com/jbweber/vbsnap/internal/machine"
)

const fakeListing = `Name:            base1
Groups:          /LinuxNetwork
UART 1:          I/O base: 0x03f8, IRQ: 4, attached to tcp server port '3000'
Name:            clone1
Groups:          /LinuxNetwork
NIC 2:           MAC: 080027AABB02, Attachment: Internal Network 'net-a', Cable connected: on
UART 1:          I/O base: 0x03f8, IRQ: 4, attached to tcp server port '3001'
`

// fakeVBoxManage writes a script that prints fakeListing for "list" and
// records every other call in calls.log.
func fakeVBoxManage(t *testing.T) (tool, calls string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tool is a shell script")
	}

	dir := t.TempDir()
	tool = filepath.Join(dir, "VBoxManage")
	calls = filepath.Join(dir, "calls.log")
	script := "#!/bin/sh\n" +
		"if [ \"$1\" = list ]; then\ncat <<'EOF'\n" + fakeListing + "EOF\nexit 0\nfi\n" +
		"echo \"$@\" >> '" + calls + "'\n"
	require.NoError(t, os.WriteFile(tool, []byte(script), 0755))
	return tool, calls
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func readInventory(t *testing.T, path string) machine.Inventory {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var inv machine.Inventory
	require.NoError(t, json.Unmarshal(data, &inv))
	return inv
}

func TestRoot_ScanPersistsInventory(t *testing.T) {
	tool, _ := fakeVBoxManage(t)
	db := filepath.Join(t.TempDir(), "inventory.json")

	require.NoError(t, execute(t, "--vboxmanage", tool, "--db", db, "--log-level", "error", "list"))

	inv := readInventory(t, db)
	assert.Equal(t, "/LinuxNetwork", inv.Group)
	require.Len(t, inv.Machines, 2)
	assert.Equal(t, "clone1", inv.Machines[1].Name)
	assert.Equal(t, machine.Networks{"eth1": "net-a"}, inv.Machines[1].Networks)
}

func TestRoot_EraseAllReachesClassifier(t *testing.T) {
	tool, calls := fakeVBoxManage(t)
	db := filepath.Join(t.TempDir(), "inventory.json")

	require.NoError(t, execute(t, "--vboxmanage", tool, "--db", db, "--log-level", "error", "erase", "--all"))

	assert.Empty(t, readInventory(t, db).Machines)
	data, err := os.ReadFile(calls)
	require.NoError(t, err)
	assert.Equal(t, "unregistervm --delete clone1\nunregistervm --delete base1\n", string(data))
}

func TestRoot_InvalidConfig(t *testing.T) {
	err := execute(t, "--output", "xml", "list")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")

	// Reset for other tests sharing the command.
	require.NoError(t, rootCmd.Flags().Set("output", "text"))
}

func TestRoot_WriteConfig(t *testing.T) {
	tool, calls := fakeVBoxManage(t)
	path := filepath.Join(t.TempDir(), "vbsnap", "config.yaml")
	t.Cleanup(func() { _ = rootCmd.Flags().Set("write-config", "") })

	require.NoError(t, execute(t,
		"--vboxmanage", tool,
		"--db", "/srv/vbsnap/inventory.json",
		"--start-port", "4100",
		"--log-level", "error",
		"--write-config", path,
	))

	cfg, err := config.Load(config.NewViper(), path)
	require.NoError(t, err)
	assert.Equal(t, tool, cfg.VBoxManage)
	assert.Equal(t, "/srv/vbsnap/inventory.json", cfg.DB)
	assert.Equal(t, 4100, cfg.StartPort)
	assert.Equal(t, "error", cfg.LogLevel)

	_, err = os.Stat(calls)
	assert.ErrorIs(t, err, os.ErrNotExist, "writing the config runs no VBoxManage command")
	_, err = os.Stat("/srv/vbsnap/inventory.json")
	assert.ErrorIs(t, err, os.ErrNotExist, "writing the config touches no inventory")
}
