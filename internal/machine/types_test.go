package machine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_Complete(t *testing.T) {
	assert.False(t, Record{Name: "base1"}.Complete())
	assert.True(t, Record{Name: "base1", ConsolePort: 3000}.Complete())
}

func TestRecord_CloneIsDeep(t *testing.T) {
	orig := Record{
		Name:      "clone1",
		Networks:  Networks{"eth1": "net-a"},
		Snapshots: []string{"s1"},
	}

	cp := orig.Clone()
	cp.Networks["eth1"] = "changed"
	cp.Snapshots[0] = "changed"

	assert.Equal(t, "net-a", orig.Networks["eth1"])
	assert.Equal(t, "s1", orig.Snapshots[0])
}

func TestNetworks_KeysSorted(t *testing.T) {
	n := Networks{"eth3": "c", "eth1": "a", "eth2": "b"}
	assert.Equal(t, []string{"eth1", "eth2", "eth3"}, n.Keys())
}

func TestRecord_JSONKeysCompatible(t *testing.T) {
	// Cache files written by the previous tool use "uart" for the port and
	// omit networks/snapshots when the machine has none.
	legacy := `{"name": "base1", "group": "/LinuxNetwork", "uart": 3000}`

	var rec Record
	require.NoError(t, json.Unmarshal([]byte(legacy), &rec))
	assert.Equal(t, "base1", rec.Name)
	assert.Equal(t, 3000, rec.ConsolePort)
	assert.Nil(t, rec.Networks)
	assert.Nil(t, rec.Snapshots)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, legacy, string(data))
}
