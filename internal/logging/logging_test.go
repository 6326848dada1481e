package logging

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer

	log, err := New("warn", &buf)
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, log.GetLevel())

	log.Info("hidden")
	log.WithField("machine", "clone1").Warn("Machine has no console port")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=warning")
	assert.Contains(t, out, "machine=clone1")
	assert.NotContains(t, out, "time=", "timestamps only appear at debug level")
}

func TestNew_DebugHasTimestamps(t *testing.T) {
	var buf bytes.Buffer

	log, err := New("debug", &buf)
	require.NoError(t, err)

	log.Debug("# VBoxManage list --long vms")
	assert.Contains(t, buf.String(), "time=")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New("loud", &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse log level")
}
