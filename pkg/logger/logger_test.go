package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, logFormat string, level LogLevel, components map[string]LogLevel) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	Configure(logFormat, level, components)
	t.Cleanup(func() {
		SetOutput(os.Stdout)
		Configure(FormatText, LogLevelInfo, nil)
	})
	return &buf
}

func TestTextFormat(t *testing.T) {
	buf := capture(t, FormatText, LogLevelInfo, nil)

	Get(Relay).Info("Relayed request", "interface", "br100", "server", "192.168.3.1", "note", "two words")

	line := buf.String()
	assert.Contains(t, line, " [relay] Relayed request interface=br100 server=192.168.3.1 note=\"two words\"\n")
	assert.True(t, strings.HasPrefix(line, "20"))
}

func TestComponentLevelInheritance(t *testing.T) {
	buf := capture(t, FormatText, LogLevelWarn, map[string]LogLevel{
		"relay":     LogLevelDebug,
		"relay.fdb": LogLevelError,
	})

	Get("relay").Debug("shown")
	Get("relay.option82").Debug("inherited")
	Get("relay.fdb").Warn("hidden")
	Get(Codec).Info("hidden")
	Get(Codec).Warn("default")

	out := buf.String()
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "inherited")
	assert.Contains(t, out, "default")
	assert.NotContains(t, out, "hidden")
}

func TestJSONFormat(t *testing.T) {
	buf := capture(t, FormatJSON, LogLevelInfo, nil)

	l := WithPacket(Get(Dataplane), PacketAttrs{XID: 0x1234, MAC: "02:00:00:00:00:01", Interface: "br100"})
	l.Info("Received request")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "dataplane", rec["component"])
	assert.Equal(t, "Received request", rec["msg"])
	assert.Equal(t, "0x00001234", rec["xid"])
	assert.Equal(t, "br100", rec["interface"])
	assert.NotContains(t, rec, "direction")
}

func TestGroupedAttrs(t *testing.T) {
	buf := capture(t, FormatText, LogLevelInfo, nil)

	Get(Config).WithGroup("load").Info("Applied", "generation", 3)
	assert.Contains(t, buf.String(), "[config] Applied load.generation=3\n")
}
