package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veesix-networks/dhcpagent/pkg/config/system"
	"github.com/veesix-networks/dhcpagent/pkg/dhcp"
)

const sampleConfig = `
logging:
  format: text
  level: info
  components:
    relay: debug
agent:
  remote-id: agent-1
  fdb-timeout: 50ms
interfaces:
  br100:
    dhcp-server: 192.168.3.1
    add-rules:
      - priority: 10
        direction: UP
        operation: GLOB
        additions:
          - order: 1
            option: host-name
            value: {string: relayed}
  br101:
    trusted: e101-001-0
    delete-rules:
      - priority: 1
        direction: UP
        operation: EQ
        option: 82
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "agent-1", cfg.Agent.RemoteID)
	assert.Equal(t, 50*time.Millisecond, cfg.Agent.FDBTimeout)
	assert.Equal(t, 300*time.Second, cfg.Agent.TransactionTTL)
	assert.Equal(t, uint16(67), cfg.Agent.ServerPort)
	assert.Equal(t, system.FDBBackendNetlink, cfg.FDB.Backend)
	assert.Equal(t, ":9469", cfg.Monitoring.Listen)

	records := cfg.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "br100", records[0].Name)
	assert.Equal(t, "192.168.3.1", records[0].DHCPServer)
	assert.Equal(t, "br101", records[1].Name)
	assert.Equal(t, "82", records[1].DeleteRules[0].Option)

	v, err := records[0].AddRules[0].Additions[0].Value.Parse()
	require.NoError(t, err)
	assert.Equal(t, dhcp.String("relayed"), v)
}

func TestValidateRejectsBadSettings(t *testing.T) {
	tests := map[string]string{
		"log format":  "logging: {format: xml}",
		"fdb backend": "fdb: {backend: sysfs}",
		"static mac":  "fdb: {static: [{vlan: 1, mac: nope, port: e1}]}",
		"remote-id":   "agent: {remote-id: " + strings.Repeat("r", system.MaxRemoteIDLength+1) + "}",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestRemoteIDAtLimit(t *testing.T) {
	rid := strings.Repeat("r", system.MaxRemoteIDLength)
	cfg, err := Parse([]byte("agent: {remote-id: " + rid + "}"))
	require.NoError(t, err)
	assert.Equal(t, rid, cfg.Agent.RemoteID)
}

func TestStaticBackendDefault(t *testing.T) {
	cfg, err := Parse([]byte("fdb: {static: [{vlan: 101, mac: '52:54:00:00:00:01', port: e101-002-0}]}"))
	require.NoError(t, err)
	assert.Equal(t, system.FDBBackendStatic, cfg.FDB.Backend)
}

func TestSaveAndLoad(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "agent.yaml")
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Records()[1].Trusted, loaded.Records()[1].Trusted)

	v, err := loaded.Interfaces["br100"].AddRules[0].Additions[0].Value.Parse()
	require.NoError(t, err)
	assert.Equal(t, dhcp.String("relayed"), v)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
