package relay

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veesix-networks/dhcpagent/pkg/dhcp"
)

func TestInsertOption82Fits(t *testing.T) {
	tests := []struct {
		name      string
		circuitID string
		remoteID  string
		wantCID   int
		wantRID   int
		hasRID    bool
	}{
		{"short", "br100", "agent-1", 5, 7, true},
		{"no remote-id", "br100", "", 5, 0, false},
		{"remote-id cut", "br100", strings.Repeat("r", 255), 5, 246, true},
		{"no room for remote-id", strings.Repeat("c", 251), "agent-1", 251, 0, false},
		{"circuit-id cut", strings.Repeat("c", 300), "agent-1", 253, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &dhcp.Message{Op: dhcp.OpBootRequest}
			require.True(t, insertOption82(msg, tt.circuitID, tt.remoteID))

			v, ok := msg.Get(dhcp.OptionRelayAgentInformation)
			require.True(t, ok)
			info := v.(dhcp.RelayAgentInfo)
			assert.LessOrEqual(t, len(info.Bytes()), 255)

			cid, _ := info.Get(dhcp.SubOptionCircuitID)
			assert.Len(t, cid, tt.wantCID)
			rid, ok := info.Get(dhcp.SubOptionRemoteID)
			assert.Equal(t, tt.hasRID, ok)
			assert.Len(t, rid, tt.wantRID)

			_, err := dhcp.Encode(msg)
			assert.NoError(t, err)
		})
	}
}
