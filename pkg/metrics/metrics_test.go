package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veesix-networks/dhcpagent/pkg/logger"
)

func TestAgentCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := NewAgent(reg)

	a.Packet("br100", "UP", "relay")
	a.Packet("br100", "UP", "relay")
	a.MalformedPacket()
	a.FDBMiss("br101")
	a.ConfigLoad(true, 7)
	a.ConfigLoad(false, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(a.Packets.WithLabelValues("br100", "UP", "relay")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Malformed))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.FDBMisses.WithLabelValues("br101")))
	assert.Equal(t, 7.0, testutil.ToFloat64(a.Generation))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.ConfigLoads.WithLabelValues("rejected")))
}

func TestNilAgentIsNoop(t *testing.T) {
	var a *Agent
	a.Packet("x", "UP", "relay")
	a.Drop("malformed")
	a.ConfigLoad(true, 1)
}

func TestHandlerCollector(t *testing.T) {
	handlers, err := DefaultRegistry().CreateHandlers(logger.Get(logger.Monitor), Sources{
		Interfaces: func() []InterfaceInfo {
			return []InterfaceInfo{{Name: "br100", Mode: "relay", Target: "192.168.3.1"}}
		},
		PendingTransactions: func() int { return 3 },
	})
	require.NoError(t, err)
	require.Len(t, handlers, 2)

	reg := prometheus.NewRegistry()
	reg.MustRegister(NewCollector(logger.Get(logger.Monitor), handlers))

	expected := `
# HELP dhcpagent_pending_transactions Relayed requests waiting for a server reply
# TYPE dhcpagent_pending_transactions gauge
dhcpagent_pending_transactions 3
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "dhcpagent_pending_transactions"))

	n, err := testutil.GatherAndCount(reg, "dhcpagent_interface_info")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
