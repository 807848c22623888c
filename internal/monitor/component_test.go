package monitor

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veesix-networks/dhcpagent/pkg/metrics"
)

func TestExporterServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	agent := metrics.NewAgent(reg)
	agent.Packet("br100", "up", "relay")

	c := New(Config{
		Listen:   "127.0.0.1:0",
		Registry: reg,
		Sources: metrics.Sources{
			Interfaces: func() []metrics.InterfaceInfo {
				return []metrics.InterfaceInfo{{Name: "br100", Mode: "relay", Target: "192.168.3.1"}}
			},
			PendingTransactions: func() int { return 3 },
		},
	})
	require.NoError(t, c.Start(context.Background()))
	defer c.Stop(context.Background())

	resp, err := http.Get("http://" + c.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Contains(t, text, `dhcpagent_packets_total{direction="up",interface="br100",mode="relay"} 1`)
	assert.Contains(t, text, `dhcpagent_interface_info{interface="br100",mode="relay",target="192.168.3.1"} 1`)
	assert.Contains(t, text, "dhcpagent_pending_transactions 3")
	assert.Contains(t, text, "go_goroutines")
}
