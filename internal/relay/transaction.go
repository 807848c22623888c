package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/veesix-networks/dhcpagent/pkg/cache"
)

// transaction remembers where a request came from so that the matching
// reply can be returned to it.
type transaction struct {
	Interface string     `json:"interface"`
	Mode      string     `json:"mode"`
	MAC       string     `json:"mac"`
	GIAddr    netip.Addr `json:"giaddr"`
	Port      string     `json:"port,omitempty"`
	Created   time.Time  `json:"created"`
}

func transactionKey(xid uint32, mac net.HardwareAddr) string {
	return fmt.Sprintf("dhcpagent:txn:%08x:%s", xid, mac.String())
}

func (d *Dispatcher) remember(ctx context.Context, xid uint32, mac net.HardwareAddr, t transaction) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return d.transactions.Set(ctx, transactionKey(xid, mac), data, d.transactionTTL)
}

// recall returns and consumes the transaction for a reply. It returns
// ErrNoTransaction when none is pending.
func (d *Dispatcher) recall(ctx context.Context, xid uint32, mac net.HardwareAddr) (*transaction, error) {
	data, err := d.transactions.Take(ctx, transactionKey(xid, mac))
	if errors.Is(err, cache.ErrNotFound) {
		return nil, ErrNoTransaction
	}
	if err != nil {
		return nil, err
	}

	var t transaction
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	return &t, nil
}
