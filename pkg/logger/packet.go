package logger

import (
	"fmt"
	"log/slog"
)

// PacketAttrs identifies a DHCP exchange in log records.
type PacketAttrs struct {
	XID       uint32
	MAC       string
	Interface string
	Direction string
	Mode      string
}

// WithPacket returns l annotated with the non-zero fields of attrs.
func WithPacket(l *slog.Logger, attrs PacketAttrs) *slog.Logger {
	args := make([]any, 0, 10)
	if attrs.XID != 0 {
		args = append(args, "xid", fmt.Sprintf("0x%08x", attrs.XID))
	}
	if attrs.MAC != "" {
		args = append(args, "mac", attrs.MAC)
	}
	if attrs.Interface != "" {
		args = append(args, "interface", attrs.Interface)
	}
	if attrs.Direction != "" {
		args = append(args, "direction", attrs.Direction)
	}
	if attrs.Mode != "" {
		args = append(args, "mode", attrs.Mode)
	}
	return l.With(args...)
}
