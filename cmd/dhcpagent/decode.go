package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veesix-networks/dhcpagent/pkg/dataplane"
	"github.com/veesix-networks/dhcpagent/pkg/dhcp"
)

var (
	decodeRaw   bool
	decodeFrame bool
)

var decodeCmd = &cobra.Command{
	Use:   "decode FILE|-",
	Short: "Decode a captured DHCP message",
	Long: `Decode a DHCP message and print it as JSON.

The input is read from FILE, or from stdin when FILE is "-". It may be raw
bytes or a hex dump. By default it is a UDP payload; with --frame it is a
whole Ethernet frame.

Examples:
  dhcpagent decode discover.bin
  xxd -p discover.bin | dhcpagent decode -
  dhcpagent decode --frame --raw capture.hex`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd.InOrStdin(), args[0])
		if err != nil {
			return err
		}
		return decode(cmd.OutOrStdout(), data)
	},
}

func init() {
	decodeCmd.Flags().BoolVar(&decodeRaw, "raw", false, "print options as TLV hex only")
	decodeCmd.Flags().BoolVar(&decodeFrame, "frame", false, "input is an Ethernet frame")
}

func readInput(stdin io.Reader, name string) ([]byte, error) {
	var data []byte
	var err error
	if name == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	if text, ok := hexText(data); ok {
		decoded, err := hex.DecodeString(text)
		if err != nil {
			return nil, fmt.Errorf("decode hex: %w", err)
		}
		return decoded, nil
	}
	return data, nil
}

// hexText reports whether data is a hex dump, returning it without
// whitespace.
func hexText(data []byte) (string, bool) {
	fields := bytes.Fields(data)
	if len(fields) == 0 {
		return "", false
	}
	var sb strings.Builder
	for _, f := range fields {
		for _, c := range f {
			switch {
			case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
			default:
				return "", false
			}
		}
		sb.Write(f)
	}
	return sb.String(), true
}

func decode(w io.Writer, data []byte) error {
	if decodeFrame {
		pkt, err := dataplane.Parse(data)
		if err != nil {
			return err
		}
		data = pkt.Payload
	}

	msg, err := dhcp.Decode(data)
	if err != nil {
		return err
	}

	if decodeRaw {
		for _, opt := range msg.Options {
			b := opt.Value.Bytes()
			if opt.Code == dhcp.OptionPad {
				fmt.Fprintln(w, hex.EncodeToString(b))
				continue
			}
			fmt.Fprintf(w, "%02x%02x%s\n", opt.Code, len(b), hex.EncodeToString(b))
		}
		return nil
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(msg)
}
