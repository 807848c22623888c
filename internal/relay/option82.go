package relay

import "github.com/veesix-networks/dhcpagent/pkg/dhcp"

// maxOptionPayload bounds the relay agent information option; each
// sub-option costs two header bytes.
const maxOptionPayload = 255

// insertOption82 appends a relay agent information option carrying the
// circuit-id and, when set, the remote-id. Nothing is added when an option 82
// already carries the same circuit-id. It reports whether the option was
// added.
//
// The circuit-id is cut to fit a single option and the remote-id is cut to
// the room left after it, or left out when no room remains.
func insertOption82(msg *dhcp.Message, circuitID, remoteID string) bool {
	cid := []byte(circuitID)
	if len(cid) > maxOptionPayload-2 {
		cid = cid[:maxOptionPayload-2]
	}
	for _, v := range msg.GetAll(dhcp.OptionRelayAgentInformation) {
		if info, ok := v.(dhcp.RelayAgentInfo); ok && info.HasSubOption(dhcp.SubOptionCircuitID, cid) {
			return false
		}
	}

	info := dhcp.RelayAgentInfo{{Code: dhcp.SubOptionCircuitID, Data: cid}}
	if room := maxOptionPayload - (2 + len(cid)) - 2; remoteID != "" && room > 0 {
		rid := []byte(remoteID)
		if len(rid) > room {
			rid = rid[:room]
		}
		info = append(info, dhcp.SubOption{Code: dhcp.SubOptionRemoteID, Data: rid})
	}
	msg.Append(dhcp.OptionRelayAgentInformation, info)
	return true
}
