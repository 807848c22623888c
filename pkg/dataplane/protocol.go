package dataplane

const (
	ServerPort uint16 = 67
	ClientPort uint16 = 68
)

// Direction is derived from the UDP destination port of a frame.
type Direction uint8

const (
	DirectionUnknown Direction = iota
	// DirectionRequest is client to server traffic, to port 67.
	DirectionRequest
	// DirectionReply is server to client traffic, to port 68.
	DirectionReply
)

func (d Direction) String() string {
	switch d {
	case DirectionRequest:
		return "request"
	case DirectionReply:
		return "reply"
	default:
		return "unknown"
	}
}
