package dhcp

import "encoding/json"

type jsonOption struct {
	Code  uint8  `json:"code"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

type jsonMessage struct {
	Op          uint8        `json:"op"`
	HType       uint8        `json:"htype"`
	HLen        uint8        `json:"hlen"`
	Hops        uint8        `json:"hops"`
	XID         uint32       `json:"xid"`
	Secs        uint16       `json:"secs"`
	Flags       uint16       `json:"flags"`
	CIAddr      string       `json:"ciaddr"`
	YIAddr      string       `json:"yiaddr"`
	SIAddr      string       `json:"siaddr"`
	GIAddr      string       `json:"giaddr"`
	CHAddr      string       `json:"chaddr"`
	SName       string       `json:"sname"`
	File        string       `json:"file"`
	MessageType string       `json:"message_type,omitempty"`
	Options     []jsonOption `json:"options"`
}

func (m *Message) MarshalJSON() ([]byte, error) {
	out := jsonMessage{
		Op:      m.Op,
		HType:   m.HType,
		HLen:    m.HLen,
		Hops:    m.Hops,
		XID:     m.XID,
		Secs:    m.Secs,
		Flags:   m.Flags,
		CIAddr:  AddressFrom(m.CIAddr).String(),
		YIAddr:  AddressFrom(m.YIAddr).String(),
		SIAddr:  AddressFrom(m.SIAddr).String(),
		GIAddr:  AddressFrom(m.GIAddr).String(),
		CHAddr:  m.ClientMAC().String(),
		SName:   m.ServerName(),
		File:    m.BootFile(),
		Options: make([]jsonOption, 0, len(m.Options)),
	}
	if mt := m.MessageType(); mt != 0 {
		out.MessageType = mt.String()
	}
	for _, opt := range m.Options {
		out.Options = append(out.Options, jsonOption{
			Code:  opt.Code,
			Name:  OptionName(opt.Code),
			Kind:  opt.Value.Kind().String(),
			Value: opt.Value.String(),
		})
	}
	return json.Marshal(out)
}
