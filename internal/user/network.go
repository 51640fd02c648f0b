package user

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Packet types sent to clients.
const (
	PacketSpeak     = "speak"
	PacketPlaySound = "play_sound"
)

// Packet is one outbound message for a client.
type Packet struct {
	Type string
	Data map[string]any
}

// Sender delivers packets to a connected client. The transport behind it is
// owned by the network layer.
type Sender interface {
	Send(p Packet) error
}

// NetworkUser is a human connected through the network layer.
type NetworkUser struct {
	uuid     string
	username string
	locale   string
	sender   Sender
}

// NewNetworkUser creates a human user that writes to sender.
func NewNetworkUser(name, locale string, sender Sender) *NetworkUser {
	if locale == "" {
		locale = DefaultLocale
	}
	return &NetworkUser{
		uuid:     uuid.NewString(),
		username: name,
		locale:   locale,
		sender:   sender,
	}
}

func (u *NetworkUser) UUID() string     { return u.uuid }
func (u *NetworkUser) Username() string { return u.username }
func (u *NetworkUser) Locale() string   { return u.locale }
func (u *NetworkUser) IsBot() bool      { return false }

// SpeakL sends a localized speech packet; the client resolves the text.
func (u *NetworkUser) SpeakL(messageID string, fields map[string]any) {
	data := map[string]any{"message_id": messageID}
	if len(fields) > 0 {
		data["fields"] = fields
	}
	u.send(Packet{Type: PacketSpeak, Data: data})
}

// PlaySound sends a sound packet.
func (u *NetworkUser) PlaySound(name string) {
	u.send(Packet{Type: PacketPlaySound, Data: map[string]any{"name": name}})
}

func (u *NetworkUser) send(p Packet) {
	if u.sender == nil {
		return
	}
	if err := u.sender.Send(p); err != nil {
		log.Debug().Err(err).Str("user", u.username).Str("packet", p.Type).Msg("Dropped packet")
	}
}
