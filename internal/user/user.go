// Package user defines the identities that occupy the lobby: human network
// users and virtual bots share one namespace and one interface.
package user

import (
	"github.com/google/uuid"
)

// Menus recorded in the per-user UI state store.
const (
	MenuMain   = "main_menu"
	MenuInGame = "in_game"
)

// DefaultLocale is used when a user has no locale preference.
const DefaultLocale = "en"

// User is anything that can hold a name in the live registry.
type User interface {
	UUID() string
	Username() string
	Locale() string
	IsBot() bool

	// SpeakL delivers a localized message by id.
	SpeakL(messageID string, fields map[string]any)
	PlaySound(name string)
}

// State is a user's UI/menu state.
type State struct {
	Menu    string
	TableID string
}

// Bot is a User driven by the server itself. It discards all UI output.
type Bot struct {
	uuid     string
	username string
	locale   string
}

// NewBot creates a bot user with a fresh UUID.
func NewBot(name string) *Bot {
	return &Bot{
		uuid:     uuid.NewString(),
		username: name,
		locale:   DefaultLocale,
	}
}

func (b *Bot) UUID() string     { return b.uuid }
func (b *Bot) Username() string { return b.username }
func (b *Bot) Locale() string   { return b.locale }
func (b *Bot) IsBot() bool      { return true }

func (b *Bot) SpeakL(string, map[string]any) {}
func (b *Bot) PlaySound(string)              {}
