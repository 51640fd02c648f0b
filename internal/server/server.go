// Package server holds the live lobby state shared by human sessions and
// virtual bots: the username registry and the per-user UI state store.
package server

import (
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"game-lobby-server/internal/pkg/lock"
	"game-lobby-server/internal/user"
)

// Presence message ids and sounds.
const (
	MessageUserOnline   = "user-online"
	MessageUserOffline  = "user-offline"
	MessageTableCreated = "table-created"

	SoundOnline  = "online.ogg"
	SoundOffline = "offline.ogg"
	SoundNotify  = "notify.ogg"
)

// Common errors for session operations.
var (
	ErrNameTaken   = errors.New("username already in use")
	ErrInvalidName = errors.New("invalid username")
)

// Server is the live user registry.
type Server struct {
	mu     sync.RWMutex
	users  map[string]user.User
	states map[string]user.State

	names *lock.NameLock
}

// New creates an empty server.
func New() *Server {
	return &Server{
		users:  make(map[string]user.User),
		states: make(map[string]user.State),
		names:  lock.NewNameLock(),
	}
}

// GetUser returns the user registered under name, or nil.
func (s *Server) GetUser(name string) user.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users[name]
}

// Users returns every registered user sorted by name.
func (s *Server) Users() []user.User {
	s.mu.RLock()
	out := make([]user.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Username() < out[j].Username() })
	return out
}

// SetUserState records the UI state for name.
func (s *Server) SetUserState(name string, st user.State) {
	s.mu.Lock()
	s.states[name] = st
	s.mu.Unlock()
}

// UserState returns the UI state for name.
func (s *Server) UserState(name string) (user.State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[name]
	return st, ok
}

// ClaimBotName registers the bot u unless a human holds its name. A bot
// already registered under the name is kept and returned instead of u.
func (s *Server) ClaimBotName(u user.User) (user.User, bool) {
	name := u.Username()
	var (
		held    user.User
		claimed bool
	)
	_ = s.names.WithLock(name, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()

		existing, ok := s.users[name]
		switch {
		case !ok:
			s.users[name] = u
			held, claimed = u, true
		case existing.IsBot():
			held, claimed = existing, true
		default:
			held = existing
		}
		return nil
	})
	return held, claimed
}

// RemoveBot drops the entry and UI state for name if a bot holds it.
func (s *Server) RemoveBot(name string) bool {
	removed := false
	_ = s.names.WithLock(name, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if u, ok := s.users[name]; ok && u.IsBot() {
			delete(s.users, name)
			delete(s.states, name)
			removed = true
		}
		return nil
	})
	return removed
}

// Login registers a human session. A name held by a bot is taken over; a name
// held by another human is refused.
func (s *Server) Login(u user.User) error {
	name := u.Username()
	if name == "" {
		return ErrInvalidName
	}

	var displaced bool
	err := s.names.WithLock(name, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()

		if existing, ok := s.users[name]; ok {
			if !existing.IsBot() {
				return ErrNameTaken
			}
			displaced = true
		}
		s.users[name] = u
		s.states[name] = user.State{Menu: user.MenuMain}
		return nil
	})
	if err != nil {
		return err
	}

	if displaced {
		// the bot manager notices on its next tick
		log.Warn().Str("user", name).Msg("Human login displaced a virtual bot")
	}

	log.Info().Str("user", name).Msg("User logged in")
	s.BroadcastPresence(MessageUserOnline, name, SoundOnline)
	return nil
}

// Logout removes a human session. Bot entries are left alone.
func (s *Server) Logout(name string) {
	removed := false
	_ = s.names.WithLock(name, func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if u, ok := s.users[name]; ok && !u.IsBot() {
			delete(s.users, name)
			delete(s.states, name)
			removed = true
		}
		return nil
	})

	if removed {
		log.Info().Str("user", name).Msg("User logged out")
		s.BroadcastPresence(MessageUserOffline, name, SoundOffline)
	}
}

// BroadcastPresence tells every connected human except the subject that
// username came online or went offline.
func (s *Server) BroadcastPresence(messageID, username, sound string) {
	fields := map[string]any{"player": username}
	for _, u := range s.humans() {
		if u.Username() == username {
			continue
		}
		u.SpeakL(messageID, fields)
		u.PlaySound(sound)
	}
}

// BroadcastTableCreated announces a new table to every connected human.
func (s *Server) BroadcastTableCreated(hostName, gameName string) {
	fields := map[string]any{"host": hostName, "game": gameName}
	for _, u := range s.humans() {
		if u.Username() == hostName {
			continue
		}
		u.SpeakL(MessageTableCreated, fields)
		u.PlaySound(SoundNotify)
	}
}

func (s *Server) humans() []user.User {
	var out []user.User
	for _, u := range s.Users() {
		if !u.IsBot() {
			out = append(out, u)
		}
	}
	return out
}
