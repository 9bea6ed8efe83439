// Package session holds per-visitor chat state: the conversation, the
// typing flag, the theme and the selected model.
package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/papercomputeco/parley/pkg/catalog"
	"github.com/papercomputeco/parley/pkg/llm"
)

// DefaultGreeting opens every new conversation.
const DefaultGreeting = "Hi, I'm your local chatbot. Ask me anything!"

// Options seeds new sessions.
type Options struct {
	// Greeting is the first assistant turn. Empty disables it.
	Greeting string

	// Model is the initially selected model.
	Model string

	// DarkMode is the initial theme.
	DarkMode bool
}

// State is a single visitor's chat session.
type State struct {
	ID       string     `json:"id"`
	Messages []llm.Turn `json:"messages"`

	// Typing is set between a submitted user message and the model's reply
	Typing bool `json:"typing"`

	DarkMode bool   `json:"dark_mode"`
	Model    string `json:"model"`

	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`

	// seq advances on every submit and clear. A claim is only valid for the
	// seq it was taken at.
	seq      uint64
	replying bool
}

// Claim is a pending message taken by BeginReply. Hand it back to Respond
// with the model's reply.
type Claim struct {
	Message string
	History []llm.Turn

	seq uint64
}

// NewState creates a session seeded from the options.
func NewState(id string, o Options) *State {
	now := time.Now()
	s := &State{
		ID:        id,
		DarkMode:  o.DarkMode,
		Model:     o.Model,
		CreatedAt: now,
		LastSeen:  now,
	}

	if o.Greeting != "" {
		s.Messages = append(s.Messages, llm.NewTurnAt(llm.RoleAssistant, o.Greeting, now))
	}

	return s
}

// Submit appends a user message and marks the session as waiting for a
// reply. Blank input is ignored and reports false.
func (s *State) Submit(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	s.Messages = append(s.Messages, llm.NewTurn(llm.RoleUser, text))
	s.Typing = true
	s.seq++
	s.replying = false
	return true
}

// Pending returns the user message waiting for a reply and the turns that
// precede it.
func (s *State) Pending() (string, []llm.Turn, bool) {
	if !s.Typing || len(s.Messages) == 0 {
		return "", nil, false
	}

	last := s.Messages[len(s.Messages)-1]
	if !last.IsUser() {
		return "", nil, false
	}

	history := make([]llm.Turn, len(s.Messages)-1)
	copy(history, s.Messages[:len(s.Messages)-1])
	return last.Content, history, true
}

// BeginReply claims the pending message. A second caller gets false until
// the next Submit.
func (s *State) BeginReply() (Claim, bool) {
	if s.replying {
		return Claim{}, false
	}

	message, history, ok := s.Pending()
	if !ok {
		return Claim{}, false
	}

	s.replying = true
	return Claim{Message: message, History: history, seq: s.seq}, true
}

// Respond appends the assistant reply for claim and clears the typing flag.
// The reply is dropped, reporting false, when the conversation moved on
// after the claim was taken: it was cleared or a newer message was submitted.
func (s *State) Respond(claim Claim, reply string) bool {
	if !s.Typing || claim.seq != s.seq {
		return false
	}

	s.Messages = append(s.Messages, llm.NewTurn(llm.RoleAssistant, reply))
	s.Typing = false
	s.replying = false
	return true
}

// Clear drops the whole conversation.
func (s *State) Clear() {
	s.Messages = nil
	s.Typing = false
	s.seq++
	s.replying = false
}

// SetModel selects a model from the catalog.
func (s *State) SetModel(c *catalog.Catalog, name string) error {
	if !c.Has(name) {
		return fmt.Errorf("selecting model: %w: %q", catalog.ErrUnknownModel, name)
	}
	s.Model = name
	return nil
}

// SetDarkMode switches the theme.
func (s *State) SetDarkMode(dark bool) {
	s.DarkMode = dark
}

// Clone returns a deep copy safe to read outside the store lock.
func (s *State) Clone() *State {
	c := *s
	c.Messages = make([]llm.Turn, len(s.Messages))
	copy(c.Messages, s.Messages)
	return &c
}
