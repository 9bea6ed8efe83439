package api

import (
	"bytes"
	"errors"
	"html/template"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/parley/pkg/catalog"
	"github.com/papercomputeco/parley/pkg/eventstream"
	"github.com/papercomputeco/parley/pkg/llm"
	"github.com/papercomputeco/parley/pkg/session"
	"github.com/papercomputeco/parley/pkg/theme"
	"github.com/papercomputeco/parley/pkg/transcript"
	"github.com/papercomputeco/parley/pkg/utils"
	chatweb "github.com/papercomputeco/parley/web/chat"
)

// sessionCookie carries the visitor's session ID.
const sessionCookie = "parley_session"

// pageData is what the chat page template renders.
type pageData struct {
	State       *session.State
	Palette     cssPalette
	Models      []catalog.Model
	Description string
	Version     string
}

// cssPalette marks the palette colours as trusted CSS for html/template.
type cssPalette struct {
	Background template.CSS
	Text       template.CSS
	UserBubble template.CSS
	BotBubble  template.CSS
	Accent     template.CSS
}

func newCSSPalette(p theme.Palette) cssPalette {
	return cssPalette{
		Background: template.CSS(p.Background),
		Text:       template.CSS(p.Text),
		UserBubble: template.CSS(p.UserBubble),
		BotBubble:  template.CSS(p.BotBubble),
		Accent:     template.CSS(p.Accent),
	}
}

// session returns the caller's session, starting one (and setting the
// cookie) when the cookie is missing or stale.
func (s *Server) session(c *fiber.Ctx) *session.State {
	id := c.Cookies(sessionCookie)
	state := s.sessions.GetOrCreate(id)

	if state.ID != id {
		c.Cookie(&fiber.Cookie{
			Name:     sessionCookie,
			Value:    state.ID,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}

	return state
}

// update applies fn to the caller's session.
func (s *Server) update(c *fiber.Ctx, fn func(*session.State) error) (*session.State, error) {
	return s.sessions.Update(s.session(c).ID, fn)
}

func (s *Server) redirectHome(c *fiber.Ctx) error {
	return c.Redirect("/", fiber.StatusSeeOther)
}

// handleIndex renders the chat page.
func (s *Server) handleIndex(c *fiber.Ctx) error {
	state := s.session(c)

	data := pageData{
		State:       state,
		Palette:     newCSSPalette(theme.For(state.DarkMode)),
		Models:      s.catalog.Models(),
		Description: s.catalog.Describe(state.Model),
		Version:     utils.Version,
	}

	var buf bytes.Buffer
	if err := s.page.ExecuteTemplate(&buf, chatweb.PageTemplate, data); err != nil {
		s.logger.Error("rendering chat page", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("failed to render page")
	}

	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

// handleSend appends the user's message and marks the session as typing.
func (s *Server) handleSend(c *fiber.Ctx) error {
	_, err := s.update(c, func(st *session.State) error {
		st.Submit(c.FormValue("message"))
		return nil
	})
	if err != nil {
		return s.sessionError(c, err)
	}
	return s.redirectHome(c)
}

// handleReply answers the pending message, if any. The model call runs
// outside the session lock.
func (s *Server) handleReply(c *fiber.Ctx) error {
	var (
		claim   session.Claim
		model   string
		pending bool
	)

	state, err := s.update(c, func(st *session.State) error {
		claim, pending = st.BeginReply()
		model = st.Model
		return nil
	})
	if err != nil {
		return s.sessionError(c, err)
	}
	if !pending {
		return s.redirectHome(c)
	}

	result := s.chat(c.UserContext(), eventstream.Exchange{
		SessionID: state.ID,
		Source:    eventstream.SourceWeb,
		Model:     model,
	}, claim.Message, claim.History)

	_, err = s.sessions.Update(state.ID, func(st *session.State) error {
		if !st.Respond(claim, result.String()) {
			s.logger.Debug("dropping stale reply", "session_id", st.ID)
		}
		return nil
	})
	if err != nil {
		return s.sessionError(c, err)
	}

	return s.redirectHome(c)
}

// handleClear drops the conversation.
func (s *Server) handleClear(c *fiber.Ctx) error {
	_, err := s.update(c, func(st *session.State) error {
		st.Clear()
		return nil
	})
	if err != nil {
		return s.sessionError(c, err)
	}
	return s.redirectHome(c)
}

// handleTheme switches between the dark and light palettes.
func (s *Server) handleTheme(c *fiber.Ctx) error {
	dark := parseToggle(c.FormValue("dark_mode"))

	_, err := s.update(c, func(st *session.State) error {
		st.SetDarkMode(dark)
		return nil
	})
	if err != nil {
		return s.sessionError(c, err)
	}
	return s.redirectHome(c)
}

// handleModel selects a model from the catalog.
func (s *Server) handleModel(c *fiber.Ctx) error {
	name := c.FormValue("model")

	_, err := s.update(c, func(st *session.State) error {
		return st.SetModel(s.catalog, name)
	})
	if err != nil {
		return s.sessionError(c, err)
	}
	return s.redirectHome(c)
}

// handleDownload serves the conversation as chat_history.txt.
func (s *Server) handleDownload(c *fiber.Ctx) error {
	state := s.session(c)

	c.Set(fiber.HeaderContentType, transcript.ContentType)
	c.Set(fiber.HeaderContentDisposition, transcript.Disposition())
	return c.SendString(transcript.Format(state.Messages))
}

// sessionError maps session failures onto JSON error responses.
func (s *Server) sessionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, catalog.ErrUnknownModel):
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: err.Error()})
	case errors.Is(err, session.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "session not found"})
	default:
		s.logger.Error("updating session", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to update session"})
	}
}

// parseToggle reads a form checkbox or boolean value.
func parseToggle(v string) bool {
	if v == "on" {
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}
