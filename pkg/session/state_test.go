package session_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/catalog"
	"github.com/papercomputeco/parley/pkg/llm"
	"github.com/papercomputeco/parley/pkg/session"
)

var _ = Describe("State", func() {
	var state *session.State

	BeforeEach(func() {
		state = session.NewState("abc", session.Options{
			Greeting: session.DefaultGreeting,
			Model:    "phi3",
			DarkMode: true,
		})
	})

	It("opens with the greeting", func() {
		Expect(state.Messages).To(HaveLen(1))
		Expect(state.Messages[0].Role).To(Equal(llm.RoleAssistant))
		Expect(state.Messages[0].Content).To(Equal(session.DefaultGreeting))
		Expect(state.Typing).To(BeFalse())
		Expect(state.DarkMode).To(BeTrue())
		Expect(state.Model).To(Equal("phi3"))
	})

	It("omits the greeting when it is empty", func() {
		s := session.NewState("x", session.Options{})
		Expect(s.Messages).To(BeEmpty())
	})

	Describe("Submit", func() {
		It("appends the trimmed message and sets typing", func() {
			Expect(state.Submit("  hello  ")).To(BeTrue())
			Expect(state.Messages).To(HaveLen(2))
			Expect(state.Messages[1].Role).To(Equal(llm.RoleUser))
			Expect(state.Messages[1].Content).To(Equal("hello"))
			Expect(state.Typing).To(BeTrue())
		})

		It("ignores blank input", func() {
			Expect(state.Submit("   ")).To(BeFalse())
			Expect(state.Messages).To(HaveLen(1))
			Expect(state.Typing).To(BeFalse())
		})
	})

	Describe("Pending", func() {
		It("returns the last user message and prior turns", func() {
			state.Submit("hi")

			message, history, ok := state.Pending()
			Expect(ok).To(BeTrue())
			Expect(message).To(Equal("hi"))
			Expect(history).To(HaveLen(1))
			Expect(history[0].Content).To(Equal(session.DefaultGreeting))
		})

		It("reports nothing when not typing", func() {
			_, _, ok := state.Pending()
			Expect(ok).To(BeFalse())
		})
	})

	Describe("BeginReply", func() {
		It("claims the pending message once", func() {
			state.Submit("hi")

			claim, ok := state.BeginReply()
			Expect(ok).To(BeTrue())
			Expect(claim.Message).To(Equal("hi"))
			Expect(claim.History).To(HaveLen(1))

			_, ok = state.BeginReply()
			Expect(ok).To(BeFalse())
		})

		It("can be claimed again after the next submit", func() {
			state.Submit("hi")
			claim, _ := state.BeginReply()
			state.Respond(claim, "hello")
			state.Submit("again")

			claim, ok := state.BeginReply()
			Expect(ok).To(BeTrue())
			Expect(claim.Message).To(Equal("again"))
		})
	})

	Describe("Respond", func() {
		It("appends the reply and clears typing", func() {
			state.Submit("hi")
			claim, _ := state.BeginReply()
			Expect(state.Respond(claim, "hello there")).To(BeTrue())

			Expect(state.Messages).To(HaveLen(3))
			Expect(state.Messages[2].Role).To(Equal(llm.RoleAssistant))
			Expect(state.Messages[2].Content).To(Equal("hello there"))
			Expect(state.Typing).To(BeFalse())
		})

		It("drops a reply that arrives after a clear", func() {
			state.Submit("hi")
			claim, _ := state.BeginReply()
			state.Clear()

			Expect(state.Respond(claim, "late")).To(BeFalse())
			Expect(state.Messages).To(BeEmpty())
		})

		It("does not attach a reply from before a clear to the next message", func() {
			state.Submit("first question")
			stale, _ := state.BeginReply()
			state.Clear()
			state.Submit("second question")

			Expect(state.Respond(stale, "answer to first")).To(BeFalse())
			Expect(state.Messages).To(HaveLen(1))
			Expect(state.Messages[0].Content).To(Equal("second question"))
			Expect(state.Typing).To(BeTrue())

			claim, ok := state.BeginReply()
			Expect(ok).To(BeTrue())
			Expect(claim.Message).To(Equal("second question"))
			Expect(state.Respond(claim, "answer to second")).To(BeTrue())
			Expect(state.Messages[1].Content).To(Equal("answer to second"))
		})

		It("drops a claimed reply once a newer message is submitted", func() {
			state.Submit("first")
			stale, _ := state.BeginReply()
			state.Submit("second")

			Expect(state.Respond(stale, "answer to first")).To(BeFalse())

			claim, ok := state.BeginReply()
			Expect(ok).To(BeTrue())
			Expect(claim.Message).To(Equal("second"))
			Expect(claim.History).To(HaveLen(2))
			Expect(state.Respond(claim, "answer to second")).To(BeTrue())
			Expect(state.Messages).To(HaveLen(4))
		})

		It("rejects an empty claim", func() {
			state.Submit("hi")
			Expect(state.Respond(session.Claim{}, "unclaimed")).To(BeFalse())
			Expect(state.Typing).To(BeTrue())
		})
	})

	It("clears without re-adding the greeting", func() {
		state.Submit("hi")
		state.Clear()

		Expect(state.Messages).To(BeEmpty())
		Expect(state.Typing).To(BeFalse())
	})

	Describe("SetModel", func() {
		It("accepts catalog models", func() {
			Expect(state.SetModel(catalog.Default(), "mistral")).To(Succeed())
			Expect(state.Model).To(Equal("mistral"))
		})

		It("rejects unknown models", func() {
			err := state.SetModel(catalog.Default(), "gpt-9")
			Expect(err).To(MatchError(catalog.ErrUnknownModel))
			Expect(state.Model).To(Equal("phi3"))
		})
	})

	It("switches the theme", func() {
		state.SetDarkMode(false)
		Expect(state.DarkMode).To(BeFalse())
	})

	It("clones messages deeply", func() {
		c := state.Clone()
		c.Messages[0].Content = "changed"
		Expect(state.Messages[0].Content).To(Equal(session.DefaultGreeting))
	})
})
