package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/eventstream"
	"github.com/papercomputeco/parley/pkg/llm"
	"github.com/papercomputeco/parley/pkg/session"
	"github.com/papercomputeco/parley/pkg/worker"
)

// fakeModel records calls and answers with a fixed result. With gate set,
// each call signals started and blocks until gate is closed.
type fakeModel struct {
	mu      sync.Mutex
	result  llm.Result
	calls   int
	message string
	model   string
	history []llm.Turn

	started chan string
	gate    chan struct{}
}

func (f *fakeModel) Chat(_ context.Context, message, model string, history []llm.Turn) llm.Result {
	f.mu.Lock()
	f.calls++
	f.message = message
	f.model = model
	f.history = history
	result := f.result
	f.mu.Unlock()

	if f.gate != nil {
		f.started <- message
		<-f.gate
	}
	return result
}

type collectingPublisher struct {
	mu     sync.Mutex
	events []*eventstream.ExchangeEvent
}

func (p *collectingPublisher) Publish(_ context.Context, e *eventstream.ExchangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *collectingPublisher) Close() error { return nil }

// browser keeps the session cookie between requests like a real client.
type browser struct {
	server *Server
	cookie *http.Cookie
}

func (b *browser) do(req *http.Request) *http.Response {
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}

	resp, err := b.server.app.Test(req, -1)
	Expect(err).NotTo(HaveOccurred())

	for _, c := range resp.Cookies() {
		if c.Name == sessionCookie {
			b.cookie = c
		}
	}
	return resp
}

func (b *browser) get(path string) *http.Response {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) post(path string, form url.Values) *http.Response {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) state() *session.State {
	Expect(b.cookie).NotTo(BeNil())
	state, err := b.server.sessions.Get(b.cookie.Value)
	Expect(err).NotTo(HaveOccurred())
	return state
}

func body(resp *http.Response) string {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	return string(data)
}

var _ = Describe("Server", func() {
	var (
		model  *fakeModel
		pub    *collectingPublisher
		pool   *worker.Pool
		server *Server
		b      *browser
	)

	BeforeEach(func() {
		model = &fakeModel{result: llm.Success("Hello from the model")}
		pub = &collectingPublisher{}

		var err error
		pool, err = worker.NewPool(&worker.Config{Publisher: pub, NumWorkers: 1})
		Expect(err).NotTo(HaveOccurred())

		server, err = NewServer(Config{
			ListenAddr: ":0",
			DarkMode:   true,
			Greeting:   session.DefaultGreeting,
			Pool:       pool,
		}, model)
		Expect(err).NotTo(HaveOccurred())

		b = &browser{server: server}
	})

	AfterEach(func() {
		pool.Close()
	})

	It("rejects a default model outside the catalog", func() {
		_, err := NewServer(Config{DefaultModel: "gpt-9"}, model)
		Expect(err).To(HaveOccurred())
	})

	Describe("GET /ping", func() {
		It("returns pong", func() {
			resp := b.get("/ping")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(body(resp)).To(Equal(`"pong"`))
		})
	})

	Describe("GET /", func() {
		It("starts a session and renders the greeting in the dark theme", func() {
			resp := b.get("/")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(ContainSubstring("text/html"))
			Expect(b.cookie).NotTo(BeNil())

			page := body(resp)
			Expect(page).To(ContainSubstring("Hi, I&#39;m your local chatbot. Ask me anything!"))
			Expect(page).To(ContainSubstring("#121212"))
			Expect(page).To(ContainSubstring("Chatting with phi3"))
			Expect(page).To(ContainSubstring("Small, fast &amp; efficient. Best for Q&amp;A."))
		})

		It("keeps the same session across requests", func() {
			b.get("/")
			first := b.cookie.Value

			b.get("/")
			Expect(b.cookie.Value).To(Equal(first))
			Expect(server.sessions.Len()).To(Equal(1))
		})

		It("escapes message content", func() {
			b.get("/")
			b.post("/send", url.Values{"message": {"<script>alert(1)</script>"}})

			page := body(b.get("/"))
			Expect(page).NotTo(ContainSubstring("<script>alert(1)</script>"))
			Expect(page).To(ContainSubstring("&lt;script&gt;"))
		})
	})

	Describe("the send and reply cycle", func() {
		BeforeEach(func() {
			b.get("/")
		})

		It("marks the session typing and renders the auto-reply form", func() {
			resp := b.post("/send", url.Values{"message": {"  What is Go?  "}})
			Expect(resp.StatusCode).To(Equal(http.StatusSeeOther))
			Expect(resp.Header.Get("Location")).To(Equal("/"))

			state := b.state()
			Expect(state.Typing).To(BeTrue())
			Expect(state.Messages[len(state.Messages)-1].Content).To(Equal("What is Go?"))

			page := body(b.get("/"))
			Expect(page).To(ContainSubstring("Bot is typing..."))
			Expect(page).To(ContainSubstring(`action="/reply"`))
		})

		It("ignores blank messages", func() {
			b.post("/send", url.Values{"message": {"   "}})
			Expect(b.state().Typing).To(BeFalse())
			Expect(b.state().Messages).To(HaveLen(1))
		})

		It("answers the pending message with prior turns as history", func() {
			b.post("/send", url.Values{"message": {"What is Go?"}})
			resp := b.post("/reply", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusSeeOther))

			Expect(model.calls).To(Equal(1))
			Expect(model.message).To(Equal("What is Go?"))
			Expect(model.model).To(Equal("phi3"))
			Expect(model.history).To(HaveLen(1))
			Expect(model.history[0].Content).To(Equal(session.DefaultGreeting))

			state := b.state()
			Expect(state.Typing).To(BeFalse())
			Expect(state.Messages).To(HaveLen(3))
			Expect(state.Messages[2].Role).To(Equal(llm.RoleAssistant))
			Expect(state.Messages[2].Content).To(Equal("Hello from the model"))
		})

		It("shows invocation failures as the assistant reply", func() {
			model.result = llm.HTTPStatus(500)

			b.post("/send", url.Values{"message": {"hi"}})
			b.post("/reply", nil)

			state := b.state()
			Expect(state.Messages[len(state.Messages)-1].Content).To(Equal("Error: 500"))
		})

		It("does not invoke the model without a pending message", func() {
			b.post("/reply", nil)
			Expect(model.calls).To(BeZero())
		})

		It("invokes the model once for a duplicated reply request", func() {
			b.post("/send", url.Values{"message": {"hi"}})
			b.post("/reply", nil)
			b.post("/reply", nil)
			Expect(model.calls).To(Equal(1))
		})

		It("publishes an exchange event", func() {
			b.post("/send", url.Values{"message": {"hi"}})
			b.post("/reply", nil)
			pool.Close()

			Expect(pub.events).To(HaveLen(1))
			Expect(pub.events[0].Source).To(Equal(eventstream.SourceWeb))
			Expect(pub.events[0].SessionID).To(Equal(b.cookie.Value))
			Expect(pub.events[0].HistoryTurns).To(Equal(1))
		})

		It("drops a reply that was in flight when the chat was cleared", func() {
			model.started = make(chan string, 2)
			model.gate = make(chan struct{})

			b.post("/send", url.Values{"message": {"first question"}})

			slow := &browser{server: server, cookie: b.cookie}
			done := make(chan struct{})
			go func() {
				defer GinkgoRecover()
				defer close(done)
				slow.post("/reply", nil)
			}()
			Eventually(model.started).Should(Receive(Equal("first question")))

			b.post("/clear", nil)
			b.post("/send", url.Values{"message": {"second question"}})
			close(model.gate)
			Eventually(done).Should(BeClosed())

			state := b.state()
			Expect(state.Typing).To(BeTrue())
			Expect(state.Messages).To(HaveLen(1))
			Expect(state.Messages[0].Content).To(Equal("second question"))

			b.post("/reply", nil)
			Expect(model.started).To(Receive(Equal("second question")))

			state = b.state()
			Expect(state.Typing).To(BeFalse())
			Expect(state.Messages).To(HaveLen(2))
			Expect(state.Messages[1].Role).To(Equal(llm.RoleAssistant))
		})

		It("uses a swapped invoker", func() {
			other := &fakeModel{result: llm.Success("swapped")}
			server.SetInvoker(other)

			b.post("/send", url.Values{"message": {"hi"}})
			b.post("/reply", nil)

			Expect(model.calls).To(BeZero())
			Expect(other.calls).To(Equal(1))
		})
	})

	Describe("POST /clear", func() {
		It("empties the conversation without a new greeting", func() {
			b.get("/")
			b.post("/send", url.Values{"message": {"hi"}})
			b.post("/clear", nil)

			state := b.state()
			Expect(state.Messages).To(BeEmpty())
			Expect(state.Typing).To(BeFalse())
		})
	})

	Describe("POST /theme", func() {
		It("switches to the light palette", func() {
			b.get("/")
			b.post("/theme", url.Values{"dark_mode": {"false"}})

			Expect(b.state().DarkMode).To(BeFalse())
			Expect(body(b.get("/"))).To(ContainSubstring("#f7f7f7"))
		})
	})

	Describe("POST /model", func() {
		It("selects a catalog model", func() {
			b.get("/")
			resp := b.post("/model", url.Values{"model": {"mistral"}})
			Expect(resp.StatusCode).To(Equal(http.StatusSeeOther))
			Expect(b.state().Model).To(Equal("mistral"))
		})

		It("rejects unknown models", func() {
			b.get("/")
			resp := b.post("/model", url.Values{"model": {"gpt-9"}})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(b.state().Model).To(Equal("phi3"))
		})
	})

	Describe("GET /download", func() {
		It("serves the transcript as an attachment", func() {
			b.get("/")
			b.post("/send", url.Values{"message": {"hi"}})
			b.post("/reply", nil)

			resp := b.get("/download")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Disposition")).To(Equal(`attachment; filename="chat_history.txt"`))
			Expect(resp.Header.Get("Content-Type")).To(HavePrefix("text/plain"))

			lines := strings.Split(body(resp), "\n")
			Expect(lines).To(HaveLen(3))
			Expect(lines[0]).To(MatchRegexp(`^ASSISTANT \(\d{2}:\d{2}:\d{2}\): Hi, I'm your local chatbot\. Ask me anything!$`))
			Expect(lines[1]).To(MatchRegexp(`^USER \(\d{2}:\d{2}:\d{2}\): hi$`))
			Expect(lines[2]).To(HaveSuffix("): Hello from the model"))
		})
	})

	Describe("GET /api/models", func() {
		It("lists the catalog", func() {
			var out ModelsResponse
			Expect(json.Unmarshal([]byte(body(b.get("/api/models"))), &out)).To(Succeed())

			Expect(out.Default).To(Equal("phi3"))
			Expect(out.Models).To(HaveLen(3))
			Expect(out.Models[1].Name).To(Equal("llama3"))
		})
	})

	Describe("POST /api/chat", func() {
		postJSON := func(payload string) *http.Response {
			req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			return b.do(req)
		}

		It("answers with the reply and its kind", func() {
			resp := postJSON(`{"message":"hi","model":"llama3","history":[{"role":"user","content":"earlier"}]}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var out ChatResponse
			Expect(json.Unmarshal([]byte(body(resp)), &out)).To(Succeed())
			Expect(out.Response).To(Equal("Hello from the model"))
			Expect(out.Kind).To(Equal(llm.KindOK))

			Expect(model.model).To(Equal("llama3"))
			Expect(model.history).To(HaveLen(1))
			Expect(model.history[0].Role).To(Equal(llm.RoleUser))
		})

		It("defaults the model", func() {
			postJSON(`{"message":"hi"}`)
			Expect(model.model).To(Equal("phi3"))
		})

		It("returns 200 with the display string for invocation failures", func() {
			model.result = llm.MissingResponse()

			resp := postJSON(`{"message":"hi"}`)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var out ChatResponse
			Expect(json.Unmarshal([]byte(body(resp)), &out)).To(Succeed())
			Expect(out.Response).To(Equal("Sorry, I didn't understand that."))
			Expect(out.Kind).To(Equal(llm.KindMissingResponse))
		})

		It("rejects an empty message", func() {
			resp := postJSON(`{"message":"  "}`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(body(resp)).To(ContainSubstring("message is required"))
			Expect(model.calls).To(BeZero())
		})

		It("rejects a malformed body", func() {
			resp := postJSON(`{"message":`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})
})
