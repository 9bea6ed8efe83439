package chatcmder

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/cliui"
)

var _ = Describe("NewChatCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := NewChatCmd()
		Expect(cmd.Use).To(Equal("chat"))
	})

	It("has the --model flag", func() {
		cmd := NewChatCmd()
		flag := cmd.Flags().Lookup("model")
		Expect(flag).NotTo(BeNil())
		Expect(flag.Shorthand).To(Equal("m"))
		Expect(flag.DefValue).To(Equal("phi3"))
	})

	It("chats with the configured endpoint", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"response":"pong","done":true}`))
		}))
		DeferCleanup(server.Close)

		cmd := NewChatCmd()
		cmd.Flags().String("config-dir", "", "")
		cmd.Flags().Bool("debug", false, "")

		var out bytes.Buffer
		cmd.SetIn(strings.NewReader("ping\n/exit\n"))
		cmd.SetOut(&out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--config-dir", GinkgoT().TempDir(), "-e", server.URL + "/api/generate"})

		Expect(cmd.Execute()).To(Succeed())
		Expect(cliui.Plain(out.String())).To(ContainSubstring("bot> pong"))
	})
})
