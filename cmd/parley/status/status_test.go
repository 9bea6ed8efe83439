package statuscmder_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	parleycmder "github.com/papercomputeco/parley/cmd/parley"
	statuscmder "github.com/papercomputeco/parley/cmd/parley/status"
	"github.com/papercomputeco/parley/pkg/cliui"
)

var _ = Describe("NewStatusCmd", func() {
	It("creates a command with the correct use string", func() {
		Expect(statuscmder.NewStatusCmd().Use).To(Equal("status"))
	})
})

var _ = Describe("status execution", func() {
	var server *httptest.Server

	BeforeEach(func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"models":[{"name":"phi3:latest"},{"name":"llama3:8b"}]}`))
		}))
		DeferCleanup(server.Close)
	})

	execute := func(endpoint string) (string, error) {
		cmd := parleycmder.NewParleyCmd()

		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"status", "--config-dir", GinkgoT().TempDir(), "-e", endpoint})

		err := cmd.Execute()
		return cliui.Plain(out.String()), err
	}

	It("reports the installed models", func() {
		out, err := execute(server.URL + "/api/generate")
		Expect(err).NotTo(HaveOccurred())

		Expect(out).To(ContainSubstring("✓ Reaching Ollama"))
		Expect(out).To(MatchRegexp(`Installed:\s+2`))
		Expect(out).To(ContainSubstring("llama3:8b"))
		Expect(out).To(ContainSubstring("✓ default model phi3"))
	})

	It("fails when the server is down", func() {
		server.Close()

		out, err := execute(server.URL + "/api/generate")
		Expect(err).To(MatchError(ContainSubstring("ollama unreachable")))
		Expect(out).To(ContainSubstring("✗ Reaching Ollama"))
	})
})
