package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/parley/pkg/config"
)

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "viper-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("returns viper with defaults when no config file exists", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(config.FromViper(v)).To(Equal(config.NewDefaultConfig()))
	})

	It("reads config file values over defaults", func() {
		data := `[ollama]
endpoint = "http://gpu-box:11434/api/generate"
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(v.GetString("ollama.endpoint")).To(Equal("http://gpu-box:11434/api/generate"))
		Expect(v.GetUint("ollama.timeout_seconds")).To(Equal(uint(120)))
	})

	It("env vars take precedence over config file values", func() {
		data := `[chat]
default_model = "llama3"
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		GinkgoT().Setenv("PARLEY_CHAT_DEFAULT_MODEL", "mistral")
		GinkgoT().Setenv("PARLEY_EVENTS_KAFKA_BROKERS", "a:9092,b:9092")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg := config.FromViper(v)
		Expect(cfg.Chat.DefaultModel).To(Equal("mistral"))
		Expect(cfg.Events.KafkaBrokers).To(Equal([]string{"a:9092", "b:9092"}))
	})
})

var _ = Describe("BindRegisteredFlags", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "bindflag-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("binds cobra flags to viper keys via registry", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var (
			listen string
			stream bool
		)
		config.AddStringFlag(cmd, config.Flags, config.FlagListen, &listen)
		config.AddBoolFlag(cmd, config.Flags, config.FlagStream, &stream)

		Expect(cmd.Flags().Set("listen", ":7777")).To(Succeed())
		Expect(cmd.Flags().Set("stream", "true")).To(Succeed())

		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagListen, config.FlagStream})

		cfg := config.FromViper(v)
		Expect(cfg.Server.Listen).To(Equal(":7777"))
		Expect(cfg.Ollama.StreamEnabled).To(BeTrue())
	})

	It("falls through to config when flag not set", func() {
		data := `[server]
listen = ":5555"
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, config.Flags, config.FlagListen, &listen)

		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagListen})

		Expect(v.GetString("server.listen")).To(Equal(":5555"))
	})

	It("skips bindings for nonexistent registry keys", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		config.BindRegisteredFlags(v, cmd, config.Flags, []string{"nonexistent"})

		Expect(v.GetString("server.listen")).To(Equal(":8501"))
	})

	It("pulls name, shorthand, default and description from the FlagSet", func() {
		cmd := &cobra.Command{Use: "test"}
		var (
			endpoint string
			timeout  uint
			brokers  []string
		)
		config.AddStringFlag(cmd, config.Flags, config.FlagEndpoint, &endpoint)
		config.AddUintFlag(cmd, config.Flags, config.FlagTimeout, &timeout)
		config.AddStringSliceFlag(cmd, config.Flags, config.FlagKafkaBrokers, &brokers)

		f := cmd.Flags().Lookup("endpoint")
		Expect(f).NotTo(BeNil())
		Expect(f.Shorthand).To(Equal("e"))
		Expect(f.Usage).To(Equal("Ollama generate endpoint URL"))
		Expect(f.DefValue).To(Equal("http://localhost:11434/api/generate"))

		Expect(cmd.Flags().Lookup("timeout").DefValue).To(Equal("120"))
		Expect(cmd.Flags().Lookup("kafka-brokers")).NotTo(BeNil())
	})
})

var _ = Describe("Resolve", func() {
	var (
		tmpDir string
		cmd    *cobra.Command
		model  string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "resolve-test-*")
		Expect(err).NotTo(HaveOccurred())

		data := `[chat]
default_model = "llama3"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		cmd = &cobra.Command{Use: "test"}
		cmd.Flags().String("config-dir", "", "")
		config.AddStringFlag(cmd, config.Flags, config.FlagModel, &model)
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("uses the config file found through --config-dir", func() {
		Expect(cmd.ParseFlags([]string{"--config-dir", tmpDir})).To(Succeed())

		cfg, err := config.Resolve(cmd, config.FlagModel)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Chat.DefaultModel).To(Equal("llama3"))
		Expect(cfg.Server.Listen).To(Equal(":8501"))
	})

	It("lets an explicit flag win over the file", func() {
		Expect(cmd.ParseFlags([]string{"--config-dir", tmpDir, "-m", "mistral"})).To(Succeed())

		cfg, err := config.Resolve(cmd, config.FlagModel)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Chat.DefaultModel).To(Equal("mistral"))
	})
})
