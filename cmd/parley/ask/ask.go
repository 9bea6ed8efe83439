// Package askcmder provides the ask command for one-shot questions.
package askcmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/parley/pkg/cliui"
	"github.com/papercomputeco/parley/pkg/config"
	"github.com/papercomputeco/parley/pkg/llm"
	"github.com/papercomputeco/parley/pkg/llm/provider"
	"github.com/papercomputeco/parley/pkg/logger"
)

type askCommander struct {
	endpoint string
	timeout  uint
	stream   bool
	model    string
	raw      bool
	debug    bool

	cfg    *config.Config
	logger *slog.Logger
}

const askLongDesc string = `Ask the model a single question with no history.

The reply is rendered as markdown when printing to a terminal. Use --raw to
print the text exactly as the model returned it.

Examples:
  parley ask "What is a goroutine?"
  parley ask --model llama3 --raw Explain channels in one sentence`

const askShortDesc string = "Ask a single question"

var flags = []string{
	config.FlagEndpoint,
	config.FlagTimeout,
	config.FlagStream,
	config.FlagModel,
}

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <message...>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Resolve(cmd, flags...)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), strings.Join(args, " "))
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagEndpoint, &cmder.endpoint)
	config.AddUintFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	config.AddBoolFlag(cmd, config.Flags, config.FlagStream, &cmder.stream)
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &cmder.model)
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print the reply without markdown rendering")

	return cmd
}

func (c *askCommander) run(ctx context.Context, out, errOut io.Writer, message string) error {
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithTerminal(errOut), logger.WithCommand("ask"))

	if ctx == nil {
		ctx = context.Background()
	}

	client, err := provider.New(provider.Ollama, provider.Options{
		Endpoint: c.cfg.Ollama.Endpoint,
		Timeout:  c.cfg.Ollama.Timeout(),
		Stream:   c.cfg.Ollama.StreamEnabled,
		Logger:   c.logger,
	})
	if err != nil {
		return err
	}

	model := c.cfg.Chat.DefaultModel
	c.logger.Debug("asking model", "model", model, "endpoint", c.cfg.Ollama.Endpoint)

	result := client.Chat(ctx, strings.TrimSpace(message), model, nil)
	fmt.Fprintln(out, c.render(out, result))

	if !result.OK() {
		return fmt.Errorf("model %s: %s", model, result.Kind)
	}
	return nil
}

// render formats the reply for out. Failure strings are never rendered as markdown.
func (c *askCommander) render(out io.Writer, result llm.Result) string {
	text := result.String()
	if c.raw || !result.OK() || !cliui.IsTerminalWriter(out) {
		return text
	}

	rendered, err := cliui.RenderMarkdown(text)
	if err != nil {
		c.logger.Debug("rendering markdown", "error", err)
		return text
	}
	return strings.TrimRight(rendered, "\n")
}
