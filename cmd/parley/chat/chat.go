// Package chatcmder provides the chat command for an interactive terminal
// conversation with a local model.
package chatcmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/parley/pkg/catalog"
	"github.com/papercomputeco/parley/pkg/cliui"
	"github.com/papercomputeco/parley/pkg/config"
	"github.com/papercomputeco/parley/pkg/llm/provider"
	"github.com/papercomputeco/parley/pkg/logger"
	"github.com/papercomputeco/parley/pkg/session"
)

type chatCommander struct {
	endpoint string
	timeout  uint
	stream   bool
	model    string
	raw      bool
	debug    bool

	cfg    *config.Config
	logger *slog.Logger
}

const chatLongDesc string = `Start an interactive chat with a local model.

Every message is sent with the whole conversation so far. The conversation
lives only as long as the command runs; use /save to keep a transcript.

Commands:
  /clear          Start over
  /save <file>    Write the transcript to a file
  /model [name]   Show or switch the model
  /help           List commands
  /exit           Quit (Ctrl+D also works)

Examples:
  parley chat
  parley chat --model llama3`

const chatShortDesc string = "Interactive chat in the terminal"

var flags = []string{
	config.FlagEndpoint,
	config.FlagTimeout,
	config.FlagStream,
	config.FlagModel,
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Resolve(cmd, flags...)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagEndpoint, &cmder.endpoint)
	config.AddUintFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	config.AddBoolFlag(cmd, config.Flags, config.FlagStream, &cmder.stream)
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &cmder.model)
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print replies without markdown rendering")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, in io.Reader, out, errOut io.Writer) error {
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithTerminal(errOut), logger.WithCommand("chat"))

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

	models := catalog.Default()
	if len(c.cfg.Chat.Models) > 0 {
		models = catalog.FromNames(c.cfg.Chat.Models)
	}

	r := &repl{
		in:      in,
		out:     out,
		invoker: client,
		catalog: models,
		state: session.NewState(uuid.NewString(), session.Options{
			Greeting: c.cfg.Chat.Greeting,
			Model:    c.cfg.Chat.DefaultModel,
		}),
		interactive: isTerminalReader(in),
		markdown:    !c.raw && cliui.IsTerminalWriter(out),
		logger:      c.logger,
	}

	return r.run(ctx)
}

func isTerminalReader(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && cliui.IsTerminal(f)
}
