// Package statuscmder provides the status command for checking that the
// configured Ollama server is reachable.
package statuscmder

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/parley/pkg/cliui"
	"github.com/papercomputeco/parley/pkg/config"
	"github.com/papercomputeco/parley/pkg/llm/provider/ollama"
)

const keyWidth = 14

type statusCommander struct {
	endpoint  string
	timeout   uint
	configDir string

	cfg *config.Config
}

const statusLongDesc string = `Show the effective configuration and whether Ollama is reachable.

Lists the installed models and reports whether the default model is among
them. Exits non-zero when the server cannot be reached.

Examples:
  parley status
  parley status --endpoint http://gpu-box:11434/api/generate`

const statusShortDesc string = "Check the Ollama connection"

var flags = []string{
	config.FlagEndpoint,
	config.FlagTimeout,
}

func NewStatusCmd() *cobra.Command {
	cmder := &statusCommander{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: statusShortDesc,
		Long:  statusLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			cfg, err := config.Resolve(cmd, flags...)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagEndpoint, &cmder.endpoint)
	config.AddUintFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)

	return cmd
}

func (c *statusCommander) run(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	target := "<defaults>"
	if cfger, err := config.NewConfiger(c.configDir); err == nil {
		target = cfger.GetTarget()
		if _, err := os.Stat(target); err != nil {
			target += " (not created, using defaults)"
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s\n", cliui.KeyValue("Config file", target, keyWidth))
	fmt.Fprintf(out, "  %s\n", cliui.KeyValue("Endpoint", c.cfg.Ollama.Endpoint, keyWidth))
	fmt.Fprintf(out, "  %s\n", cliui.KeyValue("Timeout", c.cfg.Ollama.Timeout().String(), keyWidth))
	fmt.Fprintf(out, "  %s\n", cliui.KeyValue("Streaming", strconv.FormatBool(c.cfg.Ollama.StreamEnabled), keyWidth))
	fmt.Fprintf(out, "  %s\n", cliui.KeyValue("Default model", c.cfg.Chat.DefaultModel, keyWidth))
	fmt.Fprintf(out, "  %s\n\n", cliui.KeyValue("Events", c.cfg.Events.Provider, keyWidth))

	client := ollama.NewClient(ollama.Config{
		Endpoint: c.cfg.Ollama.Endpoint,
		Timeout:  c.cfg.Ollama.Timeout(),
	})

	var installed []string
	err := cliui.Step(out, "Reaching Ollama", func() error {
		var err error
		installed, err = client.Tags(ctx)
		return err
	})
	if err != nil {
		fmt.Fprintln(out)
		return fmt.Errorf("ollama unreachable at %s: %w", c.cfg.Ollama.Endpoint, err)
	}

	fmt.Fprintf(out, "\n  %s\n", cliui.KeyValue("Installed", strconv.Itoa(len(installed)), keyWidth))
	for _, name := range installed {
		fmt.Fprintf(out, "    %s\n", cliui.NameStyle.Render(name))
	}

	fmt.Fprintf(out, "\n  %s default model %s\n\n",
		cliui.Mark(defaultMissing(c.cfg.Chat.DefaultModel, installed)),
		cliui.NameStyle.Render(c.cfg.Chat.DefaultModel),
	)
	return nil
}

func defaultMissing(model string, installed []string) error {
	for _, tag := range installed {
		name, _, _ := strings.Cut(tag, ":")
		if tag == model || name == model {
			return nil
		}
	}
	return fmt.Errorf("%s is not installed", model)
}
