// Package modelscmder provides the models command for listing the models
// parley can chat with.
package modelscmder

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/parley/pkg/catalog"
	"github.com/papercomputeco/parley/pkg/cliui"
	"github.com/papercomputeco/parley/pkg/config"
	"github.com/papercomputeco/parley/pkg/llm/provider/ollama"
)

const (
	nameWidth        = 12
	descriptionWidth = 48
)

type modelsCommander struct {
	endpoint  string
	timeout   uint
	installed bool

	cfg *config.Config
}

const modelsLongDesc string = `List the selectable models.

The list comes from chat.models in config.toml, or the built-in catalog when
unset. With --installed, Ollama is asked which models it has pulled and every
entry is marked accordingly.

Examples:
  parley models
  parley models --installed`

const modelsShortDesc string = "List selectable models"

var flags = []string{
	config.FlagEndpoint,
	config.FlagTimeout,
}

func NewModelsCmd() *cobra.Command {
	cmder := &modelsCommander{}

	cmd := &cobra.Command{
		Use:   "models",
		Short: modelsShortDesc,
		Long:  modelsLongDesc,
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
			return cmder.run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagEndpoint, &cmder.endpoint)
	config.AddUintFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	cmd.Flags().BoolVar(&cmder.installed, "installed", false, "Ask Ollama which models are installed")

	return cmd
}

func (c *modelsCommander) run(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	models := catalog.Default()
	if len(c.cfg.Chat.Models) > 0 {
		models = catalog.FromNames(c.cfg.Chat.Models)
	}

	var installed []string
	if c.installed {
		client := ollama.NewClient(ollama.Config{
			Endpoint: c.cfg.Ollama.Endpoint,
			Timeout:  c.cfg.Ollama.Timeout(),
		})

		err := cliui.Step(out, "Querying "+client.Endpoint(), func() error {
			var err error
			installed, err = client.Tags(ctx)
			return err
		})
		if err != nil {
			return fmt.Errorf("listing installed models: %w", err)
		}
	}

	fmt.Fprintln(out)
	for _, m := range models.Models() {
		c.printModel(out, m, installed, m.Name == c.cfg.Chat.DefaultModel)
	}

	if c.installed {
		for _, name := range installed {
			if models.Has(name) || models.Has(baseName(name)) {
				continue
			}
			fmt.Fprintf(out, "  %s %s %s\n",
				cliui.DimStyle.Render("+"),
				cliui.PadRight(name, nameWidth),
				cliui.DimStyle.Render("installed, not in catalog"),
			)
		}
	}

	fmt.Fprintln(out)
	return nil
}

func (c *modelsCommander) printModel(out io.Writer, m catalog.Model, installed []string, isDefault bool) {
	marker := " "
	if isDefault {
		marker = "*"
	}

	line := fmt.Sprintf("  %s %s %s",
		marker,
		cliui.NameStyle.Render(cliui.PadRight(m.Name, nameWidth)),
		cliui.DimStyle.Render(cliui.PadRight(cliui.Truncate(m.Description, descriptionWidth), descriptionWidth)),
	)

	if c.installed {
		line += " " + cliui.Mark(missing(m.Name, installed))
	}

	fmt.Fprintln(out, line)
}

// missing reports a non-nil error when name has no installed tag.
func missing(name string, installed []string) error {
	if slices.ContainsFunc(installed, func(tag string) bool {
		return tag == name || baseName(tag) == name
	}) {
		return nil
	}
	return fmt.Errorf("%s not installed", name)
}

// baseName strips the tag from an Ollama model reference ("phi3:latest" -> "phi3").
func baseName(tag string) string {
	name, _, _ := strings.Cut(tag, ":")
	return name
}
