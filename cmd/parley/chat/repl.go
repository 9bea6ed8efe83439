package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/papercomputeco/parley/pkg/catalog"
	"github.com/papercomputeco/parley/pkg/cliui"
	"github.com/papercomputeco/parley/pkg/llm"
	"github.com/papercomputeco/parley/pkg/session"
	"github.com/papercomputeco/parley/pkg/transcript"
)

var (
	userPrompt = cliui.UserStyle.Render("you> ")
	botPrompt  = cliui.BotStyle.Render("bot> ")

	errExit = errors.New("exit")
)

// repl reads user lines, sends them with the conversation so far and prints
// each reply.
type repl struct {
	in      io.Reader
	out     io.Writer
	invoker llm.Invoker
	catalog *catalog.Catalog
	state   *session.State

	// interactive prints the input prompt
	interactive bool
	markdown    bool

	logger *slog.Logger
}

func (r *repl) run(ctx context.Context) error {
	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "  %s\n", cliui.KeyValue("Model", r.state.Model, 6))
	fmt.Fprintf(r.out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /help for commands, /exit or Ctrl+D to quit."))

	for _, turn := range r.state.Messages {
		r.printReply(turn.Content, true)
	}

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		if r.interactive {
			fmt.Fprint(r.out, userPrompt)
		}
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			err := r.command(input)
			if errors.Is(err, errExit) {
				break
			}
			if err != nil {
				fmt.Fprintf(r.out, "  %s %v\n\n", cliui.FailMark, err)
			}
			continue
		}

		r.send(ctx, input)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(r.out)
	return nil
}

// send submits one message and prints the reply.
func (r *repl) send(ctx context.Context, input string) {
	if !r.state.Submit(input) {
		return
	}

	claim, ok := r.state.BeginReply()
	if !ok {
		return
	}

	r.logger.Debug("sending message",
		"model", r.state.Model,
		"history_turns", len(claim.History),
	)

	result := r.invoker.Chat(ctx, claim.Message, r.state.Model, claim.History)
	r.state.Respond(claim, result.String())
	r.printReply(result.String(), result.OK())
}

func (r *repl) printReply(text string, ok bool) {
	if ok && r.markdown {
		rendered, err := cliui.RenderMarkdown(text)
		if err == nil {
			text = strings.Trim(rendered, "\n")
		}
	}
	if !ok {
		text = cliui.FailMark + " " + text
	}

	fmt.Fprintf(r.out, "%s%s\n\n", botPrompt, text)
}

// command runs a slash command. errExit ends the session.
func (r *repl) command(input string) error {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/exit", "/quit":
		return errExit

	case "/clear":
		r.state.Clear()
		fmt.Fprintf(r.out, "  %s Conversation cleared\n\n", cliui.SuccessMark)
		return nil

	case "/save":
		if arg == "" {
			arg = transcript.Filename
		}
		data := transcript.Format(r.state.Messages) + "\n"
		if err := os.WriteFile(arg, []byte(data), 0o600); err != nil {
			return fmt.Errorf("saving transcript: %w", err)
		}
		fmt.Fprintf(r.out, "  %s Saved %d messages to %s\n\n", cliui.SuccessMark, len(r.state.Messages), arg)
		return nil

	case "/model":
		if arg == "" {
			r.listModels()
			return nil
		}
		if err := r.state.SetModel(r.catalog, arg); err != nil {
			return err
		}
		fmt.Fprintf(r.out, "  %s Now chatting with %s\n\n", cliui.SuccessMark, cliui.NameStyle.Render(arg))
		return nil

	case "/help":
		fmt.Fprintf(r.out, "  %s\n\n", cliui.DimStyle.Render("/clear  /save <file>  /model [name]  /help  /exit"))
		return nil

	default:
		return fmt.Errorf("unknown command %q (try /help)", name)
	}
}

func (r *repl) listModels() {
	for _, m := range r.catalog.Models() {
		marker := " "
		if m.Name == r.state.Model {
			marker = "*"
		}
		fmt.Fprintf(r.out, "  %s %s %s\n", marker, cliui.NameStyle.Render(cliui.PadRight(m.Name, 10)), cliui.DimStyle.Render(m.Description))
	}
	fmt.Fprintln(r.out)
}
