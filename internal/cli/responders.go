package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/aretw0/turnstile/internal/config"
	"github.com/aretw0/turnstile/pkg/adapters/process"
	"github.com/aretw0/turnstile/pkg/agent"
	"github.com/aretw0/turnstile/pkg/agent/anthropic"
	"github.com/aretw0/turnstile/pkg/agent/openai"
	"github.com/aretw0/turnstile/pkg/domain"
	"golang.org/x/term"
)

// Console is the terminal the CLI talks to.
type Console struct {
	In    *bufio.Reader
	Out   io.Writer
	IsTTY bool
}

// StdConsole wraps the process's standard streams.
func StdConsole() *Console {
	return &Console{
		In:    bufio.NewReader(os.Stdin),
		Out:   os.Stdout,
		IsTTY: term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())),
	}
}

// mockMoves are the answers of the mock responder.
var mockMoves = []string{"[1]", "[2]", "[3]", "[4]", "[5]", "[6]", "[7]", "[8]", "[9]"}

// NewResponder builds the responder of one seat from a model name:
//
//	scripted:a|b|c     fixed responses, in order
//	custom             seeded pick among the player's custom_response
//	mock               seeded pick among [1] to [9]
//	human              moves typed on the console
//	openai[/model]     OpenAI chat model
//	anthropic[/model]  Anthropic model
//	process/name       external program listed in the agents file
//
// A player spec listing custom responses always gets a custom responder.
func NewResponder(model string, spec config.PlayerSpec, seed int64, s config.Settings, console *Console) (agent.Responder, error) {
	if len(spec.CustomResponse) > 0 {
		return agent.NewCustom(spec.CustomResponse, seed), nil
	}

	name, arg, _ := strings.Cut(model, "/")
	if strings.HasPrefix(model, "scripted:") {
		name, arg = "scripted", strings.TrimPrefix(model, "scripted:")
	}

	switch name {
	case "scripted":
		if arg == "" {
			return nil, fmt.Errorf("scripted responder needs responses, e.g. scripted:[1]|[2]")
		}
		return agent.NewScripted(strings.Split(arg, "|")...), nil
	case "custom":
		return agent.NewCustom(nil, seed), nil
	case "mock", "":
		return agent.NewCustom(mockMoves, seed), nil
	case "human":
		if console == nil {
			return nil, fmt.Errorf("human players need a console")
		}
		return humanResponder(console, spec.Role), nil
	case "openai":
		if s.OpenAIKey == "" {
			return nil, fmt.Errorf("openai responder needs OPENAI_API_KEY")
		}
		return openai.New(func(o *openai.Options) {
			o.APIKey = s.OpenAIKey
			o.BaseURL = s.OpenAIBaseURL
			if arg != "" {
				o.Model = arg
			}
		}), nil
	case "anthropic":
		if s.AnthropicKey == "" {
			return nil, fmt.Errorf("anthropic responder needs ANTHROPIC_API_KEY")
		}
		return anthropic.New(func(o *anthropic.Options) {
			o.APIKey = s.AnthropicKey
			if arg != "" {
				o.Model = anthropicsdk.Model(arg)
			}
		}), nil
	case "process":
		if arg == "" {
			return nil, fmt.Errorf("process responder needs an agent name, e.g. process/bot")
		}
		path := s.AgentsPath()
		agents, err := process.LoadAgents(path)
		if err != nil {
			return nil, err
		}
		return process.Lookup(agents, arg, process.WithRole(spec.Role), process.WithBaseDir(filepath.Dir(path)))
	}
	return nil, fmt.Errorf("unknown model %q", model)
}

// humanResponder shows the latest context and reads one line per move.
func humanResponder(c *Console, role string) agent.Responder {
	return agent.Func(func(ctx context.Context, history []domain.Message) (string, error) {
		if len(history) > 0 {
			fmt.Fprintf(c.Out, "\n%s\n", history[len(history)-1].Content)
		}
		if c.IsTTY {
			fmt.Fprintf(c.Out, "%s> ", role)
		}

		type line struct {
			text string
			err  error
		}
		ch := make(chan line, 1)
		go func() {
			text, err := c.In.ReadString('\n')
			ch <- line{text, err}
		}()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case l := <-ch:
			if l.err != nil && (l.err != io.EOF || l.text == "") {
				return "", l.err
			}
			return strings.TrimSpace(l.text), nil
		}
	})
}

// seedFor derives a per-seat seed so seats of one instance differ.
func seedFor(instanceSeed int64, seat int) int64 {
	return rand.New(rand.NewSource(instanceSeed + int64(seat))).Int63()
}
