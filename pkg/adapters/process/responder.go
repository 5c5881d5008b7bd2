// Package process plays seats with external programs.
//
// Each move runs the configured command once. The conversation so far is
// written to stdin as JSON and the trimmed stdout is the move. A stdout that
// is a JSON object with a "response" field is unwrapped.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/aretw0/turnstile/pkg/domain"
)

// Request is what the program reads on stdin.
type Request struct {
	Role    string           `json:"role"`
	History []domain.Message `json:"history"`
}

// Responder runs one allow-listed command per move.
type Responder struct {
	name    string
	role    string
	config  AgentConfig
	baseDir string
}

// Option configures a Responder.
type Option func(*Responder)

// WithBaseDir sets the working directory of the program.
func WithBaseDir(dir string) Option {
	return func(r *Responder) {
		r.baseDir = dir
	}
}

// WithRole tells the program which seat it plays.
func WithRole(role string) Option {
	return func(r *Responder) {
		r.role = role
	}
}

// New creates a responder for a configured agent.
func New(cfg AgentConfig, opts ...Option) *Responder {
	r := &Responder{name: "process/" + cfg.Name, config: cfg}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Lookup builds the responder of a named agent from a loaded registry.
func Lookup(agents map[string]AgentConfig, name string, opts ...Option) (*Responder, error) {
	cfg, ok := agents[name]
	if !ok {
		return nil, fmt.Errorf("process agent not registered: %s", name)
	}
	return New(cfg, opts...), nil
}

func (r *Responder) Name() string { return r.name }

func (r *Responder) Respond(ctx context.Context, history []domain.Message) (string, error) {
	input, err := json.Marshal(Request{Role: r.role, History: history})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	// Arguments are fixed by the config; game text only reaches the program via stdin and env.
	cmd := exec.CommandContext(ctx, r.config.Command, r.config.Args...)
	cmd.Dir = r.baseDir
	cmd.Stdin = bytes.NewReader(input)
	cmd.Env = cmd.Environ()
	for k, v := range r.config.Environment {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Env = append(cmd.Env, "TURNSTILE_ROLE="+r.role)
	if len(history) > 0 {
		cmd.Env = append(cmd.Env, "TURNSTILE_PROMPT="+history[len(history)-1].Content)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("execution failed: %w. Stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	return parseOutput(stdout.String()), nil
}

func parseOutput(output string) string {
	trimmed := strings.TrimSpace(output)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		var wrapped struct {
			Response *string `json:"response"`
		}
		if err := json.Unmarshal([]byte(trimmed), &wrapped); err == nil && wrapped.Response != nil {
			return strings.TrimSpace(*wrapped.Response)
		}
	}
	return trimmed
}
