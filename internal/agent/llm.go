package agent

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/turnforge/turnforge/internal/engine"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed prompts/system.tmpl
var systemPrompt string

//go:embed prompts/user.tmpl
var userPrompt string

// DefaultHistoryRounds is how many recent rounds a prompt includes.
const DefaultHistoryRounds = 3

// Generator produces a completion for a system and user prompt.
type Generator interface {
	GenerateContent(ctx context.Context, system, user string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, system, user string) (string, error)

func (f GeneratorFunc) GenerateContent(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}

// PromptBuilder renders the prompts for one turn.
type PromptBuilder interface {
	Build(turn engine.Turn) (system, user string, err error)
}

// TemplatePrompts renders the embedded prompt templates.
type TemplatePrompts struct {
	HistoryRounds int

	system *template.Template
	user   *template.Template
}

// NewTemplatePrompts parses the embedded templates.
func NewTemplatePrompts(historyRounds int) (*TemplatePrompts, error) {
	system, err := template.New("system").Parse(systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse system prompt: %w", err)
	}
	user, err := template.New("user").Parse(userPrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse user prompt: %w", err)
	}
	return &TemplatePrompts{HistoryRounds: historyRounds, system: system, user: user}, nil
}

type promptAction struct {
	Name   string
	Fields []string
}

type promptData struct {
	Game      string
	Player    string
	Team      string
	Role      string
	Board     string
	History   string
	Actions   []promptAction
	Attempt   int
	Rejection string
}

// Build fills the templates from the viewer's prompt projection, the recent history,
// the actions open to the player and the reason of the last rejection.
func (t *TemplatePrompts) Build(turn engine.Turn) (string, string, error) {
	g, p := turn.Game, turn.Player
	data := promptData{
		Game:    g.Name(),
		Player:  p.Name,
		Team:    p.Team,
		Role:    p.Role,
		Board:   engine.PromptView(g.Board(), engine.ViewContext{Player: p, State: g.State()}),
		History: g.History().ToPrompt(t.HistoryRounds),
		Attempt: turn.Attempt,
	}
	for _, a := range engine.ValidActions(g, p) {
		data.Actions = append(data.Actions, promptAction{Name: a.Name(), Fields: a.Schema().Describe()})
	}
	if turn.Rejection != nil {
		data.Rejection = turn.Rejection.Error()
	}

	var system, user bytes.Buffer
	if err := t.system.Execute(&system, data); err != nil {
		return "", "", fmt.Errorf("failed to render system prompt: %w", err)
	}
	if err := t.user.Execute(&user, data); err != nil {
		return "", "", fmt.Errorf("failed to render user prompt: %w", err)
	}
	return system.String(), user.String(), nil
}

// LLM decides by asking a language model for a YAML decision.
type LLM struct {
	gen     Generator
	prompts PromptBuilder
	logger  *zap.Logger

	mu           sync.Mutex
	lastPrompt   string
	lastResponse string
}

// LLMOption configures an LLM agent.
type LLMOption func(*LLM)

// WithPromptBuilder replaces the embedded templates.
func WithPromptBuilder(b PromptBuilder) LLMOption {
	return func(l *LLM) { l.prompts = b }
}

// NewLLM creates an agent backed by gen.
func NewLLM(gen Generator, logger *zap.Logger, opts ...LLMOption) (*LLM, error) {
	if gen == nil {
		return nil, fmt.Errorf("llm agent requires a generator")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &LLM{gen: gen, logger: logger}
	for _, opt := range opts {
		opt(l)
	}
	if l.prompts == nil {
		prompts, err := NewTemplatePrompts(DefaultHistoryRounds)
		if err != nil {
			return nil, err
		}
		l.prompts = prompts
	}
	return l, nil
}

func (l *LLM) GetAction(ctx context.Context, turn engine.Turn) (engine.Decision, error) {
	system, user, err := l.prompts.Build(turn)
	if err != nil {
		return engine.Decision{}, err
	}

	l.logger.Debug("requesting model decision",
		zap.String("player", turn.Player.Name),
		zap.Int("attempt", turn.Attempt),
		zap.Int("prompt_bytes", len(system)+len(user)),
	)

	text, err := l.gen.GenerateContent(ctx, system, user)
	l.remember(user, text)
	if err != nil {
		return engine.Decision{}, fmt.Errorf("failed to generate decision: %w", err)
	}

	d, err := ParseDecision(text)
	if err != nil {
		l.logger.Warn("unparseable model response",
			zap.String("player", turn.Player.Name),
			zap.Error(err),
		)
		return engine.Decision{}, err
	}
	return d, nil
}

// LastExchange returns the user prompt and raw response of the latest call.
func (l *LLM) LastExchange() (string, string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastPrompt, l.lastResponse
}

func (l *LLM) remember(prompt, response string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastPrompt, l.lastResponse = prompt, response
}

// ParseDecision reads a YAML (or JSON) decision, optionally wrapped in a code fence.
// Keys other than action, params and reasoning are taken as params.
func ParseDecision(text string) (engine.Decision, error) {
	clean := strings.TrimSpace(text)
	if i := strings.Index(clean, "```"); i >= 0 {
		clean = clean[i+3:]
		clean = strings.TrimPrefix(clean, "yaml")
		clean = strings.TrimPrefix(clean, "json")
		if j := strings.Index(clean, "```"); j >= 0 {
			clean = clean[:j]
		}
	}
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return engine.Decision{}, &engine.SchemaError{Reason: "empty response"}
	}

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(clean), &raw); err != nil {
		return engine.Decision{}, &engine.SchemaError{Reason: fmt.Sprintf("response is not a YAML mapping: %v", err)}
	}

	d := engine.Decision{Params: engine.Params{}}
	for k, v := range raw {
		switch strings.ToLower(k) {
		case "action":
			if v != nil {
				d.Action = fmt.Sprint(v)
			}
		case engine.ReasoningKey:
			if v != nil {
				d.Reasoning = fmt.Sprint(v)
			}
		case "params":
			if v == nil {
				continue
			}
			params, ok := v.(map[string]any)
			if !ok {
				return engine.Decision{}, &engine.SchemaError{Action: d.Action, Field: "params", Reason: "must be a mapping"}
			}
			for pk, pv := range params {
				d.Params[pk] = pv
			}
		default:
			d.Params[k] = v
		}
	}
	return d, nil
}
