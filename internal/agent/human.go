package agent

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/turnforge/turnforge/internal/engine"
)

// Console is a shared terminal. Several human seats may sit at one console; it
// serves one prompt and one answer at a time.
type Console struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewConsole wraps an input and an output stream.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// Human asks a person at a console. Answers are one line of key=value tokens,
// for example "action=remove pile=2 count=1". The action token may be left out
// when only one action is open, and a bare first word is read as the action.
type Human struct {
	console       *Console
	historyRounds int
}

// NewHuman seats a person at console.
func NewHuman(console *Console, historyRounds int) *Human {
	return &Human{console: console, historyRounds: historyRounds}
}

type consoleLine struct {
	text string
	err  error
}

func (h *Human) GetAction(ctx context.Context, turn engine.Turn) (engine.Decision, error) {
	lines := make(chan consoleLine, 1)
	go func() {
		h.console.mu.Lock()
		defer h.console.mu.Unlock()
		h.prompt(turn)
		text, err := h.console.in.ReadString('\n')
		lines <- consoleLine{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return engine.Decision{}, ctx.Err()
	case line := <-lines:
		if line.err != nil && !(errors.Is(line.err, io.EOF) && strings.TrimSpace(line.text) != "") {
			return engine.Decision{}, fmt.Errorf("failed to read input: %w", line.err)
		}
		return ParseLine(line.text)
	}
}

func (h *Human) prompt(turn engine.Turn) {
	g, p := turn.Game, turn.Player
	w := h.console.out

	fmt.Fprintf(w, "\n=== %s", p.Name)
	if p.Role != "" && p.Role != "player" {
		fmt.Fprintf(w, " (%s)", p.Role)
	}
	fmt.Fprintln(w, " ===")
	fmt.Fprintln(w, engine.View(g, p))
	fmt.Fprintln(w, g.History().ToPrompt(h.historyRounds))
	fmt.Fprintln(w, "\nActions:")
	for _, a := range engine.ValidActions(g, p) {
		fmt.Fprintf(w, "  %s\n", a.Name())
		for _, f := range a.Schema().Describe() {
			fmt.Fprintf(w, "    %s\n", f)
		}
	}
	if turn.Rejection != nil {
		fmt.Fprintf(w, "\nRejected: %v\n", turn.Rejection)
	}
	fmt.Fprint(w, "> ")
}

// ParseLine reads a console answer into a decision.
func ParseLine(line string) (engine.Decision, error) {
	d := engine.Decision{Params: engine.Params{}}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return d, &engine.SchemaError{Reason: "empty input"}
	}
	for i, f := range fields {
		key, value, ok := strings.Cut(f, "=")
		if !ok {
			if i == 0 {
				d.Action = f
				continue
			}
			return d, &engine.SchemaError{Action: d.Action, Reason: fmt.Sprintf("expected key=value, got %q", f)}
		}
		if key == "" {
			return d, &engine.SchemaError{Action: d.Action, Reason: fmt.Sprintf("missing key in %q", f)}
		}
		if key == "action" {
			d.Action = value
			continue
		}
		d.Params[key] = value
	}
	return d, nil
}
