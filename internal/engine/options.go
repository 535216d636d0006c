package engine

import (
	"fmt"
	"sort"

	"github.com/spf13/cast"
)

// Options is the configuration passed to Game.Setup.
type Options map[string]any

// Clone copies o together with any nested lists and maps, so games set up from
// the clones share no option values.
func (o Options) Clone() Options {
	if o == nil {
		return nil
	}
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = cloneOption(v)
	}
	return out
}

func cloneOption(v any) any {
	switch t := v.(type) {
	case []int:
		return append([]int(nil), t...)
	case []int64:
		return append([]int64(nil), t...)
	case []float64:
		return append([]float64(nil), t...)
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneOption(e)
		}
		return out
	case map[string]any:
		return map[string]any(Options(t).Clone())
	case Options:
		return t.Clone()
	default:
		return v
	}
}

// OptionReader reads typed options and collects every problem it meets, including
// options the game does not recognize.
type OptionReader struct {
	game     string
	opts     Options
	known    map[string]bool
	problems []error
}

// ReadOptions starts reading opts for game. Only keys listed in recognized are accepted.
func ReadOptions(game string, opts Options, recognized ...string) *OptionReader {
	r := &OptionReader{
		game:  game,
		opts:  opts,
		known: make(map[string]bool, len(recognized)),
	}
	for _, k := range recognized {
		r.known[k] = true
	}
	return r
}

// Int reads an integer option or returns def when absent.
func (r *OptionReader) Int(key string, def int) int {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		r.Fail(key, fmt.Sprintf("expected integer, got %v", v))
		return def
	}
	return n
}

// Int64 reads a 64-bit integer option or returns def when absent.
func (r *OptionReader) Int64(key string, def int64) int64 {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		r.Fail(key, fmt.Sprintf("expected integer, got %v", v))
		return def
	}
	return n
}

// IntSlice reads a list of integers or returns def when absent.
func (r *OptionReader) IntSlice(key string, def []int) []int {
	v, ok := r.lookup(key)
	if !ok {
		return append([]int(nil), def...)
	}
	n, err := cast.ToIntSliceE(v)
	if err != nil {
		r.Fail(key, fmt.Sprintf("expected list of integers, got %v", v))
		return append([]int(nil), def...)
	}
	// cast hands a []int back as is; the game must not write into the caller's list.
	return append([]int(nil), n...)
}

// StringSlice reads a list of strings or returns def when absent.
func (r *OptionReader) StringSlice(key string, def []string) []string {
	v, ok := r.lookup(key)
	if !ok {
		return append([]string(nil), def...)
	}
	s, err := cast.ToStringSliceE(v)
	if err != nil {
		r.Fail(key, fmt.Sprintf("expected list of strings, got %v", v))
		return append([]string(nil), def...)
	}
	return append([]string(nil), s...)
}

// Has reports whether the option was supplied.
func (r *OptionReader) Has(key string) bool {
	_, ok := r.lookup(key)
	return ok
}

// Fail records a problem with key.
func (r *OptionReader) Fail(key, reason string) {
	r.problems = append(r.problems, fmt.Errorf("option %q: %s", key, reason))
}

// Err returns a *SetupError listing unknown options and every recorded problem, or nil.
func (r *OptionReader) Err() error {
	var unknown []string
	for k := range r.opts {
		if !r.known[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)

	problems := make([]error, 0, len(unknown)+len(r.problems))
	for _, k := range unknown {
		problems = append(problems, fmt.Errorf("option %q is not recognized", k))
	}
	problems = append(problems, r.problems...)
	return NewSetupError(r.game, problems...)
}

func (r *OptionReader) lookup(key string) (any, bool) {
	if !r.known[key] {
		Invariant("%s reads undeclared option %q", r.game, key)
	}
	v, ok := r.opts[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}
