package engine

import (
	"fmt"
	"strings"
)

// Fact is one key/value pair of a history record.
type Fact struct {
	Key   string
	Value any
}

// Record is a resolved, public fact about something that happened:
// {type, player, ...action-specific fields}.
type Record struct {
	Type   string
	Player string
	Facts  []Fact
}

// NewRecord builds a record from alternating key/value pairs.
func NewRecord(recordType, player string, kv ...any) Record {
	r := Record{Type: recordType, Player: player}
	for i := 0; i+1 < len(kv); i += 2 {
		r.Facts = append(r.Facts, Fact{Key: fmt.Sprint(kv[i]), Value: kv[i+1]})
	}
	return r
}

// Get returns the value recorded under key.
func (r Record) Get(key string) (any, bool) {
	for _, f := range r.Facts {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Map flattens the record for structured sinks.
func (r Record) Map() map[string]any {
	m := make(map[string]any, len(r.Facts)+2)
	for _, f := range r.Facts {
		m[f.Key] = f.Value
	}
	m["type"] = r.Type
	m["player"] = r.Player
	return m
}

// String formats the record as "player type k=v ...".
func (r Record) String() string {
	player := r.Player
	if player == "" {
		player = "Unknown"
	}
	recordType := r.Type
	if recordType == "" {
		recordType = "unknown"
	}
	parts := []string{player, recordType}
	for _, f := range r.Facts {
		parts = append(parts, fmt.Sprintf("%s=%v", f.Key, f.Value))
	}
	return strings.Join(parts, " ")
}

// Round groups the records of one cycle of play.
type Round struct {
	records []Record
}

// Records returns a copy of the round's records.
func (r *Round) Records() []Record {
	return append([]Record(nil), r.records...)
}

// Len returns the number of records in the round.
func (r *Round) Len() int { return len(r.records) }

// History is the append-only log of a game. Records are never mutated or
// reordered once appended, and nothing is appended after Close.
type History struct {
	rounds []*Round
	total  int
	closed bool
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{}
}

// StartRound opens a new round and returns it.
func (h *History) StartRound() *Round {
	r := &Round{}
	h.rounds = append(h.rounds, r)
	return r
}

func (h *History) currentRound() *Round {
	if len(h.rounds) == 0 {
		return h.StartRound()
	}
	return h.rounds[len(h.rounds)-1]
}

// Add appends the history record of an applied action to the current round.
func (h *History) Add(a Action, p *Player, params Params) {
	h.Append(a.HistoryRecord(p, params))
}

// Append adds a record produced outside an action, such as an automatic step.
func (h *History) Append(r Record) {
	if h.closed {
		Invariant("history append after game end: %s", r)
	}
	round := h.currentRound()
	round.records = append(round.records, r)
	h.total++
}

// Close seals the history once the game is over.
func (h *History) Close() { h.closed = true }

// Closed reports whether the history is sealed.
func (h *History) Closed() bool { return h.closed }

// Len returns the total number of records across rounds.
func (h *History) Len() int { return h.total }

// Rounds returns the rounds in order.
func (h *History) Rounds() []*Round {
	return append([]*Round(nil), h.rounds...)
}

// Records returns every record in apply order.
func (h *History) Records() []Record {
	out := make([]Record, 0, h.total)
	for _, r := range h.rounds {
		out = append(out, r.records...)
	}
	return out
}

// Last returns the most recent record.
func (h *History) Last() (Record, bool) {
	for i := len(h.rounds) - 1; i >= 0; i-- {
		if n := len(h.rounds[i].records); n > 0 {
			return h.rounds[i].records[n-1], true
		}
	}
	return Record{}, false
}

// ToPrompt renders the last maxRounds non-empty rounds for prompts and display.
// maxRounds <= 0 renders every round.
func (h *History) ToPrompt(maxRounds int) string {
	type numbered struct {
		n     int
		round *Round
	}
	var nonEmpty []numbered
	for i, r := range h.rounds {
		if len(r.records) > 0 {
			nonEmpty = append(nonEmpty, numbered{n: i + 1, round: r})
		}
	}

	if len(nonEmpty) == 0 {
		return "No previous rounds have been played yet."
	}
	if maxRounds > 0 && len(nonEmpty) > maxRounds {
		nonEmpty = nonEmpty[len(nonEmpty)-maxRounds:]
	}

	lines := []string{"Game history so far:"}
	for _, nr := range nonEmpty {
		lines = append(lines, "", fmt.Sprintf("Round %d:", nr.n))
		for _, rec := range nr.round.records {
			lines = append(lines, "- "+rec.String())
		}
	}
	return strings.Join(lines, "\n")
}
