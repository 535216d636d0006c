package engine

import "sort"

// DecisionSet collects one decision per eligible seat during a simultaneous phase.
// The phase is complete once every eligible seat has submitted.
type DecisionSet struct {
	eligible  map[int]bool
	decisions map[int]string
}

// NewDecisionSet starts a collection over the eligible seats.
func NewDecisionSet(eligible ...int) *DecisionSet {
	d := &DecisionSet{}
	d.Reset(eligible...)
	return d
}

// Reset clears collected decisions and replaces the eligible seats.
func (d *DecisionSet) Reset(eligible ...int) {
	d.eligible = make(map[int]bool, len(eligible))
	for _, s := range eligible {
		d.eligible[s] = true
	}
	d.decisions = make(map[int]string, len(eligible))
}

// Eligible reports whether seat takes part in this collection.
func (d *DecisionSet) Eligible(seat int) bool { return d.eligible[seat] }

// Has reports whether seat already submitted.
func (d *DecisionSet) Has(seat int) bool {
	_, ok := d.decisions[seat]
	return ok
}

// Submit records a decision. Submitting for an ineligible seat or twice is a defect:
// Validate must have refused it.
func (d *DecisionSet) Submit(seat int, decision string) {
	if !d.eligible[seat] {
		Invariant("seat %d is not eligible in this decision set", seat)
	}
	if d.Has(seat) {
		Invariant("seat %d already decided", seat)
	}
	d.decisions[seat] = decision
}

// Complete reports whether every eligible seat has submitted.
func (d *DecisionSet) Complete() bool {
	return len(d.eligible) > 0 && len(d.decisions) == len(d.eligible)
}

// Pending returns the eligible seats still owing a decision, in seat order.
func (d *DecisionSet) Pending() []int {
	var out []int
	for s := range d.eligible {
		if !d.Has(s) {
			out = append(out, s)
		}
	}
	sort.Ints(out)
	return out
}

// Decisions returns a copy of the collected seat -> decision map.
func (d *DecisionSet) Decisions() map[int]string {
	out := make(map[int]string, len(d.decisions))
	for k, v := range d.decisions {
		out[k] = v
	}
	return out
}

// Seats returns the seats that chose decision, in seat order.
func (d *DecisionSet) Seats(decision string) []int {
	var out []int
	for s, v := range d.decisions {
		if v == decision {
			out = append(out, s)
		}
	}
	sort.Ints(out)
	return out
}
