package msg

import "sort"

// Tally folds lifecycle events per client order id.
type Tally struct {
	last     map[string]LifecycleEventMsg
	seen     map[string]bool
	events   int
	Repeated int
}

// NewTally returns an empty tally.
func NewTally() *Tally {
	return &Tally{
		last: make(map[string]LifecycleEventMsg),
		seen: make(map[string]bool),
	}
}

// Add records ev. Redelivered event ids are counted once.
func (t *Tally) Add(ev LifecycleEventMsg) {
	if t.seen[ev.EventID] {
		t.Repeated++
		return
	}
	t.seen[ev.EventID] = true
	t.events++

	prev, ok := t.last[ev.ClOrdID]
	if !ok || ev.TsUnixMillis >= prev.TsUnixMillis {
		t.last[ev.ClOrdID] = ev
	}
}

// Events and Orders count distinct events and client order ids.
func (t *Tally) Events() int { return t.events }
func (t *Tally) Orders() int { return len(t.last) }

// Unfinished returns the orders whose latest event is not final, sorted by id.
func (t *Tally) Unfinished() []LifecycleEventMsg {
	var out []LifecycleEventMsg
	for _, ev := range t.last {
		if !ev.Final() {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClOrdID < out[j].ClOrdID })
	return out
}
