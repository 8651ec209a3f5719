package engine

// RuleStats is the scheduler's per-rule bookkeeping.
type RuleStats struct {
	// TimesApplied counts searches whose matches were passed through.
	TimesApplied int

	// BannedUntil is the first iteration at which the rule is searched
	// again. Never decreases.
	BannedUntil int

	// TimesBanned counts bans; each ban doubles the next threshold and
	// ban length.
	TimesBanned int
}

// StatsTable holds RuleStats keyed by rule name in first-seen order.
// Entries are created lazily and never removed during a run.
type StatsTable struct {
	byName map[string]*RuleStats
	order  []string
}

func newStatsTable() *StatsTable {
	return &StatsTable{byName: make(map[string]*RuleStats)}
}

// lookup returns the mutable entry for name and whether it existed.
// A missing entry is created with every field zero.
func (t *StatsTable) lookup(name string) (*RuleStats, bool) {
	if s, ok := t.byName[name]; ok {
		return s, true
	}
	s := &RuleStats{}
	t.byName[name] = s
	t.order = append(t.order, name)
	return s, false
}

// Get returns a copy of the stats for name.
func (t *StatsTable) Get(name string) (RuleStats, bool) {
	s, ok := t.byName[name]
	if !ok {
		return RuleStats{}, false
	}
	return *s, true
}

// Names returns rule names in first-seen order.
func (t *StatsTable) Names() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Len returns the number of tracked rules.
func (t *StatsTable) Len() int {
	return len(t.order)
}

// anyBannedAt reports whether some rule is still banned at iteration iter.
func (t *StatsTable) anyBannedAt(iter int) bool {
	for _, name := range t.order {
		if t.byName[name].BannedUntil > iter {
			return true
		}
	}
	return false
}

func (t *StatsTable) clone() *StatsTable {
	c := &StatsTable{
		byName: make(map[string]*RuleStats, len(t.byName)),
		order:  make([]string, len(t.order)),
	}
	copy(c.order, t.order)
	for name, s := range t.byName {
		stats := *s
		c.byName[name] = &stats
	}
	return c
}
