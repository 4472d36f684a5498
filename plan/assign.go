package plan

// Mode selects how many workers share one merge.
type Mode int

const (
	// Single gives each pair to one worker, which merges and copies back.
	Single Mode = iota
	// Double splits each pair between two workers: the low half goes to
	// the even worker, the high half to the odd one.
	Double
)

func (m Mode) String() string {
	switch m {
	case Single:
		return "single"
	case Double:
		return "double"
	}
	return "unknown"
}

// Role is what a worker does in one round.
type Role int

const (
	Idle Role = iota
	Full
	Mins
	Maxes
)

func (r Role) String() string {
	switch r {
	case Idle:
		return "idle"
	case Full:
		return "merge"
	case Mins:
		return "mins"
	case Maxes:
		return "maxes"
	}
	return "unknown"
}

// Assignment is one worker's job in one round.
type Assignment struct {
	Role Role
	Pair Pair
}

// ActiveWorkers is the number of workers with a non idle role in the round.
func (r Round) ActiveWorkers(mode Mode) int {
	if mode == Double {
		return 2 * len(r.Pairs)
	}
	return len(r.Pairs)
}

// Assign returns what worker does in this round.
func (r Round) Assign(worker int, mode Mode) Assignment {
	if worker < 0 || worker >= r.ActiveWorkers(mode) {
		return Assignment{Role: Idle}
	}
	if mode == Double {
		role := Mins
		if worker%2 == 1 {
			role = Maxes
		}
		return Assignment{Role: role, Pair: r.Pairs[worker/2]}
	}
	return Assignment{Role: Full, Pair: r.Pairs[worker]}
}
