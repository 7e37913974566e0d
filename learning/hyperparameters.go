package learning

import "time"

import "github.com/neurlang/lidbox/parallel"

// HyperParameters control the salt search of the learning stage.
type HyperParameters struct {
	Threads int // number of threads for learning

	Seed    int64 // seeds the salt search, zero seeds from the clock
	Balance bool  // whether to balance the sets with random values before learning

	// Factor sets how crowded each modulo step is, the next modulo is
	// falsecount*truecount/Factor. Bigger factors shrink the problem faster
	// but need more salts per step.
	Factor uint32

	MaxModulo   uint32 // upper bound of the initial modulo
	SaltBudget  uint32 // salts tried per step before the step counts as failed
	Retries     int    // failed steps tolerated before giving up
	ParityLimit int    // attempt the final parity step once this few values remain

	Deadline time.Duration // deadline for one Training call, zero is unlimited
}

// NewHyperParameters returns the default hyper parameters.
func NewHyperParameters() *HyperParameters {
	return &HyperParameters{
		Threads:     parallel.Threads(),
		Factor:      4,
		MaxModulo:   1 << 24,
		SaltBudget:  1 << 16,
		Retries:     64,
		ParityLimit: 12,
	}
}

func (h *HyperParameters) fill() {
	var d = NewHyperParameters()
	if h.Threads <= 0 {
		h.Threads = d.Threads
	}
	if h.Factor == 0 {
		h.Factor = d.Factor
	}
	if h.MaxModulo < 2 {
		h.MaxModulo = d.MaxModulo
	}
	if h.SaltBudget == 0 {
		h.SaltBudget = d.SaltBudget
	}
	if h.Retries <= 0 {
		h.Retries = d.Retries
	}
	if h.ParityLimit < 2 {
		h.ParityLimit = d.ParityLimit
	}
}
