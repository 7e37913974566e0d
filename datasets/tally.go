package datasets

import "sort"
import "sync"

// Tally is used to count votes on dataset features and return the majority votes
type Tally struct {
	// these are votes in case when the feature caused correct overall result
	// true value is added as +1, false value is voted as -1
	// if the tally is positive we map the feature to true, false if negative
	correct map[uint32]int64

	// these are votes in case when the feature caused better result
	improve map[uint32]int64

	mut sync.Mutex

	// improvementPossible reports whether some vote could change a hashtron output
	improvementPossible bool
}

// Init initializes the tally dataset structure
func (t *Tally) Init() {
	t.correct = make(map[uint32]int64)
	t.improve = make(map[uint32]int64)
	t.improvementPossible = false
}

// Free frees the memory occupied by tally dataset structure
func (t *Tally) Free() {
	t.correct = nil
	t.improve = nil
}

// GetImprovementPossible reads improvementPossible
func (t *Tally) GetImprovementPossible() bool {
	t.mut.Lock()
	defer t.mut.Unlock()
	return t.improvementPossible
}

// Len estimates the size of tally
func (t *Tally) Len() (o int) {
	t.mut.Lock()
	o = len(t.correct) + len(t.improve)
	t.mut.Unlock()
	return
}

// AddToImprove votes for feature which improved the overall result
func (t *Tally) AddToImprove(feature uint32, vote int8) {
	if vote == 0 {
		return
	}
	t.mut.Lock()
	t.improve[feature] += int64(vote)
	if t.improve[feature] == 0 {
		delete(t.improve, feature)
	}
	t.mut.Unlock()
}

// AddToCorrect votes for feature which caused the overall result to be correct
func (t *Tally) AddToCorrect(feature uint32, vote int8, improvement bool) {
	if vote == 0 {
		return
	}
	t.mut.Lock()
	t.correct[feature] += int64(vote)
	if t.correct[feature] == 0 {
		delete(t.correct, feature)
	}
	if improvement {
		t.improvementPossible = true
	}
	t.mut.Unlock()
}

// votes merges both vote maps, correct votes overriding improve votes.
func (t *Tally) votes() map[uint32]int64 {
	var all = make(map[uint32]int64, len(t.correct)+len(t.improve))
	for value, rating := range t.improve {
		all[value] = rating
	}
	for value, rating := range t.correct {
		all[value] = rating
	}
	return all
}

// Dataset returns the majority vote of each feature. Tied features are left out.
func (t *Tally) Dataset() Dataset {
	return t.Strongest(0)
}

// Strongest is Dataset restricted to at most limit features with the largest
// absolute votes. Limit 0 means no restriction. Equal votes keep the smaller feature.
func (t *Tally) Strongest(limit int) Dataset {
	t.mut.Lock()
	var all = t.votes()
	t.mut.Unlock()

	var keys = make([]uint32, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	if limit > 0 && len(keys) > limit {
		sort.Slice(keys, func(i, j int) bool {
			a, b := abs(all[keys[i]]), abs(all[keys[j]])
			if a != b {
				return a > b
			}
			return keys[i] < keys[j]
		})
		keys = keys[:limit]
	}
	var sett Dataset
	sett.Init()
	for _, k := range keys {
		sett[k] = all[k] > 0
	}
	return sett
}

// Split splits the tally structure into a splitted dataset
func (t *Tally) Split() SplittedDataset {
	return SplitDataset(t.Dataset())
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
