package datasets

import (
	"math/rand"
	"sync"
	"testing"
)

func TestTally(t *testing.T) {
	var tally Tally
	tally.Init()

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				tally.AddToCorrect(1, 1, false)
				tally.AddToCorrect(2, -1, false)
				tally.AddToCorrect(3, 1, false)
				tally.AddToCorrect(3, -1, false)
			}
		}()
	}
	wg.Wait()
	tally.AddToImprove(4, 1)
	tally.AddToImprove(1, -1)

	if tally.GetImprovementPossible() {
		t.Errorf("improvement reported without any improving vote")
	}
	d := tally.Dataset()
	if len(d) != 3 || !d[1] || d[2] || !d[4] {
		t.Errorf("unexpected dataset %v", d)
	}
	if _, ok := d[3]; ok {
		t.Errorf("tied feature kept")
	}
	neg, pos := d.Count()
	if neg != 1 || pos != 2 {
		t.Errorf("count = %d, %d", neg, pos)
	}

	s := tally.Strongest(2)
	if len(s) != 2 || !s[1] || s[2] {
		t.Errorf("unexpected strongest %v", s)
	}

	tally.AddToCorrect(9, 1, true)
	if !tally.GetImprovementPossible() {
		t.Errorf("improvement not reported")
	}
}

func TestSplitBalance(t *testing.T) {
	d := Dataset{1: true, 2: false, 3: false, 4: false}
	sd := SplitDataset(d)
	if len(sd[0]) != 3 || len(sd[1]) != 1 {
		t.Fatalf("split sizes %d %d", len(sd[0]), len(sd[1]))
	}
	sd = BalanceDataset(sd, rand.New(rand.NewSource(1)))
	if len(sd[0]) != len(sd[1]) {
		t.Fatalf("balance sizes %d %d", len(sd[0]), len(sd[1]))
	}
	for v := range sd[1] {
		if _, ok := sd[0][v]; ok {
			t.Errorf("value %d in both sets", v)
		}
	}
	sl := sd.Slices()
	if len(sl[0]) != 3 || len(sl[1]) != 3 {
		t.Errorf("slices sizes %d %d", len(sl[0]), len(sl[1]))
	}
}
