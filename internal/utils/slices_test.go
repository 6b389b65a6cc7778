package utils

import (
	"math/rand/v2"
	"slices"
	"testing"
)

func TestMostCommon(t *testing.T) {
	tests := []struct {
		name   string
		items  []int
		want   int
		wantOK bool
	}{
		{name: "empty", items: nil, want: 0, wantOK: false},
		{name: "single", items: []int{7}, want: 7, wantOK: true},
		{name: "clear winner", items: []int{1, 2, 2, 3, 2}, want: 2, wantOK: true},
		{name: "tie first occurrence wins", items: []int{4, 5, 5, 4}, want: 4, wantOK: true},
		{name: "tie later element first seen", items: []int{9, 3, 3, 9, 1}, want: 9, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MostCommon(tt.items)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("MostCommon(%v) = (%v, %v), want (%v, %v)", tt.items, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	in := []int{1, 2, 3, 4, 5, 6, 7, 8}
	out := Shuffle(rng, in)

	if !slices.Equal(in, []int{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Fatal("Shuffle modified its input")
	}
	sorted := slices.Clone(out)
	slices.Sort(sorted)
	if !slices.Equal(sorted, in) {
		t.Errorf("Shuffle(%v) = %v is not a permutation", in, out)
	}
}

func TestShuffleThenModeSpreadsTies(t *testing.T) {
	seen := map[int]bool{}
	for seed := uint64(0); seed < 64; seed++ {
		rng := rand.New(rand.NewPCG(seed, seed+1))
		mode, _ := MostCommon(Shuffle(rng, []int{1, 2, 3}))
		seen[mode] = true
	}
	if len(seen) != 3 {
		t.Errorf("expected every tied element to win for some seed, got %v", seen)
	}
}

func TestUnique(t *testing.T) {
	if got := Unique([]int{3, 1, 3, 2, 1}); !slices.Equal(got, []int{3, 1, 2}) {
		t.Errorf("Unique() = %v", got)
	}
}
