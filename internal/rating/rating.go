// internal/rating/rating.go
package rating

import (
	"math"
	"sort"
)

// Table tracks a per-identity rating across the rounds played at one room,
// keyed by stable client id. It is used to size up the table when picking
// bot skill tiers and is as ephemeral as the room that owns it.
type Table struct {
	ratings map[string]Rating
}

// NewTable returns an empty rating table.
func NewTable() *Table {
	return &Table{ratings: make(map[string]Rating)}
}

// Get returns the identity's current rating, creating the baseline entry
// on first sight.
func (t *Table) Get(key string) Rating {
	if r, ok := t.ratings[key]; ok {
		return r
	}
	r := NewRating(DefaultElo, DefaultPhi, DefaultSigma)
	t.ratings[key] = r
	return r
}

// Elo returns the identity's rating on the 1500-based scale.
func (t *Table) Elo(key string) float64 {
	return t.Get(key).Elo()
}

// Mean returns the average rating of the given identities, or the baseline
// for an empty list.
func (t *Table) Mean(keys []string) float64 {
	if len(keys) == 0 {
		return DefaultElo
	}
	var total float64
	for _, k := range keys {
		total += t.Elo(k)
	}
	return total / float64(len(keys))
}

// FinalizeRound folds one round's scores (lower is better) into the table.
// Scores become rank fractions in [0,1] with ties sharing their average
// rank, then each identity is updated against the mean of the rest.
func (t *Table) FinalizeRound(scores map[string]int) {
	if len(scores) < 2 {
		return
	}

	type entry struct {
		key   string
		score int
	}
	arr := make([]entry, 0, len(scores))
	for k, s := range scores {
		arr = append(arr, entry{k, s})
	}
	sort.Slice(arr, func(i, j int) bool {
		if arr[i].score != arr[j].score {
			return arr[i].score < arr[j].score
		}
		return arr[i].key < arr[j].key
	})

	frac := make(map[string]float64, len(arr))
	i := 0
	for i < len(arr) {
		j := i + 1
		for j < len(arr) && arr[j].score == arr[i].score {
			j++
		}
		avgRank := float64(i+(j-1)) / 2
		fr := 1.0 - avgRank/float64(len(arr)-1)
		for k := i; k < j; k++ {
			frac[arr[k].key] = fr
		}
		i = j
	}

	var totalElo float64
	for _, en := range arr {
		totalElo += t.Elo(en.key)
	}

	updated := make(map[string]Rating, len(arr))
	for _, en := range arr {
		mine := t.Get(en.key)
		oppElo := (totalElo - mine.Elo()) / float64(len(arr)-1)
		opp := NewRating(oppElo, DefaultPhi, DefaultSigma)
		next := Update(mine, opp, frac[en.key])
		// Keep the stored elo an integer-friendly value for display.
		next.Mu = (math.Round(next.Elo()) - DefaultElo) / GlickoScale
		updated[en.key] = next
	}
	for k, r := range updated {
		t.ratings[k] = r
	}
}
