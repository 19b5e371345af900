// Package progression maps cumulative experience to levels.
package progression

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/abhisek/habla/internal/exercise"
)

// ErrUnranked is returned by Table.Rank when no threshold contains the
// experience value.
var ErrUnranked = errors.New("experience outside every level threshold")

// Threshold is one level's experience range. Both bounds are inclusive.
type Threshold struct {
	Level int
	Min   int
	Max   int
}

// Level is the result of a threshold lookup.
type Level struct {
	Number   int
	Progress int // percent through the level, 0-100

	// Ranked is false when no threshold contains the experience value.
	Ranked bool
}

// Label returns a short human-readable form of the level.
func (l Level) Label() string {
	if !l.Ranked {
		return "sin nivel"
	}
	return fmt.Sprintf("Nivel %d (%d%%)", l.Number, l.Progress)
}

// Table is an ordered set of level thresholds.
type Table []Threshold

// NewTable returns a copy of thresholds sorted by level.
func NewTable(thresholds []Threshold) Table {
	t := make(Table, len(thresholds))
	copy(t, thresholds)
	sort.Slice(t, func(i, j int) bool { return t[i].Level < t[j].Level })
	return t
}

// LevelFor returns the level containing xp. A value outside every
// threshold yields an unranked Level rather than an error.
func (t Table) LevelFor(xp int) Level {
	for _, th := range t {
		if xp < th.Min || xp > th.Max {
			continue
		}
		return Level{Number: th.Level, Progress: progress(xp, th), Ranked: true}
	}
	return Level{}
}

// Rank is LevelFor for callers that want an error for unranked values.
func (t Table) Rank(xp int) (Level, error) {
	lvl := t.LevelFor(xp)
	if !lvl.Ranked {
		return lvl, fmt.Errorf("%w: %d", ErrUnranked, xp)
	}
	return lvl, nil
}

// Validate checks that the thresholds start at zero, ascend by level and
// cover a contiguous range with no gaps or overlaps.
func (t Table) Validate() error {
	if len(t) == 0 {
		return errors.New("no level thresholds")
	}
	if t[0].Min != 0 {
		return fmt.Errorf("level %d starts at %d, want 0", t[0].Level, t[0].Min)
	}
	for i, th := range t {
		if th.Max < th.Min {
			return fmt.Errorf("level %d: max %d below min %d", th.Level, th.Max, th.Min)
		}
		if i == 0 {
			continue
		}
		prev := t[i-1]
		if th.Level <= prev.Level {
			return fmt.Errorf("level %d listed after level %d", th.Level, prev.Level)
		}
		if th.Min != prev.Max+1 {
			if th.Min <= prev.Max {
				return fmt.Errorf("level %d overlaps level %d", th.Level, prev.Level)
			}
			return fmt.Errorf("gap between level %d and level %d", prev.Level, th.Level)
		}
	}
	return nil
}

// Top returns the highest experience value that is still ranked.
func (t Table) Top() int {
	if len(t) == 0 {
		return -1
	}
	return t[len(t)-1].Max
}

// ApplyReward returns the experience after winning ex. It is only called for
// won attempts, so experience never decreases.
func ApplyReward(current int, ex exercise.Exercise) int {
	return current + ex.Reward
}

// DefaultThresholds returns the ten-level table seeded into new stores.
func DefaultThresholds() []Threshold {
	return []Threshold{
		{Level: 1, Min: 0, Max: 99},
		{Level: 2, Min: 100, Max: 249},
		{Level: 3, Min: 250, Max: 449},
		{Level: 4, Min: 450, Max: 699},
		{Level: 5, Min: 700, Max: 999},
		{Level: 6, Min: 1000, Max: 1349},
		{Level: 7, Min: 1350, Max: 1749},
		{Level: 8, Min: 1750, Max: 2199},
		{Level: 9, Min: 2200, Max: 2699},
		{Level: 10, Min: 2700, Max: 3299},
	}
}

func progress(xp int, th Threshold) int {
	if th.Max == th.Min {
		return 100
	}
	return int(math.Round(100 * float64(xp-th.Min) / float64(th.Max-th.Min)))
}
