// Package stats summarizes a patient's play history.
package stats

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/abhisek/habla/internal/exercise"
)

// RecentLimit is the number of instances reported in Summary.Recent.
const RecentLimit = 5

// Source provides the history a summary is derived from.
type Source interface {
	ListInstances(ctx context.Context, patientID string) ([]exercise.PlayInstance, error)
	ExercisesByID(ctx context.Context, ids []string) (map[string]exercise.Exercise, error)
}

// Group is the won/lost tally for one variant or area.
type Group struct {
	Key   string
	Label string
	Won   int
	Lost  int
	Rate  int // percent won of won+lost
}

// RecentPlay is one instance with the exercise fields needed to show it.
type RecentPlay struct {
	Instance exercise.PlayInstance
	Title    string
	Variant  exercise.Variant
}

// Totals aggregates every instance of the patient.
type Totals struct {
	Played     int
	Won        int
	Lost       int
	Errors     int
	Rate       int
	Experience int
}

// Summary is the statistics view of a patient's history.
type Summary struct {
	PatientID string
	ByVariant []Group
	ByArea    []Group
	Recent    []RecentPlay
	Totals    Totals
}

// Aggregator computes summaries from a Source. Nothing is cached; every call
// reads the full history.
type Aggregator struct {
	source Source
}

// NewAggregator creates an Aggregator.
func NewAggregator(source Source) *Aggregator {
	return &Aggregator{source: source}
}

// Summarize returns the summary for patientID.
func (a *Aggregator) Summarize(ctx context.Context, patientID string) (*Summary, error) {
	instances, err := a.source.ListInstances(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}

	ids := uniqueExerciseIDs(instances)
	exercises, err := a.source.ExercisesByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load exercises: %w", err)
	}

	return Compute(patientID, instances, exercises), nil
}

// Compute builds a summary from already loaded data. Instances whose
// exercise is missing from exercises still count toward totals.
func Compute(patientID string, instances []exercise.PlayInstance, exercises map[string]exercise.Exercise) *Summary {
	byVariant := make(map[exercise.Variant]*Group)
	byArea := make(map[exercise.Area]*Group)
	var totals Totals

	for _, inst := range instances {
		totals.Played++
		switch inst.Outcome {
		case exercise.OutcomeWon:
			totals.Won++
			totals.Experience += inst.Awarded()
		case exercise.OutcomeLost:
			totals.Lost++
		default:
			totals.Errors++
			continue
		}

		ex, ok := exercises[inst.ExerciseID]
		if !ok {
			continue
		}
		tally(groupFor(byVariant, ex.Variant), inst.Outcome)
		tally(groupFor(byArea, ex.Area), inst.Outcome)
	}
	totals.Rate = rate(totals.Won, totals.Lost)

	s := &Summary{PatientID: patientID, Totals: totals}
	for _, v := range exercise.AllVariants() {
		if g, ok := byVariant[v]; ok {
			g.Key, g.Label, g.Rate = string(v), v.DisplayName(), rate(g.Won, g.Lost)
			s.ByVariant = append(s.ByVariant, *g)
		}
	}
	for _, area := range append(exercise.AllAreas(), exercise.AreaNone) {
		if g, ok := byArea[area]; ok {
			g.Key, g.Label, g.Rate = string(area), area.DisplayName(), rate(g.Won, g.Lost)
			s.ByArea = append(s.ByArea, *g)
		}
	}
	s.Recent = recent(instances, exercises)
	return s
}

func groupFor[K comparable](m map[K]*Group, k K) *Group {
	g, ok := m[k]
	if !ok {
		g = &Group{}
		m[k] = g
	}
	return g
}

func tally(g *Group, o exercise.Outcome) {
	if o == exercise.OutcomeWon {
		g.Won++
	} else {
		g.Lost++
	}
}

func rate(won, lost int) int {
	if won+lost == 0 {
		return 0
	}
	return int(math.Round(100 * float64(won) / float64(won+lost)))
}

// recent returns the newest instances, by timestamp then sequence.
func recent(instances []exercise.PlayInstance, exercises map[string]exercise.Exercise) []RecentPlay {
	sorted := make([]exercise.PlayInstance, len(instances))
	copy(sorted, instances)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		}
		return sorted[i].Sequence > sorted[j].Sequence
	})
	if len(sorted) > RecentLimit {
		sorted = sorted[:RecentLimit]
	}

	out := make([]RecentPlay, len(sorted))
	for i, inst := range sorted {
		ex := exercises[inst.ExerciseID]
		out[i] = RecentPlay{Instance: inst, Title: ex.Title, Variant: ex.Variant}
	}
	return out
}

func uniqueExerciseIDs(instances []exercise.PlayInstance) []string {
	seen := make(map[string]bool, len(instances))
	var ids []string
	for _, inst := range instances {
		if !seen[inst.ExerciseID] {
			seen[inst.ExerciseID] = true
			ids = append(ids, inst.ExerciseID)
		}
	}
	sort.Strings(ids)
	return ids
}
