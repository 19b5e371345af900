package session

import (
	"time"

	"github.com/abhisek/habla/internal/exercise"
	"github.com/abhisek/habla/internal/progression"
)

// Summary holds the data displayed when a session ends.
type Summary struct {
	SessionID   string
	PatientID   string
	PatientName string
	Duration    time.Duration
	Aborted     bool

	Attempts   int
	Won        int
	Lost       int
	Errors     int
	Skipped    int
	Experience int
	Accuracy   float64

	LevelBefore progression.Level
	LevelAfter  progression.Level

	Results []Attempt
}

// BuildSummary tallies the attempts recorded in a session. skipped is the
// number of exercises left unplayed.
func BuildSummary(attempts []Attempt, skipped int) Summary {
	s := Summary{
		Attempts: len(attempts),
		Skipped:  skipped,
		Results:  append([]Attempt(nil), attempts...),
	}
	for _, a := range attempts {
		switch a.Outcome {
		case exercise.OutcomeWon:
			s.Won++
			s.Experience += a.Awarded
		case exercise.OutcomeLost:
			s.Lost++
		case exercise.OutcomeError:
			s.Errors++
		}
	}
	if scored := s.Won + s.Lost; scored > 0 {
		s.Accuracy = float64(s.Won) / float64(scored)
	}
	return s
}
