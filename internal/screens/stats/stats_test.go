package stats

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/habla/internal/exercise"
	"github.com/abhisek/habla/internal/router"
	"github.com/abhisek/habla/internal/stats"
)

type stubSummarizer struct {
	sum *stats.Summary
	err error
}

func (s stubSummarizer) Summarize(context.Context, string) (*stats.Summary, error) {
	return s.sum, s.err
}

func testSummary() *stats.Summary {
	return &stats.Summary{
		PatientID: "p1",
		Totals:    stats.Totals{Played: 4, Won: 2, Lost: 1, Errors: 1, Rate: 67, Experience: 20},
		ByVariant: []stats.Group{{Key: "ROLES", Label: "Roles", Won: 2, Lost: 1, Rate: 67}},
		ByArea:    []stats.Group{{Key: "AFASIA", Label: "Afasia", Won: 2, Lost: 1, Rate: 67}},
		Recent: []stats.RecentPlay{{
			Instance: exercise.PlayInstance{Outcome: exercise.OutcomeWon, CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
			Title:    "Saludar",
			Variant:  exercise.VariantRoles,
		}},
	}
}

func load(t *testing.T, s *StatsScreen) {
	t.Helper()
	msg := s.Init()()
	s.Update(msg)
}

func TestStatsScreen_Loads(t *testing.T) {
	s := New(stubSummarizer{sum: testSummary()}, "p1", "Lucía")
	if !strings.Contains(s.View(100, 30), "Cargando") {
		t.Error("expected loading message before data arrives")
	}
	load(t, s)

	view := s.View(100, 30)
	for _, want := range []string{"Lucía", "Jugados: 4", "Acierto: 67%", "Por tipo de ejercicio", "Roles", "Saludar"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestStatsScreen_ToggleArea(t *testing.T) {
	s := New(stubSummarizer{sum: testSummary()}, "p1", "")
	load(t, s)

	s.Update(tea.KeyPressMsg{Code: tea.KeyTab})
	view := s.View(100, 30)
	if !strings.Contains(view, "Por área") || !strings.Contains(view, "Afasia") {
		t.Error("tab should switch to the area breakdown")
	}
}

func TestStatsScreen_Empty(t *testing.T) {
	s := New(stubSummarizer{sum: &stats.Summary{}}, "p1", "")
	load(t, s)
	if !strings.Contains(s.View(80, 24), "Todavía no hay") {
		t.Error("expected empty-state message")
	}
}

func TestStatsScreen_Error(t *testing.T) {
	s := New(stubSummarizer{err: errors.New("db locked")}, "p1", "")
	load(t, s)
	if !strings.Contains(s.View(80, 24), "db locked") {
		t.Error("expected error message")
	}
}

func TestStatsScreen_Esc(t *testing.T) {
	s := New(stubSummarizer{sum: testSummary()}, "p1", "")
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("expected a command on Esc")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("expected PopScreenMsg")
	}
}

func TestRateBar(t *testing.T) {
	tests := []struct {
		rate int
		want string
	}{
		{0, "░░░░"},
		{50, "██░░"},
		{100, "████"},
		{150, "████"},
	}
	for _, tt := range tests {
		if got := rateBar(tt.rate, 4); got != tt.want {
			t.Errorf("rateBar(%d) = %q, want %q", tt.rate, got, tt.want)
		}
	}
}
