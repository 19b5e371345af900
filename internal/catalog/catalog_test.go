package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abhisek/habla/internal/answer"
	"github.com/abhisek/habla/internal/exercise"
)

func TestSeedCoversEveryVariant(t *testing.T) {
	exercises := Seed()
	if len(exercises) == 0 {
		t.Fatal("seed catalog is empty")
	}

	seen := make(map[exercise.Variant]bool)
	for _, ex := range exercises {
		if err := ex.Validate(); err != nil {
			t.Errorf("seed exercise %s: %v", ex.ID, err)
		}
		if !ex.Active {
			t.Errorf("seed exercise %s is inactive", ex.ID)
		}
		if ex.CreatedAt.IsZero() {
			t.Errorf("seed exercise %s has no created_at", ex.ID)
		}
		seen[ex.Variant] = true
	}
	for _, v := range exercise.AllVariants() {
		if !seen[v] {
			t.Errorf("seed catalog has no %s exercise", v)
		}
	}
}

func TestSeedOrdenIsSolvable(t *testing.T) {
	for _, ex := range Seed() {
		p, ok := ex.Payload.(exercise.OrdenPayload)
		if !ok {
			continue
		}
		picks := make([]int, len(p.Tokens))
		for i, tok := range p.Tokens {
			picks[tok.Rank-1] = i
		}
		correct, err := answer.Check(ex, answer.Order{Picks: picks})
		if err != nil || !correct {
			t.Errorf("%s: correct=%v err=%v", ex.ID, correct, err)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "not json",
			doc:  `{"format":`,
			want: "invalid JSON",
		},
		{
			name: "missing exercises",
			doc:  `{"format":"v1"}`,
			want: "schema validation failed",
		},
		{
			name: "unknown variant",
			doc:  `{"format":"v1","exercises":[{"id":"a","title":"A","age_band":"all","reward":1,"variant":"BAILAR","payload":{}}]}`,
			want: "schema validation failed",
		},
		{
			name: "bad age band",
			doc:  `{"format":"v1","exercises":[{"id":"a","title":"A","age_band":"3-4","reward":1,"variant":"REPETIR","payload":{}}]}`,
			want: "schema validation failed",
		},
		{
			name: "future format",
			doc:  `{"format":"v2","exercises":[]}`,
			want: "unsupported catalog format",
		},
		{
			name: "missing payload field",
			doc:  `{"format":"v1","exercises":[{"id":"a","title":"A","age_band":"all","reward":1,"variant":"REPETIR","payload":{}}]}`,
			want: "target_phrase",
		},
		{
			name: "payload of wrong shape",
			doc:  `{"format":"v1","exercises":[{"id":"a","title":"A","age_band":"all","reward":1,"variant":"ORDEN","payload":{"tokens":"uno dos"}}]}`,
			want: "payload does not decode",
		},
		{
			name: "duplicate id",
			doc: `{"format":"v1","exercises":[
				{"id":"a","title":"A","age_band":"all","reward":1,"variant":"REPETIR","payload":{"target_phrase":"hola"}},
				{"id":"a","title":"B","age_band":"all","reward":1,"variant":"REPETIR","payload":{"target_phrase":"adiós"}}]}`,
			want: "duplicate exercise id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want substring %q", err, tt.want)
			}
		})
	}
}

func TestParse_ReportsEveryMalformedEntry(t *testing.T) {
	doc := `{"format":"v1.2","exercises":[
		{"id":"a","title":"A","age_band":"all","reward":1,"variant":"REPETIR","payload":{}},
		{"id":"b","title":"B","age_band":"all","reward":1,"variant":"ROLES","payload":{"options":[{"text":"x"}]}},
		{"id":"c","title":"C","age_band":"all","reward":1,"variant":"REPETIR","payload":{"target_phrase":"hola"}}]}`

	_, err := Parse([]byte(doc))
	if err == nil {
		t.Fatal("expected error")
	}
	if !exercise.IsMalformed(err) {
		t.Errorf("expected malformed exercise error, got %v", err)
	}
	msg := err.Error()
	for _, id := range []string{`"a"`, `"b"`} {
		if !strings.Contains(msg, id) {
			t.Errorf("error does not mention %s: %s", id, msg)
		}
	}
}

func TestParse_Defaults(t *testing.T) {
	doc := `{"format":"v1","exercises":[{"id":"a","title":"A","age_band":"4-6","reward":5,"variant":"REPETIR","payload":{"target_phrase":"hola"}}]}`
	exercises, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ex := exercises[0]
	if !ex.Active || ex.Difficulty != 1 || ex.Area != exercise.AreaNone {
		t.Errorf("defaults not applied: %+v", ex)
	}
}

func TestEncodeParses(t *testing.T) {
	seed := Seed()
	data, err := Encode(seed)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	back, err := Parse(data)
	if err != nil {
		t.Fatalf("parse encoded catalog: %v", err)
	}
	if len(back) != len(seed) {
		t.Fatalf("got %d exercises, want %d", len(back), len(seed))
	}
	for i := range seed {
		if back[i].ID != seed[i].ID || !back[i].CreatedAt.Equal(seed[i].CreatedAt) {
			t.Errorf("exercise %d: %s != %s", i, back[i], seed[i])
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	if err := os.WriteFile(path, seedJSON, 0o644); err != nil {
		t.Fatal(err)
	}
	exercises, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(exercises) != len(Seed()) {
		t.Errorf("loaded %d exercises", len(exercises))
	}

	if _, err := Load(filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file err = %v", err)
	}
}

func TestCheckFormat(t *testing.T) {
	for _, f := range []string{"v1", "v1.0", "v1.3.2"} {
		if err := checkFormat(f); err != nil {
			t.Errorf("checkFormat(%q) = %v", f, err)
		}
	}
	for _, f := range []string{"", "1", "v0", "v2.0"} {
		if err := checkFormat(f); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("checkFormat(%q) = %v, want ErrUnsupportedFormat", f, err)
		}
	}
}
