// Package catalog reads exercise catalog files: JSON documents holding a
// format version and a list of exercises with variant payloads.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"

	"github.com/abhisek/habla/internal/exercise"
)

// SupportedFormat is the catalog major version this build reads.
const SupportedFormat = "v1"

// maxFileSize caps catalog files read from disk.
const maxFileSize = 4 << 20

//go:embed schema.json
var schemaJSON []byte

//go:embed seed.json
var seedJSON []byte

var (
	// ErrUnsupportedFormat is returned for catalogs written for another
	// major format version.
	ErrUnsupportedFormat = errors.New("unsupported catalog format")

	// ErrDuplicateID is returned when two entries share an ID.
	ErrDuplicateID = errors.New("duplicate exercise id")
)

// File is the on-disk catalog document.
type File struct {
	Format    string  `json:"format"`
	Exercises []Entry `json:"exercises"`
}

// Entry is one exercise as written in a catalog file.
type Entry struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Area        string          `json:"area,omitempty"`
	AgeBand     string          `json:"age_band"`
	Difficulty  int             `json:"difficulty,omitempty"`
	Reward      int             `json:"reward"`
	Active      *bool           `json:"active,omitempty"`
	Variant     string          `json:"variant"`
	Prompt      string          `json:"prompt,omitempty"`
	PromptImage string          `json:"prompt_image,omitempty"`
	CreatedAt   *time.Time      `json:"created_at,omitempty"`
	Payload     json.RawMessage `json:"payload"`
}

// Exercise converts the entry into a domain exercise. Missing difficulty
// defaults to 1 and missing active to true.
func (e Entry) Exercise() (exercise.Exercise, error) {
	ex := exercise.Exercise{
		ID:          e.ID,
		Title:       e.Title,
		Area:        exercise.Area(e.Area),
		AgeBand:     exercise.AgeBand(e.AgeBand),
		Difficulty:  e.Difficulty,
		Reward:      e.Reward,
		Active:      e.Active == nil || *e.Active,
		Variant:     exercise.Variant(e.Variant),
		Prompt:      e.Prompt,
		PromptImage: e.PromptImage,
	}
	if ex.Difficulty == 0 {
		ex.Difficulty = 1
	}
	if e.CreatedAt != nil {
		ex.CreatedAt = e.CreatedAt.UTC()
	}

	p, err := exercise.DecodePayload(ex.Variant, e.Payload)
	if err != nil {
		return exercise.Exercise{}, &exercise.MalformedExerciseError{
			ExerciseID: e.ID, Variant: ex.Variant, Reason: "payload does not decode", Err: err,
		}
	}
	ex.Payload = p
	if err := ex.Validate(); err != nil {
		return exercise.Exercise{}, err
	}
	return ex, nil
}

// Parse validates a catalog document and returns its exercises in file
// order. Every malformed entry is reported, not just the first.
func Parse(data []byte) ([]exercise.Exercise, error) {
	if err := validateDocument(data); err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := checkFormat(f.Format); err != nil {
		return nil, err
	}

	var (
		out  = make([]exercise.Exercise, 0, len(f.Exercises))
		seen = make(map[string]bool, len(f.Exercises))
		errs []error
	)
	for i, entry := range f.Exercises {
		if seen[entry.ID] {
			errs = append(errs, fmt.Errorf("exercise %d: %w: %s", i, ErrDuplicateID, entry.ID))
			continue
		}
		seen[entry.ID] = true

		ex, err := entry.Exercise()
		if err != nil {
			errs = append(errs, fmt.Errorf("exercise %d: %w", i, err))
			continue
		}
		out = append(out, ex)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// Load reads and parses the catalog file at path.
func Load(path string) ([]exercise.Exercise, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat catalog: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("catalog %s is larger than %d bytes", path, maxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	exercises, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return exercises, nil
}

// Seed returns the built-in starter catalog.
func Seed() []exercise.Exercise {
	exercises, err := Parse(seedJSON)
	if err != nil {
		panic(fmt.Sprintf("embedded seed catalog is invalid: %v", err))
	}
	return exercises
}

// Encode writes exercises as a catalog document.
func Encode(exercises []exercise.Exercise) ([]byte, error) {
	f := File{Format: SupportedFormat, Exercises: make([]Entry, 0, len(exercises))}
	for _, ex := range exercises {
		raw, err := exercise.EncodePayload(ex.Payload)
		if err != nil {
			return nil, err
		}
		active := ex.Active
		e := Entry{
			ID:          ex.ID,
			Title:       ex.Title,
			Area:        string(ex.Area),
			AgeBand:     string(ex.AgeBand),
			Difficulty:  ex.Difficulty,
			Reward:      ex.Reward,
			Active:      &active,
			Variant:     string(ex.Variant),
			Prompt:      ex.Prompt,
			PromptImage: ex.PromptImage,
			Payload:     raw,
		}
		if !ex.CreatedAt.IsZero() {
			t := ex.CreatedAt.UTC()
			e.CreatedAt = &t
		}
		f.Exercises = append(f.Exercises, e)
	}
	return json.MarshalIndent(f, "", "  ")
}

// checkFormat accepts any version within the supported major.
func checkFormat(format string) error {
	if !semver.IsValid(format) {
		return fmt.Errorf("%w: %q is not a version", ErrUnsupportedFormat, format)
	}
	if semver.Major(format) != SupportedFormat {
		return fmt.Errorf("%w: %s (want %s.x)", ErrUnsupportedFormat, format, SupportedFormat)
	}
	return nil
}

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

const schemaURL = "schema://habla/catalog.json"

// validateDocument checks data against the embedded catalog schema.
func validateDocument(data []byte) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	sch, err := catalogSchema()
	if err != nil {
		return fmt.Errorf("compile catalog schema: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

func catalogSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		def, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			schemaErr = err
			return
		}
		c := jsonschema.NewCompiler()
		c.AssertFormat()
		if err := c.AddResource(schemaURL, def); err != nil {
			schemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}
