package shared

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func TestChunk(t *testing.T) {
	tc := []struct {
		name  string
		items int
		size  int
		want  []int
	}{
		{name: "empty", items: 0, size: 100, want: nil},
		{name: "single partial page", items: 5, size: 100, want: []int{5}},
		{name: "exact pages", items: 200, size: 100, want: []int{100, 100}},
		{name: "trailing page", items: 250, size: 100, want: []int{100, 100, 50}},
		{name: "invalid size", items: 3, size: 0, want: nil},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			items := make([]int, tt.items)
			for i := range items {
				items[i] = i
			}

			chunks := Chunk(items, tt.size)
			if len(chunks) != len(tt.want) {
				t.Fatalf("Chunk() returned %d chunks, want %d", len(chunks), len(tt.want))
			}

			next := 0
			for i, chunk := range chunks {
				if len(chunk) != tt.want[i] {
					t.Errorf("chunk %d has %d items, want %d", i, len(chunk), tt.want[i])
				}
				for _, v := range chunk {
					if v != next {
						t.Fatalf("chunk %d out of order: got %d, want %d", i, v, next)
					}
					next++
				}
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("limit", "must be <= %d", 50)

	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ValidationError should match ErrInvalidInput")
	}

	if err.Error() != "invalid input: limit must be <= 50" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestValidate(t *testing.T) {
	type query struct {
		Query string   `validate:"required"`
		Limit int      `validate:"gte=0,lte=50"`
		Seeds []string `validate:"max=5"`
	}

	t.Run("valid", func(t *testing.T) {
		if err := Validate(query{Query: "x", Limit: 50}); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("out of range", func(t *testing.T) {
		err := Validate(query{Query: "x", Limit: 51})

		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected *ValidationError, got %T", err)
		}
		if verr.Field != "Limit" {
			t.Errorf("expected field Limit, got %s", verr.Field)
		}
		if verr.Reason != "must be <= 50" {
			t.Errorf("unexpected reason %q", verr.Reason)
		}
	})

	t.Run("too many items", func(t *testing.T) {
		err := Validate(query{Query: "x", Seeds: make([]string, 6)})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestLoggers(t *testing.T) {
	t.Run("SetLogLevelString", func(t *testing.T) {
		logger := NewLogger(nil)

		SetLogLevelString(logger, "debug")
		if logger.GetLevel() != log.DebugLevel {
			t.Errorf("expected debug level, got %v", logger.GetLevel())
		}

		SetLogLevelString(logger, "nonsense")
		if logger.GetLevel() != log.InfoLevel {
			t.Errorf("expected fallback to info, got %v", logger.GetLevel())
		}
	})

	t.Run("NewFileLogger", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "mixtape.log")
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("failed to create file logger: %v", err)
		}
		logger.Info("hello")
	})

	t.Run("GenerateID", func(t *testing.T) {
		if GenerateID() == GenerateID() {
			t.Error("expected unique ids")
		}
	})
}

func TestOpenBrowser(t *testing.T) {
	orig := getRuntime
	defer func() { getRuntime = orig }()

	getRuntime = func() string { return "plan9" }
	if err := OpenBrowser("http://127.0.0.1:3000"); err == nil {
		t.Error("expected error for unsupported platform")
	}
}
