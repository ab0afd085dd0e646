package shared

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLogger(t *testing.T) {
	t.Run("NewLogger writes to buffer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		logger.Info("hello", "key", "value")

		if !strings.Contains(buf.String(), "hello") || !strings.Contains(buf.String(), "key=value") {
			t.Errorf("unexpected log output: %q", buf.String())
		}
	})

	t.Run("WithLogger adds fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "component", "notes")
		logger.Warn("careful")

		if !strings.Contains(buf.String(), "component=notes") {
			t.Errorf("expected component field, got %q", buf.String())
		}
	})

	t.Run("SetLogLevel filters", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		SetLogLevel(logger, log.ErrorLevel)
		logger.Info("dropped")

		if buf.Len() != 0 {
			t.Errorf("expected info to be filtered, got %q", buf.String())
		}
	})

	t.Run("NewFileLogger creates directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "jot.log")
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger() error = %v", err)
		}
		logger.Info("written")
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected unique IDs")
	}
	if len(a) != 36 {
		t.Errorf("expected uuid string of length 36, got %d", len(a))
	}
}

func TestJSONHelpers(t *testing.T) {
	t.Run("MarshalJSON pretty", func(t *testing.T) {
		out, err := MarshalJSON(map[string]int{"a": 1}, true)
		if err != nil {
			t.Fatalf("MarshalJSON() error = %v", err)
		}
		if string(out) != "{\n  \"a\": 1\n}" {
			t.Errorf("MarshalJSON() = %q", out)
		}
	})

	t.Run("ValidateJSON", func(t *testing.T) {
		if err := ValidateJSON([]byte(`[{"id":1,"position":0}]`)); err != nil {
			t.Errorf("expected valid JSON, got %v", err)
		}
		if err := ValidateJSON([]byte(`{"id":`)); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestPageURL(t *testing.T) {
	tests := []struct {
		base, route, want string
		wantErr           bool
	}{
		{base: "http://localhost:3000", route: "/notes", want: "http://localhost:3000/notes"},
		{base: "http://localhost:3000/", route: "notes", want: "http://localhost:3000/notes"},
		{base: "https://example.com/app", route: "/", want: "https://example.com/app/"},
		{base: "not a url", route: "/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.base+tt.route, func(t *testing.T) {
			got, err := PageURL(tt.base, tt.route)
			if (err != nil) != tt.wantErr {
				t.Fatalf("PageURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("PageURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOpenBrowser(t *testing.T) {
	orig := getRuntime
	defer func() { getRuntime = orig }()

	getRuntime = func() string { return "plan9" }
	if err := OpenBrowser("http://localhost"); err == nil {
		t.Error("expected error for unsupported platform")
	}
}
