package compiler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

type fixture struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
	Output string `yaml:"output"`
	Error  string `yaml:"error"`
}

func loadFixtures(t *testing.T) []fixture {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", "programs.yaml"))
	if err != nil {
		t.Fatalf("open fixtures: %v", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	var fixtures []fixture
	if err := decoder.Decode(&fixtures); err != nil {
		t.Fatalf("parse fixtures: %v", err)
	}
	return fixtures
}

func TestProgramFixtures(t *testing.T) {
	for _, fx := range loadFixtures(t) {
		t.Run(fx.Name, func(t *testing.T) {
			got, err := New().CompileProgram([]byte(fx.Source))
			if fx.Error != "" {
				if err == nil {
					t.Fatalf("CompileProgram(%q) = %q, expected error", fx.Source, got)
				}
				if !strings.Contains(err.Error(), fx.Error) {
					t.Errorf("CompileProgram(%q) error %q, want mention of %q", fx.Source, err, fx.Error)
				}
				return
			}
			if err != nil {
				t.Fatalf("CompileProgram(%q) error: %v", fx.Source, err)
			}
			if got != fx.Output {
				t.Errorf("CompileProgram(%q) =\n%s\nwant\n%s", fx.Source, got, fx.Output)
			}
		})
	}
}

// an unterminated nested comment must never be silently swallowed
func TestUnterminatedCommentIsAnError(t *testing.T) {
	_, err := New().CompileProgram([]byte("#| #| |#"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "leftover") {
		t.Errorf("error %q, want a leftover report", err)
	}
	if !strings.Contains(err.Error(), "#| #| |#") {
		t.Errorf("error %q does not name the unconsumed bytes", err)
	}
}

func TestLeftoverReportsExactBytes(t *testing.T) {
	_, err := New().CompileProgram([]byte("(add1 1) ]"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), `"]"`) {
		t.Errorf("error %q does not report the exact unconsumed bytes", err)
	}
}

func TestNoPartialOutputOnError(t *testing.T) {
	got, err := New().CompileProgram([]byte("(add1 1) (frob 2)"))
	if err == nil {
		t.Fatal("expected error")
	}
	if got != "" {
		t.Errorf("got partial output %q", got)
	}
}
