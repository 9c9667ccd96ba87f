package errors

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "simple error",
			err:      errors.New("supplement not found"),
			expected: "Error: supplement not found",
		},
		{
			name:     "hinted error",
			err:      WithHint(errors.New("database does not exist"), "run 'pillbox init' first"),
			expected: "Error: database does not exist\nHint: run 'pillbox init' first",
		},
		{
			name:     "hint survives wrapping",
			err:      fmt.Errorf("load: %w", WithHint(errors.New("locked"), "close the TUI")),
			expected: "Error: load: locked\nHint: close the TUI",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.err)
			if result != tt.expected {
				t.Errorf("Format(%v) = %q, want %q", tt.err, result, tt.expected)
			}
		})
	}
}

func TestWithHint(t *testing.T) {
	if WithHint(nil, "anything") != nil {
		t.Error("WithHint(nil) should be nil")
	}

	base := errors.New("base")
	err := WithHint(base, "try again")
	if !errors.Is(err, base) {
		t.Error("hinted error should unwrap to its cause")
	}
	if Hint(base) != "" {
		t.Error("plain error should have no hint")
	}
}

func TestWarn(t *testing.T) {
	var buf bytes.Buffer
	Warn(&buf, nil)
	if buf.Len() != 0 {
		t.Error("Warn(nil) should print nothing")
	}
	Warn(&buf, errors.New("disk full"))
	if buf.String() != "Warning: disk full\n" {
		t.Errorf("Warn() = %q", buf.String())
	}
}

// TestFatal runs Fatal in a subprocess and checks the exit code and stderr.
func TestFatal(t *testing.T) {
	if os.Getenv("GO_TEST_FATAL") == "1" {
		Fatal(errors.New("test error"))
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestFatal$")
	cmd.Env = append(os.Environ(), "GO_TEST_FATAL=1")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if e, ok := err.(*exec.ExitError); ok && !e.Success() {
		if e.ExitCode() != 1 {
			t.Errorf("Fatal() exit code = %d, want 1", e.ExitCode())
		}
		if !strings.Contains(stderr.String(), "Error: test error") {
			t.Errorf("Fatal() stderr = %q, want to contain %q", stderr.String(), "Error: test error")
		}
	} else {
		t.Errorf("Fatal() did not exit with error: %v", err)
	}
}

func TestFatal_NilError(t *testing.T) {
	if os.Getenv("GO_TEST_FATAL_NIL") == "1" {
		Fatal(nil)
		os.Exit(0)
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestFatal_NilError")
	cmd.Env = append(os.Environ(), "GO_TEST_FATAL_NIL=1")

	if err := cmd.Run(); err != nil {
		t.Errorf("Fatal(nil) should not exit, but got error: %v", err)
	}
}
