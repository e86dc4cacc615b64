package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lpcio/core"
)

// run executes one command line against a fresh simulated board
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	s := &session{}
	defer s.close()

	var out, errOut bytes.Buffer
	err := execute(s, append([]string{"--sim"}, args...), strings.NewReader(stdin), &out, &errOut)
	return out.String() + errOut.String(), err
}

func TestCommandsE2E(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantErr     error
		wantContain []string
	}{
		{
			name:        "pin write",
			args:        []string{"--verbose", "pin", "write", "P0.4", "high"},
			wantContain: []string{"P0.4 <- high"},
		},
		{
			name:        "pin read",
			args:        []string{"pin", "read", "P1.20"},
			wantContain: []string{"P1.20 = low"},
		},
		{
			name:    "invalid pin",
			args:    []string{"pin", "write", "50", "high"},
			wantErr: core.ErrInvalidIdentifier,
		},
		{
			name:    "port value too wide",
			args:    []string{"port", "write", "0", "256"},
			wantErr: core.ErrValueOutOfRange,
		},
		{
			name:        "full bank read",
			args:        []string{"port", "read", "19"},
			wantContain: []string{"port 19 = 0x00000000"},
		},
		{
			name:    "whole bank write rejected",
			args:    []string{"port", "write", "9", "1"},
			wantErr: core.ErrInvalidIdentifier,
		},
		{
			name:    "function on pin without select field",
			args:    []string{"func", "get", "P1.0"},
			wantErr: core.ErrInvalidIdentifier,
		},
		{
			name:    "dac out of range",
			args:    []string{"dac", "1024"},
			wantErr: core.ErrValueOutOfRange,
		},
		{
			name:        "register",
			args:        []string{"reg", "pinsel0"},
			wantContain: []string{"PINSEL0 (0xE002C000) = 0x00000000"},
		},
		{
			name:        "dictionary",
			args:        []string{"dict"},
			wantContain: []string{"MCU = lpc2148", "gpio_write_pin pin=%i value=%c"},
		},
		{
			name:        "emergency stop",
			args:        []string{"status", "--stop"},
			wantContain: []string{"shutdown: true"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := run(t, "", tt.args...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v\nOutput: %s", err, output)
			}
			for _, want := range tt.wantContain {
				if !strings.Contains(output, want) {
					t.Errorf("Output missing expected string: %q\nGot:\n%s", want, output)
				}
			}
		})
	}
}

func TestArgumentValidation(t *testing.T) {
	bad := [][]string{
		{"pin", "write", "P0.4"},
		{"pin", "write", "P0.4", "maybe"},
		{"port", "write", "zero", "1"},
		{"func", "set", "P0.5", "4"},
		{"reg", "NOPE"},
	}
	for _, args := range bad {
		if _, err := run(t, "", args...); err == nil {
			t.Errorf("%v should fail", args)
		}
	}
}

func TestShellSharesConnection(t *testing.T) {
	input := `func set P0.5 2
func get P0.5
dac 512 --bias
reg "DACR"
pin write 50 high
shell
quit
pin read P0.1
`
	output, err := run(t, input, "shell")
	if err != nil {
		t.Fatalf("shell failed: %v", err)
	}
	for _, want := range []string{
		"P0.5 function 2",
		"DACR (0xE006C000) = 0x00018000",
		"invalid identifier",
		`unknown command "shell"`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Output missing %q\nGot:\n%s", want, output)
		}
	}
	if strings.Contains(output, "P0.1 =") {
		t.Error("Commands after quit should not run")
	}
}

func TestRunScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.pin")
	src := "# set and query\nport 1 = 0xA5\nfunc P0.16 = 1\nfunc P0.16 ?\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	output, err := run(t, "", "run", path)
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, output)
	}
	if !strings.Contains(output, "func P0.16 = 1") {
		t.Errorf("Output %q", output)
	}

	if _, err := run(t, "", "run", filepath.Join(t.TempDir(), "missing.pin")); err == nil {
		t.Error("Missing script should fail")
	}
}
