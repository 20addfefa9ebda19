package errors

import (
	"testing"
)

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"kicad board", "blinky.kicad_pcb", false},
		{"json board", "board.json", false},
		{"empty", "", true},
		{"traversal", "../etc/passwd", true},
		{"directory", "boards/a.json", true},
		{"backslash", `boards\a.json`, true},
		{"control char", "a\x00.json", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilename(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFilename(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidateFilename(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidPath)
			}
		})
	}
}

func TestValidateChoice(t *testing.T) {
	allowed := []string{"simple", "avoidance", "ripup"}
	if err := ValidateChoice(ErrCodeInvalidStrategy, "strategy", "ripup", allowed); err != nil {
		t.Errorf("ValidateChoice(ripup) = %v", err)
	}
	err := ValidateChoice(ErrCodeInvalidStrategy, "strategy", "maze", allowed)
	if !Is(err, ErrCodeInvalidStrategy) {
		t.Errorf("ValidateChoice(maze) = %v, want %s", err, ErrCodeInvalidStrategy)
	}
	if got, want := UserMessage(err), `invalid strategy "maze" (want one of simple, avoidance, ripup)`; got != want {
		t.Errorf("UserMessage() = %q, want %q", got, want)
	}
}

func TestValidateNumbers(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"positive ok", ValidatePositive("input_scale", 10), false},
		{"positive zero", ValidatePositive("input_scale", 0), true},
		{"non-negative zero", ValidateNonNegative("passes", 0), false},
		{"non-negative below", ValidateNonNegative("passes", -1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if (tt.err != nil) != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", tt.err, tt.wantErr)
			}
			if tt.err != nil && !Is(tt.err, ErrCodeInvalidConfig) {
				t.Errorf("code = %v, want %v", GetCode(tt.err), ErrCodeInvalidConfig)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidFormat,
		ErrCodeInvalidStrategy,
		ErrCodeInvalidBoard,
		ErrCodeInvalidGrid,
		ErrCodeInvalidNet,
		ErrCodeInvalidNetclass,
		ErrCodeInvalidPath,
		ErrCodeInvalidConfig,
		ErrCodeNotFound,
		ErrCodeFileNotFound,
		ErrCodeNoPath,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
