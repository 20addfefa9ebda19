package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/gridroute/pkg/board"
	"github.com/matzehuels/gridroute/pkg/board/kicad"
)

// Format names accepted by [ReadBoard].
const (
	FormatJSON  = "json"
	FormatKiCad = "kicad"
)

// ReadJSON decodes a JSON board from r and validates it.
// Unknown fields are rejected so typos in hand-written fixtures surface early.
func ReadJSON(r io.Reader) (*board.Board, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var b board.Board
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	return &b, nil
}

// DetectFormat returns the board format implied by a file name.
func DetectFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".kicad_pcb":
		return FormatKiCad, nil
	}
	return "", fmt.Errorf("unsupported board file %q (want .kicad_pcb or .json)", filepath.Base(path))
}

// ReadBoard decodes data in the given format. KiCad boards keep their source
// text so routed tracks can be appended later.
func ReadBoard(data []byte, format string) (*board.Board, error) {
	switch format {
	case FormatJSON:
		return ReadJSON(bytes.NewReader(data))
	case FormatKiCad:
		b, err := kicad.Parse(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		b.Source = data
		return b, nil
	}
	return nil, fmt.Errorf("unknown board format %q", format)
}

// ImportBoard reads a board file, choosing the parser from its extension.
func ImportBoard(path string) (*board.Board, []byte, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	b, err := ReadBoard(data, format)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if b.Name == "" {
		b.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return b, data, nil
}
