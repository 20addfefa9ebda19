package pipeline

import (
	stderrors "errors"
	"io/fs"

	"github.com/matzehuels/gridroute/pkg/board"
	"github.com/matzehuels/gridroute/pkg/errors"
	bio "github.com/matzehuels/gridroute/pkg/io"
)

// Load reads the board named by opts and returns it with its raw bytes.
func Load(opts Options) (*board.Board, []byte, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, nil, err
	}

	var (
		b    *board.Board
		data []byte
		err  error
	)
	if opts.BoardPath != "" {
		b, data, err = bio.ImportBoard(opts.BoardPath)
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "board file not found: %s", opts.BoardPath)
		}
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidBoard, err, "load board")
		}
	} else {
		data = []byte(opts.Board)
		b, err = bio.ReadBoard(data, opts.BoardFormat)
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidBoard, err, "load board")
		}
	}

	if opts.Name != "" {
		b.Name = opts.Name
	}
	if b.Name == "" {
		b.Name = "board"
	}
	return b, data, nil
}
