package grid

import "errors"

var (
	// ErrInvalidDimensions indicates a grid was requested with a non-positive
	// width, height or layer count, or with more cells than allowed.
	ErrInvalidDimensions = errors.New("grid: width, height and layers must be positive")
	// ErrInvalidLocation indicates a Location outside the grid bounds.
	ErrInvalidLocation = errors.New("grid: location out of bounds")
	// ErrEmptySet indicates a search was started without sources or without targets.
	ErrEmptySet = errors.New("grid: search needs at least one source and one target")
	// ErrNoPathFound indicates the search frontier was exhausted before any target was reached.
	ErrNoPathFound = errors.New("grid: no path found")
	// ErrDisconnected indicates two consecutive path locations are not one legal step apart.
	ErrDisconnected = errors.New("grid: path has a non-adjacent step")
)
