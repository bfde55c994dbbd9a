package lm

import "errors"

var (
	// ErrAlreadyOptimized is returned by Train and Optimize once a model
	// has been baked for serving; the trie's mutable maps are gone by then.
	ErrAlreadyOptimized = errors.New("lm: model is already optimized")

	// ErrNotOptimized is returned by the scoring methods and WriteTo before
	// Optimize has run.
	ErrNotOptimized = errors.New("lm: model has not been optimized")

	// ErrCapacityOverflow is returned when a token id does not fit the
	// model's configured word width.
	ErrCapacityOverflow = errors.New("lm: token id exceeds configured word width")

	// ErrFormatMismatch is returned by ReadModel when the stream isn't a
	// model at all, or when the stored word width exceeds the requested
	// instantiation's width. A narrower stored width than the requested
	// instantiation loads successfully; the caller is expected to retry
	// with a wider W after seeing this error.
	ErrFormatMismatch = errors.New("lm: serialized model format mismatch")
)
