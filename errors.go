package holdfast

import "errors"

var (
	// ErrDataFileOpen occurs when the data file cannot be opened or created.
	ErrDataFileOpen = errors.New("holdfast: failed to open or create data file")

	// ErrMagicWrite occurs when the data file's magic header cannot be written.
	ErrMagicWrite = errors.New("holdfast: failed to write data file magic header")

	// ErrMagicMismatch occurs when an existing data file's magic header
	// does not match the expected value.
	ErrMagicMismatch = errors.New("holdfast: data file magic header mismatch")

	// ErrEmptyValue occurs when Put is called with a zero-length value.
	// Zero-length values are rejected at the public API rather than
	// framed as empty payloads.
	ErrEmptyValue = errors.New("holdfast: value must not be empty")

	// ErrLogNotOpen occurs when a log write is attempted without a
	// writable current log file, e.g. after a failed rotation.
	ErrLogNotOpen = errors.New("holdfast: no writable log file")

	// ErrTooManyLogFiles occurs when more than two `.log` files are
	// found in the base directory at open time.
	ErrTooManyLogFiles = errors.New("holdfast: more than two log files present")
)
