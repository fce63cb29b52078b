package archive

import "errors"

var (
	// ErrNotFound means the requested path does not exist in the archive.
	ErrNotFound = errors.New("archive: not found")

	// ErrConflict means a conditional write carried a stale version token:
	// something else wrote since the token was read. The push fails whole;
	// no merge is attempted.
	ErrConflict = errors.New("archive: version token conflict")

	// ErrEncoding means a payload could not be transport-safely encoded.
	// Reported distinctly from network failures so a data problem is
	// recognizable as such.
	ErrEncoding = errors.New("archive: payload not encodable")
)
