package codepilot

import "errors"

var (
	// ErrIndexUnavailable is returned by Search when no (metadata,
	// index) pair has ever been installed. It is an explicit condition,
	// distinct from an empty result after filtering.
	ErrIndexUnavailable = errors.New("no index installed: run ingest first")

	// ErrInvalidArgument is returned for malformed caller input such as
	// a non-positive k. No partial work is performed.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNoChunks is returned when an ingestion run produced no
	// surviving chunks; the previously installed pair is untouched.
	ErrNoChunks = errors.New("no chunks created: check repo path and filters")
)
