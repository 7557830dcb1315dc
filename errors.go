package clauseforge

import "errors"

var (
	// ErrDocumentNotFound is returned when a document ID does not exist.
	ErrDocumentNotFound = errors.New("clauseforge: document not found")

	// ErrUnsupportedFormat is returned for unrecognized file formats.
	ErrUnsupportedFormat = errors.New("clauseforge: unsupported document format")

	// ErrExtraction is returned when text extraction fails on malformed content.
	ErrExtraction = errors.New("clauseforge: text extraction failed")

	// ErrValidation is returned when a drafting request fails local validation
	// before any external call is made.
	ErrValidation = errors.New("clauseforge: invalid request")

	// ErrService is returned when the completion service fails
	// (network, auth, timeout, malformed response).
	ErrService = errors.New("clauseforge: completion service error")

	// ErrSessionNotFound is returned when a chat session ID does not exist.
	ErrSessionNotFound = errors.New("clauseforge: session not found")

	// ErrSessionForbidden is returned when a caller addresses a session that
	// was not minted for them.
	ErrSessionForbidden = errors.New("clauseforge: session belongs to another caller")

	// ErrEmptyDocument is returned when extraction yields no usable text.
	ErrEmptyDocument = errors.New("clauseforge: document contains no extractable text")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("clauseforge: invalid configuration")
)
