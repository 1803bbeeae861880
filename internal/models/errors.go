package models

import "errors"

var (
	// ErrSessionNotFound means the caller supplied a bad session id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionCompleted rejects writes against a finished session.
	// Read paths (next item, finish) treat completion as an idempotent
	// result instead of surfacing this.
	ErrSessionCompleted = errors.New("session already completed")

	ErrQuestionNotFound = errors.New("question not found")
)
