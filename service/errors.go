package services

import (
	"errors"
	"fmt"
)

// Transport/provider and lookup errors. Shape defects in model output are
// never errors; see ValidateAnalysis.
var (
	// ErrNoIndexes is returned when a query names no index to search.
	ErrNoIndexes = errors.New("at least one index id is required")

	// ErrEmptyQuestion is returned for a blank question.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrProviderFailure marks every error that came back from the retrieval provider.
	ErrProviderFailure = errors.New("retrieval provider failure")

	// ErrIndexingTimeout is returned when RegisterAndWait runs out of polls.
	ErrIndexingTimeout = errors.New("indexing did not finish in time")

	// ErrDocumentNotFound is returned when no document row matches.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrForbidden is returned when a user touches another user's document.
	ErrForbidden = errors.New("document belongs to another user")

	// ErrRemoteNotFound is wrapped by stores when the provider has no such
	// file or attachment.
	ErrRemoteNotFound = errors.New("not found at provider")
)

// providerError tags err with ErrProviderFailure so callers can tell a
// failed search apart from an empty one.
func providerError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrProviderFailure, err)
}
