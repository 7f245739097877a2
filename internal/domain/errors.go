package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an Error. Every failure that crosses a component boundary
// carries exactly one kind.
type Kind string

const (
	KindValidation Kind = "validation"
	KindProcessing Kind = "processing"
	KindSearch     Kind = "search"
	KindIndex      Kind = "index"
	KindStorage    Kind = "storage"
	KindInternal   Kind = "internal"
)

var (
	// ErrNotIndexed indicates a search before any document was indexed.
	ErrNotIndexed = errors.New("no document indexed")

	// ErrNoChunks indicates a document without chunks.
	ErrNoChunks = errors.New("document has no chunks")

	// ErrEmptyCorpus indicates an index build over zero texts.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrEmptyVocabulary indicates that no term survived document-frequency pruning.
	ErrEmptyVocabulary = errors.New("no terms remain after pruning")

	// ErrNotFound indicates a requested document does not exist.
	ErrNotFound = errors.New("not found")
)

// Error is the tagged error returned by the core.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil && e.Message != "" {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return string(e.Kind) + " error"
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error by kind, so errors.Is(err, &Error{Kind: KindSearch})
// tests the classification.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Message == "" && t.Cause == nil && e.Kind == t.Kind
	}
	return false
}

// New creates an error of the given kind.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Wrap classifies err. An err that already carries a kind keeps it.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Kind: kind, Cause: err}
}

func ValidationError(message string) *Error { return New(KindValidation, message, nil) }

func ProcessingError(message string, cause error) *Error {
	return New(KindProcessing, message, cause)
}

func SearchError(message string, cause error) *Error { return New(KindSearch, message, cause) }

func IndexError(message string, cause error) *Error { return New(KindIndex, message, cause) }

func StorageError(message string, cause error) *Error { return New(KindStorage, message, cause) }

func InternalError(message string, cause error) *Error {
	return New(KindInternal, message, cause)
}

// KindOf returns the outermost kind in err's chain, or KindInternal for
// unclassified errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
