package errors

import "errors"

var (
	// ErrInvalidArgument marks operator/programmer misconfiguration; the run
	// fails fast before any computation starts.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNoEmbeddings means zero memories carried a usable embedding. Callers
	// emit an empty-but-valid result instead of treating this as a crash.
	ErrNoEmbeddings = errors.New("no memories with valid embeddings")
	// ErrBatchTooLarge means the similarity batch plan would exceed the memory
	// budget. Retryable with a smaller batch size.
	ErrBatchTooLarge = errors.New("similarity batch exceeds memory budget")
)
