package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
)

// Engagement toggles contend on the per-item counter document, so aborted
// transactions are routine here rather than exceptional. The attempt budget
// absorbs those aborts; once it is exhausted the client surfaces Aborted,
// which WrapError classifies as a conflict.
const (
	defaultTxAttempts = 5
	defaultTxTimeout  = 15 * time.Second
)

// TxFunc is executed within a Firestore transaction.
type TxFunc func(ctx context.Context, tx *firestore.Transaction) error

// TxOption customises transaction behaviour.
type TxOption func(*txSettings)

type txSettings struct {
	attempts int
	timeout  time.Duration
}

// WithTxAttempts overrides the retry attempts for a transaction.
func WithTxAttempts(attempts int) TxOption {
	return func(s *txSettings) {
		if attempts > 0 {
			s.attempts = attempts
		}
	}
}

// WithTxTimeout sets a timeout for the transaction context.
func WithTxTimeout(timeout time.Duration) TxOption {
	return func(s *txSettings) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// RunTransaction executes fn within a transaction on the provided client,
// bounding the attempt count and the total wall time across all attempts.
func RunTransaction(ctx context.Context, client *firestore.Client, fn TxFunc, opts ...TxOption) error {
	if client == nil || fn == nil {
		return WrapError("transaction", errors.New("firestore: client and transaction function are required"))
	}

	settings := txSettings{attempts: defaultTxAttempts, timeout: defaultTxTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(&settings)
		}
	}

	// Honour a tighter caller deadline; otherwise cap the retry loop so a
	// contended counter cannot hold a request open indefinitely.
	runCtx := ctx
	if deadline, ok := ctx.Deadline(); !ok || time.Until(deadline) > settings.timeout {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, settings.timeout)
		defer cancel()
	}

	err := client.RunTransaction(runCtx, fn, firestore.MaxAttempts(settings.attempts))
	return WrapError("transaction", err)
}
