package remote

import (
	"errors"
	"fmt"
)

// ErrStaleSnapshot is returned when a handle from a superseded snapshot is
// used for a mutation. The caller must re-extract before continuing.
var ErrStaleSnapshot = errors.New("stale snapshot: remote view changed since extraction")

// AuthError signals the session is not (or no longer) authenticated.
// Callers re-login once and retry the failed operation.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication required: %s", e.Reason)
}

// InteractionError is a transient UI-interaction failure (element not
// rendered yet, confirmation not shown, navigation raced). Retryable with a
// short delay.
type InteractionError struct {
	Op     string
	Reason string
}

func (e *InteractionError) Error() string {
	return fmt.Sprintf("remote %s failed: %s", e.Op, e.Reason)
}

// VerificationError means a create appeared to succeed but could not be
// confirmed by a follow-up read. The entry stays pending and is flagged for
// manual review, never silently marked pushed.
type VerificationError struct {
	WorkOrderID string
	Detail      string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("could not verify pushed record on %s: %s", e.WorkOrderID, e.Detail)
}

// IsTransient reports whether err is worth retrying within the same run.
func IsTransient(err error) bool {
	var ie *InteractionError
	return errors.As(err, &ie)
}
