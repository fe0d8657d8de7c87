package services

import "errors"

// ErrorKind classifies service failures so handlers can decide the HTTP
// status and callers can tell whether a retry makes sense.
type ErrorKind string

const (
	// ErrKindValidation marks malformed input. Never reaches a transaction.
	ErrKindValidation ErrorKind = "validation"
	// ErrKindBusinessRule marks a user-presentable rejection such as an
	// expired coupon or insufficient stock known before commit.
	ErrKindBusinessRule ErrorKind = "business_rule"
	// ErrKindStockConflict marks a lost stock race at commit time. The whole
	// checkout is safe to retry from a fresh cart snapshot.
	ErrKindStockConflict ErrorKind = "stock_conflict"
	// ErrKindReconciliation marks a payment callback that could not be
	// applied. Logged for manual review, order state untouched.
	ErrKindReconciliation ErrorKind = "reconciliation"
	// ErrKindStorage marks an internal storage fault. The caller sees a
	// generic failure; the cause is only logged server-side.
	ErrKindStorage ErrorKind = "storage"
)

// ServiceError is the only error type that crosses the service boundary.
// Reason is safe to show to the customer; Err is not.
type ServiceError struct {
	Kind   ErrorKind
	Reason string
	Err    error
}

func (e *ServiceError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Retryable reports whether retrying the same operation can succeed without
// operator intervention.
func (e *ServiceError) Retryable() bool {
	return e.Kind == ErrKindStockConflict || e.Kind == ErrKindStorage
}

func validationError(reason string) *ServiceError {
	return &ServiceError{Kind: ErrKindValidation, Reason: reason}
}

func businessError(reason string) *ServiceError {
	return &ServiceError{Kind: ErrKindBusinessRule, Reason: reason}
}

func stockConflictError(reason string) *ServiceError {
	return &ServiceError{Kind: ErrKindStockConflict, Reason: reason}
}

func reconciliationError(reason string, err error) *ServiceError {
	return &ServiceError{Kind: ErrKindReconciliation, Reason: reason, Err: err}
}

func storageError(err error) *ServiceError {
	return &ServiceError{Kind: ErrKindStorage, Reason: "internal storage error", Err: err}
}

// AsServiceError unwraps err into a *ServiceError when possible.
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
