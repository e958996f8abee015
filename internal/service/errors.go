package service

import (
	"errors"
	"strings"
)

var (
	ErrFilingNotFound    = errors.New("tax filing not found")
	ErrFilingExists      = errors.New("tax filing already exists for this period")
	ErrInvalidTransition = errors.New("invalid filing state transition")
	ErrNoSourceDocuments = errors.New("filing has no source documents")
	ErrMissingPaymentDoc = errors.New("underpaid filing requires a payment document")
	ErrMissingAttachment = errors.New("proof of receipt attachment is required")
	ErrInvalidDates      = errors.New("filing date is before posting date")

	ErrNotSubmitted        = errors.New("tax filing is not submitted")
	ErrPaymentExists       = errors.New("payment entry already exists for this filing")
	ErrAdjustmentExists    = errors.New("adjustment entry already exists for this filing")
	ErrNotUnderpaid        = errors.New("no tax due for this filing")
	ErrNotOverpaid         = errors.New("filing has no overpayment to compensate")
	ErrAccountUnresolved   = errors.New("ledger account could not be resolved")
	ErrAccountNotInCompany = errors.New("account does not belong to company")

	ErrSPTSummaryNotFound   = errors.New("spt summary not found")
	ErrSPTSummaryExists     = errors.New("spt summary already exists for this period")
	ErrPenyelesaianNotFound = errors.New("tax settlement not found")
	ErrDueBeforePosting     = errors.New("due date cannot be before posting date")
	ErrReferenceNotReady    = errors.New("reference document must be submitted")
	ErrReferenceMismatch    = errors.New("tax period mismatch with reference document")
	ErrUnsupportedReference = errors.New("unsupported reference document type")
	ErrInvalidNTPN          = errors.New("ntpn must be 16 letters or digits")
)

// ValidationError is a precondition violation surfaced to the caller.
type ValidationError struct {
	Op      string
	Err     error
	Details []string
}

func (e *ValidationError) Error() string {
	msg := e.Err.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if len(e.Details) > 0 {
		msg += " (" + strings.Join(e.Details, "; ") + ")"
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func newValidationError(op string, err error, details ...string) error {
	return &ValidationError{Op: op, Err: err, Details: details}
}

// IsValidationError reports whether err is a precondition violation.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
