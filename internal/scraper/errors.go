package scraper

import (
	"errors"
	"fmt"
)

// FailureKind names why a live attempt produced no usable record.
type FailureKind string

const (
	KindNetwork   FailureKind = "NetworkError"
	KindNoRecord  FailureKind = "NoRecordFound"
	KindCaptcha   FailureKind = "CaptchaBlocked"
	KindNoData    FailureKind = "NoExtractableData"
	KindInvariant FailureKind = "InvariantViolation"
)

// Failure is the error type returned by the source client and the parser.
type Failure struct {
	Kind   FailureKind
	Detail string
	Err    error
}

func (f *Failure) Error() string {
	msg := string(f.Kind)
	if f.Detail != "" {
		msg += ": " + f.Detail
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func fail(kind FailureKind, format string, args ...interface{}) *Failure {
	return &Failure{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func networkError(detail string, err error) *Failure {
	return &Failure{Kind: KindNetwork, Detail: detail, Err: err}
}

// KindOf classifies err. Errors outside the taxonomy, timeouts included, are
// network errors.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindNetwork
}

// NewInvariantViolation reports a live record that came back without
// parties, orders or a filing date.
func NewInvariantViolation(detail string) error {
	return &Failure{Kind: KindInvariant, Detail: detail}
}
