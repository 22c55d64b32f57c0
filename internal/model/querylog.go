package model

import "time"

// QueryStatus is the lifecycle state of a query log entry.
type QueryStatus string

const (
	QueryInitiated QueryStatus = "INITIATED"
	QuerySucceeded QueryStatus = "SUCCESS"
	QueryFailed    QueryStatus = "FAILED"
)

func (s QueryStatus) Valid() bool {
	switch s {
	case QueryInitiated, QuerySucceeded, QueryFailed:
		return true
	}
	return false
}

// QueryLogEntry records one acquisition attempt. SUCCESS means an answer was
// produced; ErrorDetail carries the live failure kind when that answer is
// synthetic.
type QueryLogEntry struct {
	ID              uint        `json:"id"`
	Key             QueryKey    `json:"query"`
	Timestamp       time.Time   `json:"timestamp"`
	Status          QueryStatus `json:"status"`
	ErrorDetail     string      `json:"error_detail,omitempty"`
	ErrorMessage    string      `json:"error_message,omitempty"`
	ResultingRecord *CaseRecord `json:"resulting_record,omitempty"`
}

// LogUpdate is the single completion mutation applied to an entry.
type LogUpdate struct {
	Status       QueryStatus
	ErrorDetail  string
	ErrorMessage string
	Record       *CaseRecord
}
