// Package dberr provides the tagged error taxonomy the Event Router switches
// on to decide whether an ingress message is acked or redelivered.
package dberr

import "fmt"

// Kind classifies a MissionError for routing purposes.
type Kind string

const (
	// KindDuplicate means the event was already processed; ack, no-op.
	KindDuplicate Kind = "duplicate"
	// KindTransient means the failure is retryable; nack, redeliver.
	KindTransient Kind = "transient"
	// KindLogicalNoOp means the event was processed but produced no state
	// change (e.g. a completed mission that no longer needs evaluating).
	KindLogicalNoOp Kind = "logical_no_op"
	// KindInvariant means a data-integrity invariant was violated; ack but
	// surface loudly, since redelivery cannot fix it.
	KindInvariant Kind = "invariant"
)

const (
	CodeMissionNotFound     = "MISSION_NOT_FOUND"
	CodeAlreadyCompleted    = "MISSION_ALREADY_COMPLETED"
	CodeCycleNotActive      = "CYCLE_NOT_ACTIVE"
	CodeLockTimeout         = "LOCK_TIMEOUT"
	CodeDuplicateEvent      = "DUPLICATE_EVENT"
	CodeDatabaseError       = "DATABASE_ERROR"
	CodeConfigInvalid       = "CONFIG_INVALID"
	CodePublishFailed       = "PUBLISH_FAILED"
	CodeRewardOrphaned      = "REWARD_ORPHANED"
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeOutboxExhausted     = "OUTBOX_EXHAUSTED"
)

// MissionError is the single error type produced by the store, idempotency,
// mission, reward and outbox packages.
type MissionError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *MissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *MissionError) Unwrap() error {
	return e.Err
}

// New builds a MissionError with the given kind/code/message.
func New(kind Kind, code, message string, err error) *MissionError {
	return &MissionError{Kind: kind, Code: code, Message: message, Err: err}
}

func Duplicate(eventID string) *MissionError {
	return New(KindDuplicate, CodeDuplicateEvent, fmt.Sprintf("event already processed: %s", eventID), nil)
}

func Transient(operation string, err error) *MissionError {
	return New(KindTransient, CodeDatabaseError, fmt.Sprintf("transient failure during %s", operation), err)
}

func LockTimeout(userID string) *MissionError {
	return New(KindTransient, CodeLockTimeout, fmt.Sprintf("timed out waiting for mission init lock: user=%s", userID), nil)
}

func MissionNotFound(userID string, t string) *MissionError {
	return New(KindLogicalNoOp, CodeMissionNotFound, fmt.Sprintf("mission not found: user=%s type=%s", userID, t), nil)
}

func AlreadyCompleted(userID string, t string) *MissionError {
	return New(KindLogicalNoOp, CodeAlreadyCompleted, fmt.Sprintf("mission already completed: user=%s type=%s", userID, t), nil)
}

func CycleNotActive(userID string) *MissionError {
	return New(KindLogicalNoOp, CodeCycleNotActive, fmt.Sprintf("no active cycle: user=%s", userID), nil)
}

func ConfigInvalid(reason string) *MissionError {
	return New(KindInvariant, CodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason), nil)
}

func RewardOrphaned(userID, period string, err error) *MissionError {
	return New(KindInvariant, CodeRewardOrphaned, fmt.Sprintf("reward row inserted but points not applied: user=%s period=%s", userID, period), err)
}

func ValidationFailed(field, reason string) *MissionError {
	return New(KindInvariant, CodeValidationFailed, fmt.Sprintf("validation failed for %s: %s", field, reason), nil)
}

func OutboxExhausted(eventID string) *MissionError {
	return New(KindInvariant, CodeOutboxExhausted, fmt.Sprintf("outbox entry exhausted retries: %s", eventID), nil)
}

// IsKind reports whether err is a *MissionError of the given kind.
func IsKind(err error, kind Kind) bool {
	me, ok := err.(*MissionError)
	return ok && me.Kind == kind
}
