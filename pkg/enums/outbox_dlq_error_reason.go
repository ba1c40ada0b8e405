package enums

import "slices"

// OutboxDLQErrorReason records why an outbox row stopped being retried.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
	// OutboxDLQReasonUnroutable means no publisher exists for the resolved topic.
	OutboxDLQReasonUnroutable OutboxDLQErrorReason = "unroutable"
)

var dlqReasons = []OutboxDLQErrorReason{
	OutboxDLQReasonMaxAttempts,
	OutboxDLQReasonNonRetryable,
	OutboxDLQReasonUnroutable,
}

func (r OutboxDLQErrorReason) String() string { return string(r) }

func (r OutboxDLQErrorReason) IsValid() bool { return slices.Contains(dlqReasons, r) }

// ParseOutboxDLQErrorReason validates a stored or filtered reason value.
func ParseOutboxDLQErrorReason(value string) (OutboxDLQErrorReason, error) {
	return lookup(dlqReasons, value, "outbox dlq reason")
}
