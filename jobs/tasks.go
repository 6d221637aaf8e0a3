package jobs

// Queues consumed by the worker, with their relative weights.
const (
	QueueAudit   = "audit"
	QueueDefault = "default"
)

var queueWeights = map[string]int{
	QueueAudit:   3,
	QueueDefault: 1,
}

// Task types.
const (
	// TaskAuthEvent records one authentication event.
	TaskAuthEvent = "auth:event"
	// TaskAuthPurge removes audit events past retention.
	TaskAuthPurge = "auth:purge"
)
