package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldItemID is the standardized structured logging key for work item identifiers.
	FieldItemID = "item_id"
	// FieldTaskID is the standardized structured logging key for task identifiers.
	FieldTaskID = "task_id"
	// FieldTaskType is the standardized structured logging key for skill names.
	FieldTaskType = "task_type"
	// FieldStage is the standardized structured logging key for orchestrator stage names.
	FieldStage = "stage"
	// FieldWorkerID is the standardized structured logging key for task worker identities.
	FieldWorkerID = "worker_id"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType marks the kind of lifecycle event a line describes.
	FieldEventType = "event_type"
	// FieldErrorHint carries a short operator-facing next step.
	FieldErrorHint = "error_hint"
	// FieldErrorKind carries the services.Kind of a failure.
	FieldErrorKind = "error_kind"
	// FieldStatus is the standardized key for item or task statuses.
	FieldStatus = "status"
)
