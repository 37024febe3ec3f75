package audithook

// Action constants for audit events.
const (
	// Posting actions
	ActionPostingRecorded = "posting.recorded"

	// Statement actions
	ActionStatementCreated = "statement.created"
	ActionStatementClosed  = "statement.closed"

	// Failure actions
	ActionOperationFailed = "operation.failed"
)

// Resource constants for audit events.
const (
	ResourcePosting   = "posting"
	ResourceStatement = "statement"
	ResourceOperation = "operation"
)

// Category constants for audit events.
const (
	CategoryBookkeeping = "bookkeeping"
	CategoryReporting   = "reporting"
	CategoryIntegrity   = "integrity"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
