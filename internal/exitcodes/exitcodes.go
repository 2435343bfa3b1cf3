package exitcodes

// Exit codes for stale-cleaner
// These codes form the operational contract with cron, CI/CD and operators
const (
	Success         = 0 // Successful execution
	Failure         = 1 // Unclassified failure
	InvalidConfig   = 2 // Configuration file or arguments invalid
	SafetyViolation = 3 // Safety validator blocked an operation
	RuntimeError    = 4 // Runtime error during execution
)
