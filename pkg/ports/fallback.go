package ports

// Fallbacks supplies user-facing text for every non-happy path.
// Implementations must be safe for concurrent use.
type Fallbacks interface {
	Unknown() string
	LowConfidence(confidence float64) string
	Error(err error) string
	PluginNotFound(intent string) string
	ConfirmationPending(actionDescription string) string
	ConfirmationTimeout() string
	ConfirmationCancelled() string
}
