package domain

// Route identifies the dispatch path that produced an Outcome.
type Route string

const (
	RouteExecuted       Route = "executed"         // Handler ran and returned its own Outcome
	RouteConfirmPrompt  Route = "confirm_prompt"   // Action parked behind a yes/no question
	RouteCancelled      Route = "cancelled"        // User declined a pending action
	RouteReprompt       Route = "reprompt"         // Ambiguous reply to a pending action
	RouteUnknown        Route = "unknown"          // No rule source matched
	RouteLowConfidence  Route = "low_confidence"   // Match below the confidence floor
	RoutePluginNotFound Route = "plugin_not_found" // Intent has no registered handler
	RouteError          Route = "error"            // Handler failed
	RouteTimeout        Route = "timeout"          // Handler exceeded its deadline
	RouteExpired        Route = "expired"          // Pending action expired by the host
)

// Outcome is the result of a turn. Message is what the user sees.
type Outcome struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Action  string         `json:"action,omitempty"`
	Data    map[string]any `json:"data,omitempty"`

	// Route and Intent are filled in by the dispatcher.
	Route  Route  `json:"route,omitempty"`
	Intent string `json:"intent,omitempty"`
}
