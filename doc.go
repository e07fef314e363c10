/*
Package parley resolves free-form utterances into intents and dispatches them to skill handlers.

Each turn runs through a fixed pipeline: rule sources are tried in priority order
and the first match wins; a match below the confidence floor is rejected; the
winning intent is looked up in a registry frozen at startup; and its handler
runs with a bounded context. Sessions carry a small amount of conversational
state between turns: either a question the user is expected to answer, or an
action parked behind a yes/no confirmation, never both.

# Usage

	eng, err := parley.New(
		parley.WithSkills(skills.All(process.NewRunner())...),
	)
	if err != nil {
		log.Fatal(err)
	}

	out, err := eng.Say(ctx, "session-123", "shutdown the computer")
	// out.Route == domain.RouteConfirmPrompt
	out, err = eng.Say(ctx, "session-123", "yes")
	// out.Route == domain.RouteExecuted

Turns for the same session are serialized; different sessions proceed in
parallel. The returned error is reserved for infrastructure failures such as a
broken store or a cancelled context. Everything the user should hear, including
unknown input and failing handlers, comes back as an Outcome.

# Hosts

The engine is host-agnostic. The pkg/adapters packages expose it over HTTP
(chi + OpenAPI), MCP and a terminal REPL (pkg/runner), and persist sessions in
memory, on disk or in Redis.
*/
package parley
