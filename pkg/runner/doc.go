/*
Package runner implements the conversation loop and I/O orchestration for a
Parley engine.

It acts as the bridge between the engine and a terminal or a pipe. Input and
output go through pluggable handlers, and pending confirmations can be expired
while the loop waits for the user.

# Key Components

  - Runner: reads utterances, drives Engine.HandleTurn, prints outcomes.
  - TextHandler: interactive CLI usage with an optional markdown renderer.
  - JSONHandler: JSON-Lines requests and responses for scripting.

# Usage

	r := runner.NewRunner(
		runner.WithSessionID("user-1"),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if err := r.Run(ctx, engine); err != nil {
		log.Fatal(err)
	}
*/
package runner
