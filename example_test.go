package parley_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/registry"
	"github.com/aretw0/parley/pkg/rules"
)

// ExampleNew shows an engine with its own rule source and handler.
func ExampleNew() {
	eng, err := parley.New(
		parley.WithRules(rules.Exact("greeting", []string{"hello", "hi"}, "smalltalk.greet", 1.0)),
		parley.WithHandlers(registry.Descriptor{
			Intent: "smalltalk.greet",
			Handler: func(ctx context.Context, _ map[string]any, _ *registry.HandlerContext) (domain.Outcome, error) {
				return domain.Outcome{Success: true, Message: "Hello there!"}, nil
			},
		}),
	)
	if err != nil {
		log.Fatal(err)
	}

	out, err := eng.Say(context.Background(), "demo", "Hi!")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(out.Route, out.Message)
	// Output: executed Hello there!
}

// ExampleEngine_Say_confirmation parks a dangerous action behind a yes/no question.
func ExampleEngine_Say_confirmation() {
	eng, err := parley.New(
		parley.WithHandlers(registry.Descriptor{
			Intent:               "system.shutdown",
			RequiresConfirmation: true,
			Description:          "shut down the computer",
			Handler: func(ctx context.Context, _ map[string]any, _ *registry.HandlerContext) (domain.Outcome, error) {
				return domain.Outcome{Success: true, Message: "Shutting down."}, nil
			},
		}),
	)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	for _, text := range []string{"shutdown the computer", "maybe", "yes"} {
		out, err := eng.Say(ctx, "demo", text)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%s: %s\n", out.Route, out.Message)
	}
	// Output:
	// confirm_prompt: Are you sure you want to shut down the computer? (yes/no)
	// reprompt: Are you sure you want to shut down the computer? (yes/no)
	// executed: Shutting down.
}
