// Package skills contains the bundled example skills: system controls,
// browser navigation, media playback and timers.
//
// Skills that touch the machine go through a Commander, normally the
// allow-listed process runner. A command that is not configured yields a
// failed Outcome rather than an error, so the user hears what is missing.
package skills

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/parley/pkg/adapters/process"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/registry"
	"github.com/mitchellh/mapstructure"
)

// Commander runs named, allow-listed commands.
type Commander interface {
	Has(name string) bool
	Run(ctx context.Context, name string, args map[string]any) (process.Result, error)
}

// All returns every bundled skill wired to cmd.
func All(cmd Commander) []registry.Skill {
	return []registry.Skill{
		System(cmd),
		Browser(cmd),
		Media(cmd),
		Productivity(),
	}
}

// decode maps entities onto a typed struct. Stores round-trip entities
// through JSON, so numbers may arrive as float64 or strings.
func decode(entities map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "entity",
	})
	if err != nil {
		return err
	}
	return dec.Decode(entities)
}

// runTool executes a command and maps the result onto an Outcome.
func runTool(ctx context.Context, cmd Commander, tool string, args map[string]any, okMsg, action string) (domain.Outcome, error) {
	if cmd == nil || !cmd.Has(tool) {
		return domain.Outcome{
			Success: false,
			Message: fmt.Sprintf("I don't know how to %s on this machine.", action),
			Action:  tool,
		}, nil
	}
	res, err := cmd.Run(ctx, tool, args)
	if errors.Is(err, process.ErrNotRegistered) {
		return domain.Outcome{Success: false, Message: fmt.Sprintf("I don't know how to %s on this machine.", action), Action: tool}, nil
	}
	if err != nil {
		return domain.Outcome{}, err
	}
	if res.IsError {
		return domain.Outcome{}, fmt.Errorf("%s: %s", tool, res.Error)
	}
	out := domain.Outcome{Success: true, Message: okMsg, Action: tool}
	if res.Output != nil && res.Output != "" {
		out.Data = map[string]any{"output": res.Output}
	}
	return out, nil
}
