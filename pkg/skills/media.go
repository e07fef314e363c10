package skills

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/registry"
)

type mediaEntities struct {
	Action string `entity:"action"`
}

var mediaActions = map[string]string{
	"play":     "Playing.",
	"pause":    "Paused.",
	"stop":     "Stopped.",
	"next":     "Skipping to the next track.",
	"previous": "Going back to the previous track.",
}

// Media controls playback through media_<action> commands.
func Media(cmd Commander) registry.Skill {
	return registry.Skill{
		Name:        "media",
		Description: "Playback controls",
		Intents: map[string]registry.IntentSpec{
			"media.control": {
				Confidence: 0.9,
				Handler: func(ctx context.Context, entities map[string]any, _ *registry.HandlerContext) (domain.Outcome, error) {
					var e mediaEntities
					if err := decode(entities, &e); err != nil {
						return domain.Outcome{}, err
					}
					msg, ok := mediaActions[e.Action]
					if !ok {
						return domain.Outcome{Success: false, Message: "I can play, pause, stop, skip or go back."}, nil
					}
					return runTool(ctx, cmd, "media_"+e.Action, nil, msg, "control media playback")
				},
			},
		},
	}
}
