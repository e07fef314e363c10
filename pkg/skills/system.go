package skills

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/registry"
)

// Tool names the system skill expects in tools.yaml.
const (
	ToolWifiOn   = "wifi_on"
	ToolWifiOff  = "wifi_off"
	ToolShutdown = "shutdown"
)

// System controls the wifi radio and power state.
func System(cmd Commander) registry.Skill {
	return registry.Skill{
		Name:        "system",
		Description: "Wifi and power controls",
		Intents: map[string]registry.IntentSpec{
			"system.wifi_on": {
				Confidence: 1.0,
				Handler: func(ctx context.Context, _ map[string]any, _ *registry.HandlerContext) (domain.Outcome, error) {
					return runTool(ctx, cmd, ToolWifiOn, nil, "Wifi is on.", "turn the wifi on")
				},
			},
			"system.wifi_off": {
				Confidence: 1.0,
				Handler: func(ctx context.Context, _ map[string]any, _ *registry.HandlerContext) (domain.Outcome, error) {
					return runTool(ctx, cmd, ToolWifiOff, nil, "Wifi is off.", "turn the wifi off")
				},
			},
			"system.shutdown": {
				Confidence:           1.0,
				RequiresConfirmation: true,
				Description:          "shut down the computer",
				Handler: func(ctx context.Context, _ map[string]any, _ *registry.HandlerContext) (domain.Outcome, error) {
					return runTool(ctx, cmd, ToolShutdown, nil, "Shutting down.", "shut down")
				},
			},
		},
	}
}
