package skills

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/registry"
)

type timerEntities struct {
	Amount int    `entity:"amount"`
	Unit   string `entity:"unit"`
}

// Productivity sets timers. The timer itself is run by the host, which
// receives the duration in Outcome.Data.
func Productivity() registry.Skill {
	return registry.Skill{
		Name:        "productivity",
		Description: "Timers",
		Intents: map[string]registry.IntentSpec{
			"productivity.set_timer": {
				Confidence: 1.0,
				Handler: func(_ context.Context, entities map[string]any, hc *registry.HandlerContext) (domain.Outcome, error) {
					var e timerEntities
					if err := decode(entities, &e); err != nil {
						return domain.Outcome{}, err
					}
					if e.Amount <= 0 {
						return domain.Outcome{Success: false, Message: "For how long should the timer run?"}, nil
					}

					d := time.Duration(e.Amount)
					switch e.Unit {
					case "seconds":
						d *= time.Second
					case "hours":
						d *= time.Hour
					default:
						e.Unit = "minutes"
						d *= time.Minute
					}
					hc.Logger.Debug("timer requested", "duration", d)
					return domain.Outcome{
						Success: true,
						Message: fmt.Sprintf("Timer set for %d %s.", e.Amount, e.Unit),
						Action:  "timer",
						Data:    map[string]any{"seconds": int(d.Seconds())},
					}, nil
				},
			},
		},
	}
}
