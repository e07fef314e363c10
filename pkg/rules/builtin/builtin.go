// Package builtin provides the default rule sources for the bundled skills.
package builtin

import (
	"strconv"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/rules"
)

// Intent names emitted by the builtin sources.
const (
	IntentWifiOn       = "system.wifi_on"
	IntentWifiOff      = "system.wifi_off"
	IntentShutdown     = "system.shutdown"
	IntentAskWebsite   = "browser.ask_which_website"
	IntentOpenWebsite  = "browser.open_website"
	IntentSearchVideo  = "browser.search_video"
	IntentMediaControl = "media.control"
	IntentSetTimer     = "productivity.set_timer"
)

// Sources returns the builtin rule sources in priority order.
// Video search precedes website opening so "search cats on youtube" never
// becomes "open youtube".
func Sources() []rules.Source {
	return []rules.Source{
		VideoSearch(),
		Wifi(),
		AskWebsite(),
		OpenWebsite(),
		Media(),
		Productivity(),
	}
}

// VideoSearch matches "search <query> on youtube".
func VideoSearch() rules.Source {
	return rules.Regexp("video_search",
		`^(?:search|find|look up)(?: for)? (.+?) on (?:youtube|yt)$`,
		IntentSearchVideo, 1.0,
		func(g []string) map[string]any {
			return map[string]any{"query": g[1]}
		})
}

// Wifi matches "turn on wifi", "switch wifi off" and similar.
func Wifi() rules.Source {
	on := rules.Regexp("", `^(?:turn|switch) (?:the )?(?:wifi|wi-fi) on$|^(?:turn|switch|enable) on (?:the )?(?:wifi|wi-fi)$|^enable (?:the )?(?:wifi|wi-fi)$`, IntentWifiOn, 1.0, nil)
	off := rules.Regexp("", `^(?:turn|switch) (?:the )?(?:wifi|wi-fi) off$|^(?:turn|switch) off (?:the )?(?:wifi|wi-fi)$|^disable (?:the )?(?:wifi|wi-fi)$`, IntentWifiOff, 1.0, nil)
	return rules.New("wifi", func(text string, nlu domain.NLUContext) (*domain.Candidate, error) {
		if c, err := on.Match(text, nlu); c != nil || err != nil {
			return c, err
		}
		return off.Match(text, nlu)
	})
}

// AskWebsite matches the bare phrase "open website", which needs a follow-up question.
func AskWebsite() rules.Source {
	return rules.Exact("ask_website",
		[]string{"open website", "open a website", "open the website", "open browser"},
		IntentAskWebsite, 1.0)
}

// OpenWebsite matches "open <site>". A site that looks like a domain scores higher.
func OpenWebsite() rules.Source {
	re := rules.Regexp("", `^(?:open|go to|visit|browse to) (?:the )?(?:website |site )?(.+?)$`, IntentOpenWebsite, 0.8,
		func(g []string) map[string]any {
			return map[string]any{"website": g[1]}
		})
	return rules.New("open_website", func(text string, nlu domain.NLUContext) (*domain.Candidate, error) {
		c, err := re.Match(text, nlu)
		if c == nil || err != nil {
			return c, err
		}
		if site, _ := c.Entities["website"].(string); strings.Contains(site, ".") {
			c.Confidence = 0.95
		}
		return c, nil
	})
}

// Media matches playback commands.
func Media() rules.Source {
	return rules.Regexp("media",
		`^(play|pause|resume|stop|next|previous|skip)(?: (?:the )?(?:music|song|track|video|media))?$`,
		IntentMediaControl, 0.9,
		func(g []string) map[string]any {
			action := g[1]
			switch action {
			case "resume":
				action = "play"
			case "skip":
				action = "next"
			}
			return map[string]any{"action": action}
		})
}

// Productivity matches timers and shutdown requests.
func Productivity() rules.Source {
	timer := rules.Regexp("", `^set (?:a )?timer (?:for )?(\d+) ?(seconds?|secs?|minutes?|mins?|hours?)$`, IntentSetTimer, 1.0,
		func(g []string) map[string]any {
			n, _ := strconv.Atoi(g[1])
			return map[string]any{"amount": n, "unit": unit(g[2])}
		})
	// Vague timer requests classify weakly so the floor can reject them.
	vague := rules.Regexp("", `^(?:set )?(?:a )?timer$`, IntentSetTimer, 0.4, nil)
	shutdown := rules.Regexp("", `^(?:shutdown|shut down|power off|turn off)(?: the)? (?:computer|pc|machine|system)$`, IntentShutdown, 1.0, nil)

	return rules.New("productivity", func(text string, nlu domain.NLUContext) (*domain.Candidate, error) {
		for _, s := range []rules.Source{timer, shutdown, vague} {
			if c, err := s.Match(text, nlu); c != nil || err != nil {
				return c, err
			}
		}
		return nil, nil
	})
}

func unit(s string) string {
	switch {
	case strings.HasPrefix(s, "s"):
		return "seconds"
	case strings.HasPrefix(s, "h"):
		return "hours"
	default:
		return "minutes"
	}
}
