package skills

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/registry"
	"github.com/sahilm/fuzzy"
)

// ToolOpenURL is the command used to open a URL; it receives PARLEY_ARG_URL.
const ToolOpenURL = "open_url"

// SlotWebsite is the slot filled by the answer to "which website?".
const SlotWebsite = "website"

// KnownSites maps spoken site names to URLs.
var KnownSites = map[string]string{
	"github":    "https://github.com",
	"google":    "https://www.google.com",
	"youtube":   "https://www.youtube.com",
	"wikipedia": "https://www.wikipedia.org",
	"gmail":     "https://mail.google.com",
	"reddit":    "https://www.reddit.com",
	"netflix":   "https://www.netflix.com",
	"maps":      "https://maps.google.com",
}

type websiteEntities struct {
	Website string `entity:"website"`
}

type videoEntities struct {
	Query string `entity:"query"`
}

// Browser opens websites and video searches.
func Browser(cmd Commander) registry.Skill {
	names := make([]string, 0, len(KnownSites))
	for name := range KnownSites {
		names = append(names, name)
	}
	sort.Strings(names)

	open := func(ctx context.Context, target string) (domain.Outcome, error) {
		if cmd == nil || !cmd.Has(ToolOpenURL) {
			// Nothing to launch with: hand the URL to the host instead.
			return domain.Outcome{
				Success: true,
				Message: "Here you go: " + target,
				Action:  ToolOpenURL,
				Data:    map[string]any{"url": target},
			}, nil
		}
		out, err := runTool(ctx, cmd, ToolOpenURL, map[string]any{"url": target}, "Opening "+target+".", "open a browser")
		if err != nil {
			return out, err
		}
		if out.Data == nil {
			out.Data = map[string]any{}
		}
		out.Data["url"] = target
		return out, nil
	}

	return registry.Skill{
		Name:        "browser",
		Description: "Website and video navigation",
		Intents: map[string]registry.IntentSpec{
			"browser.ask_which_website": {
				Confidence: 1.0,
				Handler: func(ctx context.Context, _ map[string]any, hc *registry.HandlerContext) (domain.Outcome, error) {
					if err := hc.Memory.SetAwaiting(ctx, SlotWebsite, "browser.open_website", hc.SessionID); err != nil {
						return domain.Outcome{}, err
					}
					return domain.Outcome{Success: true, Message: "Which website should I open?"}, nil
				},
			},
			"browser.open_website": {
				Confidence: 0.8,
				Handler: func(ctx context.Context, entities map[string]any, hc *registry.HandlerContext) (domain.Outcome, error) {
					var e websiteEntities
					if err := decode(entities, &e); err != nil {
						return domain.Outcome{}, err
					}
					target, ok := ResolveSite(e.Website, names)
					if !ok {
						if err := hc.Memory.SetAwaiting(ctx, SlotWebsite, "browser.open_website", hc.SessionID); err != nil {
							return domain.Outcome{}, err
						}
						return domain.Outcome{Success: false, Message: fmt.Sprintf("I don't know the website %q. Which website should I open?", e.Website)}, nil
					}
					return open(ctx, target)
				},
			},
			"browser.search_video": {
				Confidence: 1.0,
				Handler: func(ctx context.Context, entities map[string]any, _ *registry.HandlerContext) (domain.Outcome, error) {
					var e videoEntities
					if err := decode(entities, &e); err != nil {
						return domain.Outcome{}, err
					}
					if strings.TrimSpace(e.Query) == "" {
						return domain.Outcome{Success: false, Message: "What should I search for?"}, nil
					}
					return open(ctx, "https://www.youtube.com/results?search_query="+url.QueryEscape(e.Query))
				},
			},
		},
	}
}

// ResolveSite turns a spoken site name into a URL. Domain-looking input is
// used as is; other input is fuzzy matched against the known site names.
func ResolveSite(spoken string, names []string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(spoken))
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return "", false
	}
	if u, ok := KnownSites[s]; ok {
		return u, true
	}
	if strings.Contains(s, ".") && !strings.Contains(s, " ") {
		if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
			return s, true
		}
		return "https://" + s, true
	}
	matches := fuzzy.Find(strings.ReplaceAll(s, " ", ""), names)
	if len(matches) == 0 {
		return "", false
	}
	return KnownSites[matches[0].Str], true
}
