package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/registry"
)

// Overlay highlights session state on the diagram.
type Overlay struct {
	// ActiveIntent is the intent a session is waiting on (pending or awaiting).
	ActiveIntent string
	// Waiting is "confirmation" or "answer".
	Waiting string
}

// OverlayFor derives the overlay from a session. An idle session yields nil.
func OverlayFor(sess *domain.Session) *Overlay {
	switch {
	case sess == nil:
		return nil
	case sess.Pending != nil:
		return &Overlay{ActiveIntent: sess.Pending.Intent, Waiting: "confirmation"}
	case sess.Awaiting != nil && sess.Awaiting.OriginatingIntent != "":
		return &Overlay{ActiveIntent: sess.Awaiting.OriginatingIntent, Waiting: "answer"}
	}
	return nil
}

// GenerateMermaid draws the dispatch pipeline as a Mermaid flowchart:
// rule sources in priority order, the confidence floor, then intents grouped by skill.
// Shapes:
// - Utterance: ((Circle))
// - Rule source: [[Subroutine]]
// - Floor: {Diamond}
// - Intent needing confirmation: {{Hexagon}}
// - Other intents: [Rectangle]
func GenerateMermaid(sources []string, intents []registry.Info, floor float64, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")
	sb.WriteString("    utterance((\"utterance\"))\n")

	prev := "utterance"
	for i, name := range sources {
		id := fmt.Sprintf("src_%d", i)
		sb.WriteString(fmt.Sprintf("    %s[[\"%d. %s\"]]\n", id, i+1, escape(name)))
		if i == 0 {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", prev, id))
		} else {
			sb.WriteString(fmt.Sprintf("    %s -. \"no match\" .-> %s\n", prev, id))
		}
		sb.WriteString(fmt.Sprintf("    %s -- \"candidate\" --> floor\n", id))
		prev = id
	}
	sb.WriteString(fmt.Sprintf("    floor{\"confidence >= %.2f\"}\n", floor))
	sb.WriteString(fmt.Sprintf("    %s -. \"no match\" .-> unknown[/\"unknown\"/]\n", prev))
	sb.WriteString("    floor -- \"below\" --> low[/\"low confidence\"/]\n")

	bySkill := make(map[string][]registry.Info)
	for _, in := range intents {
		bySkill[in.Skill] = append(bySkill[in.Skill], in)
	}
	skills := make([]string, 0, len(bySkill))
	for s := range bySkill {
		skills = append(skills, s)
	}
	sort.Strings(skills)

	for _, skill := range skills {
		indent := "    "
		if skill != "" {
			sb.WriteString(fmt.Sprintf("    subgraph skill_%s[\"%s\"]\n", sanitizeMermaidID(skill), escape(skill)))
			indent = "        "
		}
		for _, in := range bySkill[skill] {
			id := sanitizeMermaidID(in.Intent)
			if in.RequiresConfirmation {
				sb.WriteString(fmt.Sprintf("%s%s{{\"%s <br/> confirm\"}}\n", indent, id, escape(in.Intent)))
			} else {
				sb.WriteString(fmt.Sprintf("%s%s[\"%s\"]\n", indent, id, escape(in.Intent)))
			}
		}
		if skill != "" {
			sb.WriteString("    end\n")
		}
	}
	for _, in := range intents {
		sb.WriteString(fmt.Sprintf("    floor --> %s\n", sanitizeMermaidID(in.Intent)))
	}

	if overlay != nil && overlay.ActiveIntent != "" {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) so the highlight reads on light and dark themes.
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(overlay.ActiveIntent)))
		if overlay.Waiting != "" {
			sb.WriteString(fmt.Sprintf("    session((\"waiting for %s\")) -.-> %s\n", escape(overlay.Waiting), sanitizeMermaidID(overlay.ActiveIntent)))
		}
	}

	return sb.String()
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return "i_" + s
}
