package catalog

import (
	"fmt"
	"sort"
	"strings"

	contractx "github.com/voxgate/voxgate/agent/contract"
	sessionx "github.com/voxgate/voxgate/agent/session"
)

// ComputeInstructions builds the full system instructions for one turn from
// the persona's static template, external business info, and the session's
// collected context. It is a pure function: same inputs, same output.
func ComputeInstructions(p *Persona, info contractx.BusinessInfo, s *sessionx.Session) string {
	var b strings.Builder
	b.WriteString(p.Instructions)

	if name := strings.TrimSpace(info.Name); name != "" {
		tone := strings.TrimSpace(info.Tone)
		if tone == "" {
			tone = "friendly and professional"
		}
		fmt.Fprintf(&b, "\n\nYou are speaking on behalf of %s. Keep your tone %s.", name, tone)
		if hours := strings.TrimSpace(info.Hours); hours != "" {
			fmt.Fprintf(&b, " Business hours: %s.", hours)
		}
	}

	if s != nil && len(s.Slots) > 0 {
		keys := make([]string, 0, len(s.Slots))
		for k := range s.Slots {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("\n\nCollected information:")
		for _, k := range keys {
			fmt.Fprintf(&b, "\n- %s: %v", k, s.Slots[k])
		}
	}

	if s != nil && s.Intent != "" {
		fmt.Fprintf(&b, "\n\nDetected intent: %s", s.Intent)
	}

	return b.String()
}
