package policy

import (
	"fmt"
	"strings"

	"github.com/dotcommander/warden/internal/models"
)

// Merge combines partial verdicts into one Verdict using fixed precedence:
// deny beats ask beats allow, block beats warn beats ok, should_continue is
// the logical AND across partials. Messages and injected context concatenate
// in handler-registration order, each in its own delimited section, so no
// information is dropped even when merged with higher-precedence signals.
// Merge is monotonic toward restriction: no partial can soften another.
func Merge(partials []Partial) models.Verdict {
	v := models.Verdict{ShouldContinue: true}

	var messages []string
	var contexts []string
	for _, p := range partials {
		if p.Permission > v.Permission {
			v.Permission = p.Permission
		}
		if p.Severity > v.ExitSeverity {
			v.ExitSeverity = p.Severity
		}
		if p.Halt {
			v.ShouldContinue = false
		}
		if p.Message != "" {
			messages = append(messages, section(p.Source, p.Message))
		}
		if p.InjectedContext != "" {
			contexts = append(contexts, section(p.Source, p.InjectedContext))
		}
	}

	v.Message = strings.Join(messages, "\n\n")
	v.InjectedContext = strings.Join(contexts, "\n\n")
	return v
}

func section(source, text string) string {
	if source == "" {
		return text
	}
	return fmt.Sprintf("[%s] %s", source, text)
}
