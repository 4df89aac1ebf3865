package services

import (
	"strings"

	"github.com/amaurycid/messenger/pkg/internal/models"
)

// MatchesTrigger decides whether a message should fire a bot action.
// Triggers are OR-ed; one hit is enough. Empty text never matches, and
// except for the ANY mode an empty trigger list never matches either.
func MatchesTrigger(triggers []string, mode models.MatchMode, text string) bool {
	text = strings.TrimSpace(text)
	if len(text) == 0 {
		return false
	}
	if mode == models.MatchAny {
		return true
	}

	for _, trigger := range triggers {
		trigger = strings.TrimSpace(trigger)
		if len(trigger) == 0 {
			continue
		}
		if matchesOne(trigger, mode, text) {
			return true
		}
	}

	return false
}

func matchesOne(trigger string, mode models.MatchMode, text string) bool {
	switch mode {
	case models.MatchExact:
		return text == trigger
	case models.MatchExactCaseless:
		return strings.EqualFold(text, trigger)
	case models.MatchContains:
		return strings.Contains(text, trigger)
	case models.MatchContainsCaseless:
		return strings.Contains(strings.ToLower(text), strings.ToLower(trigger))
	case models.MatchStartsWith:
		return strings.HasPrefix(text, trigger)
	case models.MatchStartsWithCaseless:
		return strings.HasPrefix(strings.ToLower(text), strings.ToLower(trigger))
	default:
		return false
	}
}
