package services

import (
	"testing"

	"github.com/amaurycid/messenger/pkg/internal/models"
)

func TestMatchesTrigger(t *testing.T) {
	cases := []struct {
		name     string
		triggers []string
		mode     models.MatchMode
		text     string
		want     bool
	}{
		{"empty triggers never match", nil, models.MatchContains, "hello", false},
		{"empty text never matches", []string{"hi"}, models.MatchContains, "", false},
		{"blank text never matches", []string{"hi"}, models.MatchContains, "   ", false},
		{"any matches everything", nil, models.MatchAny, "whatever", true},
		{"any still needs text", nil, models.MatchAny, "  ", false},

		{"exact hit", []string{"hi"}, models.MatchExact, "hi", true},
		{"exact respects case", []string{"hi"}, models.MatchExact, "HI", false},
		{"exact trims text", []string{"hi"}, models.MatchExact, "  hi  ", true},
		{"exact rejects extra words", []string{"hi"}, models.MatchExact, "hi there", false},
		{"exact caseless hit", []string{"hi"}, models.MatchExactCaseless, "HI", true},

		{"contains in the middle", []string{"hi"}, models.MatchContains, "oh hi there", true},
		{"contains respects case", []string{"hi"}, models.MatchContains, "oh HI there", false},
		{"contains caseless", []string{"hi"}, models.MatchContainsCaseless, "oh HI there", true},

		{"starts with hit", []string{"hi"}, models.MatchStartsWith, "hi there", true},
		{"starts with rejects middle", []string{"hi"}, models.MatchStartsWith, "oh hi", false},
		{"starts with caseless", []string{"!Ping"}, models.MatchStartsWithCaseless, "!ping everyone", true},

		{"triggers are or-ed", []string{"nope", "hi"}, models.MatchExact, "hi", true},
		{"blank triggers are skipped", []string{"  ", "hi"}, models.MatchExact, "hi", true},
		{"no trigger hits", []string{"one", "two"}, models.MatchContains, "three", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MatchesTrigger(tc.triggers, tc.mode, tc.text); got != tc.want {
				t.Errorf("MatchesTrigger(%v, %s, %q) = %v, want %v",
					tc.triggers, models.MatchModeVerbose(tc.mode), tc.text, got, tc.want)
			}
		})
	}
}
