package models

import (
	"time"

	"gorm.io/datatypes"
)

type MatchMode = uint8

const (
	MatchAny = MatchMode(iota + 1)
	MatchContains
	MatchContainsCaseless
	MatchExact
	MatchExactCaseless
	MatchStartsWith
	MatchStartsWithCaseless
)

func MatchModeVerbose(mode MatchMode) string {
	switch mode {
	case MatchAny:
		return "ANY"
	case MatchContains:
		return "CONTAINS"
	case MatchContainsCaseless:
		return "CONTAINS_CASELESS"
	case MatchExact:
		return "EXACT"
	case MatchExactCaseless:
		return "EXACT_CASELESS"
	case MatchStartsWith:
		return "STARTS_WITH"
	case MatchStartsWithCaseless:
		return "STARTS_WITH_CASELESS"
	default:
		return "UNKNOWN"
	}
}

func ValidMatchMode(mode MatchMode) bool {
	return mode >= MatchAny && mode <= MatchStartsWithCaseless
}

// BotHandlerDescriptor is the immutable metadata a handler registers with.
// Cooldown is in seconds; Args is the handler-defined default payload.
type BotHandlerDescriptor struct {
	Alias       string         `json:"alias"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Triggers    []string       `json:"triggers"`
	Match       MatchMode      `json:"match"`
	Cooldown    int            `json:"cooldown"`
	AdminOnly   bool           `json:"admin_only"`
	Args        map[string]any `json:"args"`
}

// PackagedBotInstall names one handler of a bundle along with the
// per-installation override payload. Reserved override keys (triggers, match,
// cooldown, enabled, admin_only) replace the descriptor's settings; anything
// else is merged over the descriptor's default args.
type PackagedBotInstall struct {
	Handler   string         `json:"handler"`
	Overrides map[string]any `json:"overrides"`
}

type PackagedBotBundle struct {
	Alias       string               `json:"alias"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Avatar      *string              `json:"avatar"`
	Installs    []PackagedBotInstall `json:"installs"`
}

// ThreadBotAction binds one registered handler to one thread. The matching
// settings are snapshotted at install time (descriptor merged with any
// overrides); LastFiredAt backs cooldown tracking.
type ThreadBotAction struct {
	BaseModel

	ThreadID uint   `json:"thread_id"`
	Thread   Thread `json:"thread"`

	Handler   string                      `json:"handler" gorm:"index"`
	Package   *string                     `json:"package"`
	Enabled   bool                        `json:"enabled"`
	AdminOnly bool                        `json:"admin_only"`
	Cooldown  int                         `json:"cooldown"`
	Match     MatchMode                   `json:"match"`
	Triggers  datatypes.JSONSlice[string] `json:"triggers"`
	Args      datatypes.JSONMap           `json:"args"`

	LastFiredAt *time.Time `json:"last_fired_at"`
}

func (v ThreadBotAction) OnCooldown(now time.Time) bool {
	if v.LastFiredAt == nil || v.Cooldown <= 0 {
		return false
	}
	return now.Before(v.LastFiredAt.Add(time.Duration(v.Cooldown) * time.Second))
}
