package models

type ThreadType = uint8

const (
	ThreadTypePrivate = ThreadType(1)
	ThreadTypeGroup   = ThreadType(2)
)

func ThreadTypeVerbose(t ThreadType) string {
	switch t {
	case ThreadTypePrivate:
		return "PRIVATE"
	case ThreadTypeGroup:
		return "GROUP"
	default:
		return "UNKNOWN"
	}
}

type Thread struct {
	BaseModel

	Alias       string     `json:"alias" gorm:"uniqueIndex"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Type        ThreadType `json:"type"`
	Avatar      *string    `json:"avatar"`

	Calls      []Call            `json:"calls" gorm:"constraint:OnDelete:CASCADE"`
	BotActions []ThreadBotAction `json:"bot_actions" gorm:"constraint:OnDelete:CASCADE"`
	Events     []Event           `json:"events" gorm:"constraint:OnDelete:CASCADE"`
}

func (v Thread) DisplayText() string {
	if v.Type == ThreadTypePrivate {
		return "DM"
	}
	return v.Name
}
