package models

import "time"

type CallType = uint8

const (
	CallTypeVideo = CallType(1)
	CallTypeAudio = CallType(2)
)

func CallTypeVerbose(t CallType) string {
	switch t {
	case CallTypeVideo:
		return "VIDEO"
	case CallTypeAudio:
		return "AUDIO"
	default:
		return "UNKNOWN"
	}
}

// CallRoom is the external conferencing room descriptor attached to a call
// once setup completes. The three fields travel together; a call either has
// the full descriptor or none of it.
type CallRoom struct {
	RoomID  int64  `json:"room_id"`
	RoomPin string `json:"room_pin"`
	Payload string `json:"payload"`
}

type Call struct {
	BaseModel

	Type     CallType `json:"type"`
	ThreadID uint     `json:"thread_id"`
	Thread   Thread   `json:"thread"`

	OwnerID   uint         `json:"owner_id"`
	OwnerType ProviderType `json:"owner_type"`

	EndedAt *time.Time `json:"ended_at"`

	RoomID      *int64  `json:"room_id"`
	RoomPin     *string `json:"room_pin"`
	RoomPayload *string `json:"room_payload"`

	Participants []CallParticipant `json:"participants" gorm:"constraint:OnDelete:CASCADE"`
}

func (v Call) Active() bool {
	return v.EndedAt == nil
}

func (v Call) SetupComplete() bool {
	return v.RoomID != nil && v.RoomPin != nil && v.RoomPayload != nil
}

func (v Call) Room() *CallRoom {
	if !v.SetupComplete() {
		return nil
	}
	return &CallRoom{
		RoomID:  *v.RoomID,
		RoomPin: *v.RoomPin,
		Payload: *v.RoomPayload,
	}
}

// ParticipantOf picks the viewer's participant row out of a loaded
// participant collection; nil when the provider never joined.
func (v Call) ParticipantOf(provider Provider) *CallParticipant {
	for idx, participant := range v.Participants {
		if participant.ProviderID == provider.ProviderID() && participant.ProviderType == provider.ProviderKind() {
			return &v.Participants[idx]
		}
	}
	return nil
}

func (v Call) IsOwner(provider Provider) bool {
	return v.OwnerID == provider.ProviderID() && v.OwnerType == provider.ProviderKind()
}

type CallParticipant struct {
	BaseModel

	CallID uint `json:"call_id"`
	Call   Call `json:"call"`

	ProviderID   uint         `json:"provider_id"`
	ProviderType ProviderType `json:"provider_type"`

	LeftAt *time.Time `json:"left_at"`
	Kicked bool       `json:"kicked"`
}

func (v CallParticipant) CurrentlyJoined() bool {
	return v.LeftAt == nil
}
