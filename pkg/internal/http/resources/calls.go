package resources

import (
	"github.com/amaurycid/messenger/pkg/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

// CallResource projects a call for one viewer. Room credentials only appear
// for a viewer holding an open, non-kicked participant row on a
// setup-complete call, and never once the call has ended. The participant
// collection is exposed only on ended calls, and only on request; the live
// roster travels over the realtime channel instead. Keys that do not apply
// are left out entirely rather than set to null. The owner block is rendered
// when the caller resolved the owning provider; owner_id and owner_type are
// always present regardless.
func CallResource(call models.Call, thread models.Thread, owner, viewer models.Provider, withParticipants bool) fiber.Map {
	res := fiber.Map{
		"id":           call.ID,
		"type":         call.Type,
		"type_verbose": models.CallTypeVerbose(call.Type),
		"thread_id":    call.ThreadID,
		"created_at":   call.CreatedAt,
		"updated_at":   call.UpdatedAt,
		"owner_id":     call.OwnerID,
		"owner_type":   call.OwnerType,
		"active":       call.Active(),
		"meta": fiber.Map{
			"thread_id":           thread.ID,
			"thread_type":         thread.Type,
			"thread_type_verbose": models.ThreadTypeVerbose(thread.Type),
			"thread_name":         thread.DisplayText(),
			"thread_avatar":       thread.Avatar,
		},
	}

	if owner != nil {
		res["owner"] = OwnerResource(owner)
	}

	if !call.Active() {
		if withParticipants {
			res["participants"] = lo.Map(call.Participants, func(item models.CallParticipant, idx int) fiber.Map {
				return ParticipantResource(item)
			})
		}
		return res
	}

	if viewer == nil {
		return res
	}

	participant := call.ParticipantOf(viewer)
	options := fiber.Map{
		"admin":          call.IsOwner(viewer),
		"setup_complete": call.SetupComplete(),
		"joined":         participant != nil,
		"in_call":        participant != nil && participant.CurrentlyJoined(),
		"left_call":      participant != nil && participant.LeftAt != nil,
		"kicked":         participant != nil && participant.Kicked,
	}

	if room := call.Room(); room != nil && participant != nil && participant.CurrentlyJoined() && !participant.Kicked {
		options["room_id"] = room.RoomID
		options["room_pin"] = room.RoomPin
		options["payload"] = room.Payload
	}

	res["options"] = options
	return res
}

func ParticipantResource(participant models.CallParticipant) fiber.Map {
	return fiber.Map{
		"id":            participant.ID,
		"call_id":       participant.CallID,
		"provider_id":   participant.ProviderID,
		"provider_type": participant.ProviderType,
		"created_at":    participant.CreatedAt,
		"updated_at":    participant.UpdatedAt,
		"left_at":       participant.LeftAt,
		"kicked":        participant.Kicked,
	}
}

// OwnerResource renders a resolved provider identity.
func OwnerResource(owner models.Provider) fiber.Map {
	return fiber.Map{
		"id":     owner.ProviderID(),
		"type":   owner.ProviderKind(),
		"name":   owner.DisplayName(),
		"avatar": owner.AvatarRef(),
	}
}
