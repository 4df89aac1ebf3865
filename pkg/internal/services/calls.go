package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/amaurycid/messenger/pkg/internal/database"
	"github.com/amaurycid/messenger/pkg/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// Every transition on one call runs under that call's mutex, so concurrent
// join/leave/kick/end requests serialize their read-decide-write sequences.
// Different calls never contend with each other.
var callLocks sync.Map

func lockCall(callId uint) func() {
	actual, _ := callLocks.LoadOrStore(callId, &sync.Mutex{})
	mu := actual.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Call creation is serialized per thread instead, to keep the one-ongoing-
// call rule safe against concurrent starts.
var callStartLocks sync.Map

func ListCall(thread models.Thread, take, offset int) ([]models.Call, error) {
	var calls []models.Call
	if err := database.C.
		Where(models.Call{ThreadID: thread.ID}).
		Limit(take).
		Offset(offset).
		Preload("Participants").
		Order("created_at DESC").
		Find(&calls).Error; err != nil {
		return calls, err
	}
	return calls, nil
}

func GetCall(thread models.Thread, id uint) (models.Call, error) {
	var call models.Call
	if err := database.C.
		Where(models.Call{
			BaseModel: models.BaseModel{ID: id},
			ThreadID:  thread.ID,
		}).
		Preload("Participants").
		First(&call).Error; err != nil {
		return call, err
	}
	return call, nil
}

func GetOngoingCall(thread models.Thread) (models.Call, error) {
	var call models.Call
	if err := database.C.
		Where(models.Call{ThreadID: thread.ID}).
		Where("ended_at IS NULL").
		Preload("Participants").
		Order("created_at DESC").
		First(&call).Error; err != nil {
		return call, err
	}
	return call, nil
}

// NewCall opens a call on a thread. The call starts without a room
// descriptor; SetupCallRoom attaches one once the conferencing backend is
// ready. Only one ongoing call is allowed per thread.
func NewCall(thread models.Thread, owner models.Provider, callType models.CallType) (models.Call, error) {
	actual, _ := callStartLocks.LoadOrStore(thread.ID, &sync.Mutex{})
	mu := actual.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	call := models.Call{
		Type:      callType,
		ThreadID:  thread.ID,
		OwnerID:   owner.ProviderID(),
		OwnerType: owner.ProviderKind(),
	}

	if _, err := GetOngoingCall(thread); err == nil {
		return call, ErrCallOngoing
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return call, err
	}

	if err := database.C.Create(&call).Error; err != nil {
		return call, err
	}

	Broadcast("calls.new", map[string]any{
		"call_id":    call.ID,
		"thread_id":  thread.ID,
		"owner_id":   call.OwnerID,
		"owner_type": call.OwnerType,
	})

	return call, nil
}

// SetupCallRoom attaches the room descriptor. Calling it again overwrites
// the previous descriptor; the three fields are written together so a call
// never carries a partial room.
func SetupCallRoom(call models.Call, room models.CallRoom) (models.Call, error) {
	unlock := lockCall(call.ID)
	defer unlock()

	call, err := refreshCall(call)
	if err != nil {
		return call, err
	}
	if !call.Active() {
		return call, ErrCallEnded
	}

	call.RoomID = lo.ToPtr(room.RoomID)
	call.RoomPin = lo.ToPtr(room.RoomPin)
	call.RoomPayload = lo.ToPtr(room.Payload)

	if err := database.C.Model(&models.Call{}).
		Where("id = ?", call.ID).
		Updates(map[string]any{
			"room_id":      room.RoomID,
			"room_pin":     room.RoomPin,
			"room_payload": room.Payload,
		}).Error; err != nil {
		return call, err
	}

	return call, nil
}

// JoinCall opens a participant row for the provider. Joining while already
// joined is a no-op; rejoining after a clean leave reopens the old row, so a
// provider never holds two open rows on one call. Kicked providers stay out
// until ResetKickedParticipant.
func JoinCall(call models.Call, provider models.Provider) (models.CallParticipant, error) {
	unlock := lockCall(call.ID)
	defer unlock()

	var participant models.CallParticipant

	call, err := refreshCall(call)
	if err != nil {
		return participant, err
	}
	if !call.Active() {
		return participant, ErrCallEnded
	}

	err = database.C.
		Where(models.CallParticipant{
			CallID:       call.ID,
			ProviderID:   provider.ProviderID(),
			ProviderType: provider.ProviderKind(),
		}).
		First(&participant).Error
	if err == nil {
		if participant.Kicked {
			return participant, ErrParticipantKicked
		}
		if participant.CurrentlyJoined() {
			return participant, nil
		}
		participant.LeftAt = nil
		if err := database.C.Model(&participant).Update("left_at", nil).Error; err != nil {
			return participant, err
		}
	} else if errors.Is(err, gorm.ErrRecordNotFound) {
		participant = models.CallParticipant{
			CallID:       call.ID,
			ProviderID:   provider.ProviderID(),
			ProviderType: provider.ProviderKind(),
		}
		if err := database.C.Create(&participant).Error; err != nil {
			return participant, err
		}
	} else {
		return participant, err
	}

	Broadcast("calls.join", map[string]any{
		"call_id":       call.ID,
		"thread_id":     call.ThreadID,
		"provider_id":   participant.ProviderID,
		"provider_type": participant.ProviderType,
	})

	return participant, nil
}

// LeaveCall closes the provider's open participant row; leaving a call the
// provider is not in is a no-op.
func LeaveCall(call models.Call, provider models.Provider) error {
	unlock := lockCall(call.ID)
	defer unlock()

	var participant models.CallParticipant
	err := database.C.
		Where(models.CallParticipant{
			CallID:       call.ID,
			ProviderID:   provider.ProviderID(),
			ProviderType: provider.ProviderKind(),
		}).
		Where("left_at IS NULL").
		First(&participant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	} else if err != nil {
		return err
	}

	if err := database.C.Model(&participant).Update("left_at", time.Now()).Error; err != nil {
		return err
	}

	Broadcast("calls.leave", map[string]any{
		"call_id":       call.ID,
		"thread_id":     call.ThreadID,
		"provider_id":   participant.ProviderID,
		"provider_type": participant.ProviderType,
	})

	return nil
}

// KickParticipant force-leaves the target provider and marks the row kicked,
// which blocks rejoining until the kick is reset.
func KickParticipant(call models.Call, providerId uint, providerType models.ProviderType) error {
	unlock := lockCall(call.ID)
	defer unlock()

	var participant models.CallParticipant
	if err := database.C.
		Where(models.CallParticipant{
			CallID:       call.ID,
			ProviderID:   providerId,
			ProviderType: providerType,
		}).
		First(&participant).Error; err != nil {
		return err
	}

	updates := map[string]any{"kicked": true}
	if participant.CurrentlyJoined() {
		updates["left_at"] = time.Now()
	}
	if err := database.C.Model(&participant).Updates(updates).Error; err != nil {
		return err
	}

	if Rd != nil {
		if err := Rd.RemoveParticipant(context.Background(), call, providerId, providerType); err != nil {
			log.Warn().Err(err).Uint("call", call.ID).Msg("Unable to remove participant at conferencing side...")
		}
	}

	Broadcast("calls.kick", map[string]any{
		"call_id":       call.ID,
		"thread_id":     call.ThreadID,
		"provider_id":   providerId,
		"provider_type": providerType,
	})

	return nil
}

// ResetKickedParticipant clears the kicked flag so the provider may join
// again. The row stays left until they do.
func ResetKickedParticipant(call models.Call, providerId uint, providerType models.ProviderType) error {
	unlock := lockCall(call.ID)
	defer unlock()

	var participant models.CallParticipant
	if err := database.C.
		Where(models.CallParticipant{
			CallID:       call.ID,
			ProviderID:   providerId,
			ProviderType: providerType,
		}).
		First(&participant).Error; err != nil {
		return err
	}

	return database.C.Model(&participant).Update("kicked", false).Error
}

// EndCall closes the call and cascade-leaves every still-open participant.
// Ending an ended call fails with ErrCallEnded; in-flight joins observe the
// terminal state once they acquire the call lock.
func EndCall(call models.Call) (models.Call, error) {
	unlock := lockCall(call.ID)
	defer unlock()

	call, err := refreshCall(call)
	if err != nil {
		return call, err
	}
	if !call.Active() {
		return call, ErrCallEnded
	}

	now := time.Now()
	err = database.C.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Call{}).
			Where("id = ?", call.ID).
			Update("ended_at", now).Error; err != nil {
			return err
		}
		return tx.Model(&models.CallParticipant{}).
			Where("call_id = ? AND left_at IS NULL", call.ID).
			Update("left_at", now).Error
	})
	if err != nil {
		return call, err
	}
	call.EndedAt = &now

	if Rd != nil {
		if err := Rd.DeleteRoom(context.Background(), call); err != nil {
			log.Warn().Err(err).Uint("call", call.ID).Msg("Unable to delete room at conferencing side...")
		}
	}

	Broadcast("calls.end", map[string]any{
		"call_id":   call.ID,
		"thread_id": call.ThreadID,
	})

	return call, nil
}

func refreshCall(call models.Call) (models.Call, error) {
	var out models.Call
	if err := database.C.First(&out, call.ID).Error; err != nil {
		return call, err
	}
	return out, nil
}
