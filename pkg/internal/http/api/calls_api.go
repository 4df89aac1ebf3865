package api

import (
	"errors"

	"github.com/amaurycid/messenger/pkg/internal/database"
	"github.com/amaurycid/messenger/pkg/internal/http/exts"
	"github.com/amaurycid/messenger/pkg/internal/http/resources"
	"github.com/amaurycid/messenger/pkg/internal/models"
	"github.com/amaurycid/messenger/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// callOwner resolves the owning account for projection. External provider
// kinds stay unresolved and project by reference only.
func callOwner(call models.Call) models.Provider {
	if call.OwnerType != models.ProviderTypeAccount {
		return nil
	}
	var account models.Account
	if err := database.C.First(&account, call.OwnerID).Error; err != nil {
		return nil
	}
	return account
}

func listCall(c *fiber.Ctx) error {
	take := c.QueryInt("take", 10)
	offset := c.QueryInt("offset", 0)
	user := c.Locals("user").(models.Account)

	thread, err := services.GetThread(c.Params("thread"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	calls, err := services.ListCall(thread, take, offset)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(lo.Map(calls, func(item models.Call, idx int) fiber.Map {
		return resources.CallResource(item, thread, callOwner(item), user, false)
	}))
}

func getCall(c *fiber.Ctx) error {
	callId, _ := c.ParamsInt("callId", 0)
	user := c.Locals("user").(models.Account)
	withParticipants := c.QueryBool("participants", false)

	thread, err := services.GetThread(c.Params("thread"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	call, err := services.GetCall(thread, uint(callId))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	return c.JSON(resources.CallResource(call, thread, callOwner(call), user, withParticipants))
}

func getOngoingCall(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)

	thread, err := services.GetThread(c.Params("thread"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	call, err := services.GetOngoingCall(thread)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	return c.JSON(resources.CallResource(call, thread, callOwner(call), user, false))
}

func startCall(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)

	var data struct {
		Type uint8 `json:"type"`
	}
	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}
	if data.Type == 0 {
		data.Type = models.CallTypeVideo
	}

	thread, err := services.GetThread(c.Params("thread"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	call, err := services.NewCall(thread, user, data.Type)
	if err != nil {
		if errors.Is(err, services.ErrCallOngoing) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	_, _ = services.NewEvent(models.Event{
		Uuid:       uuid.NewString(),
		Body:       map[string]any{"call_id": call.ID},
		Type:       models.EventCallStart,
		ThreadID:   thread.ID,
		SenderID:   user.ID,
		SenderType: user.ProviderKind(),
	})

	return c.JSON(resources.CallResource(call, thread, user, user, false))
}

func setupCall(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)

	var data struct {
		RoomID  *int64  `json:"room_id"`
		RoomPin *string `json:"room_pin"`
		Payload *string `json:"payload"`
	}
	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	thread, err := services.GetThread(c.Params("thread"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	call, err := services.GetOngoingCall(thread)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	if !call.IsOwner(user) {
		return fiber.NewError(fiber.StatusForbidden, "only the call owner can set up the room")
	}

	var room models.CallRoom
	if data.RoomID != nil && data.RoomPin != nil && data.Payload != nil {
		room = models.CallRoom{
			RoomID:  *data.RoomID,
			RoomPin: *data.RoomPin,
			Payload: *data.Payload,
		}
	} else if services.Rd != nil {
		room, err = services.Rd.CreateRoom(c.Context(), call)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
	} else {
		return fiber.NewError(fiber.StatusBadRequest, "room descriptor is required when no conferencing driver is configured")
	}

	call, err = services.SetupCallRoom(call, room)
	if err != nil {
		if errors.Is(err, services.ErrCallEnded) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(resources.CallResource(call, thread, user, user, false))
}

func joinCall(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)

	thread, err := services.GetThread(c.Params("thread"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	call, err := services.GetOngoingCall(thread)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	participant, err := services.JoinCall(call, user)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrParticipantKicked):
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		case errors.Is(err, services.ErrCallEnded):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		default:
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(resources.ParticipantResource(participant))
}

func leaveCall(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)

	thread, err := services.GetThread(c.Params("thread"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	call, err := services.GetOngoingCall(thread)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	if err := services.LeaveCall(call, user); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.SendStatus(fiber.StatusOK)
}

func endCall(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)

	thread, err := services.GetThread(c.Params("thread"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	call, err := services.GetOngoingCall(thread)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	if !call.IsOwner(user) {
		return fiber.NewError(fiber.StatusForbidden, "only the call owner can end this call")
	}

	call, err = services.EndCall(call)
	if err != nil {
		if errors.Is(err, services.ErrCallEnded) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	_, _ = services.NewEvent(models.Event{
		Uuid:       uuid.NewString(),
		Body:       map[string]any{"last": call.EndedAt.Unix() - call.CreatedAt.Unix()},
		Type:       models.EventCallEnd,
		ThreadID:   thread.ID,
		SenderID:   user.ID,
		SenderType: user.ProviderKind(),
	})

	return c.JSON(resources.CallResource(call, thread, user, user, false))
}

func kickParticipantInCall(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)

	var data struct {
		ProviderID   uint   `json:"provider_id" validate:"required"`
		ProviderType string `json:"provider_type" validate:"required"`
	}
	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	thread, err := services.GetThread(c.Params("thread"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	call, err := services.GetOngoingCall(thread)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	if !call.IsOwner(user) {
		return fiber.NewError(fiber.StatusForbidden, "only the call owner can kick participants")
	}

	if err := services.KickParticipant(call, data.ProviderID, data.ProviderType); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.SendStatus(fiber.StatusOK)
}

func resetKickedParticipant(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)

	var data struct {
		ProviderID   uint   `json:"provider_id" validate:"required"`
		ProviderType string `json:"provider_type" validate:"required"`
	}
	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	thread, err := services.GetThread(c.Params("thread"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	call, err := services.GetOngoingCall(thread)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	if !call.IsOwner(user) {
		return fiber.NewError(fiber.StatusForbidden, "only the call owner can reset kicked participants")
	}

	if err := services.ResetKickedParticipant(call, data.ProviderID, data.ProviderType); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.SendStatus(fiber.StatusOK)
}

func exchangeCallToken(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)

	thread, err := services.GetThread(c.Params("thread"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	call, err := services.GetOngoingCall(thread)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	tk, err := services.EncodeCallToken(call, user)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotInCall), errors.Is(err, services.ErrParticipantKicked):
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		default:
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}

	return c.JSON(fiber.Map{
		"token": tk,
	})
}
