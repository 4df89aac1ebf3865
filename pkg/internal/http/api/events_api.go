package api

import (
	"strings"

	"github.com/amaurycid/messenger/pkg/internal/database"
	"github.com/amaurycid/messenger/pkg/internal/http/exts"
	"github.com/amaurycid/messenger/pkg/internal/http/resources"
	"github.com/amaurycid/messenger/pkg/internal/models"
	"github.com/amaurycid/messenger/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

func listEvent(c *fiber.Ctx) error {
	take := c.QueryInt("take", 10)
	offset := c.QueryInt("offset", 0)

	thread, err := services.GetThread(c.Params("thread"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	events, err := services.ListEvent(thread, take, offset)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(fiber.Map{
		"count": services.CountEvent(thread),
		"data":  events,
	})
}

func getEvent(c *fiber.Ctx) error {
	eventId, _ := c.ParamsInt("eventId", 0)

	thread, err := services.GetThread(c.Params("thread"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	event, err := services.GetEvent(thread, uint(eventId))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	res := fiber.Map{"event": event}
	if event.SenderType == models.ProviderTypeAccount {
		var sender models.Account
		if err := database.C.First(&sender, event.SenderID).Error; err == nil {
			res["sender"] = resources.OwnerResource(sender)
		}
	}

	return c.JSON(res)
}

// newMessageEvent is the message-ingestion surface: it persists the message
// event and then resolves it against the thread's installed bot actions.
func newMessageEvent(c *fiber.Ctx) error {
	user := c.Locals("user").(models.Account)

	var data struct {
		Uuid string                  `json:"uuid" validate:"required,min=36"`
		Body models.EventMessageBody `json:"body"`
	}
	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	data.Body.Text = strings.TrimSpace(data.Body.Text)
	if len(data.Body.Text) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "empty message was not allowed")
	}

	thread, err := services.GetThread(c.Params("thread"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	var parsed map[string]any
	models.FitStruct(data.Body, &parsed)

	event, err := services.NewEvent(models.Event{
		Uuid:       data.Uuid,
		Body:       parsed,
		Type:       models.EventMessageNew,
		ThreadID:   thread.ID,
		SenderID:   user.ID,
		SenderType: user.ProviderKind(),
	})
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	fromAdmin, _ := c.Locals("admin").(bool)
	if _, err := services.ResolveBotActions(c.Context(), thread, event, fromAdmin); err != nil {
		log.Warn().Err(err).Uint("thread", thread.ID).Msg("An error occurred when resolving bot actions...")
	}

	return c.JSON(event)
}
