package api

import (
	"github.com/amaurycid/messenger/pkg/internal/http/exts"
	"github.com/amaurycid/messenger/pkg/internal/models"
	"github.com/amaurycid/messenger/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
)

func createThread(c *fiber.Ctx) error {
	var data struct {
		Alias       string  `json:"alias" validate:"required,lowercase,min=4,max=32"`
		Name        string  `json:"name" validate:"required"`
		Description string  `json:"description" validate:"max=4096"`
		Type        uint8   `json:"type"`
		Avatar      *string `json:"avatar"`
	}
	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	if data.Type == 0 {
		data.Type = models.ThreadTypeGroup
	}

	thread, err := services.NewThread(models.Thread{
		Alias:       data.Alias,
		Name:        data.Name,
		Description: data.Description,
		Type:        data.Type,
		Avatar:      data.Avatar,
	})
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.JSON(thread)
}

func getThread(c *fiber.Ctx) error {
	alias := c.Params("thread")

	thread, err := services.GetThread(alias)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	return c.JSON(thread)
}

func deleteThread(c *fiber.Ctx) error {
	alias := c.Params("thread")

	thread, err := services.GetThread(alias)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	if err := services.DeleteThread(thread); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.SendStatus(fiber.StatusOK)
}
