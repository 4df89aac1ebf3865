package api

import (
	"errors"

	"github.com/amaurycid/messenger/pkg/internal/http/exts"
	"github.com/amaurycid/messenger/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
)

func listBotActions(c *fiber.Ctx) error {
	thread, err := services.GetThread(c.Params("thread"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	actions, err := services.ListBotActions(thread)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(actions)
}

func installBot(c *fiber.Ctx) error {
	var data struct {
		Handler   string         `json:"handler" validate:"required"`
		Overrides map[string]any `json:"overrides"`
	}
	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	thread, err := services.GetThread(c.Params("thread"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	action, err := services.InstallHandler(thread, data.Handler, data.Overrides)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrHandlerNotFound):
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		case errors.Is(err, services.ErrAlreadyInstalled):
			return fiber.NewError(fiber.StatusConflict, err.Error())
		default:
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}

	return c.JSON(action)
}

func installBotPackage(c *fiber.Ctx) error {
	thread, err := services.GetThread(c.Params("thread"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	actions, err := services.InstallPackage(thread, c.Params("package"))
	if err != nil {
		var bundleErr *services.BundleInstallError
		switch {
		case errors.Is(err, services.ErrPackageNotFound):
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		case errors.As(err, &bundleErr):
			return fiber.NewError(fiber.StatusBadRequest, bundleErr.Error())
		default:
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(actions)
}

func uninstallBot(c *fiber.Ctx) error {
	actionId, _ := c.ParamsInt("actionId", 0)

	thread, err := services.GetThread(c.Params("thread"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	if err := services.UninstallBotAction(thread, uint(actionId)); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.SendStatus(fiber.StatusOK)
}
