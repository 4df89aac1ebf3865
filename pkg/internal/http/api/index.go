package api

import (
	"strconv"

	"github.com/amaurycid/messenger/pkg/internal/database"
	"github.com/amaurycid/messenger/pkg/internal/models"
	"github.com/gofiber/fiber/v2"
)

func MapAPIs(app *fiber.App, baseURL string) {
	api := app.Group(baseURL).Name("API")
	{
		api.Post("/threads", authMiddleware, createThread)
		api.Get("/threads/:thread", getThread)

		threads := api.Group("/threads/:thread").Use(authMiddleware).Name("Threads API")
		{
			threads.Delete("/", deleteThread)

			threads.Get("/events", listEvent)
			threads.Get("/events/:eventId", getEvent)
			threads.Post("/messages", newMessageEvent)

			threads.Get("/bots", listBotActions)
			threads.Post("/bots", installBot)
			threads.Post("/bots/packages/:package", installBotPackage)
			threads.Delete("/bots/:actionId", uninstallBot)

			threads.Get("/calls", listCall)
			threads.Get("/calls/ongoing", getOngoingCall)
			threads.Get("/calls/:callId", getCall)
			threads.Post("/calls", startCall)
			threads.Post("/calls/ongoing/setup", setupCall)
			threads.Post("/calls/ongoing/join", joinCall)
			threads.Post("/calls/ongoing/leave", leaveCall)
			threads.Delete("/calls/ongoing", endCall)
			threads.Delete("/calls/ongoing/participant", kickParticipantInCall)
			threads.Post("/calls/ongoing/participant/reset", resetKickedParticipant)
			threads.Post("/calls/ongoing/token", exchangeCallToken)
		}
	}
}

// authMiddleware resolves the acting account from the identity the upstream
// gateway forwarded. Authentication itself happens before requests reach
// this service; here we only load the already-verified account. The gateway
// also forwards whether the actor administrates the thread it is acting on.
func authMiddleware(c *fiber.Ctx) error {
	id, _ := strconv.Atoi(c.Get("X-Account-ID"))
	if id <= 0 {
		return fiber.NewError(fiber.StatusUnauthorized, "acting account was not provided")
	}

	var account models.Account
	if err := database.C.First(&account, id).Error; err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "acting account was not found")
	}

	c.Locals("user", account)
	c.Locals("admin", c.Get("X-Account-Admin") == "true")
	return c.Next()
}
