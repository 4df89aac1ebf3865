package services

import (
	"context"

	"github.com/amaurycid/messenger/pkg/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ReplyBotHandler posts a canned reply whenever it fires. The reply text
// comes from the action's argument payload, so installs and packaged bundles
// can reconfigure it per thread.
type ReplyBotHandler struct{}

func (ReplyBotHandler) Descriptor() models.BotHandlerDescriptor {
	return models.BotHandlerDescriptor{
		Alias:       "reply",
		Name:        "Reply Bot",
		Description: "Replies with a configured message when triggered.",
		Triggers:    []string{"!reply"},
		Match:       models.MatchStartsWithCaseless,
		Cooldown:    30,
		Args: map[string]any{
			"reply": "Hello there!",
		},
	}
}

func (ReplyBotHandler) Handle(ctx context.Context, msg BotMessageContext) error {
	reply, _ := msg.Action.Args["reply"].(string)
	if len(reply) == 0 {
		return nil
	}

	_, err := NewEvent(models.Event{
		Uuid: uuid.NewString(),
		Body: datatypes.JSONMap{
			"text":        reply,
			"algorithm":   "plain",
			"quote_event": msg.Event.ID,
		},
		Type:       models.EventMessageNew,
		ThreadID:   msg.Thread.ID,
		SenderID:   msg.Action.ID,
		SenderType: models.ProviderTypeBot,
	})
	return err
}
