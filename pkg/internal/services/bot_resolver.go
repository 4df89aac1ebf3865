package services

import (
	"context"
	"sync"
	"time"

	"github.com/amaurycid/messenger/pkg/internal/models"
	"github.com/rs/zerolog/log"
)

// Matching runs per thread under this lock so that evaluating the cooldown
// and stamping last_fired_at stay one atomic step; two near-simultaneous
// messages cannot both slip past the same cooldown window.
var resolveLocks sync.Map

func lockThreadResolve(threadId uint) func() {
	actual, _ := resolveLocks.LoadOrStore(threadId, &sync.Mutex{})
	mu := actual.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// ResolveBotActions evaluates a message event against every enabled bot
// action on its thread and dispatches all that match, in install order.
// Handlers run after the thread lock is released, and one handler's failure
// never stops the others. Returns the actions that fired.
func ResolveBotActions(ctx context.Context, thread models.Thread, event models.Event, fromAdmin bool) ([]models.ThreadBotAction, error) {
	text := event.Text()
	now := time.Now()

	matched, err := collectMatchedActions(thread, text, fromAdmin, now)
	if err != nil {
		return nil, err
	}

	for _, action := range matched {
		dispatchBotAction(ctx, thread, event, action)
	}

	return matched, nil
}

func collectMatchedActions(thread models.Thread, text string, fromAdmin bool, now time.Time) ([]models.ThreadBotAction, error) {
	unlock := lockThreadResolve(thread.ID)
	defer unlock()

	actions, err := ListBotActions(thread)
	if err != nil {
		return nil, err
	}

	var matched []models.ThreadBotAction
	for _, action := range actions {
		if !action.Enabled {
			continue
		}
		if action.AdminOnly && !fromAdmin {
			continue
		}
		if !MatchesTrigger(action.Triggers, action.Match, text) {
			continue
		}
		if action.OnCooldown(now) {
			continue
		}

		if err := touchActionFiredAt(&action, now); err != nil {
			log.Warn().Err(err).Uint("action", action.ID).Msg("Unable to record bot action cooldown...")
			continue
		}
		matched = append(matched, action)
	}

	return matched, nil
}

func dispatchBotAction(ctx context.Context, thread models.Thread, event models.Event, action models.ThreadBotAction) {
	handler, ok := Bots.Handler(action.Handler)
	if !ok {
		// Installed rows can outlive a handler across deploys.
		log.Warn().Str("handler", action.Handler).Msg("Skipping bot action with unregistered handler...")
		return
	}

	err := handler.Handle(ctx, BotMessageContext{
		Thread: thread,
		Event:  event,
		Action: action,
	})
	if err != nil {
		log.Warn().Err(err).
			Str("handler", action.Handler).
			Uint("thread", thread.ID).
			Msg("A bot handler failed to process a message...")
		return
	}

	Broadcast("bots.dispatch", map[string]any{
		"thread_id": thread.ID,
		"handler":   action.Handler,
		"action_id": action.ID,
		"event_id":  event.ID,
	})
}
