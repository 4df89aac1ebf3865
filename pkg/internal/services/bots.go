package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/amaurycid/messenger/pkg/internal/models"
)

const maxHandlerCooldown = 900

// BotMessageContext is what a handler receives when it fires: the message
// event, the thread it landed on, and the thread action (with its merged
// argument payload) that matched.
type BotMessageContext struct {
	Thread models.Thread
	Event  models.Event
	Action models.ThreadBotAction
}

// BotHandler is the execution boundary of a bot. The registry only keeps its
// descriptor; Handle runs outside any registry or call lock.
type BotHandler interface {
	Descriptor() models.BotHandlerDescriptor
	Handle(ctx context.Context, msg BotMessageContext) error
}

// BotRegistry catalogs handlers and packaged bot bundles for the lifetime of
// the process. It is written during boot and read on every message, so all
// writes go through the mutex while reads use the read lock only.
type BotRegistry struct {
	mu       sync.RWMutex
	handlers map[string]BotHandler
	packages map[string]models.PackagedBotBundle
	order    []string
}

func NewBotRegistry() *BotRegistry {
	return &BotRegistry{
		handlers: make(map[string]BotHandler),
		packages: make(map[string]models.PackagedBotBundle),
	}
}

// Bots is the process-wide registry. It is constructed once in main and
// handed over via SetupBots before any server starts taking requests.
var Bots *BotRegistry

func SetupBots(registry *BotRegistry) {
	Bots = registry
}

func (r *BotRegistry) Register(handler BotHandler) error {
	descriptor := handler.Descriptor()
	if err := validateDescriptor(descriptor); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handlers[descriptor.Alias]; ok {
		return fmt.Errorf("%w: handler %s", ErrDuplicateAlias, descriptor.Alias)
	}

	r.handlers[descriptor.Alias] = handler
	r.order = append(r.order, descriptor.Alias)
	return nil
}

func (r *BotRegistry) RegisterPackage(bundle models.PackagedBotBundle) error {
	if len(bundle.Alias) == 0 {
		return fmt.Errorf("%w: package alias is required", ErrInvalidDescriptor)
	}
	if len(bundle.Installs) == 0 {
		return fmt.Errorf("%w: package %s installs nothing", ErrInvalidDescriptor, bundle.Alias)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.packages[bundle.Alias]; ok {
		return fmt.Errorf("%w: package %s", ErrDuplicateAlias, bundle.Alias)
	}

	r.packages[bundle.Alias] = bundle
	return nil
}

func (r *BotRegistry) Handler(alias string) (BotHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handler, ok := r.handlers[alias]
	return handler, ok
}

func (r *BotRegistry) Package(alias string) (models.PackagedBotBundle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bundle, ok := r.packages[alias]
	return bundle, ok
}

// Descriptors lists registered handlers in registration order.
func (r *BotRegistry) Descriptors() []models.BotHandlerDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.BotHandlerDescriptor, 0, len(r.order))
	for _, alias := range r.order {
		out = append(out, r.handlers[alias].Descriptor())
	}
	return out
}

func validateDescriptor(descriptor models.BotHandlerDescriptor) error {
	if len(descriptor.Alias) == 0 {
		return fmt.Errorf("%w: alias is required", ErrInvalidDescriptor)
	}
	if !models.ValidMatchMode(descriptor.Match) {
		return fmt.Errorf("%w: unknown match mode %d", ErrInvalidDescriptor, descriptor.Match)
	}
	if descriptor.Match != models.MatchAny && len(descriptor.Triggers) == 0 {
		return fmt.Errorf("%w: handler %s has no triggers", ErrInvalidDescriptor, descriptor.Alias)
	}
	if descriptor.Cooldown < 0 || descriptor.Cooldown > maxHandlerCooldown {
		return fmt.Errorf("%w: cooldown must be between 0 and %d seconds", ErrInvalidDescriptor, maxHandlerCooldown)
	}
	return nil
}
