package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/amaurycid/messenger/pkg/internal/database"
	"github.com/amaurycid/messenger/pkg/internal/models"
	"github.com/samber/lo"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Installs on the same thread are serialized so two concurrent requests
// cannot race each other into duplicate actions.
var installLocks sync.Map

func lockThreadInstalls(threadId uint) func() {
	actual, _ := installLocks.LoadOrStore(threadId, &sync.Mutex{})
	mu := actual.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func ListBotActions(thread models.Thread) ([]models.ThreadBotAction, error) {
	var actions []models.ThreadBotAction
	if err := database.C.
		Where(models.ThreadBotAction{ThreadID: thread.ID}).
		Order("created_at ASC, id ASC").
		Find(&actions).Error; err != nil {
		return actions, err
	}
	return actions, nil
}

// InstallHandler installs one standalone handler onto a thread, applying the
// same override semantics a packaged install uses.
func InstallHandler(thread models.Thread, alias string, overrides map[string]any) (models.ThreadBotAction, error) {
	unlock := lockThreadInstalls(thread.ID)
	defer unlock()

	var action models.ThreadBotAction
	err := database.C.Transaction(func(tx *gorm.DB) error {
		var err error
		action, err = stageHandlerInstall(tx, thread, alias, overrides, nil)
		return err
	})
	return action, err
}

// InstallPackage installs every handler of a registered bundle onto a thread
// in declared order, all inside one transaction. Any failure rolls the whole
// bundle back and reports the handler at fault.
func InstallPackage(thread models.Thread, alias string) ([]models.ThreadBotAction, error) {
	bundle, ok := Bots.Package(alias)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPackageNotFound, alias)
	}

	unlock := lockThreadInstalls(thread.ID)
	defer unlock()

	var actions []models.ThreadBotAction
	err := database.C.Transaction(func(tx *gorm.DB) error {
		for _, install := range bundle.Installs {
			action, err := stageHandlerInstall(tx, thread, install.Handler, install.Overrides, &bundle.Alias)
			if err != nil {
				return &BundleInstallError{
					Package: bundle.Alias,
					Handler: install.Handler,
					Err:     err,
				}
			}
			actions = append(actions, action)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return actions, nil
}

func UninstallBotAction(thread models.Thread, actionId uint) error {
	unlock := lockThreadInstalls(thread.ID)
	defer unlock()

	return database.C.
		Where(models.ThreadBotAction{
			BaseModel: models.BaseModel{ID: actionId},
			ThreadID:  thread.ID,
		}).
		Delete(&models.ThreadBotAction{}).Error
}

func stageHandlerInstall(tx *gorm.DB, thread models.Thread, alias string, overrides map[string]any, pkg *string) (models.ThreadBotAction, error) {
	var action models.ThreadBotAction

	handler, ok := Bots.Handler(alias)
	if !ok {
		return action, fmt.Errorf("%w: %s", ErrHandlerNotFound, alias)
	}

	var count int64
	if err := tx.Model(&models.ThreadBotAction{}).
		Where("thread_id = ? AND handler = ?", thread.ID, alias).
		Count(&count).Error; err != nil {
		return action, err
	} else if count > 0 {
		return action, fmt.Errorf("%w: %s", ErrAlreadyInstalled, alias)
	}

	action, err := mergeHandlerOverrides(handler.Descriptor(), overrides)
	if err != nil {
		return action, err
	}

	action.ThreadID = thread.ID
	action.Package = pkg
	if err := tx.Create(&action).Error; err != nil {
		return action, err
	}

	return action, nil
}

// mergeHandlerOverrides snapshots a descriptor into a thread action. The
// reserved keys replace the descriptor's matching settings; every other
// override key lands on top of the descriptor's default args.
func mergeHandlerOverrides(descriptor models.BotHandlerDescriptor, overrides map[string]any) (models.ThreadBotAction, error) {
	action := models.ThreadBotAction{
		Handler:   descriptor.Alias,
		Enabled:   true,
		AdminOnly: descriptor.AdminOnly,
		Cooldown:  descriptor.Cooldown,
		Match:     descriptor.Match,
		Triggers:  datatypes.NewJSONSlice(descriptor.Triggers),
	}

	args := map[string]any{}
	for key, value := range descriptor.Args {
		args[key] = value
	}

	for key, value := range overrides {
		switch key {
		case "triggers":
			triggers, err := coerceStringSlice(value)
			if err != nil {
				return action, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
			}
			action.Triggers = datatypes.NewJSONSlice(triggers)
		case "match":
			mode, err := coerceMatchMode(value)
			if err != nil {
				return action, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
			}
			action.Match = mode
		case "cooldown":
			cooldown, err := coerceInt(value)
			if err != nil {
				return action, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
			}
			action.Cooldown = cooldown
		case "enabled":
			enabled, ok := value.(bool)
			if !ok {
				return action, fmt.Errorf("%w: enabled must be a boolean", ErrInvalidDescriptor)
			}
			action.Enabled = enabled
		case "admin_only":
			adminOnly, ok := value.(bool)
			if !ok {
				return action, fmt.Errorf("%w: admin_only must be a boolean", ErrInvalidDescriptor)
			}
			action.AdminOnly = adminOnly
		default:
			args[key] = value
		}
	}

	if !models.ValidMatchMode(action.Match) {
		return action, fmt.Errorf("%w: unknown match mode %d", ErrInvalidDescriptor, action.Match)
	}
	if action.Match != models.MatchAny && len(action.Triggers) == 0 {
		return action, fmt.Errorf("%w: handler %s has no triggers", ErrInvalidDescriptor, descriptor.Alias)
	}
	if action.Cooldown < 0 || action.Cooldown > maxHandlerCooldown {
		return action, fmt.Errorf("%w: cooldown must be between 0 and %d seconds", ErrInvalidDescriptor, maxHandlerCooldown)
	}

	action.Args = args
	return action, nil
}

func coerceStringSlice(value any) ([]string, error) {
	switch val := value.(type) {
	case []string:
		return lo.Filter(val, func(item string, idx int) bool {
			return len(item) > 0
		}), nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("triggers must be a list of strings")
			}
			if len(str) > 0 {
				out = append(out, str)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("triggers must be a list of strings")
	}
}

func coerceMatchMode(value any) (models.MatchMode, error) {
	num, err := coerceInt(value)
	if err != nil {
		return 0, fmt.Errorf("match must be a match mode number")
	}
	mode := models.MatchMode(num)
	if !models.ValidMatchMode(mode) {
		return 0, fmt.Errorf("unknown match mode %d", num)
	}
	return mode, nil
}

func coerceInt(value any) (int, error) {
	switch val := value.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case uint8:
		return int(val), nil
	case float64:
		return int(val), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", value)
	}
}

// touchActionFiredAt stamps cooldown bookkeeping for a dispatched action.
func touchActionFiredAt(action *models.ThreadBotAction, now time.Time) error {
	action.LastFiredAt = &now
	return database.C.Model(action).Update("last_fired_at", now).Error
}
