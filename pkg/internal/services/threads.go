package services

import (
	"fmt"
	"regexp"

	"github.com/amaurycid/messenger/pkg/internal/database"
	"github.com/amaurycid/messenger/pkg/internal/models"
	"gorm.io/gorm"
)

func GetThreadAliasAvailability(alias string) error {
	if !regexp.MustCompile("^[a-z0-9-]+$").MatchString(alias) {
		return fmt.Errorf("thread alias should only contains lowercase letters, numbers, and hyphens")
	}

	var count int64
	if err := database.C.Model(&models.Thread{}).
		Where("alias = ?", alias).
		Count(&count).Error; err != nil {
		return err
	} else if count > 0 {
		return fmt.Errorf("thread alias is already taken")
	}
	return nil
}

func GetThread(alias string) (models.Thread, error) {
	var thread models.Thread
	if err := database.C.
		Where(models.Thread{Alias: alias}).
		First(&thread).Error; err != nil {
		return thread, err
	}
	return thread, nil
}

func NewThread(thread models.Thread) (models.Thread, error) {
	if err := GetThreadAliasAvailability(thread.Alias); err != nil {
		return thread, err
	}
	if err := database.C.Create(&thread).Error; err != nil {
		return thread, err
	}
	return thread, nil
}

// DeleteThread removes a thread and everything it owns: calls, their
// participants, bot actions and events.
func DeleteThread(thread models.Thread) error {
	return database.C.Transaction(func(tx *gorm.DB) error {
		var callIds []uint
		if err := tx.Model(&models.Call{}).
			Where("thread_id = ?", thread.ID).
			Pluck("id", &callIds).Error; err != nil {
			return err
		}
		if len(callIds) > 0 {
			if err := tx.Where("call_id IN ?", callIds).
				Delete(&models.CallParticipant{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("thread_id = ?", thread.ID).
			Delete(&models.Call{}).Error; err != nil {
			return err
		}
		if err := tx.Where("thread_id = ?", thread.ID).
			Delete(&models.ThreadBotAction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("thread_id = ?", thread.ID).
			Delete(&models.Event{}).Error; err != nil {
			return err
		}
		return tx.Delete(&thread).Error
	})
}
