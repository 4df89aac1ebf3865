package database

import (
	"github.com/amaurycid/messenger/pkg/internal/models"
	"gorm.io/gorm"
)

var AutoMaintainRange = []any{
	&models.Account{},
	&models.Thread{},
	&models.Call{},
	&models.CallParticipant{},
	&models.ThreadBotAction{},
	&models.Event{},
}

func RunMigration(source *gorm.DB) error {
	if err := source.AutoMigrate(AutoMaintainRange...); err != nil {
		return err
	}

	return nil
}
