package services

import (
	"github.com/amaurycid/messenger/pkg/internal/database"
	"github.com/amaurycid/messenger/pkg/internal/models"
)

func CountEvent(thread models.Thread) int64 {
	var count int64
	if err := database.C.Where(models.Event{
		ThreadID: thread.ID,
	}).Model(&models.Event{}).Count(&count).Error; err != nil {
		return 0
	}
	return count
}

func ListEvent(thread models.Thread, take int, offset int) ([]models.Event, error) {
	if take > 100 {
		take = 100
	}

	var events []models.Event
	if err := database.C.
		Where(models.Event{
			ThreadID: thread.ID,
		}).Limit(take).Offset(offset).
		Order("created_at DESC").
		Find(&events).Error; err != nil {
		return events, err
	}
	return events, nil
}

func GetEvent(thread models.Thread, id uint) (models.Event, error) {
	var event models.Event
	if err := database.C.
		Where(models.Event{
			BaseModel: models.BaseModel{ID: id},
			ThreadID:  thread.ID,
		}).
		First(&event).Error; err != nil {
		return event, err
	}
	return event, nil
}

func NewEvent(event models.Event) (models.Event, error) {
	if err := database.C.Save(&event).Error; err != nil {
		return event, err
	}

	Broadcast("events.new", event)

	return event, nil
}
