package services

import (
	"testing"
	"time"

	"github.com/amaurycid/messenger/pkg/internal/database"
	"github.com/amaurycid/messenger/pkg/internal/models"
)

func TestDatabaseCleanupRemovesExpiredSoftDeletes(t *testing.T) {
	openTestDatabase(t)
	expired := createTestThread(t, "expired")
	fresh := createTestThread(t, "fresh")

	if err := database.C.Delete(&expired).Error; err != nil {
		t.Fatalf("soft delete failed: %v", err)
	}
	if err := database.C.Delete(&fresh).Error; err != nil {
		t.Fatalf("soft delete failed: %v", err)
	}

	// Push the first deletion past the retention window.
	if err := database.C.Unscoped().Model(&models.Thread{}).
		Where("id = ?", expired.ID).
		Update("deleted_at", time.Now().Add(-2*time.Hour)).Error; err != nil {
		t.Fatalf("unable to backdate deletion: %v", err)
	}

	DoAutoDatabaseCleanup()

	var count int64
	if err := database.C.Unscoped().Model(&models.Thread{}).
		Where("id = ?", expired.ID).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("row past the retention window should be hard-deleted, got %d", count)
	}

	if err := database.C.Unscoped().Model(&models.Thread{}).
		Where("id = ?", fresh.ID).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Error("recently soft-deleted row must survive until the window passes")
	}
}

func TestDatabaseCleanupKeepsLiveRows(t *testing.T) {
	openTestDatabase(t)
	thread := createTestThread(t, "alive")

	DoAutoDatabaseCleanup()

	var count int64
	if err := database.C.Model(&models.Thread{}).
		Where("id = ?", thread.ID).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Error("cleanup must never touch rows that were not soft-deleted")
	}
}
