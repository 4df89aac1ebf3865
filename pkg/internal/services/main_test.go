package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/amaurycid/messenger/pkg/internal/database"
	"github.com/amaurycid/messenger/pkg/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDatabase points the global handle at a fresh in-memory database
// for the duration of one test.
func openTestDatabase(t *testing.T) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("unable to open test database: %v", err)
	}

	sqlDb, err := db.DB()
	if err != nil {
		t.Fatalf("unable to reach test database handle: %v", err)
	}
	sqlDb.SetMaxOpenConns(1)

	if err := database.RunMigration(db); err != nil {
		t.Fatalf("unable to migrate test database: %v", err)
	}

	database.C = db
	t.Cleanup(func() {
		_ = sqlDb.Close()
	})
}

func setupTestRegistry(t *testing.T, handlers ...BotHandler) *BotRegistry {
	t.Helper()

	registry := NewBotRegistry()
	for _, handler := range handlers {
		if err := registry.Register(handler); err != nil {
			t.Fatalf("unable to register handler: %v", err)
		}
	}
	SetupBots(registry)
	return registry
}

func createTestThread(t *testing.T, alias string) models.Thread {
	t.Helper()

	thread := models.Thread{
		Alias: alias,
		Name:  "Test Thread",
		Type:  models.ThreadTypeGroup,
	}
	if err := database.C.Create(&thread).Error; err != nil {
		t.Fatalf("unable to create test thread: %v", err)
	}
	return thread
}

func createTestAccount(t *testing.T, name string) models.Account {
	t.Helper()

	account := models.Account{Name: name, Nick: name}
	if err := database.C.Create(&account).Error; err != nil {
		t.Fatalf("unable to create test account: %v", err)
	}
	return account
}

// testBotHandler records every context it was handed.
type testBotHandler struct {
	descriptor models.BotHandlerDescriptor
	err        error

	mu    sync.Mutex
	fired []BotMessageContext
}

func (h *testBotHandler) Descriptor() models.BotHandlerDescriptor {
	return h.descriptor
}

func (h *testBotHandler) Handle(ctx context.Context, msg BotMessageContext) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fired = append(h.fired, msg)
	return h.err
}

func (h *testBotHandler) firedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.fired)
}
