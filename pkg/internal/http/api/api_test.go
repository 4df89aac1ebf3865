package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/amaurycid/messenger/pkg/internal/database"
	"github.com/amaurycid/messenger/pkg/internal/models"
	"github.com/amaurycid/messenger/pkg/internal/services"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestApp(t *testing.T) *fiber.App {
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

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		JSONEncoder:           jsoniter.ConfigCompatibleWithStandardLibrary.Marshal,
		JSONDecoder:           jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal,
	})
	MapAPIs(app, "/api")
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, path string, accountId uint, payload any, headers ...string) (int, map[string]any) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("unable to marshal request body: %v", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, path, body)
	if err != nil {
		t.Fatalf("unable to build request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accountId > 0 {
		req.Header.Set("X-Account-ID", strconv.Itoa(int(accountId)))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	res, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(res.Body)
	var decoded map[string]any
	_ = json.Unmarshal(raw, &decoded)
	return res.StatusCode, decoded
}

// apiTestHandler counts dispatches arriving through the ingestion endpoint.
type apiTestHandler struct {
	descriptor models.BotHandlerDescriptor

	mu    sync.Mutex
	count int
}

func (h *apiTestHandler) Descriptor() models.BotHandlerDescriptor {
	return h.descriptor
}

func (h *apiTestHandler) Handle(ctx context.Context, msg services.BotMessageContext) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	return nil
}

func (h *apiTestHandler) dispatched() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

func TestCallFlowOverAPI(t *testing.T) {
	app := setupTestApp(t)
	services.SetupBots(services.NewBotRegistry())

	owner := models.Account{Name: "owner", Nick: "Owner"}
	if err := database.C.Create(&owner).Error; err != nil {
		t.Fatalf("unable to create account: %v", err)
	}

	status, _ := doRequest(t, app, fiber.MethodPost, "/api/threads", owner.ID, fiber.Map{
		"alias": "general",
		"name":  "General",
	})
	if status != fiber.StatusOK {
		t.Fatalf("thread creation failed with status %d", status)
	}

	status, res := doRequest(t, app, fiber.MethodPost, "/api/threads/general/calls", owner.ID, fiber.Map{"type": 1})
	if status != fiber.StatusOK {
		t.Fatalf("call start failed with status %d", status)
	}
	if res["active"] != true {
		t.Error("fresh call should project active=true")
	}

	// Starting a second call on the same thread conflicts.
	status, _ = doRequest(t, app, fiber.MethodPost, "/api/threads/general/calls", owner.ID, fiber.Map{"type": 1})
	if status != fiber.StatusConflict {
		t.Errorf("second call should conflict, got status %d", status)
	}

	status, _ = doRequest(t, app, fiber.MethodPost, "/api/threads/general/calls/ongoing/join", owner.ID, nil)
	if status != fiber.StatusOK {
		t.Fatalf("join failed with status %d", status)
	}

	status, res = doRequest(t, app, fiber.MethodPost, "/api/threads/general/calls/ongoing/setup", owner.ID, fiber.Map{
		"room_id":  123456789,
		"room_pin": "PIN",
		"payload":  "PAYLOAD",
	})
	if status != fiber.StatusOK {
		t.Fatalf("setup failed with status %d", status)
	}

	options, ok := res["options"].(map[string]any)
	if !ok {
		t.Fatal("active call projection should carry options")
	}
	if options["admin"] != true || options["setup_complete"] != true || options["in_call"] != true {
		t.Errorf("owner options mismatch: %v", options)
	}
	if options["room_id"] != float64(123456789) {
		t.Errorf("room_id should reach the joined owner, got %v", options["room_id"])
	}

	ownerBlock, ok := res["owner"].(map[string]any)
	if !ok {
		t.Fatal("projection should resolve the owning account")
	}
	if ownerBlock["name"] != "Owner" {
		t.Errorf("owner block should carry the display name, got %v", ownerBlock["name"])
	}

	status, res = doRequest(t, app, fiber.MethodDelete, "/api/threads/general/calls/ongoing", owner.ID, nil)
	if status != fiber.StatusOK {
		t.Fatalf("end failed with status %d", status)
	}
	if res["active"] != false {
		t.Error("ended call should project active=false")
	}
	if _, ok := res["options"]; ok {
		t.Error("ended call projection must omit options")
	}

	callId := int(res["id"].(float64))
	status, res = doRequest(t, app, fiber.MethodGet,
		fmt.Sprintf("/api/threads/general/calls/%d?participants=true", callId), owner.ID, nil)
	if status != fiber.StatusOK {
		t.Fatalf("get call failed with status %d", status)
	}
	participants, ok := res["participants"].([]any)
	if !ok || len(participants) == 0 {
		t.Error("ended call with the flag should expose its participant collection")
	}
}

func TestBotInstallAndDispatchOverAPI(t *testing.T) {
	app := setupTestApp(t)

	handler := &apiTestHandler{descriptor: models.BotHandlerDescriptor{
		Alias:    "counter",
		Name:     "Counter Bot",
		Triggers: []string{"!count"},
		Match:    models.MatchStartsWithCaseless,
	}}
	registry := services.NewBotRegistry()
	if err := registry.Register(handler); err != nil {
		t.Fatalf("unable to register handler: %v", err)
	}
	services.SetupBots(registry)

	sender := models.Account{Name: "sender", Nick: "Sender"}
	if err := database.C.Create(&sender).Error; err != nil {
		t.Fatalf("unable to create account: %v", err)
	}

	status, _ := doRequest(t, app, fiber.MethodPost, "/api/threads", sender.ID, fiber.Map{
		"alias": "botted",
		"name":  "Botted",
	})
	if status != fiber.StatusOK {
		t.Fatalf("thread creation failed with status %d", status)
	}

	status, _ = doRequest(t, app, fiber.MethodPost, "/api/threads/botted/bots", sender.ID, fiber.Map{
		"handler": "counter",
	})
	if status != fiber.StatusOK {
		t.Fatalf("bot install failed with status %d", status)
	}

	status, _ = doRequest(t, app, fiber.MethodPost, "/api/threads/botted/messages", sender.ID, fiber.Map{
		"uuid": "123e4567-e89b-12d3-a456-426614174000",
		"body": fiber.Map{"text": "!count me in"},
	})
	if status != fiber.StatusOK {
		t.Fatalf("message ingestion failed with status %d", status)
	}
	if handler.dispatched() != 1 {
		t.Errorf("matching message should dispatch the handler once, got %d", handler.dispatched())
	}

	status, _ = doRequest(t, app, fiber.MethodPost, "/api/threads/botted/messages", sender.ID, fiber.Map{
		"uuid": "123e4567-e89b-12d3-a456-426614174001",
		"body": fiber.Map{"text": "nothing to see"},
	})
	if status != fiber.StatusOK {
		t.Fatalf("message ingestion failed with status %d", status)
	}
	if handler.dispatched() != 1 {
		t.Errorf("non-matching message must not dispatch, got %d", handler.dispatched())
	}
}

func TestAdminOnlyBotDispatchOverAPI(t *testing.T) {
	app := setupTestApp(t)

	handler := &apiTestHandler{descriptor: models.BotHandlerDescriptor{
		Alias:     "mod_tool",
		Name:      "Moderation Tool",
		Triggers:  []string{"!purge"},
		Match:     models.MatchStartsWithCaseless,
		AdminOnly: true,
	}}
	registry := services.NewBotRegistry()
	if err := registry.Register(handler); err != nil {
		t.Fatalf("unable to register handler: %v", err)
	}
	services.SetupBots(registry)

	sender := models.Account{Name: "sender", Nick: "Sender"}
	if err := database.C.Create(&sender).Error; err != nil {
		t.Fatalf("unable to create account: %v", err)
	}

	status, _ := doRequest(t, app, fiber.MethodPost, "/api/threads", sender.ID, fiber.Map{
		"alias": "modded",
		"name":  "Modded",
	})
	if status != fiber.StatusOK {
		t.Fatalf("thread creation failed with status %d", status)
	}

	status, _ = doRequest(t, app, fiber.MethodPost, "/api/threads/modded/bots", sender.ID, fiber.Map{
		"handler": "mod_tool",
	})
	if status != fiber.StatusOK {
		t.Fatalf("bot install failed with status %d", status)
	}

	status, _ = doRequest(t, app, fiber.MethodPost, "/api/threads/modded/messages", sender.ID, fiber.Map{
		"uuid": "123e4567-e89b-12d3-a456-426614174002",
		"body": fiber.Map{"text": "!purge 10"},
	})
	if status != fiber.StatusOK {
		t.Fatalf("message ingestion failed with status %d", status)
	}
	if handler.dispatched() != 0 {
		t.Errorf("admin-only action must not fire for a regular sender, got %d", handler.dispatched())
	}

	status, _ = doRequest(t, app, fiber.MethodPost, "/api/threads/modded/messages", sender.ID, fiber.Map{
		"uuid": "123e4567-e89b-12d3-a456-426614174003",
		"body": fiber.Map{"text": "!purge 10"},
	}, "X-Account-Admin", "true")
	if status != fiber.StatusOK {
		t.Fatalf("message ingestion failed with status %d", status)
	}
	if handler.dispatched() != 1 {
		t.Errorf("admin-only action should fire for a forwarded admin, got %d", handler.dispatched())
	}
}
