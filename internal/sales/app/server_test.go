package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chatsales_api/config"
	"chatsales_api/internal/sales/business/engine"
	"chatsales_api/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() *config.AppConfig {
	cfg := config.Default()
	cfg.Storage.Driver = config.StorageMemory
	off := false
	cfg.Bots = []config.BotConfig{
		{ID: 1, TenantID: "shop", Name: "Zapatería Sol", Active: true,
			Rules: []config.RuleConfig{{Pattern: "horario", Response: "Abrimos de 9 a 18"}}},
		{ID: 2, TenantID: "quiet", Active: true, HybridMode: &off,
			Rules: []config.RuleConfig{{Pattern: "horario", Response: "nunca"}}},
	}
	cfg.Catalog = []config.SeedCategoryConfig{{
		ID: 1, TenantID: "shop", Name: "Calzado",
		Products: []config.SeedProductConfig{
			{ID: 1, Name: "Running Shoes", Price: "50.00", Stock: 5},
			{ID: 2, Name: "Sandalias", Price: "19.90", Stock: 0},
		},
	}}
	return cfg
}

func quietLog() *logger.BaseLogger {
	return logger.NewSilentLogger(io.Discard, "[test]")
}

func post(t *testing.T, h http.Handler, body string) map[string]interface{} {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestSalesServer_MemoryDriver(t *testing.T) {
	s := NewSalesServer(memoryConfig(), quietLog())
	require.NoError(t, s.Init(context.Background()))
	defer s.Close()

	h := s.Handler()

	out := post(t, h, `{"tenant_id":"shop","customer_id":"c1","text":"¿cuál es el horario?"}`)
	assert.Equal(t, "Abrimos de 9 a 18", out["text"])

	out = post(t, h, `{"tenant_id":"shop","customer_id":"c1","text":"hola"}`)
	assert.Equal(t, "interactive", out["kind"])
	assert.Contains(t, out["interactive"].(map[string]interface{})["body"], "Zapatería Sol")

	out = post(t, h, `{"tenant_id":"quiet","customer_id":"c1","text":"horario"}`)
	assert.NotEqual(t, "nunca", out["text"])
}

func TestSalesServer_UnknownDriver(t *testing.T) {
	cfg := memoryConfig()
	cfg.Storage.Driver = "cassandra"
	assert.Error(t, NewSalesServer(cfg, quietLog()).Init(context.Background()))
}

func TestBotsFromConfig_HybridByDefault(t *testing.T) {
	bots := BotsFromConfig(memoryConfig().Bots)
	require.Len(t, bots, 2)
	assert.True(t, bots[0].HybridMode)
	assert.False(t, bots[1].HybridMode)
	assert.Equal(t, "Abrimos de 9 a 18", bots[0].Rules[0].Response)
}

func TestSeedCatalog(t *testing.T) {
	catalog, err := SeedCatalog(memoryConfig().Catalog)
	require.NoError(t, err)

	products, err := catalog.ListActiveProducts(context.Background(), "shop")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "50", products[0].Price.String())

	_, err = SeedCatalog([]config.SeedCategoryConfig{{ID: 1, TenantID: "shop",
		Products: []config.SeedProductConfig{{ID: 1, Price: "gratis"}}}})
	assert.Error(t, err)
}

func TestSalesServer_ResponderAfterInit(t *testing.T) {
	s := NewSalesServer(memoryConfig(), quietLog())
	require.NoError(t, s.Init(context.Background()))
	reply := s.Responder().Reply(context.Background(), engine.Message{TenantID: "shop", CustomerID: "c2", Text: "catalogo"})
	assert.NotEmpty(t, reply.Body())
}
