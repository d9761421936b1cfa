package fallback

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"chatsales_api/internal/sales/models"
	"chatsales_api/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	answer string
	err    error
	delay  time.Duration

	gotModel  string
	gotSystem string
	gotPrompt string
	calls     int
}

func (f *fakeCompleter) Complete(ctx context.Context, modelID, system, prompt string) (string, error) {
	f.calls++
	f.gotModel, f.gotSystem, f.gotPrompt = modelID, system, prompt
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.answer, f.err
}

func quietLog() logger.Logger {
	return logger.NewSilentLogger(io.Discard, "[Fallback]")
}

func TestAdapter_ReturnsModelAnswer(t *testing.T) {
	fake := &fakeCompleter{answer: "  Tenemos zapatillas desde $25.  "}
	adapter := NewAdapter(fake, Options{}, quietLog())

	answer := adapter.Complete(context.Background(), Request{
		ModelID:     "gemini-2.5-flash",
		System:      "Sé breve",
		Catalog:     []models.Product{{ID: 1, Name: "Running Shoes", Price: decimal.NewFromInt(25)}},
		Lines:       []models.CartLine{{CartLineItem: models.CartLineItem{ProductID: 1, Quantity: 2}, Name: "Running Shoes", Price: decimal.NewFromInt(25)}},
		UserMessage: "¿tienen envío?",
	})

	assert.Equal(t, "Tenemos zapatillas desde $25.", answer)
	assert.Equal(t, "gemini-2.5-flash", fake.gotModel)
	assert.Equal(t, "Sé breve", fake.gotSystem)
	assert.Contains(t, fake.gotPrompt, "ID: 1, Running Shoes ($25.00)")
	assert.Contains(t, fake.gotPrompt, "Total: $50.00")
	assert.Contains(t, fake.gotPrompt, "Cliente: ¿tienen envío?")
}

func TestAdapter_CatalogExcerptIsBounded(t *testing.T) {
	fake := &fakeCompleter{answer: "ok"}
	adapter := NewAdapter(fake, Options{CatalogExcerpt: 2}, quietLog())

	catalog := []models.Product{
		{ID: 1, Name: "Uno", Price: decimal.NewFromInt(1)},
		{ID: 2, Name: "Dos", Price: decimal.NewFromInt(2)},
		{ID: 3, Name: "Tres", Price: decimal.NewFromInt(3)},
	}
	adapter.Complete(context.Background(), Request{Catalog: catalog, UserMessage: "hola"})

	assert.Contains(t, fake.gotPrompt, "Dos")
	assert.NotContains(t, fake.gotPrompt, "Tres")
}

func TestAdapter_DefaultSystemPrompt(t *testing.T) {
	fake := &fakeCompleter{answer: "ok"}
	NewAdapter(fake, Options{}, quietLog()).Complete(context.Background(), Request{UserMessage: "x"})
	assert.Equal(t, defaultSystemPrompt, fake.gotSystem)
}

func TestAdapter_NeverReturnsEmpty(t *testing.T) {
	cases := []struct {
		name      string
		completer Completer
		timeout   time.Duration
		want      string
	}{
		{"no client", nil, 0, MsgDisabled},
		{"empty answer", &fakeCompleter{answer: "   "}, 0, MsgUnavailable},
		{"provider error", &fakeCompleter{err: errors.New("boom")}, 0, MsgUnavailable},
		{"provider 429", &fakeCompleter{err: ErrRateLimited}, 0, MsgRateLimited},
		{"timeout", &fakeCompleter{answer: "late", delay: time.Second}, 20 * time.Millisecond, MsgUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			adapter := NewAdapter(tc.completer, Options{Timeout: tc.timeout}, quietLog())
			answer := adapter.Complete(context.Background(), Request{UserMessage: "hola"})
			require.NotEmpty(t, answer)
			assert.Equal(t, tc.want, answer)
		})
	}
}

func TestAdapter_LocalRateLimit(t *testing.T) {
	fake := &fakeCompleter{answer: "ok"}
	adapter := NewAdapter(fake, Options{RatePerMinute: 1}, quietLog())

	assert.Equal(t, "ok", adapter.Complete(context.Background(), Request{UserMessage: "a"}))
	assert.Equal(t, MsgRateLimited, adapter.Complete(context.Background(), Request{UserMessage: "b"}))
	assert.Equal(t, 1, fake.calls)
}

func TestModelResolver(t *testing.T) {
	resolver := NewModelResolver(map[string]string{"Gemini 2.5 Flash": "gemini-2.5-flash"}, "")

	assert.Equal(t, "gemini-2.5-flash", resolver.Resolve("Gemini 2.5 Flash"))
	assert.Equal(t, defaultModelID, resolver.Resolve("Starter"))
	assert.Equal(t, defaultModelID, resolver.Resolve(""))
}

func TestAdapter_StripsLinks(t *testing.T) {
	adapter := NewAdapter(&fakeCompleter{answer: "Paga aquí https://pagos.falsos.example/x"}, Options{}, quietLog())
	assert.Equal(t, "Paga aquí", adapter.Complete(context.Background(), Request{UserMessage: "link?"}))

	adapter = NewAdapter(&fakeCompleter{answer: "https://solo-un-link.example"}, Options{}, quietLog())
	assert.Equal(t, MsgUnavailable, adapter.Complete(context.Background(), Request{UserMessage: "link?"}))
}
