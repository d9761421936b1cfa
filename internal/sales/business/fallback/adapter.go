package fallback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chatsales_api/internal/sales/models"
	"chatsales_api/pkg/logger"
	"chatsales_api/pkg/textnorm"

	"golang.org/x/time/rate"
)

// Apologies returned instead of an empty answer.
const (
	MsgDisabled    = "Lo siento, mi conexión con el asistente de IA está desactivada temporalmente."
	MsgRateLimited = "Estoy recibiendo demasiadas consultas ahora mismo. Dame unos segundos y volvemos a hablar."
	MsgUnavailable = "Parece que mi asistente de IA está un poco saturado. ¿Podrías intentar lo mismo con otras palabras?"
)

const defaultSystemPrompt = "Eres un asistente de ventas humano, amable y enfocado en cerrar la venta. " +
	"Responde en máximo 2 oraciones. Si el cliente pregunta por un producto, menciónalo con su precio."

type Options struct {
	Timeout        time.Duration
	RatePerMinute  int
	CatalogExcerpt int
}

// Request carries the conversation context handed to the model.
type Request struct {
	ModelID     string
	System      string
	Catalog     []models.Product
	Lines       []models.CartLine
	UserMessage string
}

type Adapter struct {
	completer Completer
	limiter   *rate.Limiter
	timeout   time.Duration
	excerpt   int
	log       logger.Logger
}

// NewAdapter accepts a nil completer; every call then answers MsgDisabled.
func NewAdapter(completer Completer, opts Options, log logger.Logger) *Adapter {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.CatalogExcerpt <= 0 {
		opts.CatalogExcerpt = 15
	}
	limit := rate.Inf
	burst := 1
	if opts.RatePerMinute > 0 {
		limit = rate.Limit(float64(opts.RatePerMinute) / 60)
		burst = opts.RatePerMinute
	}
	return &Adapter{
		completer: completer,
		limiter:   rate.NewLimiter(limit, burst),
		timeout:   opts.Timeout,
		excerpt:   opts.CatalogExcerpt,
		log:       log,
	}
}

// Complete never returns an empty string and never returns an error.
func (a *Adapter) Complete(ctx context.Context, req Request) string {
	if a.completer == nil {
		return MsgDisabled
	}
	if !a.limiter.Allow() {
		a.log.Log("fallback throttled locally")
		return MsgRateLimited
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	system := req.System
	if strings.TrimSpace(system) == "" {
		system = defaultSystemPrompt
	}

	answer, err := a.completer.Complete(ctx, req.ModelID, system, a.buildPrompt(req))
	switch {
	case errors.Is(err, ErrRateLimited):
		a.log.Log("fallback rate limited by provider (%s)", req.ModelID)
		return MsgRateLimited
	case errors.Is(err, context.DeadlineExceeded):
		a.log.Log("fallback timed out after %s (%s)", a.timeout, req.ModelID)
		return MsgUnavailable
	case err != nil:
		a.log.Log("fallback failed (%s): %v", req.ModelID, err)
		return MsgUnavailable
	}

	// Payment links only ever come from checkout.
	answer = textnorm.RemoveLinks(answer)
	if answer == "" {
		return MsgUnavailable
	}
	return answer
}

func (a *Adapter) buildPrompt(req Request) string {
	var b strings.Builder

	b.WriteString("Productos disponibles:\n")
	products := req.Catalog
	if len(products) > a.excerpt {
		products = products[:a.excerpt]
	}
	if len(products) == 0 {
		b.WriteString("- (sin productos por ahora)\n")
	}
	for _, p := range products {
		fmt.Fprintf(&b, "- ID: %d, %s ($%s)", p.ID, p.Name, p.Price.StringFixed(2))
		if p.Description != "" {
			fmt.Fprintf(&b, ": %s", textnorm.Truncate(p.Description, 120))
		}
		b.WriteString("\n")
	}

	if len(req.Lines) > 0 {
		b.WriteString("\nCarrito del cliente:\n")
		for _, l := range req.Lines {
			fmt.Fprintf(&b, "- %dx %s ($%s)\n", l.Quantity, l.Name, l.Subtotal().StringFixed(2))
		}
		fmt.Fprintf(&b, "Total: $%s\n", models.LinesTotal(req.Lines).StringFixed(2))
	}

	fmt.Fprintf(&b, "\nCliente: %s\nAsistente (conciso y enfocado en la venta):", req.UserMessage)
	return b.String()
}
