// Package engine turns one inbound customer message into one reply, keeping the
// customer's cart and conversation state in step.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chatsales_api/config/values"
	"chatsales_api/internal/sales/business/fallback"
	"chatsales_api/internal/sales/business/intent"
	"chatsales_api/internal/sales/business/matcher"
	"chatsales_api/internal/sales/business/rules"
	"chatsales_api/internal/sales/models"
	"chatsales_api/internal/sales/storage"
	"chatsales_api/metrics"
	"chatsales_api/pkg/logger"

	"github.com/shopspring/decimal"
)

type Message struct {
	TenantID   string `json:"tenant_id"`
	CustomerID string `json:"customer_id"`
	Text       string `json:"text"`
}

type Fallback interface {
	Complete(ctx context.Context, req fallback.Request) string
}

type LinkGenerator interface {
	Link(cartID string, amount decimal.Decimal) string
}

type ModelResolver interface {
	Resolve(planModel string) string
}

// Deps are the collaborators of an Engine. Fallback, Models and Links may be nil.
type Deps struct {
	Catalog  storage.Catalog
	Carts    storage.CartStore
	Fallback Fallback
	Models   ModelResolver
	Links    LinkGenerator
}

type Engine struct {
	catalog    storage.Catalog
	carts      storage.CartStore
	fallback   Fallback
	models     ModelResolver
	links      LinkGenerator
	classifier *intent.Classifier
	matcher    *matcher.ProductMatcher
	cfg        values.EngineValues
	log        logger.Logger
}

func New(deps Deps, cfg values.EngineValues, log logger.Logger) *Engine {
	if len(cfg.Intents) == 0 {
		cfg.Intents = values.DefaultIntents()
	}
	if cfg.MaxQuantity <= 0 {
		cfg.MaxQuantity = 99
	}
	if cfg.ListRows <= 0 || cfg.ListRows > 10 {
		cfg.ListRows = 10
	}
	return &Engine{
		catalog:    deps.Catalog,
		carts:      deps.Carts,
		fallback:   deps.Fallback,
		models:     deps.Models,
		links:      deps.Links,
		classifier: intent.NewClassifier(cfg.Intents, intent.ConfigFromValues(cfg), nil),
		matcher:    matcher.NewProductMatcher(cfg.MatchOverlap),
		cfg:        cfg,
		log:        log,
	}
}

// turn is everything known about the message being handled while the cart is locked.
type turn struct {
	msg        Message
	bot        models.Bot
	text       string
	products   []models.Product
	categories []models.Category
	session    storage.CartSession
	cart       *models.Cart
	lines      []models.CartLine
	state      models.ConversationState
}

// outcome is a decided reply. A zero outcome means nothing confident was found.
type outcome struct {
	reply   models.Reply
	next    models.ConversationState
	intent  intent.Intent
	decided bool
}

func decided(reply models.Reply, next models.ConversationState, in intent.Intent) outcome {
	return outcome{reply: reply, next: next, intent: in, decided: true}
}

// HandleMessage runs rules, intent logic and, when neither decides, the generative
// fallback. Only persistence failures are returned as errors.
func (e *Engine) HandleMessage(ctx context.Context, msg Message, bot models.Bot) (models.Reply, error) {
	text := strings.TrimSpace(msg.Text)

	if bot.HybridMode && len(bot.Rules) > 0 {
		if response, ok := rules.Match(text, bot.Rules); ok {
			return e.finish(msg, models.TextReply(response), models.SourceRule, ""), nil
		}
	}

	products, err := e.catalog.ListActiveProducts(ctx, msg.TenantID)
	if err != nil {
		return models.Reply{}, fmt.Errorf("failed to load products for %s: %w", msg.TenantID, err)
	}
	categories, err := e.catalog.ListCategories(ctx, msg.TenantID)
	if err != nil {
		return models.Reply{}, fmt.Errorf("failed to load categories for %s: %w", msg.TenantID, err)
	}

	session, err := e.carts.Begin(ctx, msg.TenantID, msg.CustomerID)
	if err != nil {
		return models.Reply{}, err
	}
	defer session.Rollback()

	t := &turn{
		msg:        msg,
		bot:        bot,
		text:       text,
		products:   models.AvailableOnly(products),
		categories: categories,
		session:    session,
	}
	if t.cart, err = session.GetOrCreateActiveCart(ctx); err != nil {
		return models.Reply{}, err
	}
	if t.lines, err = session.Lines(ctx, t.cart); err != nil {
		return models.Reply{}, err
	}
	if t.cart.Status == models.CartAbandoned {
		t.cart.Status = models.CartRecovered
		e.log.Log("cart %s recovered by customer %s", t.cart.ID, msg.CustomerID)
	}
	t.state = deriveState(t.cart, t.lines)

	out, err := e.decide(ctx, t)
	if err != nil {
		return models.Reply{}, err
	}

	next := t.state
	if out.decided {
		next = out.next
	}
	if err := e.persist(ctx, t, next, out.intent); err != nil {
		return models.Reply{}, err
	}

	if out.decided {
		return e.finish(msg, out.reply, models.SourceIntent, string(out.intent)), nil
	}

	// The cart lock is released above; the provider call happens outside it.
	answer := e.complete(ctx, t)
	return e.finish(msg, models.TextReply(answer), models.SourceFallback, string(out.intent)), nil
}

func (e *Engine) persist(ctx context.Context, t *turn, next models.ConversationState, in intent.Intent) error {
	if t.cart.IsActive {
		t.cart.State = next
		if t.cart.Metadata == nil {
			t.cart.Metadata = map[string]string{}
		}
		if in != "" {
			t.cart.Metadata["last_intent"] = string(in)
		}
		if err := t.session.Touch(ctx, t.cart); err != nil {
			return err
		}
	}
	return t.session.Commit()
}

func (e *Engine) complete(ctx context.Context, t *turn) string {
	if e.fallback == nil {
		return fallback.MsgDisabled
	}
	modelID := ""
	if e.models != nil {
		modelID = e.models.Resolve(t.bot.Plan)
	}

	start := time.Now()
	answer := e.fallback.Complete(ctx, fallback.Request{
		ModelID:     modelID,
		System:      t.bot.SystemInstructions,
		Catalog:     t.products,
		Lines:       t.lines,
		UserMessage: t.text,
	})
	metrics.RecordFallback(time.Since(start))

	if strings.TrimSpace(answer) == "" {
		return fallback.MsgUnavailable
	}
	return answer
}

func (e *Engine) finish(msg Message, reply models.Reply, source, in string) models.Reply {
	reply.Source = source
	reply.Intent = in
	metrics.RecordReply(source, in)
	e.log.Log("reply %s", logger.Fields(map[string]interface{}{
		"tenant":   msg.TenantID,
		"customer": msg.CustomerID,
		"source":   source,
		"intent":   in,
		"kind":     reply.Kind,
	}))
	return reply
}

// deriveState places the customer in the conversation from what the cart holds.
func deriveState(cart *models.Cart, lines []models.CartLine) models.ConversationState {
	if !cart.IsActive {
		return models.StateClosed
	}
	if len(lines) > 0 {
		return models.StateCartBuilding
	}
	if cart.State == models.StateNoCart || cart.State == "" {
		return models.StateNoCart
	}
	return models.StateBrowsing
}
