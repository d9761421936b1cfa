package engine

import (
	"context"
	"errors"

	"chatsales_api/internal/sales/business/intent"
	"chatsales_api/internal/sales/business/matcher"
	"chatsales_api/internal/sales/models"
	"chatsales_api/internal/sales/storage"
	"chatsales_api/metrics"
	"chatsales_api/pkg/textnorm"
)

// actionIntents maps fixed menu ids back to the intent they stand for.
var actionIntents = map[string]intent.Intent{
	models.ActionCatalog:   intent.Catalog,
	models.ActionViewCart:  intent.ViewCart,
	models.ActionCheckout:  intent.Checkout,
	models.ActionClearCart: intent.ClearCart,
}

// decide applies the transition table. The first matching row wins.
func (e *Engine) decide(ctx context.Context, t *turn) (outcome, error) {
	if id, ok := models.ParseCategoryToken(t.text); ok {
		return decided(e.categoryReply(t, id), models.StateBrowsing, intent.Catalog), nil
	}

	var result intent.Result
	if in, ok := actionIntents[textnorm.Fold(t.text)]; ok {
		result = intent.Result{Intent: in, Score: e.cfg.ExactWeight}
	} else {
		result = e.classifier.Classify(t.text)
	}

	match, matched := e.matcher.Match(t.text, t.products)
	hasItems := len(t.lines) > 0

	switch {
	case result.Intent == intent.ClearCart:
		return e.clear(ctx, t)

	case result.Intent == intent.Checkout:
		return e.checkout(ctx, t, intent.Checkout)

	case result.Intent == intent.ViewCart:
		return decided(e.cartSummary(t), summaryState(t), intent.ViewCart), nil

	case matched && e.wantsToAdd(t.text, result, match):
		return e.add(ctx, t, match.Product)

	case result.Intent == intent.Catalog && matched && match.Kind != matcher.ByOverlap:
		return decided(e.productCard(match.Product), browsingOr(t), intent.Catalog), nil

	case result.Intent == intent.Catalog:
		return decided(e.catalogReply(t), browsingOr(t), intent.Catalog), nil

	// "no quiero <producto>" turns a product down; it neither adds nor pays.
	case result.Intent == intent.Negative && matched:
		return decided(models.TextReply(msgNegative), t.state, intent.Negative), nil

	case result.Intent == intent.Negative && hasItems && e.cfg.NegativeConfirmsCheckout:
		return e.checkout(ctx, t, intent.Negative)

	case result.Intent == intent.Positive && hasItems:
		return decided(e.cartSummary(t), models.StateCartBuilding, intent.Positive), nil

	case result.Intent == intent.Positive:
		return decided(e.catalogReply(t), models.StateBrowsing, intent.Positive), nil

	case matched:
		return decided(e.productCard(match.Product), browsingOr(t), intent.General), nil

	case result.Intent == intent.Greeting:
		return decided(e.greeting(t), browsingOr(t), intent.Greeting), nil

	case result.Intent == intent.Negative:
		return decided(models.TextReply(msgNegative), t.state, intent.Negative), nil
	}

	return outcome{intent: result.Intent}, nil
}

// wantsToAdd is true for an add intent, an add keyword anywhere in the text,
// or a product id picked from a menu. A negative message never adds.
func (e *Engine) wantsToAdd(text string, result intent.Result, match matcher.Match) bool {
	if result.Intent == intent.Negative {
		return false
	}
	return result.Intent == intent.AddToCart ||
		match.Kind == matcher.ByToken ||
		e.classifier.HasKeyword(text, intent.AddToCart)
}

func (e *Engine) add(ctx context.Context, t *turn, product models.Product) (outcome, error) {
	quantity := ParseQuantity(t.text, e.cfg.MaxQuantity)

	line, err := t.session.AddItem(ctx, t.cart, product, quantity)
	var stockErr *storage.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		return decided(e.stockReply(product, stockErr.Available), stateAfterRefusal(t), intent.AddToCart), nil
	case err != nil:
		return outcome{}, err
	}
	metrics.RecordCartAction("add")

	t.lines = mergeLine(t.lines, line)
	var upsell *models.Product
	if e.cfg.Upsell {
		upsell = pickUpsell(product, t.products, t.lines)
	}
	return decided(e.addedReply(line, quantity, upsell), models.StateCartBuilding, intent.AddToCart), nil
}

func (e *Engine) clear(ctx context.Context, t *turn) (outcome, error) {
	if len(t.lines) == 0 {
		return decided(emptyCartReply(), models.StateBrowsing, intent.ClearCart), nil
	}
	if err := t.session.Clear(ctx, t.cart); err != nil {
		return outcome{}, err
	}
	t.lines = nil
	metrics.RecordCartAction("clear")
	return decided(clearedReply(), models.StateBrowsing, intent.ClearCart), nil
}

// checkout never produces a payment link for an empty cart. A completed checkout
// closes the cart so the next message starts a new one.
func (e *Engine) checkout(ctx context.Context, t *turn, in intent.Intent) (outcome, error) {
	if len(t.lines) == 0 {
		return decided(emptyCheckoutReply(), models.StateBrowsing, in), nil
	}

	total, err := t.session.ComputeTotal(ctx, t.cart)
	if err != nil {
		return outcome{}, err
	}
	reply := e.checkoutReply(t, total)

	if err := t.session.Close(ctx, t.cart, models.CartPendingPayment); err != nil {
		return outcome{}, err
	}
	metrics.RecordCartAction("checkout")
	return decided(reply, t.cart.State, in), nil
}

func (e *Engine) categoryReply(t *turn, categoryID int64) models.Reply {
	var name string
	for _, c := range t.categories {
		if c.ID == categoryID {
			name = c.Name
			break
		}
	}
	var inCategory []models.Product
	for _, p := range t.products {
		if p.CategoryID == categoryID {
			inCategory = append(inCategory, p)
		}
	}
	if len(inCategory) == 0 {
		return models.ButtonsReply(msgEmptyCategory, catalogButton())
	}
	return e.productList(name, inCategory)
}

// catalogReply lists categories when more than one has stock, otherwise products.
func (e *Engine) catalogReply(t *turn) models.Reply {
	if len(t.products) == 0 {
		return models.TextReply(msgNothingAvailable)
	}

	stocked := make(map[int64]bool)
	for _, p := range t.products {
		stocked[p.CategoryID] = true
	}
	var categories []models.Category
	for _, c := range t.categories {
		if stocked[c.ID] {
			categories = append(categories, c)
		}
	}

	if len(categories) > 1 {
		return e.categoryList(categories)
	}
	title := ""
	if len(categories) == 1 {
		title = categories[0].Name
	}
	return e.productList(title, t.products)
}

func pickUpsell(added models.Product, products []models.Product, lines []models.CartLine) *models.Product {
	inCart := make(map[int64]bool, len(lines))
	for _, l := range lines {
		inCart[l.ProductID] = true
	}
	for i := range products {
		p := products[i]
		if p.ID == added.ID || p.CategoryID != added.CategoryID || inCart[p.ID] || !p.Available() {
			continue
		}
		return &p
	}
	return nil
}

func mergeLine(lines []models.CartLine, line models.CartLine) []models.CartLine {
	for i := range lines {
		if lines[i].ProductID == line.ProductID {
			lines[i] = line
			return lines
		}
	}
	return append(lines, line)
}

func summaryState(t *turn) models.ConversationState {
	if len(t.lines) > 0 {
		return models.StateCartBuilding
	}
	return browsingOr(t)
}

// browsingOr keeps a customer who is building a cart in that state.
func browsingOr(t *turn) models.ConversationState {
	if t.state == models.StateCartBuilding || t.state == models.StateCheckoutPending {
		return t.state
	}
	return models.StateBrowsing
}

func stateAfterRefusal(t *turn) models.ConversationState {
	if len(t.lines) > 0 {
		return models.StateCartBuilding
	}
	return models.StateBrowsing
}
