package engine

import (
	"fmt"
	"strings"

	"chatsales_api/internal/sales/business/discount"
	"chatsales_api/internal/sales/models"
	"chatsales_api/pkg/textnorm"

	"github.com/shopspring/decimal"
)

const (
	msgNothingAvailable = "Por ahora no tenemos productos disponibles. ¡Vuelve pronto!"
	msgEmptyCategory    = "Esta categoría no tiene productos disponibles en este momento."
	msgEmptyCart        = "Tu carrito está vacío. Explora el catálogo para elegir tus productos."
	msgNothingToPay     = "Tu carrito está vacío, así que aún no hay nada que pagar. Mira el catálogo y elige tus productos."
	msgCleared          = "Listo, vacié tu carrito. ¿Quieres ver el catálogo otra vez?"
	msgNegative         = "Entendido. Si necesitas algo más, escribe *catálogo* para ver nuestros productos."
	msgTechnicalProblem = "Tuvimos un problema técnico procesando tu mensaje. Por favor intenta de nuevo en unos minutos."
)

// TechnicalProblemReply is what callers send when HandleMessage returns an error.
func TechnicalProblemReply() models.Reply {
	return models.Reply{Kind: models.ReplyText, Text: msgTechnicalProblem, Source: models.SourceError}
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func catalogButton() models.Button {
	return models.Button{ID: models.ActionCatalog, Title: "Ver catálogo"}
}

func viewCartButton() models.Button {
	return models.Button{ID: models.ActionViewCart, Title: "Ver carrito"}
}

func checkoutButton() models.Button {
	return models.Button{ID: models.ActionCheckout, Title: "Pagar"}
}

func (e *Engine) greeting(t *turn) models.Reply {
	store := t.bot.Name
	if store == "" {
		store = "nuestra tienda"
	}
	body := fmt.Sprintf("¡Hola! 👋 Bienvenido a %s. ¿Qué te gustaría hacer?", store)
	return models.ButtonsReply(body, catalogButton(), viewCartButton(), checkoutButton())
}

func (e *Engine) categoryList(categories []models.Category) models.Reply {
	if len(categories) > e.cfg.ListRows {
		categories = categories[:e.cfg.ListRows]
	}
	rows := make([]models.Row, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, models.Row{
			ID:          models.CategoryToken(c.ID),
			Title:       c.Name,
			Description: textnorm.Truncate(c.Description, 72),
		})
	}
	return models.ListReply("Estas son nuestras categorías. Elige una para ver sus productos:", "Ver categorías",
		models.Section{Title: "Categorías", Rows: rows})
}

func (e *Engine) productList(title string, products []models.Product) models.Reply {
	if title == "" {
		title = "Productos"
	}
	if len(products) > e.cfg.ListRows {
		products = products[:e.cfg.ListRows]
	}
	rows := make([]models.Row, 0, len(products))
	for _, p := range products {
		rows = append(rows, models.Row{
			ID:          models.ProductToken(p.ID),
			Title:       p.Name,
			Description: fmt.Sprintf("%s · %d disponibles", money(p.Price), p.Stock),
		})
	}
	return models.ListReply("Estos son nuestros productos disponibles. Elige uno para agregarlo:", "Ver productos",
		models.Section{Title: title, Rows: rows})
}

func (e *Engine) productCard(p models.Product) models.Reply {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n%s · %d disponibles", p.Name, money(p.Price), p.Stock)
	if p.Description != "" {
		fmt.Fprintf(&b, "\n%s", textnorm.Truncate(p.Description, 200))
	}
	return models.ButtonsReply(b.String(),
		models.Button{ID: models.ProductToken(p.ID), Title: "Agregar"},
		catalogButton(),
		viewCartButton())
}

func (e *Engine) addedReply(line models.CartLine, added int, upsell *models.Product) models.Reply {
	body := fmt.Sprintf("✅ Agregué %dx %s a tu carrito. Ahora tienes %d (%s).",
		added, line.Name, line.Quantity, money(line.Subtotal()))

	if upsell == nil {
		return models.ButtonsReply(body,
			models.Button{ID: models.ActionCatalog, Title: "Seguir comprando"},
			viewCartButton(),
			checkoutButton())
	}

	body += fmt.Sprintf("\n\n¿Te interesa también *%s* por %s?", upsell.Name, money(upsell.Price))
	return models.ButtonsReply(body,
		models.Button{ID: models.ProductToken(upsell.ID), Title: "Sí, agregar"},
		viewCartButton(),
		checkoutButton())
}

func (e *Engine) stockReply(p models.Product, available int) models.Reply {
	if available <= 0 {
		return models.ButtonsReply(
			fmt.Sprintf("Lo siento, no quedan unidades disponibles de %s (0 disponibles).", p.Name),
			catalogButton(), viewCartButton())
	}
	unit := "unidades"
	if available == 1 {
		unit = "unidad"
	}
	return models.ButtonsReply(
		fmt.Sprintf("Lo siento, solo nos quedan %d %s de %s. ¿Quieres agregar esa cantidad?", available, unit, p.Name),
		models.Button{ID: models.ProductQuantityToken(p.ID, available), Title: fmt.Sprintf("Agregar %d", available)},
		viewCartButton())
}

func (e *Engine) cartSummary(t *turn) models.Reply {
	if len(t.lines) == 0 {
		return emptyCartReply()
	}
	var b strings.Builder
	b.WriteString("🛒 *Tu carrito:*\n")
	for _, l := range t.lines {
		fmt.Fprintf(&b, "• %dx %s - %s\n", l.Quantity, l.Name, money(l.Subtotal()))
	}
	fmt.Fprintf(&b, "\n*Total: %s*", money(models.LinesTotal(t.lines)))
	return models.ButtonsReply(b.String(),
		checkoutButton(),
		models.Button{ID: models.ActionClearCart, Title: "Vaciar carrito"},
		models.Button{ID: models.ActionCatalog, Title: "Seguir comprando"})
}

// checkoutReply applies the cart's recovery coupon, if any, to the amount charged.
func (e *Engine) checkoutReply(t *turn, total decimal.Decimal) models.Reply {
	amount := total
	var b strings.Builder
	b.WriteString("🌟 *¡Excelente selección!*\n\n")

	if tier, ok := discount.ByCode(t.cart.CouponCode); ok {
		offer := discount.Apply(tier, total)
		amount = offer.Final
		fmt.Fprintf(&b, "Total original: %s\nDescuento %s (%d%%): -%s\n", money(total), tier.Code, tier.Percent, money(offer.Discount))
	}
	fmt.Fprintf(&b, "*Total a pagar: %s*\n\n", money(amount))

	if e.links != nil {
		fmt.Fprintf(&b, "🔗 Completa tu pago aquí:\n%s\n\n", e.links.Link(t.cart.ID, amount))
	}
	b.WriteString("¡Gracias por tu compra! 🙌")
	return models.TextReply(b.String())
}

func emptyCartReply() models.Reply {
	return models.ButtonsReply(msgEmptyCart, catalogButton())
}

func emptyCheckoutReply() models.Reply {
	return models.ButtonsReply(msgNothingToPay, catalogButton())
}

func clearedReply() models.Reply {
	return models.ButtonsReply(msgCleared, catalogButton())
}
