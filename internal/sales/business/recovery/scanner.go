// Package recovery reminds customers about carts they left behind.
package recovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chatsales_api/config/values"
	"chatsales_api/internal/sales/business/discount"
	"chatsales_api/internal/sales/models"
	"chatsales_api/internal/sales/storage"
	"chatsales_api/metrics"
	"chatsales_api/pkg/logger"
)

// Notifier delivers a plain text message to a customer of a tenant.
type Notifier interface {
	Notify(ctx context.Context, tenantID, customerID, text string) error
}

type Report struct {
	Candidates int
	Notified   int
	Skipped    int
	Failed     int
}

// Scanner only sends notifications and flags carts; it never changes line items.
type Scanner struct {
	store    storage.RecoveryStore
	notifier Notifier
	cfg      values.RecoveryValues
	log      logger.Logger
}

func NewScanner(store storage.RecoveryStore, notifier Notifier, cfg values.RecoveryValues, log logger.Logger) *Scanner {
	if cfg.IdleAfter <= 0 {
		cfg.IdleAfter = time.Hour
	}
	if cfg.RenotifyAfter <= 0 {
		cfg.RenotifyAfter = 24 * time.Hour
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Minute
	}
	return &Scanner{store: store, notifier: notifier, cfg: cfg, log: log}
}

func (s *Scanner) Scan(ctx context.Context, now time.Time) (Report, error) {
	carts, err := s.store.ListAbandoned(ctx, now.Add(-s.cfg.IdleAfter), now.Add(-s.cfg.RenotifyAfter))
	if err != nil {
		return Report{}, fmt.Errorf("failed to list abandoned carts: %w", err)
	}

	report := Report{Candidates: len(carts)}
	for _, c := range carts {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if len(c.Lines) == 0 {
			report.Skipped++
			continue
		}

		offer := discount.Apply(discount.TierFor(models.LinesTotal(c.Lines)), models.LinesTotal(c.Lines))
		if err := s.notifier.Notify(ctx, c.Cart.TenantID, c.Cart.CustomerID, Message(c.Lines, offer)); err != nil {
			s.log.Log("recovery message for cart %s failed: %v", c.Cart.ID, err)
			metrics.RecordRecovery("error")
			report.Failed++
			continue
		}
		if err := s.store.MarkNotified(ctx, c.Cart, offer.Code, now); err != nil {
			return report, fmt.Errorf("failed to flag cart %s: %w", c.Cart.ID, err)
		}
		metrics.RecordRecovery("sent")
		report.Notified++
	}

	if report.Candidates > 0 {
		s.log.Log("recovery scan: %d candidates, %d notified, %d skipped, %d failed",
			report.Candidates, report.Notified, report.Skipped, report.Failed)
	}
	return report, nil
}

// Run scans once immediately and then on every interval until ctx is done.
func (s *Scanner) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.scanLogged(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.scanLogged(ctx)
		}
	}
}

func (s *Scanner) scanLogged(ctx context.Context) {
	if _, err := s.Scan(ctx, time.Now()); err != nil && ctx.Err() == nil {
		s.log.Log("recovery scan failed: %v", err)
	}
}

// Message lists up to three items and the coupon for the cart's tier.
func Message(lines []models.CartLine, offer discount.Offer) string {
	shown := lines
	if len(shown) > 3 {
		shown = shown[:3]
	}
	items := make([]string, 0, len(shown))
	for _, l := range shown {
		items = append(items, fmt.Sprintf("%dx %s", l.Quantity, l.Name))
	}
	list := strings.Join(items, ", ")
	if extra := len(lines) - len(shown); extra > 0 {
		list += fmt.Sprintf(" y %d más", extra)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🛒 *%s*\n\n", offer.Headline)
	fmt.Fprintf(&b, "Hola, notamos que dejaste algo especial en tu carrito: *%s*.\n\n", list)
	fmt.Fprintf(&b, "Total: $%s. Con el cupón *%s* pagas $%s (%d%% de descuento).\n\n",
		offer.Original.StringFixed(2), offer.Code, offer.Final.StringFixed(2), offer.Percent)
	b.WriteString("Escribe *pagar* cuando quieras completar tu compra.")
	return b.String()
}
