package engine

import (
	"context"

	"chatsales_api/internal/sales/models"
)

// BotDirectory resolves the bot answering for a tenant.
type BotDirectory interface {
	BotFor(ctx context.Context, tenantID string) (models.Bot, bool)
}

// StaticBots serves bots loaded once from configuration. The first active bot
// of a tenant wins.
type StaticBots struct {
	byTenant map[string]models.Bot
}

func NewStaticBots(bots []models.Bot) *StaticBots {
	byTenant := make(map[string]models.Bot, len(bots))
	for _, b := range bots {
		if !b.Active {
			continue
		}
		if _, seen := byTenant[b.TenantID]; seen {
			continue
		}
		byTenant[b.TenantID] = b
	}
	return &StaticBots{byTenant: byTenant}
}

func (s *StaticBots) BotFor(_ context.Context, tenantID string) (models.Bot, bool) {
	b, ok := s.byTenant[tenantID]
	return b, ok
}

// DefaultBot is used for tenants without a configured bot: no rules, no custom prompt.
func DefaultBot(tenantID string) models.Bot {
	return models.Bot{TenantID: tenantID, Active: true}
}
