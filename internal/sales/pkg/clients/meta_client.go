package clients

import (
	"context"
	"fmt"
	"net/http"

	"chatsales_api/internal/sales/models"
	"chatsales_api/pkg/logger"
	"chatsales_api/pkg/middleware"
	"chatsales_api/pkg/textnorm"
)

// WhatsApp Cloud API limits for interactive messages.
const (
	maxBody         = 1024
	maxButtonTitle  = 20
	maxListButton   = 20
	maxSectionTitle = 24
	maxRowTitle     = 24
	maxRowDesc      = 72
	maxRows         = 10
)

type MetaClient struct {
	*BaseClient
	phoneNumberID string
}

func NewMetaClient(baseURL, accessToken, phoneNumberID string, perSecond int, log logger.Logger) *MetaClient {
	return &MetaClient{
		BaseClient:    NewBaseClient(baseURL, accessToken, perSecond, log, middleware.Outbound("meta", log)),
		phoneNumberID: phoneNumberID,
	}
}

type SendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

func (c *MetaClient) Send(ctx context.Context, to string, reply models.Reply) (string, error) {
	if c.phoneNumberID == "" {
		return "", fmt.Errorf("meta: phone number id is not configured")
	}
	var resp SendResponse
	if err := c.Do(ctx, http.MethodPost, "/"+c.phoneNumberID+"/messages", BuildPayload(to, reply), &resp); err != nil {
		return "", err
	}
	if len(resp.Messages) == 0 {
		return "", nil
	}
	return resp.Messages[0].ID, nil
}

// Notify sends a plain text message; it lets the client deliver recovery reminders.
func (c *MetaClient) Notify(ctx context.Context, _ string, customerID, text string) error {
	_, err := c.Send(ctx, customerID, models.TextReply(text))
	return err
}

// BuildPayload renders a reply in the Cloud API message format, clamping every
// field to the provider's limits.
func BuildPayload(to string, reply models.Reply) map[string]interface{} {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                to,
	}

	if reply.Kind != models.ReplyInteractive || reply.Interactive == nil {
		payload["type"] = "text"
		payload["text"] = map[string]interface{}{"body": reply.Body(), "preview_url": true}
		return payload
	}

	in := reply.Interactive
	body := map[string]string{"text": textnorm.Truncate(in.Body, maxBody)}
	payload["type"] = "interactive"

	if in.IsList() {
		rows := in.Section.Rows
		if len(rows) > maxRows {
			rows = rows[:maxRows]
		}
		outRows := make([]map[string]string, 0, len(rows))
		for _, r := range rows {
			row := map[string]string{"id": r.ID, "title": textnorm.Truncate(r.Title, maxRowTitle)}
			if r.Description != "" {
				row["description"] = textnorm.Truncate(r.Description, maxRowDesc)
			}
			outRows = append(outRows, row)
		}
		payload["interactive"] = map[string]interface{}{
			"type": "list",
			"body": body,
			"action": map[string]interface{}{
				"button": title(in.ListButton, maxListButton),
				"sections": []map[string]interface{}{{
					"title": textnorm.Truncate(in.Section.Title, maxSectionTitle),
					"rows":  outRows,
				}},
			},
		}
		return payload
	}

	buttons := make([]map[string]interface{}, 0, len(in.Buttons))
	for i, b := range in.Buttons {
		if i == 3 {
			break
		}
		buttons = append(buttons, map[string]interface{}{
			"type":  "reply",
			"reply": map[string]string{"id": b.ID, "title": title(b.Title, maxButtonTitle)},
		})
	}
	payload["interactive"] = map[string]interface{}{
		"type":   "button",
		"body":   body,
		"action": map[string]interface{}{"buttons": buttons},
	}
	return payload
}

// title keeps whole words when possible.
func title(s string, max int) string {
	if t := textnorm.ReduceToLength(s, max); t != "" {
		return t
	}
	return textnorm.Truncate(s, max)
}
