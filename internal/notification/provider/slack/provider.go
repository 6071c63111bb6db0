package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/railzwaylabs/storefront/internal/notification/domain"
)

type Provider struct {
	webhookURL string
	client     *http.Client
}

func NewProvider(webhookURL string) *Provider {
	return &Provider{
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (p *Provider) Name() string { return "slack" }

func (p *Provider) Send(ctx context.Context, input domain.NotificationInput) error {
	if p.webhookURL == "" {
		return fmt.Errorf("missing_webhook_url")
	}

	body, err := json.Marshal(map[string]any{
		"text": render(input),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("slack_api_error: status=%d", resp.StatusCode)
	}
	return nil
}

func render(input domain.NotificationInput) string {
	switch input.TemplateID {
	case "order.paid":
		return fmt.Sprintf(":white_check_mark: *Order %s paid* %v %v via %v",
			input.OrderID, input.Data["amount"], input.Data["currency"], input.Data["channel"])
	default:
		return fmt.Sprintf("*%s* order %s", input.TemplateID, input.OrderID)
	}
}
