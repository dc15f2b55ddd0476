package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"optovik-store/logger"
	"optovik-store/models"
	"optovik-store/utils"
)

// Notifier tells the shop staff about order events. Failures never fail the caller.
type Notifier interface {
	OrderCreated(ctx context.Context, order *models.Order)
	OrderStatusChanged(ctx context.Context, order *models.Order, previous string)
}

// TelegramNotifier posts messages through the Telegram Bot API
type TelegramNotifier struct {
	baseURL string
	token   string
	chatID  string
	client  *http.Client
}

// NewTelegramNotifier returns nil when the bot is not configured
func NewTelegramNotifier(baseURL, token, chatID string, client *http.Client) *TelegramNotifier {
	if strings.TrimSpace(token) == "" || strings.TrimSpace(chatID) == "" {
		logger.Log.Infof("⚠️  Telegram notifications disabled: TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID not set")
		return nil
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	return &TelegramNotifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		chatID:  chatID,
		client:  client,
	}
}

var _ Notifier = (*TelegramNotifier)(nil)

// OrderCreated implements Notifier
func (n *TelegramNotifier) OrderCreated(ctx context.Context, order *models.Order) {
	if n == nil {
		return
	}
	if err := n.Send(ctx, formatNewOrder(order)); err != nil {
		logger.Log.Warnf("⚠️  Telegram: failed to notify about order %s: %v", order.Number, err)
	}
}

// OrderStatusChanged implements Notifier
func (n *TelegramNotifier) OrderStatusChanged(ctx context.Context, order *models.Order, previous string) {
	if n == nil {
		return
	}
	text := fmt.Sprintf("🔄 Заказ %s: %s → %s", order.Number, statusTitle(previous), statusTitle(order.Status))
	if err := n.Send(ctx, text); err != nil {
		logger.Log.Warnf("⚠️  Telegram: failed to notify about order %s: %v", order.Number, err)
	}
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send posts a plain-text message to the configured chat
func (n *TelegramNotifier) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]interface{}{
		"chat_id":                  n.chatID,
		"text":                     text,
		"disable_web_page_preview": true,
	})
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var parsed telegramResponse
	_ = json.Unmarshal(raw, &parsed)
	if resp.StatusCode != http.StatusOK || !parsed.OK {
		return fmt.Errorf("telegram returned status %d: %s", resp.StatusCode, parsed.Description)
	}
	logger.Log.Debugf("📨 Telegram message sent to chat %s", n.chatID)
	return nil
}

func formatNewOrder(o *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🛍 Новый заказ %s\n", o.Number)
	if o.OrderType == models.OrderTypeWholesale {
		fmt.Fprintf(&b, "Тип: опт (скидка %s%%)\n", o.DiscountPercent.String())
	} else {
		b.WriteString("Тип: розница\n")
	}
	fmt.Fprintf(&b, "Клиент: %s, %s\n", o.CustomerName, o.CustomerPhone)
	fmt.Fprintf(&b, "Доставка: %s", o.DeliveryMethod)
	if o.DeliveryAddress != "" {
		fmt.Fprintf(&b, ", %s", o.DeliveryAddress)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Оплата: %s\n\n", paymentTitle(o.PaymentMethod))
	for _, l := range o.Lines {
		name := l.ProductName
		if name == "" {
			name = l.ProductID
		}
		variant := strings.TrimSpace(strings.Join([]string{l.SelectedColor, l.SelectedSize}, " "))
		if variant != "" {
			name += " (" + variant + ")"
		}
		fmt.Fprintf(&b, "• %s × %d = %s\n", name, l.Quantity, utils.FormatRUB(l.LineTotal))
	}
	b.WriteString("\n")
	if o.Economy.IsPositive() {
		fmt.Fprintf(&b, "Без скидки: %s\nЭкономия: %s\n", utils.FormatRUB(o.RetailTotal), utils.FormatRUB(o.Economy))
	}
	fmt.Fprintf(&b, "Итого: %s", utils.FormatRUB(o.Total))
	return b.String()
}

func statusTitle(status string) string {
	switch status {
	case models.OrderStatusNew:
		return "новый"
	case models.OrderStatusConfirmed:
		return "подтвержден"
	case models.OrderStatusPaid:
		return "оплачен"
	case models.OrderStatusShipped:
		return "отправлен"
	case models.OrderStatusDelivered:
		return "доставлен"
	case models.OrderStatusCanceled:
		return "отменен"
	}
	return status
}

func paymentTitle(method string) string {
	if method == models.PaymentMethodCard {
		return "картой онлайн"
	}
	return "наличными при получении"
}
