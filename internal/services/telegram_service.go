package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

var telegramHTTPClient = &http.Client{Timeout: 10 * time.Second}

// TelegramService pushes order notifications to the shop's admin chat.
// Notifications are best-effort and never block or fail a checkout.
type TelegramService struct {
	botToken    string
	adminChatID string
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to specified chat.
func (s *TelegramService) SendMessage(chatID, text string) error {
	if s.botToken == "" {
		log.Println("[Telegram] Bot token not configured")
		return nil
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.botToken)

	msg := telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	resp, err := telegramHTTPClient.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("[Telegram] Failed to send message: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Telegram] Unexpected status: %d", resp.StatusCode)
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(text string) error {
	if s.adminChatID == "" {
		log.Println("[Telegram] Admin chat ID not configured")
		return nil
	}
	return s.SendMessage(s.adminChatID, text)
}

// OrderItemNotification is one line of an order notification.
type OrderItemNotification struct {
	Title    string
	Variant  string
	Quantity int
	Price    int64
}

// OrderNotification contains order data for the admin message.
type OrderNotification struct {
	OrderNumber   string
	Items         []OrderItemNotification
	TotalAmount   int64
	CustomerName  string
	CustomerPhone string
	PaymentMethod string
}

// NotifyNewOrder sends a new-order message to the admin chat.
func (s *TelegramService) NotifyNewOrder(n OrderNotification) error {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🛒 <b>New order %s</b>\n\n", n.OrderNumber))
	for _, item := range n.Items {
		sb.WriteString(fmt.Sprintf("• %s (%s) ×%d — %sđ\n", item.Title, item.Variant, item.Quantity, formatAmount(item.Price)))
	}
	sb.WriteString(fmt.Sprintf("\n<b>Total:</b> %sđ\n", formatAmount(n.TotalAmount)))
	sb.WriteString(fmt.Sprintf("<b>Customer:</b> %s, %s\n", n.CustomerName, n.CustomerPhone))
	sb.WriteString(fmt.Sprintf("<b>Payment:</b> %s", n.PaymentMethod))

	if err := s.SendToAdmin(sb.String()); err != nil {
		log.Printf("[Telegram] New order notification failed: %v", err)
		return err
	}
	return nil
}

// NotifyPaymentSuccess sends a payment-confirmed message to the admin chat.
func (s *TelegramService) NotifyPaymentSuccess(orderNumber, provider string, amount int64) error {
	text := fmt.Sprintf("✅ <b>Payment received</b>\nOrder %s paid %sđ via %s", orderNumber, formatAmount(amount), provider)
	if err := s.SendToAdmin(text); err != nil {
		log.Printf("[Telegram] Payment success notification failed: %v", err)
		return err
	}
	return nil
}

// formatAmount renders đồng with thousands separators.
func formatAmount(v int64) string {
	s := fmt.Sprintf("%d", v)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	out := strings.Join(parts, ".")
	if neg {
		out = "-" + out
	}
	return out
}
