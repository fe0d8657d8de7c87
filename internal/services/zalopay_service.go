package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/example/medibook/internal/models"
)

// ZaloPayAdapter verifies ZaloPay server callbacks. ZaloPay delivers a JSON
// envelope whose data field is itself a JSON string signed with key2.
type ZaloPayAdapter struct {
	AppID string
	Key2  string
}

// NewZaloPayAdapter constructs ZaloPayAdapter.
func NewZaloPayAdapter(appID, key2 string) *ZaloPayAdapter {
	return &ZaloPayAdapter{AppID: appID, Key2: key2}
}

// Name implements ProviderAdapter.
func (a *ZaloPayAdapter) Name() string { return models.PaymentMethodZaloPay }

type zaloPayEnvelope struct {
	Data string `json:"data"`
	Mac  string `json:"mac"`
	Type int    `json:"type"`
}

type zaloPayCallbackData struct {
	AppID       int    `json:"app_id"`
	AppTransID  string `json:"app_trans_id"`
	AppUser     string `json:"app_user"`
	Amount      int64  `json:"amount"`
	ZpTransID   int64  `json:"zp_trans_id"`
	EmbedData   string `json:"embed_data"`
	ServerTime  int64  `json:"server_time"`
	Channel     int    `json:"channel"`
}

type zaloPayEmbedData struct {
	OrderNumber string `json:"order_number"`
}

// Verify checks the envelope mac and normalizes the payload. ZaloPay only
// calls back on successful payments; the order number rides in embed_data.
func (a *ZaloPayAdapter) Verify(raw []byte) (*CallbackResult, error) {
	var envelope zaloPayEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("zalopay: malformed payload: %w", err)
	}

	if !hmacSHA256Equal(a.Key2, envelope.Data, envelope.Mac) {
		return nil, errors.New("zalopay: invalid mac")
	}

	var data zaloPayCallbackData
	if err := json.Unmarshal([]byte(envelope.Data), &data); err != nil {
		return nil, fmt.Errorf("zalopay: malformed data: %w", err)
	}

	if strconv.Itoa(data.AppID) != a.AppID {
		return nil, errors.New("zalopay: app id mismatch")
	}

	var embed zaloPayEmbedData
	if err := json.Unmarshal([]byte(data.EmbedData), &embed); err != nil || embed.OrderNumber == "" {
		return nil, errors.New("zalopay: missing order number in embed_data")
	}

	return &CallbackResult{
		Success:        true,
		ProviderTxnRef: strconv.FormatInt(data.ZpTransID, 10),
		OrderRef:       embed.OrderNumber,
		Amount:         data.Amount,
	}, nil
}
