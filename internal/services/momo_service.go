package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/example/medibook/internal/models"
)

var momoHTTPClient = &http.Client{Timeout: 15 * time.Second}

// MoMoAdapter verifies MoMo IPN callbacks and creates payment requests
// against the MoMo gateway.
type MoMoAdapter struct {
	PartnerCode string
	AccessKey   string
	SecretKey   string
	Endpoint    string
}

// NewMoMoAdapter constructs MoMoAdapter.
func NewMoMoAdapter(partnerCode, accessKey, secretKey, endpoint string) *MoMoAdapter {
	return &MoMoAdapter{
		PartnerCode: partnerCode,
		AccessKey:   accessKey,
		SecretKey:   secretKey,
		Endpoint:    endpoint,
	}
}

// Name implements ProviderAdapter.
func (a *MoMoAdapter) Name() string { return models.PaymentMethodMoMo }

type momoIPNPayload struct {
	PartnerCode  string `json:"partnerCode"`
	OrderID      string `json:"orderId"`
	RequestID    string `json:"requestId"`
	Amount       int64  `json:"amount"`
	OrderInfo    string `json:"orderInfo"`
	OrderType    string `json:"orderType"`
	TransID      int64  `json:"transId"`
	ResultCode   int    `json:"resultCode"`
	Message      string `json:"message"`
	PayType      string `json:"payType"`
	ResponseTime int64  `json:"responseTime"`
	ExtraData    string `json:"extraData"`
	Signature    string `json:"signature"`
}

// Verify checks the IPN signature and normalizes the payload. MoMo's orderId
// carries our order number.
func (a *MoMoAdapter) Verify(raw []byte) (*CallbackResult, error) {
	var p momoIPNPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("momo: malformed payload: %w", err)
	}

	if p.PartnerCode != a.PartnerCode {
		return nil, errors.New("momo: partner code mismatch")
	}

	// Field order in the signed string is fixed by the MoMo v2 spec.
	signed := fmt.Sprintf(
		"accessKey=%s&amount=%d&extraData=%s&message=%s&orderId=%s&orderInfo=%s&orderType=%s&partnerCode=%s&payType=%s&requestId=%s&responseTime=%d&resultCode=%d&transId=%d",
		a.AccessKey, p.Amount, p.ExtraData, p.Message, p.OrderID, p.OrderInfo,
		p.OrderType, p.PartnerCode, p.PayType, p.RequestID, p.ResponseTime,
		p.ResultCode, p.TransID,
	)
	if !hmacSHA256Equal(a.SecretKey, signed, p.Signature) {
		return nil, errors.New("momo: invalid signature")
	}

	result := &CallbackResult{
		Success:        p.ResultCode == 0,
		ProviderTxnRef: fmt.Sprintf("%d", p.TransID),
		OrderRef:       p.OrderID,
		Amount:         p.Amount,
	}
	if !result.Success {
		result.FailureCode = fmt.Sprintf("%d", p.ResultCode)
	}
	return result, nil
}

type momoCreateRequest struct {
	PartnerCode string `json:"partnerCode"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IPNURL      string `json:"ipnUrl"`
	RequestType string `json:"requestType"`
	ExtraData   string `json:"extraData"`
	Lang        string `json:"lang"`
	Signature   string `json:"signature"`
}

type momoCreateResponse struct {
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
	PayURL     string `json:"payUrl"`
}

// CreatePayment registers the order with MoMo and returns the wallet pay URL.
func (a *MoMoAdapter) CreatePayment(ctx context.Context, order *models.Order, redirectURL, ipnURL string) (string, error) {
	req := momoCreateRequest{
		PartnerCode: a.PartnerCode,
		RequestID:   order.ID.String(),
		Amount:      order.TotalAmount,
		OrderID:     order.OrderNumber,
		OrderInfo:   "MediBook order " + order.OrderNumber,
		RedirectURL: redirectURL,
		IPNURL:      ipnURL,
		RequestType: "captureWallet",
		Lang:        "vi",
	}

	signed := fmt.Sprintf(
		"accessKey=%s&amount=%d&extraData=%s&ipnUrl=%s&orderId=%s&orderInfo=%s&partnerCode=%s&redirectUrl=%s&requestId=%s&requestType=%s",
		a.AccessKey, req.Amount, req.ExtraData, req.IPNURL, req.OrderID,
		req.OrderInfo, req.PartnerCode, req.RedirectURL, req.RequestID, req.RequestType,
	)
	req.Signature = hmacSHA256Hex(a.SecretKey, signed)

	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("momo create request build: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := momoHTTPClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("momo create request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("momo create returned status %d: %s", resp.StatusCode, respBody)
	}

	var parsed momoCreateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("momo create response parse: %w", err)
	}
	if parsed.ResultCode != 0 {
		return "", fmt.Errorf("momo create rejected: %s", parsed.Message)
	}

	return parsed.PayURL, nil
}

func hmacSHA256Hex(key, message string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

func hmacSHA256Equal(key, message, signature string) bool {
	expected := hmacSHA256Hex(key, message)
	return hmac.Equal([]byte(expected), []byte(signature))
}
