package services

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/example/medibook/internal/models"
)

// VNPayAdapter verifies VNPay IPN/return callbacks and builds redirect
// payment URLs. VNPay sends callbacks as signed query strings; amounts are
// transmitted multiplied by 100.
type VNPayAdapter struct {
	TmnCode    string
	HashSecret string
	PayURL     string
}

// NewVNPayAdapter constructs VNPayAdapter.
func NewVNPayAdapter(tmnCode, hashSecret string) *VNPayAdapter {
	return &VNPayAdapter{
		TmnCode:    tmnCode,
		HashSecret: hashSecret,
		PayURL:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
	}
}

// Name implements ProviderAdapter.
func (a *VNPayAdapter) Name() string { return models.PaymentMethodVNPay }

// Verify parses the raw query string, checks vnp_SecureHash and normalizes
// the result. vnp_TxnRef carries our order number.
func (a *VNPayAdapter) Verify(raw []byte) (*CallbackResult, error) {
	params, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, fmt.Errorf("vnpay: malformed query: %w", err)
	}

	signature := params.Get("vnp_SecureHash")
	if signature == "" {
		return nil, errors.New("vnpay: missing secure hash")
	}
	params.Del("vnp_SecureHash")
	params.Del("vnp_SecureHashType")

	if params.Get("vnp_TmnCode") != a.TmnCode {
		return nil, errors.New("vnpay: terminal code mismatch")
	}

	if !hmac.Equal([]byte(a.sign(params)), []byte(strings.ToLower(signature))) {
		return nil, errors.New("vnpay: invalid signature")
	}

	rawAmount, err := strconv.ParseInt(params.Get("vnp_Amount"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("vnpay: bad amount: %w", err)
	}

	responseCode := params.Get("vnp_ResponseCode")
	result := &CallbackResult{
		Success:        responseCode == "00",
		ProviderTxnRef: params.Get("vnp_TransactionNo"),
		OrderRef:       params.Get("vnp_TxnRef"),
		Amount:         rawAmount / 100,
	}
	if !result.Success {
		result.FailureCode = responseCode
	}
	return result, nil
}

// BuildPaymentURL returns the signed redirect URL the customer pays at.
func (a *VNPayAdapter) BuildPaymentURL(order *models.Order, returnURL, clientIP string) string {
	params := url.Values{}
	params.Set("vnp_Version", "2.1.0")
	params.Set("vnp_Command", "pay")
	params.Set("vnp_TmnCode", a.TmnCode)
	params.Set("vnp_Amount", strconv.FormatInt(order.TotalAmount*100, 10))
	params.Set("vnp_CurrCode", "VND")
	params.Set("vnp_TxnRef", order.OrderNumber)
	params.Set("vnp_OrderInfo", "MediBook order "+order.OrderNumber)
	params.Set("vnp_OrderType", "other")
	params.Set("vnp_Locale", "vn")
	params.Set("vnp_ReturnUrl", returnURL)
	params.Set("vnp_IpAddr", clientIP)
	params.Set("vnp_CreateDate", time.Now().Format("20060102150405"))

	signature := a.sign(params)
	return a.PayURL + "?" + encodeSorted(params) + "&vnp_SecureHash=" + signature
}

// sign hashes the sorted, url-encoded parameter string with HMAC-SHA512,
// the scheme VNPay mandates.
func (a *VNPayAdapter) sign(params url.Values) string {
	mac := hmac.New(sha512.New, []byte(a.HashSecret))
	mac.Write([]byte(encodeSorted(params)))
	return hex.EncodeToString(mac.Sum(nil))
}

func encodeSorted(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(k))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(params.Get(k)))
	}
	return sb.String()
}
