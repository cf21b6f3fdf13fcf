// Package billing integrates the MoMo payment gateway: it creates payment
// requests for plan purchases and verifies the signed IPN callbacks that
// confirm them.
package billing

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/book-expert/logger"
	"github.com/google/uuid"

	"github.com/voicebridge/voicebridge/internal/core"
	"github.com/voicebridge/voicebridge/internal/subscription"
)

// DefaultEndpoint is the gateway's sandbox transaction processor.
const DefaultEndpoint = "https://test-payment.momo.vn/gw_payment/transactionProcessor"

const (
	defaultRequestType = "captureMoMoWallet"
	requestTimeout     = 30 * time.Second

	// resultCodeSuccess is the gateway's code for a settled payment.
	resultCodeSuccess = "0"
)

// Config carries the merchant credentials and callback URLs.
type Config struct {
	PartnerCode string
	AccessKey   string
	SecretKey   string
	Endpoint    string
	ReturnURL   string
	NotifyURL   string
}

// Callback is the IPN payload the gateway posts after a payment attempt.
// Field order in the signature string is fixed by the gateway contract.
type Callback struct {
	AccessKey    string `json:"accessKey"`
	Amount       string `json:"amount"`
	ExtraData    string `json:"extraData"`
	Message      string `json:"message"`
	OrderID      string `json:"orderId"`
	OrderInfo    string `json:"orderInfo"`
	OrderType    string `json:"orderType"`
	PartnerCode  string `json:"partnerCode"`
	PayType      string `json:"payType"`
	RequestID    string `json:"requestId"`
	ResponseTime string `json:"responseTime"`
	ResultCode   string `json:"resultCode"`
	TransID      string `json:"transId"`
	Signature    string `json:"signature"`
}

// purchaseIntent travels through the gateway's opaque extraData field so
// the callback can be applied without a local order table.
type purchaseIntent struct {
	UserID string `json:"user_id"`
	PlanID string `json:"plan_id"`
}

// Gateway talks to the payment provider and applies confirmed purchases to
// the subscription meter.
type Gateway struct {
	httpClient *http.Client
	meter      *subscription.Meter
	cfg        Config
	log        *logger.Logger
}

// New creates a payment gateway client.
func New(cfg Config, meter *subscription.Meter, log *logger.Logger) *Gateway {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}

	return &Gateway{
		httpClient: &http.Client{Timeout: requestTimeout},
		meter:      meter,
		cfg:        cfg,
		log:        log,
	}
}

// PaymentRequest is the outcome of CreatePaymentRequest: the URL the user
// is redirected to and the order identifier to reconcile the callback with.
type PaymentRequest struct {
	PayURL  string
	OrderID string
}

// CreatePaymentRequest registers a plan purchase with the gateway and
// returns the redirect URL.
func (g *Gateway) CreatePaymentRequest(
	ctx context.Context,
	userID string,
	planID string,
	amount int64,
) (PaymentRequest, error) {
	if g.cfg.AccessKey == "" || g.cfg.SecretKey == "" {
		return PaymentRequest{}, fmt.Errorf("payment gateway credentials missing: %w", core.ErrNotConfigured)
	}

	orderID := uuid.NewString()
	requestID := uuid.NewString()
	orderInfo := fmt.Sprintf("Plan %s for user %s", planID, userID)

	extraData, err := encodeIntent(purchaseIntent{UserID: userID, PlanID: planID})
	if err != nil {
		return PaymentRequest{}, err
	}

	rawSignature := fmt.Sprintf(
		"partnerCode=%s&accessKey=%s&requestId=%s&amount=%d&orderId=%s&orderInfo=%s&returnUrl=%s&notifyUrl=%s&extraData=%s",
		g.cfg.PartnerCode, g.cfg.AccessKey, requestID, amount, orderID,
		orderInfo, g.cfg.ReturnURL, g.cfg.NotifyURL, extraData,
	)

	payload := map[string]string{
		"partnerCode": g.cfg.PartnerCode,
		"accessKey":   g.cfg.AccessKey,
		"requestId":   requestID,
		"amount":      fmt.Sprintf("%d", amount),
		"orderId":     orderID,
		"orderInfo":   orderInfo,
		"returnUrl":   g.cfg.ReturnURL,
		"notifyUrl":   g.cfg.NotifyURL,
		"extraData":   extraData,
		"requestType": defaultRequestType,
		"lang":        "vi",
		"signature":   signPayload(rawSignature, g.cfg.SecretKey),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return PaymentRequest{}, fmt.Errorf("failed to marshal payment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return PaymentRequest{}, fmt.Errorf("failed to create payment request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return PaymentRequest{}, fmt.Errorf("payment request failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed struct {
		PayURL  string `json:"payUrl"`
		Message string `json:"message"`
	}

	err = json.NewDecoder(resp.Body).Decode(&parsed)
	if err != nil {
		return PaymentRequest{}, fmt.Errorf("failed to decode payment response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || parsed.PayURL == "" {
		return PaymentRequest{}, fmt.Errorf(
			"payment gateway rejected the request (%s): %s: %w",
			resp.Status, parsed.Message, core.ErrProviderFailure,
		)
	}

	g.log.Info("Payment request created for user %s, plan %s, order %s", userID, planID, orderID)

	return PaymentRequest{PayURL: parsed.PayURL, OrderID: orderID}, nil
}

// HandleCallback verifies an IPN callback and, on a settled payment,
// applies the purchase it encodes. The returned message is suitable for
// relaying back to the gateway.
func (g *Gateway) HandleCallback(ctx context.Context, callback Callback) (string, error) {
	err := g.VerifyCallback(callback)
	if err != nil {
		return "", err
	}

	if callback.ResultCode != resultCodeSuccess {
		return "", fmt.Errorf(
			"payment for order %s failed with result code %s: %w",
			callback.OrderID, callback.ResultCode, core.ErrProviderFailure,
		)
	}

	intent, err := decodeIntent(callback.ExtraData)
	if err != nil {
		return "", err
	}

	message, err := g.meter.Purchase(ctx, intent.UserID, intent.PlanID)
	if err != nil {
		return "", fmt.Errorf("failed to apply purchase for order %s: %w", callback.OrderID, err)
	}

	g.log.Info("Order %s settled: user %s moved to plan %s", callback.OrderID, intent.UserID, intent.PlanID)

	return message, nil
}

// VerifyCallback recomputes the callback signature and compares it in
// constant time.
func (g *Gateway) VerifyCallback(callback Callback) error {
	expected := signPayload(callbackSignatureString(callback), g.cfg.SecretKey)

	if !hmac.Equal([]byte(expected), []byte(callback.Signature)) {
		return fmt.Errorf("callback for order %s: %w", callback.OrderID, core.ErrSignatureMismatch)
	}

	return nil
}

// callbackSignatureString joins the non-empty callback fields in the
// gateway's canonical order.
func callbackSignatureString(callback Callback) string {
	ordered := []struct {
		name  string
		value string
	}{
		{"accessKey", callback.AccessKey},
		{"amount", callback.Amount},
		{"extraData", callback.ExtraData},
		{"message", callback.Message},
		{"orderId", callback.OrderID},
		{"orderInfo", callback.OrderInfo},
		{"orderType", callback.OrderType},
		{"partnerCode", callback.PartnerCode},
		{"payType", callback.PayType},
		{"requestId", callback.RequestID},
		{"responseTime", callback.ResponseTime},
		{"resultCode", callback.ResultCode},
		{"transId", callback.TransID},
	}

	parts := make([]string, 0, len(ordered))

	for _, field := range ordered {
		if field.value != "" {
			parts = append(parts, field.name+"="+field.value)
		}
	}

	return strings.Join(parts, "&")
}

func signPayload(message, secretKey string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(message))

	return hex.EncodeToString(mac.Sum(nil))
}

func encodeIntent(intent purchaseIntent) (string, error) {
	raw, err := json.Marshal(intent)
	if err != nil {
		return "", fmt.Errorf("failed to encode purchase intent: %w", err)
	}

	return base64.StdEncoding.EncodeToString(raw), nil
}

func decodeIntent(extraData string) (purchaseIntent, error) {
	raw, err := base64.StdEncoding.DecodeString(extraData)
	if err != nil {
		return purchaseIntent{}, fmt.Errorf("failed to decode purchase intent: %w", err)
	}

	var intent purchaseIntent

	err = json.Unmarshal(raw, &intent)
	if err != nil {
		return purchaseIntent{}, fmt.Errorf("failed to parse purchase intent: %w", err)
	}

	if intent.UserID == "" || intent.PlanID == "" {
		return purchaseIntent{}, fmt.Errorf("purchase intent missing user or plan: %w", core.ErrProviderFailure)
	}

	return intent, nil
}
