package payment

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
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/memberportal/backend/internal/domain/payment"
	"github.com/memberportal/backend/internal/infrastructure/config"
	"github.com/memberportal/backend/internal/infrastructure/retry"
)

const (
	tripayChannelsPath = "/merchant/payment-channel"
	tripayFeePath      = "/merchant/fee-calculator"
	tripayCreatePath   = "/transaction/create"
	tripayDetailPath   = "/transaction/detail"

	// maxResponseBytes bounds what is read from the vendor
	maxResponseBytes = 1 << 20
)

// Configuration errors
var (
	ErrTripayMissingAPIKey       = errors.New("tripay: missing API key")
	ErrTripayMissingPrivateKey   = errors.New("tripay: missing private key")
	ErrTripayMissingMerchantCode = errors.New("tripay: missing merchant code")
	ErrTripayInvalidBaseURL      = errors.New("tripay: base URL must be an absolute http(s) URL")
)

// ValidateTripayConfig checks what the adapter needs to talk to Tripay
func ValidateTripayConfig(cfg config.TripayConfig) error {
	if cfg.APIKey == "" {
		return ErrTripayMissingAPIKey
	}
	if cfg.PrivateKey == "" {
		return ErrTripayMissingPrivateKey
	}
	if cfg.MerchantCode == "" {
		return ErrTripayMissingMerchantCode
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrTripayInvalidBaseURL
	}
	return nil
}

// TripayAdapter implements payment.Gateway against the Tripay merchant API.
// Reads are retried per the configured policy when the failure is retryable.
// Creating a transaction is only repeated after RATE_LIMIT.
type TripayAdapter struct {
	cfg        config.TripayConfig
	baseURL    string
	httpClient *http.Client
	policy     retry.Policy
	logger     *zap.Logger
}

// TripayOption configures a TripayAdapter
type TripayOption func(*TripayAdapter)

// WithHTTPClient replaces the default client, for tracing transports or tests
func WithHTTPClient(c *http.Client) TripayOption {
	return func(a *TripayAdapter) { a.httpClient = c }
}

// WithRetryPolicy overrides the policy derived from config
func WithRetryPolicy(p retry.Policy) TripayOption {
	return func(a *TripayAdapter) { a.policy = p }
}

// WithTripayLogger sets the logger used for retry warnings
func WithTripayLogger(l *zap.Logger) TripayOption {
	return func(a *TripayAdapter) { a.logger = l }
}

// NewTripayAdapter creates an adapter after validating cfg
func NewTripayAdapter(cfg config.TripayConfig, opts ...TripayOption) (*TripayAdapter, error) {
	if err := ValidateTripayConfig(cfg); err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	a := &TripayAdapter{
		cfg:        cfg,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		policy: retry.Policy{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
			MaxDelay:    cfg.RetryMaxDelay,
			Jitter:      true,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// ListChannels returns the merchant's payment channels. Tripay sends fee
// percentages sometimes as numbers and sometimes as strings, so the list is read with gjson.
func (a *TripayAdapter) ListChannels(ctx context.Context) ([]payment.Channel, error) {
	body, err := a.call(ctx, "payment channels", http.MethodGet, tripayChannelsPath, nil, nil, true)
	if err != nil {
		return nil, err
	}
	channels := make([]payment.Channel, 0)
	gjson.GetBytes(body, "data").ForEach(func(_, ch gjson.Result) bool {
		channels = append(channels, payment.Channel{
			Group:      ch.Get("group").String(),
			Code:       ch.Get("code").String(),
			Name:       ch.Get("name").String(),
			Type:       ch.Get("type").String(),
			FeeFlat:    ch.Get("total_fee.flat").Int(),
			FeePercent: ch.Get("total_fee.percent").Float(),
			MinAmount:  ch.Get("minimum_amount").Int(),
			MaxAmount:  ch.Get("maximum_amount").Int(),
			IconURL:    ch.Get("icon_url").String(),
			Active:     ch.Get("active").Bool(),
		})
		return true
	})
	return channels, nil
}

// CalculateFee asks Tripay for the fee of amount; an empty method returns every channel
func (a *TripayAdapter) CalculateFee(ctx context.Context, amount int64, method string) ([]payment.Fee, error) {
	q := url.Values{}
	q.Set("amount", strconv.FormatInt(amount, 10))
	if method != "" {
		q.Set("code", method)
	}
	body, err := a.call(ctx, "fee calculator", http.MethodGet, tripayFeePath, q, nil, true)
	if err != nil {
		return nil, err
	}
	fees := make([]payment.Fee, 0)
	gjson.GetBytes(body, "data").ForEach(func(_, f gjson.Result) bool {
		fees = append(fees, payment.Fee{
			Code:        f.Get("code").String(),
			Name:        f.Get("name").String(),
			CustomerFee: f.Get("total_fee.customer").Int(),
			MerchantFee: f.Get("total_fee.merchant").Int(),
		})
		return true
	})
	return fees, nil
}

// CreateTransaction opens a closed-payment transaction
func (a *TripayAdapter) CreateTransaction(ctx context.Context, req payment.CreateRequest) (*payment.Checkout, error) {
	items := make([]tripayOrderItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = tripayOrderItem{SKU: it.SKU, Name: it.Name, Price: it.Price, Quantity: it.Quantity}
	}
	wire := tripayCreateRequest{
		Method:        req.Method,
		MerchantRef:   req.MerchantRef,
		Amount:        req.Amount,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		OrderItems:    items,
		ReturnURL:     a.cfg.ReturnURL,
		CallbackURL:   a.cfg.CallbackURL,
		Signature:     a.TransactionSignature(req.MerchantRef, req.Amount),
	}
	if !req.ExpiresAt.IsZero() {
		wire.ExpiredTime = req.ExpiresAt.Unix()
	}
	payload, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("tripay: encode create request: %w", err)
	}

	body, err := a.call(ctx, "create transaction", http.MethodPost, tripayCreatePath, nil, payload, false)
	if err != nil {
		return nil, err
	}
	var env tripayEnvelope[tripayTransaction]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &Error{Op: "create transaction", Kind: ErrorKindUnknown, Err: fmt.Errorf("decode response: %w", err)}
	}
	tx := env.Data
	checkout := &payment.Checkout{
		Reference:    tx.Reference,
		MerchantRef:  tx.MerchantRef,
		CheckoutURL:  tx.CheckoutURL,
		PayCode:      tx.PayCode,
		PayURL:       tx.PayURL,
		Amount:       tx.Amount,
		CustomerFee:  tx.FeeCustomer,
		Status:       tx.Status,
		Instructions: make([]payment.Instruction, len(tx.Instructions)),
	}
	if tx.ExpiredTime > 0 {
		checkout.ExpiresAt = time.Unix(tx.ExpiredTime, 0)
	}
	for i, in := range tx.Instructions {
		checkout.Instructions[i] = payment.Instruction{Title: in.Title, Steps: in.Steps}
	}
	return checkout, nil
}

// TransactionDetail fetches the current status of a transaction
func (a *TripayAdapter) TransactionDetail(ctx context.Context, reference string) (*payment.TransactionDetail, error) {
	q := url.Values{}
	q.Set("reference", reference)
	body, err := a.call(ctx, "transaction detail", http.MethodGet, tripayDetailPath, q, nil, true)
	if err != nil {
		return nil, err
	}
	var env tripayEnvelope[tripayTransaction]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &Error{Op: "transaction detail", Kind: ErrorKindUnknown, Err: fmt.Errorf("decode response: %w", err)}
	}
	return &payment.TransactionDetail{
		Reference:      env.Data.Reference,
		MerchantRef:    env.Data.MerchantRef,
		Status:         env.Data.Status,
		AmountReceived: env.Data.AmountReceived,
		PaidAt:         unixPtr(env.Data.PaidAt),
	}, nil
}

// ParseCallback verifies X-Callback-Signature (HMAC-SHA256 of the raw body
// with the private key) in constant time and decodes the notification.
func (a *TripayAdapter) ParseCallback(body []byte, signature string) (*payment.Callback, error) {
	expected := a.sign(body)
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || !hmac.Equal(expected, got) {
		return nil, payment.ErrInvalidSignature
	}
	var cb tripayCallback
	if err := json.Unmarshal(body, &cb); err != nil {
		return nil, fmt.Errorf("tripay: decode callback: %w", err)
	}
	if cb.Reference == "" || cb.MerchantRef == "" || cb.Status == "" {
		return nil, fmt.Errorf("tripay: callback is missing reference, merchant_ref or status")
	}
	return &payment.Callback{
		Reference:      cb.Reference,
		MerchantRef:    cb.MerchantRef,
		Status:         cb.Status,
		AmountReceived: cb.AmountReceived,
		PaidAt:         unixPtr(cb.PaidAt),
	}, nil
}

// TransactionSignature is hex HMAC-SHA256(merchantCode + merchantRef + amount, privateKey)
func (a *TripayAdapter) TransactionSignature(merchantRef string, amount int64) string {
	return hex.EncodeToString(a.sign([]byte(a.cfg.MerchantCode + merchantRef + strconv.FormatInt(amount, 10))))
}

func (a *TripayAdapter) sign(data []byte) []byte {
	mac := hmac.New(sha256.New, []byte(a.cfg.PrivateKey))
	mac.Write(data)
	return mac.Sum(nil)
}

// call performs one logical request with retries and returns the raw body of
// a successful response. A request that is not idempotent is never replayed
// after a failure Tripay may already have acted on.
func (a *TripayAdapter) call(ctx context.Context, op, method, path string, query url.Values, payload []byte, idempotent bool) ([]byte, error) {
	policy := a.policy
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		a.logger.Warn("tripay call failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
	}
	return retry.Do(ctx, policy, func(ctx context.Context) ([]byte, error) {
		body, err := a.doRequest(ctx, op, method, path, query, payload)
		if e, ok := AsError(err); ok && !idempotent {
			e.replayUnsafe = true
		}
		return body, err
	})
}

func (a *TripayAdapter) doRequest(ctx context.Context, op, method, path string, query url.Values, payload []byte) ([]byte, error) {
	target := a.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, &Error{Op: op, Kind: ErrorKindUnknown, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, classifyTransport(op, err)
	}
	if e := classifyResponse(op, resp.StatusCode, resp.Header, body); e != nil {
		return nil, e
	}
	return body, nil
}

func unixPtr(v *int64) *time.Time {
	if v == nil || *v <= 0 {
		return nil
	}
	t := time.Unix(*v, 0)
	return &t
}

var _ payment.Gateway = (*TripayAdapter)(nil)
