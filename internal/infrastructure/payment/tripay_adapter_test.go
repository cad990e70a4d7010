package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memberportal/backend/internal/domain/payment"
	"github.com/memberportal/backend/internal/infrastructure/config"
	"github.com/memberportal/backend/internal/infrastructure/retry"
)

func testTripayConfig(baseURL string) config.TripayConfig {
	return config.TripayConfig{
		Sandbox:      true,
		BaseURL:      baseURL,
		APIKey:       "DEV-key",
		PrivateKey:   "private-key",
		MerchantCode: "T0001",
		CallbackURL:  "https://portal.example.com/api/v1/payments/callback",
		ReturnURL:    "https://portal.example.com/wallet",
		Timeout:      5 * time.Second,
	}
}

func newTestAdapter(t *testing.T, h http.HandlerFunc) *TripayAdapter {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	a, err := NewTripayAdapter(testTripayConfig(srv.URL),
		WithHTTPClient(srv.Client()),
		WithRetryPolicy(retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}),
	)
	require.NoError(t, err)
	return a
}

func hmacHex(key, data string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestValidateTripayConfig(t *testing.T) {
	valid := testTripayConfig("https://tripay.co.id/api-sandbox")
	require.NoError(t, ValidateTripayConfig(valid))

	c := valid
	c.APIKey = ""
	assert.ErrorIs(t, ValidateTripayConfig(c), ErrTripayMissingAPIKey)

	c = valid
	c.PrivateKey = ""
	assert.ErrorIs(t, ValidateTripayConfig(c), ErrTripayMissingPrivateKey)

	c = valid
	c.MerchantCode = ""
	assert.ErrorIs(t, ValidateTripayConfig(c), ErrTripayMissingMerchantCode)

	c = valid
	c.BaseURL = "tripay.co.id"
	assert.ErrorIs(t, ValidateTripayConfig(c), ErrTripayInvalidBaseURL)

	_, err := NewTripayAdapter(config.TripayConfig{})
	assert.Error(t, err)
}

func TestTripayAdapter_ListChannels(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/merchant/payment-channel", r.URL.Path)
		assert.Equal(t, "Bearer DEV-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"message":"Success","data":[
			{"group":"Virtual Account","code":"BRIVA","name":"BRI Virtual Account","type":"DIRECT",
			 "total_fee":{"flat":4250,"percent":"0.00"},"minimum_amount":10000,"maximum_amount":5000000,
			 "icon_url":"https://tripay.co.id/images/briva.png","active":true},
			{"group":"E-Wallet","code":"QRIS","name":"QRIS","type":"DIRECT",
			 "total_fee":{"flat":750,"percent":0.7},"minimum_amount":1000,"maximum_amount":5000000,
			 "icon_url":"","active":false}
		]}`)
	})

	channels, err := a.ListChannels(context.Background())
	require.NoError(t, err)
	require.Len(t, channels, 2)
	assert.Equal(t, payment.Channel{
		Group: "Virtual Account", Code: "BRIVA", Name: "BRI Virtual Account", Type: "DIRECT",
		FeeFlat: 4250, FeePercent: 0, MinAmount: 10000, MaxAmount: 5000000,
		IconURL: "https://tripay.co.id/images/briva.png", Active: true,
	}, channels[0])
	assert.Equal(t, "QRIS", channels[1].Code)
	assert.InDelta(t, 0.7, channels[1].FeePercent, 1e-9)
	assert.False(t, channels[1].Active)
}

func TestTripayAdapter_CalculateFee(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/merchant/fee-calculator", r.URL.Path)
		assert.Equal(t, "50000", r.URL.Query().Get("amount"))
		assert.Equal(t, "BRIVA", r.URL.Query().Get("code"))
		_, _ = io.WriteString(w, `{"success":true,"data":[{"code":"BRIVA","name":"BRI Virtual Account","total_fee":{"merchant":0,"customer":4250}}]}`)
	})

	fees, err := a.CalculateFee(context.Background(), 50000, "BRIVA")
	require.NoError(t, err)
	assert.Equal(t, []payment.Fee{{Code: "BRIVA", Name: "BRI Virtual Account", CustomerFee: 4250}}, fees)
}

func TestTripayAdapter_CreateTransaction(t *testing.T) {
	expires := time.Unix(1760700000, 0)
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/create", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "BRIVA", body["method"])
		assert.Equal(t, "TOPUP-ABC", body["merchant_ref"])
		assert.EqualValues(t, 50000, body["amount"])
		assert.EqualValues(t, expires.Unix(), body["expired_time"])
		assert.Equal(t, "https://portal.example.com/api/v1/payments/callback", body["callback_url"])
		assert.Equal(t, hmacHex("private-key", "T0001TOPUP-ABC50000"), body["signature"])

		_, _ = io.WriteString(w, `{"success":true,"message":"","data":{
			"reference":"DEV-T0001123","merchant_ref":"TOPUP-ABC","amount":54250,"fee_customer":4250,
			"pay_code":"57585748548596587","checkout_url":"https://tripay.co.id/checkout/DEV-T0001123",
			"status":"UNPAID","expired_time":1760700000,
			"instructions":[{"title":"ATM BRI","steps":["Insert card","Enter PIN"]}]}}`)
	})

	checkout, err := a.CreateTransaction(context.Background(), payment.CreateRequest{
		Method:        "BRIVA",
		MerchantRef:   "TOPUP-ABC",
		Amount:        50000,
		CustomerName:  "alice",
		CustomerEmail: "alice@example.com",
		Items:         []payment.OrderItem{{SKU: "TOPUP", Name: "Wallet top-up", Price: 50000, Quantity: 1}},
		ExpiresAt:     expires,
	})
	require.NoError(t, err)
	assert.Equal(t, "DEV-T0001123", checkout.Reference)
	assert.Equal(t, "57585748548596587", checkout.PayCode)
	assert.Equal(t, int64(4250), checkout.CustomerFee)
	assert.Equal(t, "UNPAID", checkout.Status)
	assert.True(t, checkout.ExpiresAt.Equal(expires))
	require.Len(t, checkout.Instructions, 1)
	assert.Equal(t, []string{"Insert card", "Enter PIN"}, checkout.Instructions[0].Steps)
}

func TestTripayAdapter_TransactionDetail(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "DEV-T0001123", r.URL.Query().Get("reference"))
		_, _ = io.WriteString(w, `{"success":true,"data":{"reference":"DEV-T0001123","merchant_ref":"TOPUP-ABC","status":"PAID","amount_received":50000,"paid_at":1760690000}}`)
	})

	detail, err := a.TransactionDetail(context.Background(), "DEV-T0001123")
	require.NoError(t, err)
	assert.Equal(t, "PAID", detail.Status)
	assert.Equal(t, int64(50000), detail.AmountReceived)
	require.NotNil(t, detail.PaidAt)
	assert.Equal(t, int64(1760690000), detail.PaidAt.Unix())
}

func TestTripayAdapter_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"success":true,"data":{"reference":"R1","merchant_ref":"M1","status":"UNPAID"}}`)
	})

	detail, err := a.TransactionDetail(context.Background(), "R1")
	require.NoError(t, err)
	assert.Equal(t, "UNPAID", detail.Status)
	assert.Equal(t, int32(3), calls.Load())
}

func TestTripayAdapter_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := a.ListChannels(context.Background())
	require.Error(t, err)
	e, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorKindServer, e.Kind)
	assert.Equal(t, int32(3), calls.Load())
}

func TestTripayAdapter_DoesNotRetryValidation(t *testing.T) {
	var calls atomic.Int32
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, `{"success":false,"message":"Invalid payment method"}`)
	})

	_, err := a.CreateTransaction(context.Background(), payment.CreateRequest{Method: "NOPE", MerchantRef: "M", Amount: 10000})
	e, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorKindValidation, e.Kind)
	assert.Equal(t, "Invalid payment method", e.Message)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTripayAdapter_CreateIsNotReplayedAfterServerError(t *testing.T) {
	var calls atomic.Int32
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"success":false,"message":"Duplicate merchant_ref"}`)
	})

	_, err := a.CreateTransaction(context.Background(), payment.CreateRequest{Method: "QRIS", MerchantRef: "TOPUP-DUP", Amount: 10000})
	e, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorKindServer, e.Kind)
	assert.True(t, payment.MayHaveApplied(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestTripayAdapter_CreateRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = io.WriteString(w, `{"success":true,"data":{"reference":"R9","merchant_ref":"TOPUP-RL","status":"UNPAID"}}`)
	})

	checkout, err := a.CreateTransaction(context.Background(), payment.CreateRequest{Method: "QRIS", MerchantRef: "TOPUP-RL", Amount: 10000})
	require.NoError(t, err)
	assert.Equal(t, "R9", checkout.Reference)
	assert.Equal(t, int32(2), calls.Load())
}

func TestTripayAdapter_ParseCallback(t *testing.T) {
	a, err := NewTripayAdapter(testTripayConfig("https://tripay.co.id/api-sandbox"))
	require.NoError(t, err)

	body := []byte(`{"reference":"DEV-T0001123","merchant_ref":"TOPUP-ABC","payment_method_code":"BRIVA","total_amount":54250,"amount_received":50000,"is_closed_payment":true,"status":"PAID","paid_at":1760690000}`)
	sig := hmacHex("private-key", string(body))

	cb, err := a.ParseCallback(body, sig)
	require.NoError(t, err)
	assert.Equal(t, "TOPUP-ABC", cb.MerchantRef)
	assert.Equal(t, "PAID", cb.Status)
	assert.Equal(t, int64(50000), cb.AmountReceived)
	require.NotNil(t, cb.PaidAt)

	_, err = a.ParseCallback(body, hmacHex("wrong-key", string(body)))
	assert.True(t, errors.Is(err, payment.ErrInvalidSignature))

	_, err = a.ParseCallback(body, "not-hex")
	assert.ErrorIs(t, err, payment.ErrInvalidSignature)

	tampered := []byte(`{"reference":"DEV-T0001123","merchant_ref":"TOPUP-ABC","status":"PAID","amount_received":99999999}`)
	_, err = a.ParseCallback(tampered, sig)
	assert.ErrorIs(t, err, payment.ErrInvalidSignature)
}

func TestTripayAdapter_TransactionSignature(t *testing.T) {
	a, err := NewTripayAdapter(testTripayConfig("https://tripay.co.id/api-sandbox"))
	require.NoError(t, err)
	assert.Equal(t, hmacHex("private-key", "T0001INV-1100000"), a.TransactionSignature("INV-1", 100000))
}
