package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	paymentapp "github.com/memberportal/backend/internal/application/payment"
	"github.com/memberportal/backend/internal/domain/identity"
	"github.com/memberportal/backend/internal/domain/payment"
	"github.com/memberportal/backend/internal/infrastructure/cache"
	paymentinfra "github.com/memberportal/backend/internal/infrastructure/payment"
	"github.com/memberportal/backend/internal/infrastructure/persistence"
	"github.com/memberportal/backend/internal/infrastructure/persistence/testdb"
	"github.com/memberportal/backend/internal/interfaces/http/dto"
)

// stubGateway accepts the signature "ok" and decodes callbacks as plain JSON
type stubGateway struct {
	channelsErr error
	invalidated int
}

func (g *stubGateway) InvalidateChannels(context.Context) error {
	g.invalidated++
	return nil
}

func (g *stubGateway) ListChannels(context.Context) ([]payment.Channel, error) {
	if g.channelsErr != nil {
		return nil, g.channelsErr
	}
	return []payment.Channel{
		{Code: "QRIS", Name: "QRIS", Active: true},
		{Code: "OVO", Name: "OVO", Active: false},
	}, nil
}

func (g *stubGateway) CalculateFee(_ context.Context, amount int64, method string) ([]payment.Fee, error) {
	return []payment.Fee{{Code: method, CustomerFee: amount / 100}}, nil
}

func (g *stubGateway) CreateTransaction(_ context.Context, req payment.CreateRequest) (*payment.Checkout, error) {
	return &payment.Checkout{
		Reference:   "T" + req.MerchantRef,
		MerchantRef: req.MerchantRef,
		CheckoutURL: "https://tripay.test/checkout/" + req.MerchantRef,
		Amount:      req.Amount,
		Status:      "UNPAID",
	}, nil
}

func (g *stubGateway) TransactionDetail(_ context.Context, reference string) (*payment.TransactionDetail, error) {
	return &payment.TransactionDetail{Reference: reference, Status: "UNPAID"}, nil
}

func (g *stubGateway) ParseCallback(body []byte, signature string) (*payment.Callback, error) {
	if signature != "ok" {
		return nil, payment.ErrInvalidSignature
	}
	var cb payment.Callback
	if err := json.Unmarshal(body, &cb); err != nil {
		return nil, err
	}
	return &cb, nil
}

type checkout struct {
	tenantID uuid.UUID
	userID   uuid.UUID
	gateway  *stubGateway
	engine   *gin.Engine
}

func newCheckout(t *testing.T) *checkout {
	t.Helper()
	db := testdb.New(t)
	ctx := context.Background()
	tenantID := uuid.New()

	users := persistence.NewGormUserRepository(db)
	u, err := identity.NewMember(tenantID, "payer@example.com", "payer", "password123")
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, u))

	idem := cache.NewInMemoryIdempotencyStore(time.Minute)
	t.Cleanup(func() { _ = idem.Close() })

	gw := &stubGateway{}
	h := NewPaymentHandler(paymentapp.NewService(
		persistence.NewGormTransactionScope(db),
		persistence.NewGormTopUpRepository(db),
		users,
		gw,
		idem,
		nopPublisher{},
		paymentapp.Config{MinAmount: 10000, MaxAmount: 1000000, Expiry: time.Hour, IdempotencyTTL: time.Hour},
		zap.NewNop(),
	))

	r := newEngine()
	r.POST("/payments/tripay/callback", h.Callback)
	r.GET("/payments/channels", h.Channels)
	r.POST("/admin/payments/channels/refresh", h.RefreshChannels)
	member := r.Group("/", as(tenantID, u.ID))
	member.POST("/topups", h.CreateTopUp)
	member.GET("/topups/:id", h.GetMine)
	member.GET("/fee", h.Fee)

	return &checkout{tenantID: tenantID, userID: u.ID, gateway: gw, engine: r}
}

func (c *checkout) callback(t *testing.T, signature, event string, cb payment.Callback) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(cb)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/payments/tripay/callback", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(CallbackSignatureHeader, signature)
	req.Header.Set(CallbackEventHeader, event)
	w := httptest.NewRecorder()
	c.engine.ServeHTTP(w, req)
	return w
}

func TestPaymentHandler_CallbackCreditsTopUp(t *testing.T) {
	c := newCheckout(t)

	w := perform(t, c.engine, http.MethodPost, "/topups", gin.H{"amount": 50000, "method": "qris"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeData[paymentapp.CheckoutResponse](t, w)
	assert.Equal(t, "UNPAID", created.TopUp.Status)

	cb := payment.Callback{
		Reference:      created.TopUp.Reference,
		MerchantRef:    created.TopUp.MerchantRef,
		Status:         "PAID",
		AmountReceived: 49250,
	}

	w = c.callback(t, "bad", paymentapp.CallbackEventPaymentStatus, cb)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidSignature, decode(t, w).Error.Code)

	w = c.callback(t, "ok", "settlement", cb)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.callback(t, "ok", paymentapp.CallbackEventPaymentStatus, cb)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	// redelivery is acknowledged without a second credit
	w = c.callback(t, "ok", paymentapp.CallbackEventPaymentStatus, cb)
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(t, c.engine, http.MethodGet, "/topups/"+created.TopUp.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PAID", decodeData[paymentapp.TopUpResponse](t, w).Status)
}

func TestPaymentHandler_CreateTopUpValidation(t *testing.T) {
	c := newCheckout(t)

	w := perform(t, c.engine, http.MethodPost, "/topups", gin.H{"amount": 50000})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, decode(t, w).Error.Code)

	w = perform(t, c.engine, http.MethodPost, "/topups", gin.H{"amount": 500, "method": "QRIS"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ERR_INVALID_AMOUNT", decode(t, w).Error.Code)

	w = perform(t, c.engine, http.MethodGet, "/fee", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentHandler_ChannelsGatewayFailure(t *testing.T) {
	c := newCheckout(t)

	w := perform(t, c.engine, http.MethodGet, "/payments/channels", nil)
	require.Equal(t, http.StatusOK, w.Code)
	channels := decodeData[[]payment.Channel](t, w)
	require.Len(t, channels, 1)
	assert.Equal(t, "QRIS", channels[0].Code)

	c.gateway.channelsErr = &paymentinfra.Error{Kind: paymentinfra.ErrorKindRateLimit, Op: "channels", StatusCode: 429}
	w = perform(t, c.engine, http.MethodGet, "/payments/channels", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, dto.ErrCodePaymentUnavailable, decode(t, w).Error.Code)
}

func TestPaymentHandler_RefreshChannels(t *testing.T) {
	c := newCheckout(t)

	w := perform(t, c.engine, http.MethodPost, "/admin/payments/channels/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decodeData[[]payment.Channel](t, w), 1)
	assert.Equal(t, 1, c.gateway.invalidated)

	c.gateway.channelsErr = &paymentinfra.Error{Kind: paymentinfra.ErrorKindServer, Op: "channels", StatusCode: 502}
	w = perform(t, c.engine, http.MethodPost, "/admin/payments/channels/refresh", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, 2, c.gateway.invalidated)
}
