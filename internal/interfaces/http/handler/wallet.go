package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/memberportal/backend/internal/application/wallet"
	"github.com/memberportal/backend/internal/interfaces/http/dto"
)

// WalletHandler serves wallet balances and ledgers
type WalletHandler struct {
	BaseHandler
	walletService *wallet.Service
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(walletService *wallet.Service) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// ListTransactionsQuery filters a ledger listing
type ListTransactionsQuery struct {
	dto.PageQuery
	Type string `form:"type" binding:"omitempty,oneof=TOPUP PURCHASE REFUND ADJUSTMENT"`
}

// AdjustBalanceRequest is a manual correction. A negative amount debits.
type AdjustBalanceRequest struct {
	UserID string          `json:"user_id" binding:"required,uuid"`
	Amount decimal.Decimal `json:"amount"`
	Remark string          `json:"remark" binding:"required,max=255"`
}

// GetMine godoc
// @Summary      Wallet balance
// @Tags         wallet
// @Produce      json
// @Success      200 {object} dto.Response{data=wallet.WalletResponse}
// @Security     BearerAuth
// @Router       /wallet [get]
func (h *WalletHandler) GetMine(c *gin.Context) {
	h.get(c, userID(c))
}

// ListMyTransactions godoc
// @Summary      Wallet ledger
// @Tags         wallet
// @Produce      json
// @Param        type query string false "TOPUP, PURCHASE, REFUND or ADJUSTMENT"
// @Success      200 {object} dto.Response{data=[]wallet.TransactionResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /wallet/transactions [get]
func (h *WalletHandler) ListMyTransactions(c *gin.Context) {
	h.listTransactions(c, userID(c))
}

// GetForUser returns a member's wallet
func (h *WalletHandler) GetForUser(c *gin.Context) {
	id, ok := h.ParamUUID(c, "userId")
	if !ok {
		return
	}
	h.get(c, id)
}

// ListForUser returns a member's ledger
func (h *WalletHandler) ListForUser(c *gin.Context) {
	id, ok := h.ParamUUID(c, "userId")
	if !ok {
		return
	}
	h.listTransactions(c, id)
}

// Adjust applies a signed manual correction to a member's balance
func (h *WalletHandler) Adjust(c *gin.Context) {
	var req AdjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.walletService.AdjustBalance(c.Request.Context(), tenantID(c), userID(c), wallet.AdjustInput{
		UserID: uuid.MustParse(req.UserID),
		Amount: req.Amount,
		Remark: req.Remark,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

func (h *WalletHandler) get(c *gin.Context, owner uuid.UUID) {
	w, err := h.walletService.GetWallet(c.Request.Context(), tenantID(c), owner)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, w)
}

func (h *WalletHandler) listTransactions(c *gin.Context, owner uuid.UUID) {
	var q ListTransactionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.walletService.ListTransactions(c.Request.Context(), tenantID(c), owner, wallet.ListTransactionsInput{
		Type:     q.Type,
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}
