package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/highgoal215/cryptowallet_service/internal/domain/entities"
	"github.com/highgoal215/cryptowallet_service/pkg/logger"
	"github.com/highgoal215/cryptowallet_service/pkg/security"
)

// FundingHandlers handles the balance-moving operations of a session
type FundingHandlers struct {
	validator *validator.Validate
	logger    *logger.Logger
}

// NewFundingHandlers creates a new FundingHandlers instance
func NewFundingHandlers(logger *logger.Logger) *FundingHandlers {
	return &FundingHandlers{
		validator: validator.New(),
		logger:    logger,
	}
}

// Deposit handles POST /api/v1/deposits
// Logs a pending bank deposit tagged with the session reference code.
func (h *FundingHandlers) Deposit(c *gin.Context) {
	sess, ok := requireSession(c, h.logger)
	if !ok {
		return
	}

	var req entities.DepositRequest
	if !bindJSON(c, h.validator, h.logger, &req) {
		return
	}

	res, err := sess.Deposit(c.Request.Context(), req.Amount)
	if err != nil {
		h.logger.Warn("Deposit failed",
			zap.Error(err),
			zap.String("session_id", sess.ID()),
			zap.String("amount", req.Amount.String()))
		SendDomainError(c, err)
		return
	}

	SendAccepted(c, res)
}

// Withdraw handles POST /api/v1/withdrawals
func (h *FundingHandlers) Withdraw(c *gin.Context) {
	sess, ok := requireSession(c, h.logger)
	if !ok {
		return
	}

	var req entities.WithdrawRequest
	if !bindJSON(c, h.validator, h.logger, &req) {
		return
	}
	asset, ok := parseAsset(c, "type", req.AssetType)
	if !ok {
		return
	}

	res, err := sess.Withdraw(c.Request.Context(), asset, req.Amount, req.Address)
	if err != nil {
		h.logger.Warn("Withdrawal failed",
			zap.Error(err),
			zap.String("session_id", sess.ID()),
			zap.String("asset", asset.String()),
			zap.String("amount", req.Amount.String()),
			zap.String("address", security.MaskAddress(req.Address)))
		SendDomainError(c, err)
		return
	}

	SendAccepted(c, res)
}

// Transfer handles POST /api/v1/transfers
func (h *FundingHandlers) Transfer(c *gin.Context) {
	sess, ok := requireSession(c, h.logger)
	if !ok {
		return
	}

	var req entities.TransferRequest
	if !bindJSON(c, h.validator, h.logger, &req) {
		return
	}

	res, err := sess.Transfer(c.Request.Context(), req.FromAddress, req.ToAddress, req.Amount)
	if err != nil {
		h.logger.Warn("Transfer failed",
			zap.Error(err),
			zap.String("session_id", sess.ID()),
			zap.String("from", security.MaskAddress(req.FromAddress)),
			zap.String("to", security.MaskAddress(req.ToAddress)))
		SendDomainError(c, err)
		return
	}

	SendSuccess(c, res)
}

// Swap handles POST /api/v1/swaps
func (h *FundingHandlers) Swap(c *gin.Context) {
	sess, ok := requireSession(c, h.logger)
	if !ok {
		return
	}

	var req entities.SwapRequest
	if !bindJSON(c, h.validator, h.logger, &req) {
		return
	}
	from, ok := parseAsset(c, "fromCurrency", req.FromAsset)
	if !ok {
		return
	}
	to, ok := parseAsset(c, "toCurrency", req.ToAsset)
	if !ok {
		return
	}

	res, err := sess.Swap(c.Request.Context(), from, to, req.Amount)
	if err != nil {
		h.logger.Warn("Swap failed",
			zap.Error(err),
			zap.String("session_id", sess.ID()),
			zap.String("from", from.String()),
			zap.String("to", to.String()))
		SendDomainError(c, err)
		return
	}

	SendSuccess(c, res)
}

// Buy handles POST /api/v1/buys
func (h *FundingHandlers) Buy(c *gin.Context) {
	sess, ok := requireSession(c, h.logger)
	if !ok {
		return
	}

	var req entities.BuyRequest
	if !bindJSON(c, h.validator, h.logger, &req) {
		return
	}
	asset, ok := parseAsset(c, "type", req.AssetType)
	if !ok {
		return
	}

	res, err := sess.Buy(c.Request.Context(), asset, req.Amount)
	if err != nil {
		h.logger.Warn("Purchase failed",
			zap.Error(err),
			zap.String("session_id", sess.ID()),
			zap.String("asset", asset.String()))
		SendDomainError(c, err)
		return
	}

	SendSuccess(c, res)
}
