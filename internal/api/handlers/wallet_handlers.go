package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/highgoal215/cryptowallet_service/internal/domain/entities"
	"github.com/highgoal215/cryptowallet_service/pkg/logger"
	"github.com/highgoal215/cryptowallet_service/pkg/security"
)

// WalletHandlers handles the wallets of the caller's session
type WalletHandlers struct {
	validator *validator.Validate
	logger    *logger.Logger
}

// NewWalletHandlers creates a new WalletHandlers instance
func NewWalletHandlers(logger *logger.Logger) *WalletHandlers {
	return &WalletHandlers{
		validator: validator.New(),
		logger:    logger,
	}
}

// ListWallets handles GET /api/v1/wallets
func (h *WalletHandlers) ListWallets(c *gin.Context) {
	sess, ok := requireSession(c, h.logger)
	if !ok {
		return
	}

	SendSuccess(c, entities.WalletsResponse{
		Wallets:         sess.Wallets(),
		TotalBalanceUSD: sess.TotalBalanceUSD(),
		Pending:         sess.Pending(),
	})
}

// CreateWallet handles POST /api/v1/wallets
func (h *WalletHandlers) CreateWallet(c *gin.Context) {
	sess, ok := requireSession(c, h.logger)
	if !ok {
		return
	}

	var req entities.CreateWalletRequest
	if !bindJSON(c, h.validator, h.logger, &req) {
		return
	}
	asset, ok := parseAsset(c, "type", req.AssetType)
	if !ok {
		return
	}

	res, err := sess.CreateWallet(c.Request.Context(), asset, req.Name, req.Address, req.InitialBalance)
	if err != nil {
		h.logger.Warn("Wallet creation failed",
			zap.Error(err),
			zap.String("session_id", sess.ID()),
			zap.String("asset", asset.String()))
		SendDomainError(c, err)
		return
	}

	SendCreated(c, res)
}

// ImportWallet handles POST /api/v1/wallets/import
func (h *WalletHandlers) ImportWallet(c *gin.Context) {
	sess, ok := requireSession(c, h.logger)
	if !ok {
		return
	}

	var req entities.ImportWalletRequest
	if !bindJSON(c, h.validator, h.logger, &req) {
		return
	}
	asset, ok := parseAsset(c, "type", req.AssetType)
	if !ok {
		return
	}

	res, err := sess.ImportWallet(c.Request.Context(), req.Address, req.Name, asset, req.Balance)
	if err != nil {
		h.logger.Warn("Wallet import failed", zap.Error(err), zap.String("session_id", sess.ID()))
		SendDomainError(c, err)
		return
	}

	SendCreated(c, res)
}

// ImportWalletKey handles POST /api/v1/wallets/import-key
func (h *WalletHandlers) ImportWalletKey(c *gin.Context) {
	sess, ok := requireSession(c, h.logger)
	if !ok {
		return
	}

	var req entities.ImportKeyRequest
	if !bindJSON(c, h.validator, h.logger, &req) {
		return
	}
	asset, ok := parseAsset(c, "type", req.AssetType)
	if !ok {
		return
	}

	res, err := sess.ImportWalletFromKey(c.Request.Context(), req.PrivateKey, req.Name, asset)
	if err != nil {
		h.logger.Warn("Wallet key import failed",
			zap.String("error", security.MaskString(err.Error())),
			zap.String("session_id", sess.ID()),
			zap.String("private_key", security.MaskSecret(req.PrivateKey)))
		SendDomainError(c, err)
		return
	}

	SendCreated(c, res)
}

// SyncWallets handles POST /api/v1/wallets/sync
func (h *WalletHandlers) SyncWallets(c *gin.Context) {
	sess, ok := requireSession(c, h.logger)
	if !ok {
		return
	}

	res, err := sess.SyncWallets(c.Request.Context())
	if err != nil {
		h.logger.Warn("Wallet sync failed", zap.Error(err), zap.String("session_id", sess.ID()))
		SendDomainError(c, err)
		return
	}

	SendSuccess(c, res)
}

// RefreshWallets handles POST /api/v1/wallets/refresh
func (h *WalletHandlers) RefreshWallets(c *gin.Context) {
	sess, ok := requireSession(c, h.logger)
	if !ok {
		return
	}

	if _, err := sess.Refresh(c.Request.Context()); err != nil {
		h.logger.Warn("Wallet refresh failed", zap.Error(err), zap.String("session_id", sess.ID()))
		SendDomainError(c, err)
		return
	}

	SendSuccess(c, entities.WalletsResponse{
		Wallets:         sess.Wallets(),
		TotalBalanceUSD: sess.TotalBalanceUSD(),
		Pending:         sess.Pending(),
	})
}

// GetBankDetails handles GET /api/v1/bank-details
func (h *WalletHandlers) GetBankDetails(c *gin.Context) {
	sess, ok := requireSession(c, h.logger)
	if !ok {
		return
	}
	SendSuccess(c, sess.BankDetails())
}
