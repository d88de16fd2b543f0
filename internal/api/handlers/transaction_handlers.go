package handlers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/highgoal215/cryptowallet_service/internal/domain/entities"
	"github.com/highgoal215/cryptowallet_service/pkg/logger"
)

const maxTransactionsLimit = 500

// TransactionHandlers exposes the session transaction log
type TransactionHandlers struct {
	validator *validator.Validate
	logger    *logger.Logger
}

// NewTransactionHandlers creates a new TransactionHandlers instance
func NewTransactionHandlers(logger *logger.Logger) *TransactionHandlers {
	return &TransactionHandlers{
		validator: validator.New(),
		logger:    logger,
	}
}

// transactionFilter narrows the log for display. The log itself is never filtered.
type transactionFilter struct {
	kind   entities.TransactionKind
	status entities.TransactionStatus
	asset  entities.AssetType
	since  time.Time
	until  time.Time
	limit  int
}

func (f transactionFilter) match(tx entities.Transaction) bool {
	if f.kind != "" && tx.Kind != f.kind {
		return false
	}
	if f.status != "" && tx.Status != f.status {
		return false
	}
	if f.asset != "" && tx.AssetType != f.asset && tx.ToAsset != f.asset {
		return false
	}
	if !f.since.IsZero() && tx.Timestamp.Before(f.since) {
		return false
	}
	if !f.until.IsZero() && tx.Timestamp.After(f.until) {
		return false
	}
	return true
}

// ListTransactions handles GET /api/v1/transactions
// Optional query: type, status, asset, since, until (RFC3339), limit.
func (h *TransactionHandlers) ListTransactions(c *gin.Context) {
	sess, ok := requireSession(c, h.logger)
	if !ok {
		return
	}

	filter, ok := h.parseFilter(c)
	if !ok {
		return
	}

	out := make([]entities.Transaction, 0)
	for _, tx := range sess.Transactions() {
		if !filter.match(tx) {
			continue
		}
		out = append(out, tx)
		if len(out) == filter.limit {
			break
		}
	}

	SendSuccess(c, entities.TransactionsResponse{Transactions: out, Count: len(out)})
}

func (h *TransactionHandlers) parseFilter(c *gin.Context) (transactionFilter, bool) {
	f := transactionFilter{
		kind:   entities.TransactionKind(strings.ToLower(c.Query("type"))),
		status: entities.TransactionStatus(strings.ToLower(c.Query("status"))),
		limit:  parseIntParam(c, "limit", 100),
	}
	if f.status != "" && !f.status.IsValid() {
		SendInvalidField(c, "status", "Unknown transaction status")
		return f, false
	}
	if raw := c.Query("asset"); raw != "" {
		asset, ok := parseAsset(c, "asset", raw)
		if !ok {
			return f, false
		}
		f.asset = asset
	}
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"since", &f.since}, {"until", &f.until}} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			SendInvalidField(c, p.name, "Timestamps must be RFC3339")
			return f, false
		}
		*p.dst = t
	}
	if f.limit <= 0 || f.limit > maxTransactionsLimit {
		f.limit = maxTransactionsLimit
	}
	return f, true
}

// SettleTransaction handles POST /api/v1/transactions/:id/settle
func (h *TransactionHandlers) SettleTransaction(c *gin.Context) {
	sess, ok := requireSession(c, h.logger)
	if !ok {
		return
	}

	id, err := parseUUID(c.Param("id"))
	if err != nil {
		SendBadRequest(c, ErrCodeInvalidID, "Invalid transaction ID")
		return
	}

	var req entities.SettleTransactionRequest
	if !bindJSON(c, h.validator, h.logger, &req) {
		return
	}

	res, err := sess.SettleTransaction(c.Request.Context(), id, entities.TransactionStatus(req.Status))
	if err != nil {
		h.logger.Warn("Transaction settlement failed",
			zap.Error(err),
			zap.String("session_id", sess.ID()),
			zap.String("transaction_id", id.String()))
		SendDomainError(c, err)
		return
	}

	SendSuccess(c, res)
}
