package ledger

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/highgoal215/cryptowallet_service/internal/domain/entities"
)

var (
	historyAssets   = []entities.AssetType{entities.AssetBTC, entities.AssetETH, entities.AssetTRX}
	historyKinds    = []entities.TransactionKind{entities.TransactionKindDeposit, entities.TransactionKindWithdrawal, entities.TransactionKindSwap}
	historyStatuses = []entities.TransactionStatus{
		entities.TransactionStatusCompleted,
		entities.TransactionStatusCompleted,
		entities.TransactionStatusCompleted,
		entities.TransactionStatusPending,
	}
)

// HistorySeeder produces mock activity for a freshly logged-in user
type HistorySeeder struct {
	rnd       *lockedRand
	addresses AddressGenerator
}

// NewHistorySeeder creates a seeder. A zero seed draws from the runtime source.
func NewHistorySeeder(seed uint64, addresses AddressGenerator) *HistorySeeder {
	return &HistorySeeder{rnd: newLockedRand(seed), addresses: addresses}
}

// Generate returns between zero and three transactions for each of the seven
// days before now, oldest first. Every timestamp is strictly before now.
func (h *HistorySeeder) Generate(now time.Time) []entities.Transaction {
	var out []entities.Transaction
	for day := 0; day < 7; day++ {
		count := h.rnd.IntN(4)
		for i := 0; i < count; i++ {
			out = append(out, h.one(now, day))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func (h *HistorySeeder) one(now time.Time, daysAgo int) entities.Transaction {
	// at least one minute in the past so seeded entries never outrank live ones
	offset := time.Duration(daysAgo)*24*time.Hour +
		time.Duration(h.rnd.IntN(24))*time.Hour +
		time.Duration(1+h.rnd.IntN(59))*time.Minute

	amount := decimal.NewFromFloat(h.rnd.Float64() * 2).Round(6)
	if !amount.IsPositive() {
		amount = decimal.New(1, -6)
	}

	tx := entities.Transaction{
		ID:        newID(),
		Kind:      historyKinds[h.rnd.IntN(len(historyKinds))],
		Status:    historyStatuses[h.rnd.IntN(len(historyStatuses))],
		Amount:    amount,
		AssetType: historyAssets[h.rnd.IntN(len(historyAssets))],
		Timestamp: now.Add(-offset),
	}

	switch tx.Kind {
	case entities.TransactionKindSwap:
		tx.FromAsset = tx.AssetType
		tx.ToAsset = historyAssets[(indexOfAsset(tx.AssetType)+1+h.rnd.IntN(len(historyAssets)-1))%len(historyAssets)]
	case entities.TransactionKindWithdrawal:
		if h.addresses != nil && h.rnd.IntN(2) == 0 {
			if addr, err := h.addresses.Generate(entities.AssetETH); err == nil {
				tx.DestinationAddress = addr
			}
		}
	case entities.TransactionKindDeposit:
		if h.rnd.IntN(2) == 0 {
			tx.ReferenceCode = ReferenceCodePrefix + strings.ToUpper(h.rnd.base36(6))
		}
	}
	return tx
}

func indexOfAsset(asset entities.AssetType) int {
	for i, a := range historyAssets {
		if a == asset {
			return i
		}
	}
	return 0
}
