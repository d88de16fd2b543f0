// Package pricing provides the USD price oracle consumed by the ledger.
package pricing

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/highgoal215/cryptowallet_service/internal/domain/entities"
)

// PriceFeed returns a USD price for every supported asset
type PriceFeed interface {
	Prices(ctx context.Context) (entities.PriceTable, error)
}

// Quote is the base price of an asset and the width of its random jitter
type Quote struct {
	Base   decimal.Decimal
	Jitter decimal.Decimal
}

// DefaultQuotes are the mock market: BTC 55000 +[0,1000), ETH 3000 +[0,200),
// TRX and USDT pinned at 1.
func DefaultQuotes() map[entities.AssetType]Quote {
	return map[entities.AssetType]Quote{
		entities.AssetBTC:  {Base: decimal.NewFromInt(55000), Jitter: decimal.NewFromInt(1000)},
		entities.AssetETH:  {Base: decimal.NewFromInt(3000), Jitter: decimal.NewFromInt(200)},
		entities.AssetTRX:  {Base: decimal.NewFromInt(1), Jitter: decimal.Zero},
		entities.AssetUSDT: {Base: decimal.NewFromInt(1), Jitter: decimal.Zero},
	}
}

// ReferencePrices are the jitter-free base prices
func ReferencePrices() entities.PriceTable {
	table := entities.PriceTable{}
	for asset, q := range DefaultQuotes() {
		table[asset] = q.Base
	}
	return table
}

// MockFeed draws each price uniformly from [Base, Base+Jitter)
type MockFeed struct {
	quotes map[entities.AssetType]Quote

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewMockFeed creates a feed over DefaultQuotes. A zero seed draws from the runtime source.
func NewMockFeed(seed uint64) *MockFeed {
	return NewMockFeedWithQuotes(DefaultQuotes(), seed)
}

// NewMockFeedWithQuotes creates a feed over custom quotes
func NewMockFeedWithQuotes(quotes map[entities.AssetType]Quote, seed uint64) *MockFeed {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &MockFeed{
		quotes: quotes,
		rnd:    rand.New(rand.NewPCG(seed, seed>>1|1)),
	}
}

// Prices implements PriceFeed
func (f *MockFeed) Prices(ctx context.Context) (entities.PriceTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	table := make(entities.PriceTable, len(f.quotes))
	for asset, q := range f.quotes {
		price := q.Base
		if q.Jitter.IsPositive() {
			price = price.Add(q.Jitter.Mul(decimal.NewFromFloat(f.rnd.Float64()))).Round(2)
		}
		table[asset] = price
	}
	return table, nil
}

// StaticFeed always returns the same table
type StaticFeed struct {
	table entities.PriceTable
}

// NewStaticFeed creates a feed over table
func NewStaticFeed(table entities.PriceTable) *StaticFeed {
	return &StaticFeed{table: table.Clone()}
}

// Prices implements PriceFeed
func (f *StaticFeed) Prices(ctx context.Context) (entities.PriceTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.table.Clone(), nil
}

// CachedFeed reuses the last table fetched from an upstream feed for ttl
type CachedFeed struct {
	upstream PriceFeed
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu        sync.Mutex
	cached    entities.PriceTable
	fetchedAt time.Time
}

// NewCachedFeed wraps upstream. A non-positive ttl disables caching.
func NewCachedFeed(upstream PriceFeed, ttl time.Duration, logger *zap.Logger) *CachedFeed {
	return &CachedFeed{
		upstream: upstream,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// Prices implements PriceFeed
func (f *CachedFeed) Prices(ctx context.Context) (entities.PriceTable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cached != nil && f.ttl > 0 && f.now().Sub(f.fetchedAt) < f.ttl {
		return f.cached.Clone(), nil
	}

	table, err := f.upstream.Prices(ctx)
	if err != nil {
		return nil, fmt.Errorf("get prices: %w", err)
	}

	f.cached = table.Clone()
	f.fetchedAt = f.now()
	f.logger.Debug("Price table refreshed", zap.Int("assets", len(table)))
	return table, nil
}
