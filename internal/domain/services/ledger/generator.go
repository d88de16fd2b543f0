package ledger

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/highgoal215/cryptowallet_service/internal/domain/entities"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// Clock returns the current time. Tests inject a fixed clock.
type Clock func() time.Time

// SystemClock is the wall clock in UTC
func SystemClock() time.Time {
	return time.Now().UTC()
}

// AddressGenerator produces a fresh address for an asset
type AddressGenerator interface {
	Generate(asset entities.AssetType) (string, error)
}

// RandomAddressGenerator produces mock addresses: bc1-prefixed for BTC,
// 0x-prefixed for everything else, followed by 26 base36 characters.
type RandomAddressGenerator struct {
	rnd *lockedRand
}

// NewRandomAddressGenerator creates a generator. A zero seed draws from the runtime source.
func NewRandomAddressGenerator(seed uint64) *RandomAddressGenerator {
	return &RandomAddressGenerator{rnd: newLockedRand(seed)}
}

// Generate implements AddressGenerator
func (g *RandomAddressGenerator) Generate(asset entities.AssetType) (string, error) {
	prefix := "0x"
	if asset == entities.AssetBTC {
		prefix = "bc1"
	}
	return prefix + g.rnd.base36(26), nil
}

// lockedRand is a math/rand source shared by concurrent sessions
type lockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func newLockedRand(seed uint64) *lockedRand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &lockedRand{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (r *lockedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.IntN(n)
}

func (r *lockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Float64()
}

func (r *lockedRand) base36(n int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(base36[r.rnd.IntN(len(base36))])
	}
	return b.String()
}

// newID returns a time-ordered id so log entries sort by creation
func newID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}
