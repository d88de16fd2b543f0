package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/highgoal215/cryptowallet_service/internal/infrastructure/cache"
)

// DefaultTTL is how long a stored response is replayed
const DefaultTTL = 24 * time.Hour

// ReservationTTL bounds how long an in-flight key blocks retries if its request never completes
const ReservationTTL = 5 * time.Minute

const maxKeyLength = 255

// Record is a stored response for one idempotency key. A record with a zero
// ResponseStatus is a reservation held by a request still in flight.
type Record struct {
	RequestMethod  string    `json:"request_method"`
	RequestPath    string    `json:"request_path"`
	RequestHash    string    `json:"request_hash"`
	ResponseStatus int       `json:"response_status"`
	ResponseBody   []byte    `json:"response_body"`
	CreatedAt      time.Time `json:"created_at"`
}

// Pending reports whether the record is a reservation without a response yet
func (r *Record) Pending() bool {
	return r.ResponseStatus == 0
}

// Store persists records. Get returns nil, nil for an unknown key.
// Reserve stores rec only if the key is absent and reports whether it did.
type Store interface {
	Get(ctx context.Context, key string) (*Record, error)
	Put(ctx context.Context, key string, rec *Record, ttl time.Duration) error
	Reserve(ctx context.Context, key string, rec *Record, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// ValidateKey checks the client supplied key
func ValidateKey(key string) error {
	if key == "" {
		return errors.New("idempotency key is empty")
	}
	if len(key) > maxKeyLength {
		return fmt.Errorf("idempotency key exceeds %d characters", maxKeyLength)
	}
	for _, r := range key {
		if r < 0x21 || r > 0x7e {
			return errors.New("idempotency key must be printable ASCII without spaces")
		}
	}
	return nil
}

// ReadBody reads at most limit bytes
func ReadBody(body io.Reader, limit int64) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("request body exceeds %d bytes", limit)
	}
	return data, nil
}

// HashRequest fingerprints a request so a reused key with a different payload is detected
func HashRequest(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

type memoryEntry struct {
	rec       Record
	expiresAt time.Time
}

// MemoryStore keeps records in process memory
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get implements Store
func (m *MemoryStore) Get(_ context.Context, key string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	if m.now().After(entry.expiresAt) {
		delete(m.entries, key)
		return nil, nil
	}
	rec := entry.rec
	return &rec, nil
}

// Put implements Store
func (m *MemoryStore) Put(_ context.Context, key string, rec *Record, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry{rec: *rec, expiresAt: m.now().Add(ttl)}
	return nil
}

// Reserve implements Store
func (m *MemoryStore) Reserve(_ context.Context, key string, rec *Record, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.entries[key]; ok && !m.now().After(entry.expiresAt) {
		return false, nil
	}
	m.entries[key] = memoryEntry{rec: *rec, expiresAt: m.now().Add(ttl)}
	return true, nil
}

// Release implements Store
func (m *MemoryStore) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

// RedisStore keeps records in Redis under idempotency:<key>
type RedisStore struct {
	client cache.RedisClient
}

func NewRedisStore(client cache.RedisClient) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(key string) string { return "idempotency:" + key }

// Get implements Store
func (r *RedisStore) Get(ctx context.Context, key string) (*Record, error) {
	var rec Record
	if err := r.client.Get(ctx, redisKey(key), &rec); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("get idempotency record: %w", err)
	}
	return &rec, nil
}

// Put implements Store
func (r *RedisStore) Put(ctx context.Context, key string, rec *Record, ttl time.Duration) error {
	if err := r.client.Set(ctx, redisKey(key), rec, ttl); err != nil {
		return fmt.Errorf("store idempotency record: %w", err)
	}
	return nil
}

// Reserve implements Store with SETNX
func (r *RedisStore) Reserve(ctx context.Context, key string, rec *Record, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, redisKey(key), rec, ttl)
	if err != nil {
		return false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	return ok, nil
}

// Release implements Store
func (r *RedisStore) Release(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, redisKey(key)); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}
