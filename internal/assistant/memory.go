// Package assistant implements the conversational context engine behind the
// GearHive parts chat: preference extraction, query classification, proactive
// search planning, relevance scoring, and the orchestrator that ties them to
// the catalog, knowledge base, web search, and the language model.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gearhive/gearhive/internal/cache"
)

// Message roles in a conversation record.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Preferences is the per-user profile accumulated across turns. Experience
// is stored empty until a phrase sets it; serialize via ExperienceLevel so
// clients always see a level.
type Preferences struct {
	VehicleMake  string   `json:"vehicleMake,omitempty"`
	VehicleModel string   `json:"vehicleModel,omitempty"`
	VehicleYear  int      `json:"vehicleYear,omitempty"`
	Experience   string   `json:"experienceLevel,omitempty"`
	Interests    []string `json:"interests,omitempty"`
}

// Record is everything remembered about one user's conversation.
type Record struct {
	Messages      []Message   `json:"messages"`
	Preferences   Preferences `json:"preferences"`
	SearchHistory []string    `json:"searchHistory,omitempty"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// Store persists conversation records keyed by user ID.
//
// Update runs fn against the current record (a fresh zero record for a new
// user) and persists the result; the mutation is atomic with respect to other
// Update calls for the same user on the same store instance.
type Store interface {
	Get(ctx context.Context, userID string) (Record, error)
	Update(ctx context.Context, userID string, fn func(*Record) error) error
}

// MemoryStore is an in-process Store with TTL expiry. Suitable for a single
// API instance and for tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	ttl     time.Duration
	done    chan struct{}
	once    sync.Once
}

// NewMemoryStore creates an in-memory store. Records idle longer than ttl are
// swept by a background janitor; ttl <= 0 disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		records: make(map[string]*Record),
		ttl:     ttl,
		done:    make(chan struct{}),
	}
	if ttl > 0 {
		go s.janitor()
	}
	return s
}

// Get returns a copy of the user's record. Unknown users get a zero record.
func (s *MemoryStore) Get(_ context.Context, userID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[userID]
	if !ok {
		return Record{}, nil
	}
	return copyRecord(rec), nil
}

// Update applies fn to the user's record under the store lock.
func (s *MemoryStore) Update(_ context.Context, userID string, fn func(*Record) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		rec = &Record{}
		s.records[userID] = rec
	}

	if err := fn(rec); err != nil {
		return err
	}
	rec.UpdatedAt = time.Now()
	return nil
}

// Close stops the janitor.
func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

func (s *MemoryStore) janitor() {
	interval := s.ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.done:
			return
		}
	}
}

func (s *MemoryStore) sweep() {
	cutoff := time.Now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, rec := range s.records {
		if rec.UpdatedAt.Before(cutoff) {
			delete(s.records, userID)
		}
	}
}

func copyRecord(rec *Record) Record {
	out := *rec
	out.Messages = append([]Message(nil), rec.Messages...)
	out.SearchHistory = append([]string(nil), rec.SearchHistory...)
	out.Preferences.Interests = append([]string(nil), rec.Preferences.Interests...)
	return out
}

// RedisStore keeps conversation records in the shared cache so multiple API
// instances see the same history. Updates are read-modify-write per instance;
// a user talking to two instances at once may lose a turn, which the chat UI
// tolerates.
type RedisStore struct {
	cache cache.Client
	ttl   time.Duration
	mu    sync.Mutex
}

// NewRedisStore creates a cache-backed store.
func NewRedisStore(client cache.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{cache: client, ttl: ttl}
}

// Get loads the user's record from the cache.
func (s *RedisStore) Get(ctx context.Context, userID string) (Record, error) {
	data, err := s.cache.Get(ctx, recordKey(userID))
	if err == cache.ErrCacheMiss {
		return Record{}, nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("load conversation record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("unmarshal conversation record: %w", err)
	}
	return rec, nil
}

// Update applies fn to the stored record and writes it back.
func (s *RedisStore) Update(ctx context.Context, userID string, fn func(*Record) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}

	if err := fn(&rec); err != nil {
		return err
	}
	rec.UpdatedAt = time.Now()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal conversation record: %w", err)
	}
	if err := s.cache.Set(ctx, recordKey(userID), data, s.ttl); err != nil {
		return fmt.Errorf("store conversation record: %w", err)
	}
	return nil
}

func recordKey(userID string) string {
	return cache.Key("conversation", userID)
}
