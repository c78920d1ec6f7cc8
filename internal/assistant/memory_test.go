package assistant

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_LazyCreate(t *testing.T) {
	s := NewMemoryStore(0)
	defer s.Close()
	ctx := context.Background()

	rec, err := s.Get(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, rec.Messages)

	err = s.Update(ctx, "alice", func(r *Record) error {
		r.Messages = append(r.Messages, Message{Role: RoleUser, Content: "hi"})
		return nil
	})
	require.NoError(t, err)

	rec, err = s.Get(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, rec.Messages, 1)
	assert.Equal(t, "hi", rec.Messages[0].Content)
	assert.False(t, rec.UpdatedAt.IsZero())
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	s := NewMemoryStore(0)
	defer s.Close()
	ctx := context.Background()

	err := s.Update(ctx, "alice", func(r *Record) error {
		r.Messages = append(r.Messages, Message{Role: RoleUser, Content: "original"})
		r.Preferences.Interests = []string{"brakes"}
		return nil
	})
	require.NoError(t, err)

	rec, err := s.Get(ctx, "alice")
	require.NoError(t, err)
	rec.Messages[0].Content = "mutated"
	rec.Preferences.Interests[0] = "mutated"

	again, err := s.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Messages[0].Content)
	assert.Equal(t, "brakes", again.Preferences.Interests[0])
}

func TestMemoryStore_ConcurrentUpdatesSameUser(t *testing.T) {
	s := NewMemoryStore(0)
	defer s.Close()
	ctx := context.Background()

	const turns = 50
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Update(ctx, "alice", func(r *Record) error {
				r.Messages = append(r.Messages,
					Message{Role: RoleUser, Content: fmt.Sprintf("turn %d", i)})
				return nil
			})
		}(i)
	}
	wg.Wait()

	rec, err := s.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, rec.Messages, turns, "no turn lost under concurrent updates")
}

func TestMemoryStore_NeverTruncatesMessages(t *testing.T) {
	s := NewMemoryStore(0)
	defer s.Close()
	ctx := context.Background()

	const appended = 120
	for i := 0; i < appended; i++ {
		err := s.Update(ctx, "alice", func(r *Record) error {
			r.Messages = append(r.Messages,
				Message{Role: RoleUser, Content: fmt.Sprintf("turn %d", i)})
			return nil
		})
		require.NoError(t, err)
	}

	// The stored record is append-only; only the prompt view is windowed.
	// Stale records are bounded by the TTL sweep, not by truncation.
	rec, err := s.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, rec.Messages, appended)
	assert.Equal(t, "turn 0", rec.Messages[0].Content)
}

func TestMemoryStore_Sweep(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	defer s.Close()
	ctx := context.Background()

	err := s.Update(ctx, "alice", func(r *Record) error { return nil })
	require.NoError(t, err)

	// Backdate the record past the TTL and sweep directly.
	s.mu.Lock()
	s.records["alice"].UpdatedAt = time.Now().Add(-2 * time.Hour)
	s.mu.Unlock()
	s.sweep()

	rec, err := s.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, rec.Messages)
	assert.True(t, rec.UpdatedAt.IsZero(), "record was evicted")
}

func TestMemoryStore_UpdateError(t *testing.T) {
	s := NewMemoryStore(0)
	defer s.Close()
	ctx := context.Background()

	wantErr := fmt.Errorf("boom")
	err := s.Update(ctx, "alice", func(r *Record) error { return wantErr })
	assert.ErrorIs(t, err, wantErr)
}
