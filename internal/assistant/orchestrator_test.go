package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gearhive/gearhive/internal/observability"
	"github.com/gearhive/gearhive/internal/storage"
	"github.com/gearhive/gearhive/internal/websearch"
)

type fakePartSearcher struct {
	parts []storage.Part
	calls int
	mu    sync.Mutex
}

func (f *fakePartSearcher) Search(_ context.Context, _ string, _ int) ([]storage.Part, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.parts, nil
}

type fakeKnowledgeSearcher struct {
	entries     []storage.KnowledgeEntry
	incremented []uuid.UUID
	mu          sync.Mutex
}

func (f *fakeKnowledgeSearcher) Search(_ context.Context, _ string, _ storage.KnowledgeQuery) ([]storage.KnowledgeEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries, nil
}

func (f *fakeKnowledgeSearcher) FindByVehicle(_ context.Context, _, _ string, _ int) ([]storage.KnowledgeEntry, error) {
	return nil, nil
}

func (f *fakeKnowledgeSearcher) IncrementUsage(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.incremented = append(f.incremented, id)
	return nil
}

type fakeWebSearcher struct {
	results []websearch.Result
	queries []string
	mu      sync.Mutex
}

func (f *fakeWebSearcher) Search(_ context.Context, query string, _ websearch.Options) ([]websearch.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return f.results, nil
}

type fakeCompleter struct {
	reply string
	err   error
	calls int
}

func (f *fakeCompleter) Complete(_ context.Context, _, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newTestOrchestrator(parts *fakePartSearcher, kb *fakeKnowledgeSearcher, web WebSearcher, llm Completer) (*Orchestrator, *MemoryStore) {
	store := NewMemoryStore(0)
	o := NewOrchestrator(store, NewClassifier(10), parts, kb, web, llm,
		Options{}, observability.NopLogger())
	return o, store
}

func TestChat_VagueMessageGetsClarifyingQuestion(t *testing.T) {
	parts := &fakePartSearcher{}
	kb := &fakeKnowledgeSearcher{}
	web := &fakeWebSearcher{}
	llm := &fakeCompleter{reply: "should not be called"}
	o, store := newTestOrchestrator(parts, kb, web, llm)
	defer store.Close()

	reply, err := o.Chat(context.Background(), "alice", "honda")
	require.NoError(t, err)

	assert.Contains(t, reply.Message, "?")
	assert.Empty(t, reply.Parts)
	assert.Empty(t, reply.Knowledge)
	assert.Empty(t, reply.WebResults)
	assert.Zero(t, parts.calls, "no catalog search on a vague message")
	assert.Empty(t, web.queries, "no web search on a vague message")
	assert.Zero(t, llm.calls)

	// The make was still extracted for future turns.
	assert.Equal(t, "honda", reply.Context.VehicleMake)
}

func TestChat_SpecificMessageRunsSearches(t *testing.T) {
	parts := &fakePartSearcher{parts: []storage.Part{{Name: "Cam chain tensioner"}}}
	kb := &fakeKnowledgeSearcher{}
	web := &fakeWebSearcher{results: []websearch.Result{
		{Title: "cam chain tensioner cb750 kit", Supplier: "rockauto"},
	}}
	llm := &fakeCompleter{reply: "Replace it soon.\nTIPS: Check the guide rails too."}
	o, store := newTestOrchestrator(parts, kb, web, llm)
	defer store.Close()

	reply, err := o.Chat(context.Background(), "alice", "My 1980 CB750 needs a new cam chain tensioner")
	require.NoError(t, err)

	assert.Equal(t, "Replace it soon.", reply.Message)
	assert.Equal(t, "Check the guide rails too.", reply.Tips)
	assert.Equal(t, 1, parts.calls)
	assert.NotEmpty(t, web.queries)
	assert.True(t, reply.AIPowered)
	assert.True(t, reply.WebSearchEnabled)
	assert.Equal(t, 1, reply.Sources.Database)
	assert.Equal(t, len(reply.WebResults), reply.Sources.Web)

	// "tensioner" triggers proactive part searches: primary plus two extras.
	assert.Equal(t, 2, reply.Sources.ProactiveSearches)
	assert.Len(t, web.queries, 3)
}

func TestChat_FollowUpUsesVehicleContext(t *testing.T) {
	parts := &fakePartSearcher{}
	kb := &fakeKnowledgeSearcher{}
	web := &fakeWebSearcher{}
	llm := &fakeCompleter{reply: "For your civic, rotate tires every 5k miles."}
	o, store := newTestOrchestrator(parts, kb, web, llm)
	defer store.Close()
	ctx := context.Background()

	_, err := o.Chat(ctx, "alice", "I have a 2015 Honda Civic")
	require.NoError(t, err)

	reply, err := o.Chat(ctx, "alice", "give me tips")
	require.NoError(t, err)

	assert.NotContains(t, reply.Message, "Could you tell me",
		"second turn is a follow-up, not a clarification")
	require.NotEmpty(t, web.queries)
	assert.Contains(t, web.queries[len(web.queries)-1], "honda",
		"follow-up query carries the vehicle context")

	rec, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, rec.Messages, 4, "both turns and both replies recorded")
}

func TestChat_LLMFailureFallsBack(t *testing.T) {
	parts := &fakePartSearcher{parts: []storage.Part{{Name: "Brake pads", Supplier: "rockauto", Price: 40}}}
	kb := &fakeKnowledgeSearcher{}
	web := &fakeWebSearcher{}
	llm := &fakeCompleter{err: errors.New("rate limited")}
	o, store := newTestOrchestrator(parts, kb, web, llm)
	defer store.Close()

	reply, err := o.Chat(context.Background(), "alice", "need brake pads for my 2015 civic")
	require.NoError(t, err, "collaborator failure never aborts the request")

	assert.Contains(t, reply.Message, "Brake pads")
	assert.False(t, reply.AIPowered, "degradation is signaled")
}

func TestChat_NoLLMConfigured(t *testing.T) {
	parts := &fakePartSearcher{}
	kb := &fakeKnowledgeSearcher{}
	o, store := newTestOrchestrator(parts, kb, nil, nil)
	defer store.Close()

	reply, err := o.Chat(context.Background(), "alice", "need brake pads for my 2015 civic")
	require.NoError(t, err)

	assert.False(t, reply.AIPowered)
	assert.False(t, reply.WebSearchEnabled)
	assert.NotEmpty(t, reply.Message)
}

func TestChat_RecordKeepsEveryTurn(t *testing.T) {
	parts := &fakePartSearcher{}
	kb := &fakeKnowledgeSearcher{}
	o, store := newTestOrchestrator(parts, kb, nil, nil)
	defer store.Close()
	ctx := context.Background()

	const turns = 25
	for i := 0; i < turns; i++ {
		_, err := o.Chat(ctx, "alice", fmt.Sprintf("brake pads question number %d", i))
		require.NoError(t, err)
	}

	rec, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, rec.Messages, 2*turns, "each turn stores the user message and the reply")
}

func TestChat_SearchHistoryRecorded(t *testing.T) {
	parts := &fakePartSearcher{}
	kb := &fakeKnowledgeSearcher{}
	o, store := newTestOrchestrator(parts, kb, nil, nil)
	defer store.Close()
	ctx := context.Background()

	_, err := o.Chat(ctx, "alice", "honda")
	require.NoError(t, err)

	rec, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, rec.SearchHistory, "clarified turns issue no search")

	_, err = o.Chat(ctx, "alice", "need brake pads for my 2015 civic")
	require.NoError(t, err)

	rec, err = store.Get(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, rec.SearchHistory, 1)
	assert.Equal(t, "need brake pads for my 2015 civic", rec.SearchHistory[0])
}

func TestChat_KnowledgeUsageRecorded(t *testing.T) {
	entryID := uuid.New()
	parts := &fakePartSearcher{}
	kb := &fakeKnowledgeSearcher{entries: []storage.KnowledgeEntry{{
		ID:       entryID,
		Title:    "Brake pad swap",
		Content:  "Curated steps.",
		Category: storage.CategoryInstallationGuide,
	}}}
	llm := &fakeCompleter{reply: "See the guide.\nINSTALLATION: Model steps."}
	o, store := newTestOrchestrator(parts, kb, nil, llm)
	defer store.Close()

	reply, err := o.Chat(context.Background(), "alice", "how do I install brake pads")
	require.NoError(t, err)

	assert.Equal(t, "Curated steps.", reply.Installation,
		"curated guide overrides the model's installation section")
	assert.Equal(t, []uuid.UUID{entryID}, kb.incremented)
}
