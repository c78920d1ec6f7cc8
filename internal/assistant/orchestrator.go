package assistant

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gearhive/gearhive/internal/observability"
	"github.com/gearhive/gearhive/internal/storage"
	"github.com/gearhive/gearhive/internal/websearch"
)

// PartSearcher is the catalog lookup the orchestrator consumes.
type PartSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]storage.Part, error)
}

// KnowledgeSearcher is the curated knowledge-base lookup.
type KnowledgeSearcher interface {
	Search(ctx context.Context, query string, opts storage.KnowledgeQuery) ([]storage.KnowledgeEntry, error)
	FindByVehicle(ctx context.Context, make, model string, year int) ([]storage.KnowledgeEntry, error)
	IncrementUsage(ctx context.Context, id uuid.UUID) error
}

// WebSearcher scrapes supplier and marketplace listings.
type WebSearcher interface {
	Search(ctx context.Context, query string, opts websearch.Options) ([]websearch.Result, error)
}

// Completer is the text-completion oracle.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// Sources counts where the reply's evidence came from.
type Sources struct {
	Database          int `json:"database"`
	Knowledge         int `json:"knowledge"`
	Web               int `json:"web"`
	ProactiveSearches int `json:"proactiveSearches"`
}

// Reply is the structured chat result.
type Reply struct {
	Message          string
	Parts            []storage.Part
	Knowledge        []storage.KnowledgeEntry
	WebResults       []websearch.Result
	Installation     string
	Tips             string
	Context          Preferences
	Sources          Sources
	AIPowered        bool
	WebSearchEnabled bool
}

// Options configures the orchestrator's tunables.
type Options struct {
	HistoryWindow int
	MaxWebResults int
	SearchTimeout time.Duration
	Scorer        ScorerConfig
}

// Orchestrator runs one chat turn end to end.
type Orchestrator struct {
	store      Store
	classifier *Classifier
	scorer     *Scorer
	parts      PartSearcher
	knowledge  KnowledgeSearcher
	web        WebSearcher
	llm        Completer
	logger     *observability.Logger

	historyWindow int
	maxWebResults int
	searchTimeout time.Duration
}

// NewOrchestrator wires the chat flow. web and llm may be nil; the flow then
// skips web search and uses the templated fallback respectively.
func NewOrchestrator(store Store, classifier *Classifier, parts PartSearcher, knowledge KnowledgeSearcher, web WebSearcher, llm Completer, opts Options, logger *observability.Logger) *Orchestrator {
	historyWindow := opts.HistoryWindow
	if historyWindow <= 0 {
		historyWindow = defaultHistoryWindow
	}
	maxWebResults := opts.MaxWebResults
	if maxWebResults <= 0 {
		maxWebResults = 8
	}
	searchTimeout := opts.SearchTimeout
	if searchTimeout <= 0 {
		searchTimeout = 8 * time.Second
	}

	return &Orchestrator{
		store:         store,
		classifier:    classifier,
		scorer:        NewScorer(opts.Scorer),
		parts:         parts,
		knowledge:     knowledge,
		web:           web,
		llm:           llm,
		logger:        logger.WithComponent("assistant"),
		historyWindow: historyWindow,
		maxWebResults: maxWebResults,
		searchTimeout: searchTimeout,
	}
}

// Chat handles one user message. External failures degrade the reply; the
// only errors returned are memory-store failures.
func (o *Orchestrator) Chat(ctx context.Context, userID, message string) (*Reply, error) {
	logger := o.logger.WithUser(userID)

	// Record the turn and refresh preferences before anything else so even a
	// clarifying exchange improves the profile.
	var rec Record
	err := o.store.Update(ctx, userID, func(r *Record) error {
		r.Messages = append(r.Messages, Message{
			Role:      RoleUser,
			Content:   message,
			CreatedAt: time.Now(),
		})
		ExtractPreferences(message, &r.Preferences)
		rec = copyRecord(r)
		return nil
	})
	if err != nil {
		return nil, err
	}

	prefs := rec.Preferences
	cls := o.classifier.Classify(message)
	// A message that is neither vague nor specific rides on conversation
	// context when there is any; a vague message always gets a clarifying
	// question, even when a make was just extracted from it.
	followUp := !cls.Vague && !cls.Specific &&
		(prefs.HasVehicle() || historyHasVehicleSignal(rec.SearchHistory))

	reply := &Reply{
		Context:          prefs,
		AIPowered:        o.llm != nil,
		WebSearchEnabled: o.web != nil,
	}

	if !cls.Specific && !followUp {
		// Too broad and nothing in the conversation to anchor on. No
		// searches are spent; ask the user to narrow down.
		reply.Message = ClarifyingResponse(prefs)
		logger.Debug().Bool("vague", cls.Vague).Msg("Clarifying response, no searches issued")
		return reply, o.appendAssistantReply(ctx, userID, reply.Message)
	}

	query := message
	if followUp && prefs.HasVehicle() {
		query = prefs.VehicleHint() + " " + message
	}

	if err := o.store.Update(ctx, userID, func(r *Record) error {
		r.SearchHistory = append(r.SearchHistory, query)
		return nil
	}); err != nil {
		return nil, err
	}

	// Catalog and knowledge base are independent reads; run them together.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		reply.Parts = o.searchParts(ctx, logger, query)
	}()
	go func() {
		defer wg.Done()
		reply.Knowledge = o.searchKnowledge(ctx, logger, query, prefs)
	}()
	wg.Wait()

	proactive := PlanProactiveSearches(message, prefs)
	reply.Sources.ProactiveSearches = len(proactive)
	reply.WebResults = o.searchWeb(ctx, logger, query, proactive, prefs)

	reply.Sources.Database = len(reply.Parts)
	reply.Sources.Knowledge = len(reply.Knowledge)
	reply.Sources.Web = len(reply.WebResults)

	reply.Message, reply.Installation, reply.Tips = o.compose(ctx, logger, rec, message, reply)
	reply.Installation, reply.Tips = OverrideFromKnowledge(reply.Knowledge, reply.Installation, reply.Tips)

	o.recordKnowledgeUsage(ctx, logger, reply.Knowledge)

	return reply, o.appendAssistantReply(ctx, userID, reply.Message)
}

func (o *Orchestrator) searchParts(ctx context.Context, logger *observability.Logger, query string) []storage.Part {
	ctx, cancel := context.WithTimeout(ctx, o.searchTimeout)
	defer cancel()

	parts, err := o.parts.Search(ctx, query, 10)
	if err != nil {
		logger.Warn().Err(err).Msg("Catalog search failed")
		return nil
	}
	return parts
}

func (o *Orchestrator) searchKnowledge(ctx context.Context, logger *observability.Logger, query string, prefs Preferences) []storage.KnowledgeEntry {
	ctx, cancel := context.WithTimeout(ctx, o.searchTimeout)
	defer cancel()

	entries, err := o.knowledge.Search(ctx, query, storage.KnowledgeQuery{
		VehicleMake: prefs.VehicleMake,
		Limit:       5,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Knowledge search failed")
		return nil
	}

	if len(entries) == 0 && prefs.VehicleMake != "" {
		entries, err = o.knowledge.FindByVehicle(ctx, prefs.VehicleMake, prefs.VehicleModel, prefs.VehicleYear)
		if err != nil {
			logger.Warn().Err(err).Msg("Knowledge vehicle lookup failed")
			return nil
		}
	}
	return entries
}

// searchWeb issues the primary query plus the proactive queries concurrently
// and pools everything through the relevance scorer.
func (o *Orchestrator) searchWeb(ctx context.Context, logger *observability.Logger, query string, proactive []string, prefs Preferences) []websearch.Result {
	if o.web == nil {
		return nil
	}

	queries := append([]string{query}, proactive...)

	var mu sync.Mutex
	var pool []websearch.Result
	var wg sync.WaitGroup

	for _, q := range queries {
		wg.Add(1)
		go func(q string) {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, o.searchTimeout)
			defer cancel()

			results, err := o.web.Search(callCtx, q, websearch.Options{
				MaxResults:   o.maxWebResults * 2,
				IncludePrice: true,
				VehicleHint:  prefs.VehicleHint(),
			})
			if err != nil {
				logger.Warn().Err(err).Str("query", q).Msg("Web search failed")
				return
			}

			mu.Lock()
			pool = append(pool, results...)
			mu.Unlock()
		}(q)
	}
	wg.Wait()

	return o.scorer.RankAndFilter(pool, query, prefs)
}

func (o *Orchestrator) compose(ctx context.Context, logger *observability.Logger, rec Record, message string, reply *Reply) (body, installation, tips string) {
	if o.llm == nil {
		return FallbackResponse(rec.Preferences, reply.Parts, reply.Knowledge, reply.WebResults), "", ""
	}

	prompt := BuildSystemPrompt(rec, reply.Parts, reply.Knowledge, reply.WebResults, o.historyWindow)
	text, err := o.llm.Complete(ctx, prompt, message)
	if err != nil {
		logger.Warn().Err(err).Msg("LLM completion failed, using fallback")
		reply.AIPowered = false
		return FallbackResponse(rec.Preferences, reply.Parts, reply.Knowledge, reply.WebResults), "", ""
	}

	return ExtractSections(text)
}

func (o *Orchestrator) recordKnowledgeUsage(ctx context.Context, logger *observability.Logger, entries []storage.KnowledgeEntry) {
	for _, e := range entries {
		if err := o.knowledge.IncrementUsage(ctx, e.ID); err != nil {
			logger.Warn().Err(err).Str("entry_id", e.ID.String()).Msg("Failed to record knowledge usage")
		}
	}
}

// historyHasVehicleSignal reports whether a past query mentioned a year or a
// known model, which is enough context to treat a borderline message as a
// follow-up.
func historyHasVehicleSignal(history []string) bool {
	for _, q := range history {
		lower := strings.ToLower(q)
		if classYearRe.MatchString(lower) || rightmostMatch(lower, vehicleModels) != "" {
			return true
		}
	}
	return false
}

func (o *Orchestrator) appendAssistantReply(ctx context.Context, userID, text string) error {
	return o.store.Update(ctx, userID, func(r *Record) error {
		r.Messages = append(r.Messages, Message{
			Role:      RoleAssistant,
			Content:   text,
			CreatedAt: time.Now(),
		})
		return nil
	})
}
