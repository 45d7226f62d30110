package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/echukwudebere/kachifo/internal/aggregate"
	"github.com/echukwudebere/kachifo/internal/classify"
	"github.com/echukwudebere/kachifo/internal/compose"
	"github.com/echukwudebere/kachifo/internal/enrich"
	"github.com/echukwudebere/kachifo/internal/helpers"
	"github.com/echukwudebere/kachifo/internal/metrics"
	"github.com/echukwudebere/kachifo/internal/quota"
	"github.com/echukwudebere/kachifo/internal/rank"
	"github.com/echukwudebere/kachifo/internal/retry"
	"github.com/echukwudebere/kachifo/internal/session"
	"github.com/echukwudebere/kachifo/models"
)

// conversationFallback is the reply when the chat model is unreachable.
const conversationFallback = "Sorry, I'm having trouble keeping up the conversation right now. Please try again in a moment."

// fillerInterval paces the progress messages on the streaming path.
const defaultFillerInterval = 2 * time.Second

var fillers = []string{
	"Hang tight, gathering the latest for you...",
	"Still digging through the feeds...",
	"Almost there, ranking what I found...",
}

// Request is one user input to process.
type Request struct {
	Input     string
	SessionID string
	ClientID  string
}

// Event is one message on the streaming path: progress filler while the
// pipeline runs, then exactly one terminal event carrying Result or Err.
type Event struct {
	Message string
	Result  *models.AggregatedResult
	Err     error
}

// Pipeline wires the full request flow: sanitize, quota, session,
// classify, then either the conversation branch or the trend branch
// (fan-out, enrich, rank, compose).
type Pipeline struct {
	sessions       *session.Manager
	quota          *quota.Guard
	aggregator     *aggregate.Aggregator
	enricher       *enrich.Enricher
	ranker         *rank.Ranker
	composer       *compose.Composer
	svc            enrich.Service
	retrier        *retry.Executor
	fillerInterval time.Duration
	logger         *log.Logger
}

type Options struct {
	Sessions       *session.Manager
	Quota          *quota.Guard
	Aggregator     *aggregate.Aggregator
	Enricher       *enrich.Enricher
	Ranker         *rank.Ranker
	Composer       *compose.Composer
	Service        enrich.Service
	Retrier        *retry.Executor
	FillerInterval time.Duration
	Logger         *log.Logger
}

func New(opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = log.New(log.Writer(), "[PIPELINE] ", log.LstdFlags)
	}
	if opts.FillerInterval <= 0 {
		opts.FillerInterval = defaultFillerInterval
	}
	return &Pipeline{
		sessions:       opts.Sessions,
		quota:          opts.Quota,
		aggregator:     opts.Aggregator,
		enricher:       opts.Enricher,
		ranker:         opts.Ranker,
		composer:       opts.Composer,
		svc:            opts.Service,
		retrier:        opts.Retrier,
		fillerInterval: opts.FillerInterval,
		logger:         opts.Logger,
	}
}

// Submit processes one input to completion. Quota is checked before any
// provider or enrichment work; a rejected request touches nothing
// downstream. The returned result always carries the session id.
func (p *Pipeline) Submit(ctx context.Context, req Request) (*models.AggregatedResult, error) {
	query := helpers.SanitizeQuery(req.Input)
	if query == "" {
		return nil, models.ErrEmptyInput
	}

	if err := p.quota.Allow(req.ClientID); err != nil {
		metrics.QuotaRejections.Inc()
		return nil, err
	}

	sid := p.sessions.Ensure(req.SessionID)
	p.sessions.Append(sid, models.RoleUser, req.Input)

	kind := classify.Classify(req.Input, p.sessions.LastKind(sid))
	p.sessions.SetLastKind(sid, kind)
	metrics.RequestsTotal.WithLabelValues(string(kind)).Inc()

	var result *models.AggregatedResult
	if kind == models.KindConversation {
		result = p.converse(ctx, sid, query)
	} else {
		result = p.trends(ctx, sid, query, kind)
	}
	return result, nil
}

func (p *Pipeline) converse(ctx context.Context, sid, query string) *models.AggregatedResult {
	history, _ := p.sessions.History(sid)

	var reply string
	err := p.retrier.Do(ctx, func() error {
		r, cerr := p.svc.Converse(ctx, history)
		if cerr != nil {
			return cerr
		}
		reply = r
		return nil
	})
	if err != nil || reply == "" {
		p.logger.Printf("conversation fallback for session %s: %v", sid, err)
		reply = conversationFallback
	}

	p.sessions.Append(sid, models.RoleAssistant, reply)
	return &models.AggregatedResult{
		Query:     query,
		Kind:      models.KindConversation,
		Response:  reply,
		SessionID: sid,
	}
}

func (p *Pipeline) trends(ctx context.Context, sid, query string, kind models.InputKind) *models.AggregatedResult {
	items, failed := p.aggregator.Fetch(ctx, query)
	if failed > 0 {
		p.logger.Printf("%d provider(s) contributed nothing for %q", failed, query)
	}

	enriched := p.enricher.EnrichAll(ctx, items)
	p.ranker.Rank(enriched)

	summaries := make([]string, 0, len(enriched))
	for _, item := range enriched {
		summaries = append(summaries, item.Summary)
	}
	overview := p.composer.Overview(ctx, summaries)

	p.sessions.Append(sid, models.RoleAssistant, overview)
	return &models.AggregatedResult{
		Query:          query,
		Kind:           kind,
		Results:        enriched,
		GeneralSummary: overview,
		SessionID:      sid,
	}
}

// History returns the session's conversation turns.
func (p *Pipeline) History(sessionID string) ([]models.Turn, bool) {
	return p.sessions.History(sessionID)
}

// ClearSession drops a session and its history.
func (p *Pipeline) ClearSession(sessionID string) {
	p.sessions.Delete(sessionID)
}

// Stream runs Submit in the background and emits progress fillers on the
// returned channel until the terminal event, then closes it.
func (p *Pipeline) Stream(ctx context.Context, req Request) <-chan Event {
	out := make(chan Event)
	done := make(chan Event, 1)

	go func() {
		result, err := p.Submit(ctx, req)
		done <- Event{Result: result, Err: err}
	}()

	go func() {
		defer close(out)
		ticker := time.NewTicker(p.fillerInterval)
		defer ticker.Stop()
		i := 0
		for {
			select {
			case ev := <-done:
				select {
				case out <- ev:
				case <-ctx.Done():
				}
				return
			case <-ticker.C:
				select {
				case out <- Event{Message: fillers[i%len(fillers)]}:
					i++
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
