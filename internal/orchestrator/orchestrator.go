// Package orchestrator coordinates ingredient analyses between the user
// surfaces and the scoring backend: it validates and classifies input, calls
// the backend, normalizes the response, records history and exposes the
// current view.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/noot-app/carcinogenscan/internal/analysis"
	"github.com/noot-app/carcinogenscan/internal/backend"
	"github.com/noot-app/carcinogenscan/internal/classifier"
	"github.com/noot-app/carcinogenscan/internal/history"
)

const minSingleInputLength = 3

// Backend is the subset of the backend client the orchestrator calls
type Backend interface {
	PostIngredients(ctx context.Context, raw string) backend.Result
	PostBatch(ctx context.Context, products []backend.ProductInput) backend.Result
}

// Ensure the HTTP client satisfies Backend
var _ Backend = (*backend.Client)(nil)

// Orchestrator owns the history and view state. All methods are safe for
// concurrent use; the backend call runs without holding the lock.
type Orchestrator struct {
	mu sync.Mutex

	backend   Backend
	history   *history.Store
	log       *slog.Logger
	scheduler Scheduler
	rng       *rand.Rand
	now       func() time.Time

	isBatch      bool
	singleInput  string
	batchInput   []backend.ProductInput
	singleResult *analysis.SingleResult
	batchResult  *analysis.BatchResult
	selectedID   string
	notice       string
	warning      string
	failure      *Failure

	single *call
	batch  *call
	closed bool
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithScheduler replaces the timer used for the delayed button label
func WithScheduler(s Scheduler) Option {
	return func(o *Orchestrator) { o.scheduler = s }
}

// WithRand sets the random source for label delays and flavor text
func WithRand(r *rand.Rand) Option {
	return func(o *Orchestrator) { o.rng = r }
}

// WithClock sets the clock used for history timestamps and ids
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithHistory uses an existing history store
func WithHistory(h *history.Store) Option {
	return func(o *Orchestrator) { o.history = h }
}

// New creates an orchestrator in single mode with empty history
func New(b Backend, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backend:    b,
		history:    history.NewStore(),
		log:        logger,
		scheduler:  realScheduler{},
		rng:        rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		now:        time.Now,
		batchInput: []backend.ProductInput{{}},
		single:     newCall(ModeSingle),
		batch:      newCall(ModeBatch),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SubmitSingle analyzes one free-text ingredient list. Local rejections
// (*ValidationError, ErrBusy, ErrWrongMode, ErrClosed) leave the state
// untouched. Backend outcomes are routed to the view and do not return an error.
func (o *Orchestrator) SubmitSingle(ctx context.Context, text string) (View, error) {
	o.mu.Lock()
	if err := o.admit(ModeSingle); err != nil {
		o.mu.Unlock()
		return View{}, err
	}
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < minSingleInputLength {
		o.mu.Unlock()
		return View{}, &ValidationError{Field: "ingredients", Message: "Please enter at least one food item."}
	}

	o.singleInput = text
	o.singleResult = nil
	o.failure = nil
	o.warning = ""
	o.applyVerdict(classifier.Classify(trimmed))
	gen := o.start(o.single)
	o.mu.Unlock()

	start := time.Now()
	res := o.backend.PostIngredients(ctx, text)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || o.single.gen != gen {
		return View{}, ErrClosed
	}
	o.single.reset()

	var result *analysis.SingleResult
	err := o.envelopeError(res)
	if err == nil {
		result, err = analysis.ParseSingle(res.Body)
	}
	if err != nil {
		o.routeError(err)
		o.log.Warn("Single analysis failed", "error", err, "duration", time.Since(start))
		return o.snapshot(), nil
	}

	item := o.commit(text, false)
	item.Single = result
	o.history.Append(item)

	o.selectedID = item.ID
	o.singleResult = result
	o.warning = result.Warning

	o.log.Info("Single analysis committed",
		"id", item.ID,
		"rows", len(result.Ingredients),
		"cached", result.Cached,
		"duration", time.Since(start))
	return o.snapshot(), nil
}

// SubmitBatch analyzes several products at once. Entries with an empty
// product name or ingredient list are dropped before the call; zero
// surviving entries is a *ValidationError.
func (o *Orchestrator) SubmitBatch(ctx context.Context, products []backend.ProductInput) (View, error) {
	o.mu.Lock()
	if err := o.admit(ModeBatch); err != nil {
		o.mu.Unlock()
		return View{}, err
	}
	valid := filterProducts(products)
	if len(valid) == 0 {
		o.mu.Unlock()
		return View{}, &ValidationError{Field: "products", Message: "Please add at least one product with ingredients."}
	}

	o.batchInput = append([]backend.ProductInput(nil), products...)
	o.batchResult = nil
	o.failure = nil
	o.warning = ""
	o.applyVerdict(classifier.Classify(strings.TrimSpace(valid[0].Ingredients)))
	gen := o.start(o.batch)
	o.mu.Unlock()

	start := time.Now()
	res := o.backend.PostBatch(ctx, valid)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || o.batch.gen != gen {
		return View{}, ErrClosed
	}
	o.batch.reset()

	var result *analysis.BatchResult
	err := o.envelopeError(res)
	if err == nil {
		result, err = analysis.ParseBatch(res.Body)
	}
	if err != nil {
		o.routeError(err)
		o.log.Warn("Batch analysis failed", "error", err, "products", len(valid), "duration", time.Since(start))
		return o.snapshot(), nil
	}

	item := o.commit(history.EncodeBatchInput(valid), true)
	item.Batch = result
	o.history.Append(item)

	o.selectedID = item.ID
	o.batchInput = valid
	o.batchResult = result

	o.log.Info("Batch analysis committed",
		"id", item.ID,
		"products", result.Len(),
		"duration", time.Since(start))
	return o.snapshot(), nil
}

// SelectHistory rehydrates the view to a stored item: its mode, input and
// result. Loading flags and button labels are reset.
func (o *Orchestrator) SelectHistory(id string) (View, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return View{}, ErrClosed
	}
	if o.single.loading || o.batch.loading {
		return View{}, ErrBusy
	}

	item, ok := o.history.Select(id)
	if !ok {
		return View{}, ErrHistoryNotFound
	}

	o.single.reset()
	o.batch.reset()
	o.clearAnswer()
	o.isBatch = item.IsBatch
	o.selectedID = item.ID

	if item.IsBatch {
		o.batchInput = history.DecodeBatchInput(item.Input)
		o.batchResult = item.Batch
	} else {
		o.singleInput = item.Input
		o.singleResult = item.Single
		if item.Single != nil {
			o.warning = item.Single.Warning
		}
	}

	return o.snapshot(), nil
}

// Snapshot returns the current view
func (o *Orchestrator) Snapshot() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshot()
}

// History returns all items, most recent first
func (o *Orchestrator) History() []history.Item {
	return o.history.List()
}

// Close cancels pending label timers. Later operations return ErrClosed and
// in-flight calls are not committed.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil
	}
	o.closed = true
	o.single.reset()
	o.batch.reset()
	return nil
}

func (o *Orchestrator) admit(m Mode) error {
	if o.closed {
		return ErrClosed
	}
	if modeOf(o.isBatch) != m {
		return ErrWrongMode
	}
	if o.callFor(m).loading {
		return ErrBusy
	}
	return nil
}

func (o *Orchestrator) callFor(m Mode) *call {
	if m == ModeBatch {
		return o.batch
	}
	return o.single
}

// applyVerdict sets the notice for vague input and clears it otherwise
func (o *Orchestrator) applyVerdict(v classifier.Verdict) {
	if !v.IsVague {
		o.notice = ""
		return
	}
	first, second := v.Primary()
	o.notice = VagueNotice(first, second)
}

// start marks the call as loading and schedules the flavor text label
func (o *Orchestrator) start(c *call) uint64 {
	c.gen++
	c.loading = true
	c.label = WaitingLabel

	gen := c.gen
	delay := minFlavorDelay + time.Duration(o.rng.Int64N(int64((maxFlavorDelay-minFlavorDelay)/time.Millisecond)+1))*time.Millisecond
	c.timer = o.scheduler.AfterFunc(delay, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if o.closed || !c.loading || c.gen != gen {
			return
		}
		c.label = FlavorText[o.rng.IntN(len(FlavorText))]
	})
	return gen
}

func (o *Orchestrator) envelopeError(res backend.Result) error {
	if res.Failed() {
		return &envelopeError{message: res.Error}
	}
	return nil
}

// routeError sends non-food rejections to the notice channel and everything
// else to the error channel
func (o *Orchestrator) routeError(err error) {
	var envErr *envelopeError
	var backendErr *analysis.BackendError

	switch {
	case errors.As(err, &envErr):
		if (&analysis.BackendError{Message: envErr.message}).NonFood() {
			o.notice = NonFoodNotice
			return
		}
		o.failure = &Failure{Kind: FailureTransport, Message: envErr.message}
	case errors.As(err, &backendErr):
		if backendErr.NonFood() {
			o.notice = NonFoodNotice
			return
		}
		o.failure = &Failure{Kind: FailureBackend, Message: backendErr.Message}
	default:
		o.failure = &Failure{Kind: FailureShape, Message: analysis.UnexpectedResponseMessage}
	}
}

// commit builds a history item stamped at commit time
func (o *Orchestrator) commit(input string, isBatch bool) history.Item {
	now := o.now()
	return history.Item{
		ID:        history.NewID(now),
		Timestamp: now,
		Input:     input,
		IsBatch:   isBatch,
	}
}

type envelopeError struct {
	message string
}

func (e *envelopeError) Error() string {
	return e.message
}

func filterProducts(products []backend.ProductInput) []backend.ProductInput {
	var valid []backend.ProductInput
	for _, p := range products {
		if strings.TrimSpace(p.Product) == "" || strings.TrimSpace(p.Ingredients) == "" {
			continue
		}
		valid = append(valid, p)
	}
	return valid
}
