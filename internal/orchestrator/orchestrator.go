// Package orchestrator drives the wallpaper generation cycle: a countdown,
// user controls, the in-flight request and the history of results. All state
// is owned by the goroutine running Run; other goroutines talk to it through
// commands and receive snapshots.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"wallpaper/internal/domain"
	"wallpaper/internal/history"
	"wallpaper/internal/infra"
)

var (
	// ErrStopped is returned by controls once Run has returned.
	ErrStopped = errors.New("orchestrator stopped")
	// ErrAlreadyRunning is returned when Run is called more than once.
	ErrAlreadyRunning = errors.New("orchestrator already running")
)

// Generator is the remote generation client.
type Generator interface {
	GeneratePromptText(ctx context.Context, category string, opts domain.PromptOptions) (string, error)
	GenerateImage(ctx context.Context, prompt string, aspect domain.AspectRatio) (domain.ImageHandle, error)
}

// Metrics receives cycle and state observations.
type Metrics interface {
	CycleStarted(trigger string)
	CycleFinished(kind domain.ErrorKind, elapsed time.Duration)
	StateObserved(countdown int, paused bool, historyLen int)
}

// Sink receives every successful wallpaper, e.g. to save it to disk.
type Sink interface {
	Save(ctx context.Context, entry history.Entry) error
}

// Options configures an Orchestrator. Generator is required.
type Options struct {
	Generator Generator
	Logger    *infra.Logger
	Metrics   Metrics
	Sink      Sink
	Selection *domain.GenerationRequestParams
	NewTicker TickerFunc
	Now       func() time.Time
	NewID     func() string
}

// Orchestrator runs generation cycles.
type Orchestrator struct {
	gen       Generator
	logger    *infra.Logger
	metrics   Metrics
	sink      Sink
	newTicker TickerFunc
	now       func() time.Time
	newID     func() string

	m        *machine
	commands chan command
	done     chan struct{}
	running  atomic.Bool
	latest   atomic.Pointer[Snapshot]

	version     uint64
	ticker      Ticker
	subscribers map[chan Snapshot]struct{}
	saves       sync.WaitGroup
}

type commandKind int

const (
	cmdTogglePause commandKind = iota
	cmdRegenerate
	cmdSelection
	cmdSelectHistory
	cmdSubscribe
	cmdUnsubscribe
)

type command struct {
	kind  commandKind
	patch domain.SelectionPatch
	id    string
	sub   chan Snapshot
	reply chan reply
}

type reply struct {
	snap Snapshot
	err  error
}

type completion struct {
	cycleID string
	trigger Trigger
	params  domain.GenerationRequestParams
	started time.Time
	result  domain.GenerationResult
	err     error
}

// New constructs an orchestrator. Call Run to start it.
func New(opts Options) (*Orchestrator, error) {
	if opts.Generator == nil {
		return nil, errors.New("orchestrator: generator is required")
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	selection := domain.DefaultParams()
	if opts.Selection != nil {
		selection = *opts.Selection
	}
	o := &Orchestrator{
		gen:         opts.Generator,
		logger:      logger,
		metrics:     opts.Metrics,
		sink:        opts.Sink,
		newTicker:   opts.NewTicker,
		now:         opts.Now,
		newID:       opts.NewID,
		m:           newMachine(selection),
		commands:    make(chan command),
		done:        make(chan struct{}),
		subscribers: make(map[chan Snapshot]struct{}),
	}
	if o.newTicker == nil {
		o.newTicker = NewSystemTicker
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.newID == nil {
		o.newID = uuid.NewString
	}
	initial := o.m.snapshot(0)
	o.latest.Store(&initial)
	return o, nil
}

// Run starts the first cycle and processes ticks, controls and cycle results
// until ctx is cancelled. In-flight remote calls receive ctx and are
// abandoned on shutdown.
func (o *Orchestrator) Run(ctx context.Context) error {
	if !o.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	completions := make(chan completion, 1)
	defer func() {
		o.stopTicker()
		for ch := range o.subscribers {
			close(ch)
			delete(o.subscribers, ch)
		}
		close(o.done)
		o.saves.Wait()
	}()

	o.logger.Info().
		Str("category", o.m.state.Selection.Category).
		Str("size", string(o.m.state.Selection.Size)).
		Msg("orchestrator: starting")

	o.startCycle(ctx, TriggerStartup, completions)
	o.publish()

	for {
		var tickC <-chan time.Time
		if o.ticker != nil {
			tickC = o.ticker.C()
		}

		select {
		case <-ctx.Done():
			o.logger.Info().Msg("orchestrator: stopping")
			return nil
		case cmd := <-o.commands:
			o.handle(ctx, cmd, completions)
		case c := <-completions:
			o.complete(ctx, c)
			o.publish()
		case <-tickC:
			if o.m.tick() {
				o.startCycle(ctx, TriggerTimer, completions)
			}
			o.publish()
		}
		o.syncTicker()
	}
}

func (o *Orchestrator) handle(ctx context.Context, cmd command, completions chan<- completion) {
	var err error
	switch cmd.kind {
	case cmdTogglePause:
		err = o.m.togglePause()
	case cmdRegenerate:
		if err = o.m.regenerate(); err == nil {
			o.startCycle(ctx, TriggerRegenerate, completions)
		}
	case cmdSelection:
		if err = o.m.setSelection(cmd.patch); err == nil {
			o.startCycle(ctx, TriggerSelection, completions)
		}
	case cmdSelectHistory:
		err = o.m.selectHistory(cmd.id)
	case cmdSubscribe:
		o.subscribers[cmd.sub] = struct{}{}
		offer(cmd.sub, o.latest.Load().clone())
		cmd.reply <- reply{snap: *o.latest.Load()}
		return
	case cmdUnsubscribe:
		if _, ok := o.subscribers[cmd.sub]; ok {
			delete(o.subscribers, cmd.sub)
			close(cmd.sub)
		}
		cmd.reply <- reply{}
		return
	}

	if err != nil {
		o.logger.Debug().Err(err).Msg("orchestrator: control ignored")
	} else {
		o.publish()
	}
	cmd.reply <- reply{snap: o.latest.Load().clone(), err: err}
}

func (o *Orchestrator) startCycle(ctx context.Context, trigger Trigger, completions chan<- completion) {
	params := o.m.begin()
	c := completion{
		cycleID: o.newID(),
		trigger: trigger,
		params:  params,
		started: o.now(),
	}
	if o.metrics != nil {
		o.metrics.CycleStarted(string(trigger))
	}
	o.logger.Debug().
		Str("cycle_id", c.cycleID).
		Str("trigger", string(trigger)).
		Str("category", params.Category).
		Str("size", string(params.Size)).
		Msg("orchestrator: cycle started")

	go func() {
		c.result, c.err = o.generate(ctx, params)
		select {
		case completions <- c:
		case <-ctx.Done():
		}
	}()
}

// generate runs both remote steps. Nothing is committed unless both succeed.
func (o *Orchestrator) generate(ctx context.Context, params domain.GenerationRequestParams) (result domain.GenerationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = domain.GenerationResult{}
			err = fmt.Errorf("%w: generator panic: %v", domain.ErrGenerationFailed, r)
		}
	}()

	text, err := o.gen.GeneratePromptText(ctx, params.Category, params.PromptOptions())
	if err != nil {
		return domain.GenerationResult{}, fmt.Errorf("prompt step: %w", err)
	}
	img, err := o.gen.GenerateImage(ctx, text, params.Size.AspectRatio())
	if err != nil {
		return domain.GenerationResult{}, fmt.Errorf("image step: %w", err)
	}
	if img.IsZero() {
		return domain.GenerationResult{}, fmt.Errorf("image step: %w", domain.ErrEmptyResult)
	}
	return domain.GenerationResult{Image: img, PromptText: text}, nil
}

func (o *Orchestrator) complete(ctx context.Context, c completion) {
	elapsed := o.now().Sub(c.started)
	kind := domain.KindNone
	if c.err != nil {
		kind = o.m.fail(c.err)
		o.logger.Warn().
			Err(c.err).
			Str("cycle_id", c.cycleID).
			Str("trigger", string(c.trigger)).
			Str("error_kind", string(kind)).
			Bool("paused", o.m.state.IsPaused).
			Dur("duration", elapsed).
			Msg("orchestrator: cycle failed")
	} else {
		entry := history.Entry{ID: c.cycleID, Result: c.result, CreatedAt: o.now()}
		o.m.succeed(entry)
		o.logger.Info().
			Str("cycle_id", c.cycleID).
			Str("trigger", string(c.trigger)).
			Str("category", c.params.Category).
			Str("prompt", c.result.PromptText).
			Dur("duration", elapsed).
			Msg("orchestrator: cycle completed")
		o.save(ctx, entry)
	}
	if o.metrics != nil {
		o.metrics.CycleFinished(kind, elapsed)
	}
}

func (o *Orchestrator) save(ctx context.Context, entry history.Entry) {
	if o.sink == nil {
		return
	}
	o.saves.Add(1)
	go func() {
		defer o.saves.Done()
		if err := o.sink.Save(ctx, entry); err != nil {
			o.logger.Error().Err(err).Str("cycle_id", entry.ID).Msg("orchestrator: save wallpaper failed")
		}
	}()
}

// syncTicker keeps exactly one ticker while ungated and none while gated. A
// fresh ticker is created on every ungating so the countdown never inherits a
// partial second.
func (o *Orchestrator) syncTicker() {
	if o.m.gated() {
		o.stopTicker()
		return
	}
	if o.ticker == nil {
		o.ticker = o.newTicker(time.Second)
	}
}

func (o *Orchestrator) stopTicker() {
	if o.ticker != nil {
		o.ticker.Stop()
		o.ticker = nil
	}
}

func (o *Orchestrator) publish() {
	o.version++
	snap := o.m.snapshot(o.version)
	o.latest.Store(&snap)
	if o.metrics != nil {
		o.metrics.StateObserved(snap.CountdownSeconds, snap.IsPaused, len(snap.History))
	}
	for ch := range o.subscribers {
		offer(ch, snap.clone())
	}
}

// offer delivers snap without blocking, replacing an unread older snapshot.
func offer(ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}

// Snapshot returns the most recently published state.
func (o *Orchestrator) Snapshot() Snapshot {
	return o.latest.Load().clone()
}

// TogglePause flips the paused flag. It returns ErrLoading while a cycle is
// in flight.
func (o *Orchestrator) TogglePause(ctx context.Context) (Snapshot, error) {
	return o.do(ctx, command{kind: cmdTogglePause})
}

// Regenerate starts a cycle now. It returns ErrLoading while a cycle is in
// flight.
func (o *Orchestrator) Regenerate(ctx context.Context) (Snapshot, error) {
	return o.do(ctx, command{kind: cmdRegenerate})
}

// SetSelection merges patch into the selection and starts a cycle. Invalid
// patches return domain.ErrInvalidSelection and change nothing.
func (o *Orchestrator) SetSelection(ctx context.Context, patch domain.SelectionPatch) (Snapshot, error) {
	return o.do(ctx, command{kind: cmdSelection, patch: patch})
}

// SelectHistory displays a history entry and pauses the cycle.
func (o *Orchestrator) SelectHistory(ctx context.Context, id string) (Snapshot, error) {
	return o.do(ctx, command{kind: cmdSelectHistory, id: id})
}

// Subscribe registers for snapshots. The channel receives the current state
// immediately and the latest state after every transition; a slow reader
// only misses intermediate snapshots. The channel is closed by cancel or when
// Run returns.
func (o *Orchestrator) Subscribe(ctx context.Context) (<-chan Snapshot, func(), error) {
	ch := make(chan Snapshot, 1)
	if _, err := o.do(ctx, command{kind: cmdSubscribe, sub: ch}); err != nil {
		return nil, nil, err
	}
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			_, _ = o.do(context.Background(), command{kind: cmdUnsubscribe, sub: ch})
		})
	}
	return ch, cancel, nil
}

// Done is closed when Run returns.
func (o *Orchestrator) Done() <-chan struct{} {
	return o.done
}

func (o *Orchestrator) do(ctx context.Context, cmd command) (Snapshot, error) {
	cmd.reply = make(chan reply, 1)
	select {
	case o.commands <- cmd:
	case <-o.done:
		return Snapshot{}, ErrStopped
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case r := <-cmd.reply:
		return r.snap, r.err
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}
