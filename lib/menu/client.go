// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/menumirror/lib/clock"
)

// Defaults applied by New for zero Options fields.
const (
	DefaultMaxDepth       = 64
	DefaultFetchBatchSize = 64
)

var errStarted = errors.New("menu client already started")

// taskQueueSize bounds the run loop's queue. Producers are off-loop
// goroutines (call completions, signal forwarding, renderer callbacks),
// so a full queue only delays them.
const taskQueueSize = 256

// Options configures a Client. Zero values select the defaults.
type Options struct {
	// Logger receives engine diagnostics. Defaults to a discarding
	// logger.
	Logger *slog.Logger

	// Clock stamps activation events that arrive without a renderer
	// timestamp. Defaults to clock.Real().
	Clock clock.Clock

	// Metrics, if non-nil, records engine activity.
	Metrics *Metrics

	// MaxDepth bounds layout recursion, parent materialization, and
	// subtree rebuilds so a misbehaving peer cannot cause unbounded
	// work. Defaults to DefaultMaxDepth.
	MaxDepth int

	// FetchBatchSize caps the ids per GetGroupProperties call.
	// Defaults to DefaultFetchBatchSize.
	FetchBatchSize int

	// CallTimeout, if positive, bounds every remote call. By default
	// calls have no timeout: a stalled call stalls only its own items.
	CallTimeout time.Duration
}

// RootSummary is the root item's presentation state, recomputed
// whenever the root's properties change.
type RootSummary struct {
	Title   string `json:"title"   yaml:"title"`
	Active  bool   `json:"active"  yaml:"active"`
	Visible bool   `json:"visible" yaml:"visible"`
}

// Client mirrors one remote menu into a Renderer.
//
// Create a Client with New, call Start to subscribe and perform the
// initial synchronization, and Close to tear it down. All exported
// methods are safe for concurrent use.
type Client struct {
	remote      Remote
	renderer    Renderer
	logger      *slog.Logger
	clock       clock.Clock
	metrics     *Metrics
	maxDepth    int
	batchSize   int
	callTimeout time.Duration

	// Loop-owned state. Touched only by tasks running on the run loop.
	store      *Store
	items      map[ItemID]*item
	fetching   map[ItemID]struct{}
	rebuilding map[ItemID]struct{}
	inflight   int
	idle       []chan struct{}
	closed     bool

	tasks     chan func()
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
	running   bool

	root        atomic.Pointer[RootSummary]
	rootChanged chan RootSummary
	activations chan ActivationRequested
}

// New creates a client for remote that renders into renderer. No
// remote call is made until Start.
func New(remote Remote, renderer Renderer, options Options) *Client {
	if options.Logger == nil {
		options.Logger = slog.New(slog.DiscardHandler)
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.MaxDepth <= 0 {
		options.MaxDepth = DefaultMaxDepth
	}
	if options.FetchBatchSize <= 0 {
		options.FetchBatchSize = DefaultFetchBatchSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		remote:      remote,
		renderer:    renderer,
		logger:      options.Logger,
		clock:       options.Clock,
		metrics:     options.Metrics,
		maxDepth:    options.MaxDepth,
		batchSize:   options.FetchBatchSize,
		callTimeout: options.CallTimeout,
		store:       NewStore(),
		items:       make(map[ItemID]*item),
		fetching:    make(map[ItemID]struct{}),
		rebuilding:  make(map[ItemID]struct{}),
		tasks:       make(chan func(), taskQueueSize),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		rootChanged: make(chan RootSummary, 1),
		activations: make(chan ActivationRequested, 16),
	}
}

// Start subscribes to remote signals, starts the run loop, and begins
// the initial synchronization: an "about to show" for the root
// followed by a full layout read, and a fetch of the root's own
// properties. Start returns once the subscription is established; use
// WaitIdle to wait for the mirror to settle.
//
// ctx bounds only the subscription handshake. The client runs until
// Close.
func (c *Client) Start(ctx context.Context) error {
	err := errStarted
	c.startOnce.Do(func() { err = c.start(ctx) })
	return err
}

func (c *Client) start(ctx context.Context) error {
	if c.ctx.Err() != nil {
		return ErrClosed
	}

	subscribeCtx, cancel := context.WithCancel(c.ctx)
	stop := context.AfterFunc(ctx, cancel)
	signals, err := c.remote.Subscribe(subscribeCtx)
	if !stop() {
		cancel()
		if err == nil {
			err = ctx.Err()
		}
	}
	if err != nil {
		cancel()
		return fmt.Errorf("subscribing to menu signals: %w", err)
	}

	c.running = true
	go c.run()
	go c.forwardSignals(signals)
	c.post(func() {
		c.fetch([]ItemID{RootID}, true)
		c.aboutToShow(RootID, true, nil)
	})
	return nil
}

// Close detaches from the remote side, destroys every rendered node,
// and stops the run loop. Responses to calls issued before Close are
// dropped when they arrive. Close is idempotent.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		// Consume startOnce so a Start racing with Close cannot launch
		// the loop after this point.
		c.startOnce.Do(func() {})
		if !c.running {
			close(c.done)
			return
		}
		<-c.done
	})
}

// Done returns a channel closed once the client has been torn down.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Root returns the latest root summary and whether the root's
// properties have been fetched.
func (c *Client) Root() (RootSummary, bool) {
	summary := c.root.Load()
	if summary == nil {
		return RootSummary{}, false
	}
	return *summary, true
}

// RootChanged delivers the root summary each time it is recomputed.
// The channel holds only the latest value; a slow reader skips
// intermediate summaries.
func (c *Client) RootChanged() <-chan RootSummary {
	return c.rootChanged
}

// ActivationRequests delivers ItemActivationRequested signals. Requests
// arriving while the buffer is full are dropped with a warning.
func (c *Client) ActivationRequests() <-chan ActivationRequested {
	return c.activations
}

// Reset re-reads the whole layout from the root.
func (c *Client) Reset() error {
	if !c.post(func() { c.requestLayout(RootID) }) {
		return ErrClosed
	}
	return nil
}

// Open performs the root-level "about to show" round-trip a
// presentation layer makes before opening the top-level menu. If the
// remote side asks for a refresh, a root layout read is issued before
// Open returns.
func (c *Client) Open(ctx context.Context) error {
	opened := make(chan struct{})
	if !c.post(func() { c.aboutToShow(RootID, false, func() { close(opened) }) }) {
		return ErrClosed
	}
	select {
	case <-opened:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}
}

// WaitIdle blocks until no remote call is in flight and no completion
// is queued, that is, until the mirror has settled on what the remote
// side has told it so far.
func (c *Client) WaitIdle(ctx context.Context) error {
	waiter := make(chan struct{})
	if !c.post(func() { c.idle = append(c.idle, waiter) }) {
		return ErrClosed
	}
	select {
	case <-waiter:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}
}

// run is the client's single execution context. It exits after
// teardown once the client context is cancelled.
func (c *Client) run() {
	defer close(c.done)
	for {
		select {
		case task := <-c.tasks:
			task()
			c.notifyIdle()
		case <-c.ctx.Done():
			c.teardown()
			return
		}
	}
}

// post schedules task on the run loop. Returns false if the client has
// been torn down. Must not be called from the run loop itself.
func (c *Client) post(task func()) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.tasks <- task:
		return true
	case <-c.done:
		return false
	}
}

// call runs do on its own goroutine and schedules the continuation it
// returns back onto the run loop. Continuations arriving after
// teardown are dropped. Must be called from the run loop.
func (c *Client) call(do func(ctx context.Context) func()) {
	c.inflight++
	ctx := c.ctx
	go func() {
		callCtx, cancel := ctx, context.CancelFunc(func() {})
		if c.callTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, c.callTimeout)
		}
		continuation := do(callCtx)
		cancel()
		c.post(func() {
			c.inflight--
			if c.closed || continuation == nil {
				return
			}
			continuation()
		})
	}()
}

func (c *Client) notifyIdle() {
	if c.inflight > 0 || len(c.tasks) > 0 || len(c.idle) == 0 {
		return
	}
	for _, waiter := range c.idle {
		close(waiter)
	}
	c.idle = nil
}

// forwardSignals moves signals from the transport onto the run loop
// until the subscription ends.
func (c *Client) forwardSignals(signals <-chan Signal) {
	for signal := range signals {
		if !c.post(func() { c.handleSignal(signal) }) {
			return
		}
	}
	if c.ctx.Err() == nil {
		c.logger.Warn("menu signal subscription ended")
	}
}

// teardown runs on the loop when the client context is cancelled.
func (c *Client) teardown() {
	c.closed = true
	for _, entry := range c.items {
		c.destroyItem(entry)
	}
	c.metrics.rendered(0)
	c.idle = nil
}

// updateRoot recomputes the root summary from the root's properties
// and notifies observers.
func (c *Client) updateRoot() {
	properties, exists := c.store.properties[RootID]
	if !exists {
		return
	}
	summary := RootSummary{
		Title:   properties.String(PropertyLabel),
		Active:  properties.Bool(PropertyEnabled, true),
		Visible: properties.Bool(PropertyVisible, true),
	}
	c.root.Store(&summary)

	// Latest value wins: drop an unread summary before sending. The loop
	// is the only sender, so the send cannot block.
	select {
	case <-c.rootChanged:
	default:
	}
	c.rootChanged <- summary
}

func (c *Client) publishActivation(request ActivationRequested) {
	select {
	case c.activations <- request:
	default:
		c.logger.Warn("dropping activation request, reader is behind", "id", request.ID)
	}
}
