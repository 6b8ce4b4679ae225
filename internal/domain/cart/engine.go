// internal/domain/cart/engine.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/your-org/cart-sync/internal/domain/cart"

// User-facing texts sent to the Notifier
var (
	addFailedNotification = Notification{
		Title:    "Error",
		Message:  "No se pudo agregar el producto",
		Severity: SeverityError,
	}
	insufficientStockNotification = Notification{
		Title:    "Stock insuficiente",
		Message:  "No hay suficientes unidades disponibles",
		Severity: SeverityWarning,
	}
)

// Engine owns the canonical cart of one client session and keeps it in step
// with the remote store.
//
// Mutations are queued one at a time and their results are always applied.
// A read records the mutation sequence when it starts and is discarded if any
// mutation started or finished before it returned, so a slow Fetch never
// overwrites the outcome of a mutation.
//
// Observers see carts in the order they were applied. They run synchronously
// and must not call mutating methods of the engine.
type Engine struct {
	remote   RemoteClient
	store    Store
	notifier Notifier
	logger   logrus.FieldLogger
	tracer   trace.Tracer
	ops      metric.Int64Counter

	mutations chan struct{}
	reads     atomic.Uint64
	notifyMu  sync.Mutex

	mu        sync.RWMutex
	items     Cart
	version   uint64
	mutSeq    uint64
	lastRead  uint64
	observers map[int]func(Cart)
	nextObs   int
}

// readMark pins a remote read to the state it started from
type readMark struct {
	ticket uint64
	mutSeq uint64
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine logger
func WithLogger(logger logrus.FieldLogger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithTracerProvider overrides the global tracer provider
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		e.tracer = tp.Tracer(instrumentationName)
	}
}

// WithMeterProvider overrides the global meter provider
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(e *Engine) {
		e.ops = newOpsCounter(mp.Meter(instrumentationName))
	}
}

// NewEngine creates an engine and hydrates it from the store
func NewEngine(ctx context.Context, remote RemoteClient, store Store, notifier Notifier, opts ...Option) *Engine {
	if notifier == nil {
		notifier = nopNotifier{}
	}

	e := &Engine{
		remote:    remote,
		store:     store,
		notifier:  notifier,
		logger:    logrus.StandardLogger(),
		tracer:    otel.Tracer(instrumentationName),
		mutations: make(chan struct{}, 1),
		observers: make(map[int]func(Cart)),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.ops == nil {
		e.ops = newOpsCounter(otel.Meter(instrumentationName))
	}

	e.items = store.Load(ctx).Clone()
	e.logger.WithField("lines", len(e.items)).Debug("cart hydrated from store")

	return e
}

func newOpsCounter(m metric.Meter) metric.Int64Counter {
	counter, err := m.Int64Counter("cart.sync.operations",
		metric.WithDescription("Cart synchronization operations by outcome"),
	)
	if err != nil {
		return noop.Int64Counter{}
	}
	return counter
}

// Snapshot returns a copy of the canonical cart
func (e *Engine) Snapshot() Cart {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.items.Clone()
}

// Subscribe registers fn to receive every new canonical cart.
// The returned function removes the subscription.
func (e *Engine) Subscribe(fn func(Cart)) func() {
	e.mu.Lock()
	id := e.nextObs
	e.nextObs++
	e.observers[id] = fn
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.observers, id)
			e.mu.Unlock()
		})
	}
}

// Fetch pulls the full cart from the remote. When the remote cannot be read
// the cart falls back to the last persisted snapshot and ErrRemoteUnavailable
// is returned; the cart stays usable.
func (e *Engine) Fetch(ctx context.Context) (err error) {
	ctx, span := e.tracer.Start(ctx, "cart.Fetch")
	defer func() { e.finish(ctx, span, "fetch", err) }()

	return e.fetch(ctx)
}

func (e *Engine) fetch(ctx context.Context) error {
	mark := e.beginRead()

	raw, err := e.remote.Fetch(ctx)
	if err != nil {
		cached := e.store.Load(context.WithoutCancel(ctx))
		e.apply(ctx, &mark, func(Cart) Cart { return cached }, false)
		e.logger.WithError(err).WithField("lines", len(cached)).Warn("remote cart unavailable, using cached snapshot")
		return opError(ErrRemoteUnavailable, "", err)
	}

	next := Sanitize(raw)
	if dropped := len(raw) - len(next); dropped > 0 {
		e.logger.WithField("dropped", dropped).Warn("discarded malformed cart lines")
	}
	if !e.apply(ctx, &mark, func(Cart) Cart { return next }, true) {
		e.logger.WithField("read", mark.ticket).Debug("discarding stale cart read")
	}
	return nil
}

// Add asks the remote to add one unit of productID and adopts the full cart it
// returns. The user is notified when it fails.
func (e *Engine) Add(ctx context.Context, productID string) (err error) {
	ctx, span := e.tracer.Start(ctx, "cart.Add", trace.WithAttributes(attribute.String("product.id", productID)))
	defer func() { e.finish(ctx, span, "add", err) }()

	if strings.TrimSpace(productID) == "" {
		return ErrInvalidProduct
	}

	if err := e.acquire(ctx); err != nil {
		e.notifier.Notify(ctx, addFailedNotification)
		return opError(ErrAddFailed, "", err)
	}
	defer e.release()

	raw, err := e.remote.Add(ctx, productID)
	if err != nil {
		e.logger.WithError(err).WithField("product_id", productID).Error("failed to add product to cart")
		e.notifier.Notify(ctx, addFailedNotification)
		return opError(ErrAddFailed, "", fmt.Errorf("product %s: %w", productID, err))
	}

	next := Sanitize(raw)
	e.apply(ctx, nil, func(Cart) Cart { return next }, true)
	return nil
}

// Remove deletes a line remotely and then drops it from the local cart.
// Unknown ids are ignored. Failures are logged only.
func (e *Engine) Remove(ctx context.Context, itemID string) (err error) {
	ctx, span := e.tracer.Start(ctx, "cart.Remove", trace.WithAttributes(attribute.String("item.id", itemID)))
	defer func() { e.finish(ctx, span, "remove", err) }()

	if err := e.acquire(ctx); err != nil {
		return opError(ErrRemoveFailed, itemID, err)
	}
	defer e.release()

	// an earlier queued Remove may already have dropped it
	if _, ok := e.Snapshot().Find(itemID); !ok {
		return nil
	}

	if err := e.remote.Remove(ctx, itemID); err != nil {
		e.logger.WithError(err).WithField("item_id", itemID).Warn("failed to remove cart line")
		return opError(ErrRemoveFailed, itemID, err)
	}

	e.apply(ctx, nil, func(current Cart) Cart { return current.Without(itemID) }, true)
	return nil
}

// UpdateQuantity sets the quantity of a line and then resynchronizes the whole
// cart, since stock and other lines may have changed as a result.
func (e *Engine) UpdateQuantity(ctx context.Context, itemID string, quantity int) (err error) {
	ctx, span := e.tracer.Start(ctx, "cart.UpdateQuantity", trace.WithAttributes(
		attribute.String("item.id", itemID),
		attribute.Int("quantity", quantity),
	))
	defer func() { e.finish(ctx, span, "update_quantity", err) }()

	if quantity < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}

	if err := e.acquire(ctx); err != nil {
		return opError(ErrUpdateFailed, itemID, err)
	}
	defer e.release()

	if err := e.remote.UpdateQuantity(ctx, itemID, quantity); err != nil {
		logger := e.logger.WithError(err).WithFields(logrus.Fields{"item_id": itemID, "quantity": quantity})
		if errors.Is(err, ErrStockExhausted) {
			logger.Warn("quantity rejected for insufficient stock")
			e.notifier.Notify(ctx, insufficientStockNotification)
			return stockError(itemID, err)
		}
		logger.Error("failed to update cart quantity")
		return opError(ErrUpdateFailed, itemID, err)
	}

	e.resync(ctx, "update_quantity")
	return nil
}

// ConfirmPickup marks a line confirmed and resynchronizes the whole cart
func (e *Engine) ConfirmPickup(ctx context.Context, itemID string) (err error) {
	ctx, span := e.tracer.Start(ctx, "cart.ConfirmPickup", trace.WithAttributes(attribute.String("item.id", itemID)))
	defer func() { e.finish(ctx, span, "confirm_pickup", err) }()

	if err := e.acquire(ctx); err != nil {
		return opError(ErrConfirmFailed, itemID, err)
	}
	defer e.release()

	if err := e.remote.ConfirmPickup(ctx, itemID); err != nil {
		e.logger.WithError(err).WithField("item_id", itemID).Error("failed to confirm pickup")
		return opError(ErrConfirmFailed, itemID, err)
	}

	e.resync(ctx, "confirm_pickup")
	return nil
}

// resync runs after a mutation the remote accepted; a failed read only
// degrades the view to the cached snapshot, the mutation itself stands.
func (e *Engine) resync(ctx context.Context, op string) {
	if err := e.fetch(ctx); err != nil {
		e.logger.WithError(err).WithField("op", op).Warn("resync after mutation degraded to cache")
	}
}

func (e *Engine) acquire(ctx context.Context) error {
	select {
	case e.mutations <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	e.bumpMutations()
	return nil
}

func (e *Engine) release() {
	e.bumpMutations()
	<-e.mutations
}

func (e *Engine) bumpMutations() {
	e.mu.Lock()
	e.mutSeq++
	e.mu.Unlock()
}

func (e *Engine) beginRead() readMark {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return readMark{ticket: e.reads.Add(1), mutSeq: e.mutSeq}
}

// apply swaps in the cart produced by next. A read result (read != nil) is
// dropped when a mutation started or finished since the read began, or when a
// later read was already applied. The snapshot is persisted before the swap
// becomes visible.
func (e *Engine) apply(ctx context.Context, read *readMark, next func(current Cart) Cart, persist bool) bool {
	e.mu.Lock()
	if read != nil {
		if read.mutSeq != e.mutSeq || read.ticket <= e.lastRead {
			e.mu.Unlock()
			return false
		}
		e.lastRead = read.ticket
	}

	updated := next(e.items).Clone()
	if persist {
		if err := e.store.Save(context.WithoutCancel(ctx), updated); err != nil {
			e.logger.WithError(err).Warn("failed to persist cart snapshot")
		}
	}
	e.items = updated
	e.version++
	version := e.version
	e.mu.Unlock()

	e.publish(version)
	return true
}

// publish hands the cart at version to the observers unless a newer cart was
// applied meanwhile; that one gets its own publish.
func (e *Engine) publish(version uint64) {
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()

	e.mu.RLock()
	if version != e.version {
		e.mu.RUnlock()
		return
	}
	current := e.items
	observers := make([]func(Cart), 0, len(e.observers))
	for _, fn := range e.observers {
		observers = append(observers, fn)
	}
	e.mu.RUnlock()

	for _, fn := range observers {
		fn(current.Clone())
	}
}

func (e *Engine) finish(ctx context.Context, span trace.Span, op string, err error) {
	outcome := outcomeOf(err)
	e.ops.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	span.End()
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, ErrInvalidProduct):
		return "invalid_product"
	case errors.Is(err, ErrRemoteUnavailable):
		return "remote_unavailable"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrAddFailed):
		return "add_failed"
	case errors.Is(err, ErrRemoveFailed):
		return "remove_failed"
	case errors.Is(err, ErrUpdateFailed):
		return "update_failed"
	case errors.Is(err, ErrConfirmFailed):
		return "confirm_failed"
	default:
		return "error"
	}
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Notification) {}
