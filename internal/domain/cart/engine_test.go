package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type fakeRemote struct {
	mu    sync.Mutex
	cart  []RawItem
	calls map[string]int

	fetchErr, addErr, removeErr, updateErr, confirmErr error

	// fetchStarted/fetchGate let a test hold a read in flight
	fetchStarted chan struct{}
	fetchGate    chan struct{}

	// addGate/removeGate hold a mutation before it touches the remote cart
	addStarted, addGate       chan struct{}
	removeStarted, removeGate chan struct{}

	inFlight, maxInFlight int
	updateDelay           time.Duration
}

func newFakeRemote(items ...RawItem) *fakeRemote {
	return &fakeRemote{cart: items, calls: map[string]int{}}
}

func (f *fakeRemote) enter(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()
}

func (f *fakeRemote) leave() {
	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
}

func (f *fakeRemote) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeRemote) snapshot() []RawItem {
	out := make([]RawItem, len(f.cart))
	copy(out, f.cart)
	return out
}

func (f *fakeRemote) Fetch(ctx context.Context) ([]RawItem, error) {
	f.mu.Lock()
	f.calls["fetch"]++
	started, gate := f.fetchStarted, f.fetchGate
	f.fetchStarted, f.fetchGate = nil, nil
	items, err := f.snapshot(), f.fetchErr
	f.mu.Unlock()

	if started != nil {
		close(started)
		<-gate
	}
	return items, err
}

// hold blocks once on a gate pair installed by a test
func (f *fakeRemote) hold(started, gate *chan struct{}) {
	f.mu.Lock()
	s, g := *started, *gate
	*started, *gate = nil, nil
	f.mu.Unlock()

	if s != nil {
		close(s)
		<-g
	}
}

func (f *fakeRemote) Add(ctx context.Context, productID string) ([]RawItem, error) {
	f.enter("add")
	defer f.leave()
	f.hold(&f.addStarted, &f.addGate)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return nil, f.addErr
	}
	f.cart = append(f.cart, rawItem("line-"+productID, productID, 5, 10, 1))
	return f.snapshot(), nil
}

func (f *fakeRemote) Remove(ctx context.Context, itemID string) error {
	f.enter("remove")
	defer f.leave()
	f.hold(&f.removeStarted, &f.removeGate)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	kept := f.cart[:0:0]
	for _, it := range f.cart {
		if it.ID != itemID {
			kept = append(kept, it)
		}
	}
	f.cart = kept
	return nil
}

func (f *fakeRemote) UpdateQuantity(ctx context.Context, itemID string, quantity int) error {
	f.enter("update")
	defer f.leave()

	if f.updateDelay > 0 {
		time.Sleep(f.updateDelay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	for i := range f.cart {
		if f.cart[i].ID == itemID {
			f.cart[i].Quantity = quantity
		}
	}
	return nil
}

func (f *fakeRemote) ConfirmPickup(ctx context.Context, itemID string) error {
	f.enter("confirm")
	defer f.leave()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.confirmErr != nil {
		return f.confirmErr
	}
	for i := range f.cart {
		if f.cart[i].ID == itemID {
			f.cart[i].Status = StatusConfirmed
		}
	}
	return nil
}

type fakeStore struct {
	mu    sync.Mutex
	saved Cart
	saves int
}

func (s *fakeStore) Save(ctx context.Context, c Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = c.Clone()
	s.saves++
	return nil
}

func (s *fakeStore) Load(ctx context.Context) Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved.Clone()
}

func (s *fakeStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

func (r *recordingNotifier) Notify(ctx context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) all() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.sent...)
}

func rawItem(id, productID string, p int64, stock, qty int) RawItem {
	return RawItem{
		ID:       id,
		Product:  &RawProduct{ID: productID, Name: "Product " + productID, Price: price(p), Stock: stock},
		Quantity: qty,
		Status:   StatusPending,
	}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestEngine(t *testing.T, remote *fakeRemote, store *fakeStore) (*Engine, *recordingNotifier) {
	t.Helper()
	notifier := &recordingNotifier{}
	return NewEngine(context.Background(), remote, store, notifier, WithLogger(quietLogger())), notifier
}

func TestEngineHydratesFromStore(t *testing.T) {
	store := &fakeStore{saved: Sanitize([]RawItem{rawItem("a", "p1", 10, 3, 1)})}
	engine, _ := newTestEngine(t, newFakeRemote(), store)

	got := engine.Snapshot()
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("expected hydrated cart, got %+v", got)
	}
}

func TestFetchReplacesAndPersists(t *testing.T) {
	remote := newFakeRemote(rawItem("a", "p1", 10, 3, 1), RawItem{ID: "bad"})
	store := &fakeStore{}
	engine, _ := newTestEngine(t, remote, store)

	if err := engine.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	got := engine.Snapshot()
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("expected sanitized cart, got %+v", got)
	}
	if store.saveCount() != 1 || len(store.Load(context.Background())) != 1 {
		t.Fatalf("expected exactly one persisted snapshot, saves=%d", store.saveCount())
	}
}

func TestFetchIsIdempotent(t *testing.T) {
	remote := newFakeRemote(rawItem("a", "p1", 10, 3, 1), rawItem("b", "p2", 4, 9, 2))
	engine, _ := newTestEngine(t, remote, &fakeStore{})

	if err := engine.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	first, _ := json.Marshal(engine.Snapshot())

	if err := engine.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	second, _ := json.Marshal(engine.Snapshot())

	if string(first) != string(second) {
		t.Fatalf("fetch not idempotent:\n%s\n%s", first, second)
	}
}

func TestFetchFailureDegradesToStore(t *testing.T) {
	cached := Sanitize([]RawItem{rawItem("a", "p1", 10, 3, 1)})
	store := &fakeStore{}
	remote := newFakeRemote()
	engine, _ := newTestEngine(t, remote, store)

	// the store changes after hydration; the fallback must read it again
	store.saved = cached
	remote.fetchErr = errors.New("connection refused")

	err := engine.Fetch(context.Background())
	if !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("expected ErrRemoteUnavailable, got %v", err)
	}

	got := engine.Snapshot()
	want := store.Load(context.Background())
	gotJSON, _ := json.Marshal(got)
	wantJSON, _ := json.Marshal(want)
	if string(gotJSON) != string(wantJSON) {
		t.Fatalf("expected cached cart %s, got %s", wantJSON, gotJSON)
	}
	if store.saveCount() != 0 {
		t.Fatalf("fallback must not persist, saves=%d", store.saveCount())
	}
}

func TestAddAdoptsRemoteCart(t *testing.T) {
	remote := newFakeRemote(rawItem("a", "p1", 10, 3, 1))
	store := &fakeStore{}
	engine, notifier := newTestEngine(t, remote, store)

	if err := engine.Add(context.Background(), "p2"); err != nil {
		t.Fatalf("add: %v", err)
	}

	got := engine.Snapshot()
	if len(got) != 2 || got[0].ID != "a" || got[1].Product.ID != "p2" {
		t.Fatalf("expected full remote cart, got %+v", got)
	}
	if len(store.Load(context.Background())) != 2 {
		t.Fatalf("expected persisted cart")
	}
	if len(notifier.all()) != 0 {
		t.Fatalf("unexpected notifications %+v", notifier.all())
	}
}

func TestAddFailureNotifiesAndKeepsState(t *testing.T) {
	store := &fakeStore{saved: Sanitize([]RawItem{rawItem("a", "p1", 10, 3, 1)})}
	remote := newFakeRemote()
	remote.addErr = errors.New("500 internal server error")
	engine, notifier := newTestEngine(t, remote, store)

	err := engine.Add(context.Background(), "p2")
	if !errors.Is(err, ErrAddFailed) {
		t.Fatalf("expected ErrAddFailed, got %v", err)
	}

	if got := engine.Snapshot(); len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("state changed on failure: %+v", got)
	}
	sent := notifier.all()
	if len(sent) != 1 || sent[0].Severity != SeverityError {
		t.Fatalf("expected one error notification, got %+v", sent)
	}
}

func TestAddRequiresProductID(t *testing.T) {
	remote := newFakeRemote()
	engine, notifier := newTestEngine(t, remote, &fakeStore{})

	if err := engine.Add(context.Background(), " "); !errors.Is(err, ErrInvalidProduct) {
		t.Fatalf("expected ErrInvalidProduct, got %v", err)
	}
	if remote.count("add") != 0 {
		t.Fatalf("remote must not be called")
	}
	if len(notifier.all()) != 0 {
		t.Fatalf("unexpected notification")
	}
}

func TestRemoveUnknownLineIsNoop(t *testing.T) {
	remote := newFakeRemote()
	engine, _ := newTestEngine(t, remote, &fakeStore{})

	if err := engine.Remove(context.Background(), "missing"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if remote.count("remove") != 0 {
		t.Fatalf("remote must not be called for unknown line")
	}
}

func TestRemoveAppliesLocally(t *testing.T) {
	remote := newFakeRemote(rawItem("a", "p1", 10, 3, 1), rawItem("b", "p2", 4, 9, 2))
	store := &fakeStore{}
	engine, _ := newTestEngine(t, remote, store)
	if err := engine.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if err := engine.Remove(context.Background(), "a"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	got := engine.Snapshot()
	if len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("expected only b, got %+v", got)
	}
	if saved := store.Load(context.Background()); len(saved) != 1 || saved[0].ID != "b" {
		t.Fatalf("removal not persisted: %+v", saved)
	}
	if remote.count("fetch") != 1 {
		t.Fatalf("remove must not resync")
	}
}

func TestRemoveFailureIsSilent(t *testing.T) {
	remote := newFakeRemote(rawItem("a", "p1", 10, 3, 1))
	engine, notifier := newTestEngine(t, remote, &fakeStore{})
	if err := engine.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	remote.removeErr = errors.New("timeout")

	err := engine.Remove(context.Background(), "a")
	if !errors.Is(err, ErrRemoveFailed) {
		t.Fatalf("expected ErrRemoveFailed, got %v", err)
	}
	if len(engine.Snapshot()) != 1 {
		t.Fatalf("line removed despite failure")
	}
	if len(notifier.all()) != 0 {
		t.Fatalf("remove failures must not notify")
	}
}

func TestUpdateQuantityRejectsNonPositive(t *testing.T) {
	remote := newFakeRemote(rawItem("a", "p1", 10, 3, 1))
	engine, _ := newTestEngine(t, remote, &fakeStore{})

	for _, qty := range []int{0, -1} {
		err := engine.UpdateQuantity(context.Background(), "a", qty)
		if !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("qty %d: expected ErrInvalidQuantity, got %v", qty, err)
		}
	}
	if remote.count("update") != 0 || remote.count("fetch") != 0 {
		t.Fatalf("remote must not be called for invalid quantity")
	}
}

func TestUpdateQuantityResyncs(t *testing.T) {
	remote := newFakeRemote(rawItem("a", "p1", 10, 3, 1))
	engine, _ := newTestEngine(t, remote, &fakeStore{})
	if err := engine.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if err := engine.UpdateQuantity(context.Background(), "a", 2); err != nil {
		t.Fatalf("update: %v", err)
	}

	got := engine.Snapshot()
	if len(got) != 1 || got[0].Quantity != 2 {
		t.Fatalf("expected one line with quantity 2, got %+v", got)
	}
	if remote.count("fetch") != 2 {
		t.Fatalf("expected resync fetch, got %d fetches", remote.count("fetch"))
	}
}

func TestUpdateQuantityInsufficientStock(t *testing.T) {
	remote := newFakeRemote(rawItem("a", "p1", 10, 3, 1))
	engine, notifier := newTestEngine(t, remote, &fakeStore{})
	if err := engine.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	remote.updateErr = ErrStockExhausted

	err := engine.UpdateQuantity(context.Background(), "a", 5)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if !errors.Is(err, ErrUpdateFailed) {
		t.Fatalf("insufficient stock should also match ErrUpdateFailed")
	}

	if got := engine.Snapshot(); got[0].Quantity != 1 {
		t.Fatalf("quantity changed to %d", got[0].Quantity)
	}
	sent := notifier.all()
	if len(sent) != 1 || sent[0].Severity != SeverityWarning {
		t.Fatalf("expected one warning notification, got %+v", sent)
	}
}

func TestUpdateQuantityGenericFailure(t *testing.T) {
	remote := newFakeRemote(rawItem("a", "p1", 10, 3, 1))
	remote.updateErr = context.DeadlineExceeded
	engine, notifier := newTestEngine(t, remote, &fakeStore{})

	err := engine.UpdateQuantity(context.Background(), "a", 2)
	if !errors.Is(err, ErrUpdateFailed) || errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected plain ErrUpdateFailed, got %v", err)
	}
	if len(notifier.all()) != 0 {
		t.Fatalf("generic update failures must not notify")
	}
	if remote.count("fetch") != 0 {
		t.Fatalf("failed update must not resync")
	}
}

func TestConfirmPickup(t *testing.T) {
	remote := newFakeRemote(rawItem("a", "p1", 10, 3, 1))
	engine, _ := newTestEngine(t, remote, &fakeStore{})

	if err := engine.ConfirmPickup(context.Background(), "a"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got := engine.Snapshot(); len(got) != 1 || got[0].Status != StatusConfirmed {
		t.Fatalf("expected confirmed line, got %+v", got)
	}

	remote.confirmErr = errors.New("boom")
	if err := engine.ConfirmPickup(context.Background(), "a"); !errors.Is(err, ErrConfirmFailed) {
		t.Fatalf("expected ErrConfirmFailed, got %v", err)
	}
}

func TestStaleFetchDoesNotOverwriteNewerMutation(t *testing.T) {
	remote := newFakeRemote(rawItem("a", "p1", 10, 3, 1))
	engine, _ := newTestEngine(t, remote, &fakeStore{})

	started := make(chan struct{})
	gate := make(chan struct{})
	remote.mu.Lock()
	remote.fetchStarted, remote.fetchGate = started, gate
	remote.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- engine.Fetch(context.Background()) }()
	<-started

	// the read above already holds the old cart; this mutation starts later
	if err := engine.Add(context.Background(), "p2"); err != nil {
		t.Fatalf("add: %v", err)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if got := engine.Snapshot(); len(got) != 2 {
		t.Fatalf("stale read overwrote newer state: %+v", got)
	}
}

func TestAddResultAppliedDespiteConcurrentFetch(t *testing.T) {
	remote := newFakeRemote(rawItem("a", "p1", 10, 3, 1))
	store := &fakeStore{}
	engine, _ := newTestEngine(t, remote, store)

	started := make(chan struct{})
	gate := make(chan struct{})
	remote.mu.Lock()
	remote.addStarted, remote.addGate = started, gate
	remote.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- engine.Add(context.Background(), "p2") }()
	<-started

	// a read that starts and ends while the add is in flight
	if err := engine.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("add: %v", err)
	}

	if got := engine.Snapshot(); len(got) != 2 {
		t.Fatalf("add result was discarded: %+v", got)
	}
	if saved := store.Load(context.Background()); len(saved) != 2 {
		t.Fatalf("add result was not persisted: %+v", saved)
	}
}

func TestRemoveResultAppliedDespiteConcurrentFetch(t *testing.T) {
	remote := newFakeRemote(rawItem("a", "p1", 10, 3, 1))
	store := &fakeStore{}
	engine, _ := newTestEngine(t, remote, store)
	if err := engine.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	started := make(chan struct{})
	gate := make(chan struct{})
	remote.mu.Lock()
	remote.removeStarted, remote.removeGate = started, gate
	remote.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- engine.Remove(context.Background(), "a") }()
	<-started

	// still sees line a on the remote
	if err := engine.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("remove: %v", err)
	}

	if got := engine.Snapshot(); len(got) != 0 {
		t.Fatalf("remove result was discarded: %+v", got)
	}
	if saved := store.Load(context.Background()); len(saved) != 0 {
		t.Fatalf("removed line still persisted: %+v", saved)
	}
}

func TestRemoveRechecksLineAfterQueueing(t *testing.T) {
	remote := newFakeRemote(rawItem("a", "p1", 10, 3, 1))
	engine, _ := newTestEngine(t, remote, &fakeStore{})
	if err := engine.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if err := engine.acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- engine.Remove(context.Background(), "a") }()

	// the line goes away while the remove waits for the queue
	engine.apply(context.Background(), nil, func(c Cart) Cart { return c.Without("a") }, true)
	engine.release()

	if err := <-done; err != nil {
		t.Fatalf("remove: %v", err)
	}
	if remote.count("remove") != 0 {
		t.Fatalf("remove of a vanished line reached the remote")
	}
}

func TestConcurrentRemovesOfSameLine(t *testing.T) {
	remote := newFakeRemote(rawItem("a", "p1", 10, 3, 1))
	engine, _ := newTestEngine(t, remote, &fakeStore{})
	if err := engine.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	started := make(chan struct{})
	gate := make(chan struct{})
	remote.mu.Lock()
	remote.removeStarted, remote.removeGate = started, gate
	remote.mu.Unlock()

	first := make(chan error, 1)
	go func() { first <- engine.Remove(context.Background(), "a") }()
	<-started

	second := make(chan error, 1)
	go func() { second <- engine.Remove(context.Background(), "a") }()

	close(gate)
	for _, ch := range []chan error{first, second} {
		if err := <-ch; err != nil {
			t.Fatalf("remove: %v", err)
		}
	}
	if n := remote.count("remove"); n != 1 {
		t.Fatalf("expected one remote remove, got %d", n)
	}
	if got := engine.Snapshot(); len(got) != 0 {
		t.Fatalf("expected empty cart, got %+v", got)
	}
}

func TestMutationsAreSerialized(t *testing.T) {
	remote := newFakeRemote(rawItem("a", "p1", 10, 30, 1))
	remote.updateDelay = 5 * time.Millisecond
	engine, _ := newTestEngine(t, remote, &fakeStore{})

	var wg sync.WaitGroup
	for q := 1; q <= 5; q++ {
		wg.Add(1)
		go func(q int) {
			defer wg.Done()
			if err := engine.UpdateQuantity(context.Background(), "a", q); err != nil {
				t.Errorf("update %d: %v", q, err)
			}
		}(q)
	}
	wg.Wait()

	remote.mu.Lock()
	maxInFlight := remote.maxInFlight
	final := remote.cart[0].Quantity
	remote.mu.Unlock()

	if maxInFlight != 1 {
		t.Fatalf("expected serialized mutations, saw %d in flight", maxInFlight)
	}
	if got := engine.Snapshot(); got[0].Quantity != final {
		t.Fatalf("local quantity %d diverged from remote %d", got[0].Quantity, final)
	}
}

func TestQueuedMutationHonoursContext(t *testing.T) {
	remote := newFakeRemote(rawItem("a", "p1", 10, 3, 1))
	engine, _ := newTestEngine(t, remote, &fakeStore{})

	// occupy the mutation slot
	if err := engine.acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer engine.release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := engine.UpdateQuantity(ctx, "a", 2)
	if !errors.Is(err, ErrUpdateFailed) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected update failure from deadline, got %v", err)
	}
	if remote.count("update") != 0 {
		t.Fatalf("queued mutation must not reach the remote")
	}
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	remote := newFakeRemote(rawItem("a", "p1", 10, 3, 1))
	engine, _ := newTestEngine(t, remote, &fakeStore{})

	var seen []Cart
	cancel := engine.Subscribe(func(c Cart) { seen = append(seen, c) })

	if err := engine.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(seen) != 1 || len(seen[0]) != 1 {
		t.Fatalf("expected one notification with one line, got %+v", seen)
	}

	// observers get their own copy
	seen[0][0].Quantity = 99
	if engine.Snapshot()[0].Quantity != 1 {
		t.Fatalf("observer mutated canonical cart")
	}

	cancel()
	cancel()
	if err := engine.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(seen) != 1 {
		t.Fatalf("cancelled observer still notified")
	}
}

func TestObserverEndsOnLatestCart(t *testing.T) {
	remote := newFakeRemote(rawItem("a", "p1", 10, 3, 1))
	engine, _ := newTestEngine(t, remote, &fakeStore{})

	var (
		mu   sync.Mutex
		last Cart
		seen int
	)
	engine.Subscribe(func(c Cart) {
		mu.Lock()
		last = c
		seen++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := engine.Fetch(context.Background()); err != nil {
				t.Errorf("fetch: %v", err)
			}
		}()
		go func(i int) {
			defer wg.Done()
			if err := engine.Add(context.Background(), fmt.Sprintf("p%d", i+2)); err != nil {
				t.Errorf("add: %v", err)
			}
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if seen == 0 {
		t.Fatalf("observer never notified")
	}
	want := engine.Snapshot()
	if len(last) != len(want) {
		t.Fatalf("observer ended on %d lines, snapshot has %d", len(last), len(want))
	}
	for i := range want {
		if last[i].ID != want[i].ID || last[i].Quantity != want[i].Quantity {
			t.Fatalf("line %d: observer saw %+v, snapshot has %+v", i, last[i], want[i])
		}
	}
}

func TestConcurrentReadsSeeWholeStates(t *testing.T) {
	remote := newFakeRemote(rawItem("a", "p1", 10, 3, 1))
	engine, _ := newTestEngine(t, remote, &fakeStore{})
	if err := engine.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				for _, item := range engine.Snapshot() {
					if item.Product.ID == "" || item.Quantity < 1 {
						t.Errorf("torn line observed: %+v", item)
						return
					}
				}
			}
		}()
	}

	for _, id := range []string{"p2", "p3", "p4"} {
		if err := engine.Add(context.Background(), id); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if err := engine.Remove(context.Background(), "a"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	close(stop)
	wg.Wait()

	if got := engine.Snapshot(); len(got) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(got))
	}
}
