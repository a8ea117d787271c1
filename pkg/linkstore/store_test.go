package linkstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/poruru210/sankey-copier-sub002/pkg/pubsub"
	"github.com/poruru210/sankey-copier-sub002/pkg/relay"
)

const testWindow = 25 * time.Millisecond

type toggleCall struct {
	id      int64
	enabled bool
}

// fakeAPI is a controllable RemoteAPI for store tests.
type fakeAPI struct {
	mu          sync.Mutex
	nextID      int64
	settings    []relay.CopyLink
	failCreate  error
	failUpdate  error
	failDelete  error
	failToggle  error
	createCalls int
	toggleCalls []toggleCall
	fetchCalls  int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{nextID: 100}
}

func (f *fakeAPI) GetSettings(ctx context.Context) ([]relay.CopyLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	out := make([]relay.CopyLink, len(f.settings))
	copy(out, f.settings)
	return out, nil
}

func (f *fakeAPI) CreateSetting(ctx context.Context, link relay.CopyLink) (*relay.CopyLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.failCreate != nil {
		return nil, f.failCreate
	}
	link.ID = f.nextID
	f.nextID++
	f.settings = append(f.settings, link)
	return &link, nil
}

func (f *fakeAPI) UpdateSetting(ctx context.Context, link relay.CopyLink) (*relay.CopyLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate != nil {
		return nil, f.failUpdate
	}
	return &link, nil
}

func (f *fakeAPI) DeleteSetting(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failDelete
}

func (f *fakeAPI) ToggleSetting(ctx context.Context, id int64, enabled bool) (*relay.CopyLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failToggle != nil {
		return nil, f.failToggle
	}
	f.toggleCalls = append(f.toggleCalls, toggleCall{id: id, enabled: enabled})
	return nil, nil
}

func (f *fakeAPI) toggleCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.toggleCalls)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T, api RemoteAPI) *Store {
	t.Helper()
	s := New(api, pubsub.NewBus(), testLogger(), Options{DebounceWindow: testWindow})
	t.Cleanup(s.Close)
	return s
}

func seedLink(t *testing.T, s *Store, master, slave string, enabled bool) relay.CopyLink {
	t.Helper()
	link, err := s.Create(relay.CopyLink{MasterAccount: master, SlaveAccount: slave, Enabled: enabled})
	if err != nil {
		t.Fatalf("Failed to seed link: %v", err)
	}
	return link
}

func TestCreateAssignsAuthoritativeID(t *testing.T) {
	api := newFakeAPI()
	s := newTestStore(t, api)

	link := seedLink(t, s, "master-1", "slave-1", true)

	if link.ID <= 0 {
		t.Errorf("Expected server-assigned id, got %d", link.ID)
	}
	if s.Count() != 1 {
		t.Errorf("Expected 1 link, got %d", s.Count())
	}
}

func TestCreateFailureRollsBack(t *testing.T) {
	api := newFakeAPI()
	s := newTestStore(t, api)
	seedLink(t, s, "master-1", "slave-1", true)

	api.failCreate = errors.New("boom")
	_, err := s.Create(relay.CopyLink{MasterAccount: "master-1", SlaveAccount: "slave-2", Enabled: true})
	if err == nil {
		t.Fatal("Expected create to fail")
	}

	// The visible count must be back at its pre-create value.
	if s.Count() != 1 {
		t.Errorf("Expected 1 link after rollback, got %d", s.Count())
	}

	muts := s.Mutations()
	last := muts[len(muts)-1]
	if last.State != StateRolledBack {
		t.Errorf("Expected rolled_back mutation, got %s", last.State)
	}
}

func TestCreateOptimisticTempID(t *testing.T) {
	api := newFakeAPI()
	bus := pubsub.NewBus()
	s := New(api, bus, testLogger(), Options{DebounceWindow: testWindow})
	defer s.Close()

	// Block the remote call so we can observe the speculative state.
	blocking := &blockingAPI{
		fakeAPI: api,
		release: make(chan struct{}),
		entered: make(chan struct{}),
	}
	s.api = blocking

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Create(relay.CopyLink{MasterAccount: "m", SlaveAccount: "s", Enabled: true})
	}()

	<-blocking.entered

	links := s.Links()
	if len(links) != 1 {
		t.Fatalf("Expected speculative link visible immediately, got %d", len(links))
	}
	if links[0].ID >= 0 {
		t.Errorf("Expected temporary negative id, got %d", links[0].ID)
	}

	close(blocking.release)
	<-done

	links = s.Links()
	if len(links) != 1 || links[0].ID <= 0 {
		t.Errorf("Expected authoritative id after confirmation, got %+v", links)
	}
}

// blockingAPI delays CreateSetting until released.
type blockingAPI struct {
	*fakeAPI
	release chan struct{}
	entered chan struct{}
}

func (b *blockingAPI) CreateSetting(ctx context.Context, link relay.CopyLink) (*relay.CopyLink, error) {
	close(b.entered)
	<-b.release
	return b.fakeAPI.CreateSetting(ctx, link)
}

func TestCreateRejectsSameAccount(t *testing.T) {
	s := newTestStore(t, newFakeAPI())

	_, err := s.Create(relay.CopyLink{MasterAccount: "acct", SlaveAccount: "acct"})
	if !errors.Is(err, ErrSameAccount) {
		t.Errorf("Expected ErrSameAccount, got %v", err)
	}
}

func TestCreateRejectsDuplicateEnabledPair(t *testing.T) {
	api := newFakeAPI()
	s := newTestStore(t, api)
	seedLink(t, s, "master-1", "slave-1", true)

	_, err := s.Create(relay.CopyLink{MasterAccount: "master-1", SlaveAccount: "slave-1", Enabled: true})
	if !errors.Is(err, ErrDuplicatePair) {
		t.Errorf("Expected ErrDuplicatePair, got %v", err)
	}

	// A disabled duplicate is allowed.
	if _, err := s.Create(relay.CopyLink{MasterAccount: "master-1", SlaveAccount: "slave-1", Enabled: false}); err != nil {
		t.Errorf("Disabled duplicate should be allowed, got %v", err)
	}
}

func TestUpdateFailureRollsBack(t *testing.T) {
	api := newFakeAPI()
	s := newTestStore(t, api)
	link := seedLink(t, s, "master-1", "slave-1", true)

	api.failUpdate = errors.New("boom")
	changed := link
	changed.SlaveAccount = "slave-2"
	if err := s.Update(changed); err == nil {
		t.Fatal("Expected update to fail")
	}

	got, ok := s.Get(link.ID)
	if !ok || got.SlaveAccount != "slave-1" {
		t.Errorf("Expected original record restored, got %+v", got)
	}
}

func TestDeleteFailureRollsBack(t *testing.T) {
	api := newFakeAPI()
	s := newTestStore(t, api)
	link := seedLink(t, s, "master-1", "slave-1", true)

	api.failDelete = errors.New("boom")
	if err := s.Delete(link.ID); err == nil {
		t.Fatal("Expected delete to fail")
	}
	if s.Count() != 1 {
		t.Errorf("Expected link restored after failed delete, got %d links", s.Count())
	}
}

func TestToggleDebounceCoalesces(t *testing.T) {
	api := newFakeAPI()
	s := newTestStore(t, api)
	link := seedLink(t, s, "master-1", "slave-1", true)

	// Off, on, off, on within one window: four intents collapse into a
	// single call carrying the final (enabled) state.
	for i := 0; i < 4; i++ {
		if err := s.Toggle(link.ID); err != nil {
			t.Fatalf("Toggle %d failed: %v", i, err)
		}
	}

	time.Sleep(4 * testWindow)

	api.mu.Lock()
	calls := append([]toggleCall(nil), api.toggleCalls...)
	api.mu.Unlock()

	if len(calls) != 1 {
		t.Fatalf("Expected exactly 1 network call, got %d", len(calls))
	}
	if !calls[0].enabled {
		t.Error("Expected final desired state to be enabled")
	}

	got, _ := s.Get(link.ID)
	if !got.Enabled {
		t.Error("Expected link to remain enabled")
	}
}

func TestToggleDebounceSendsFinalState(t *testing.T) {
	api := newFakeAPI()
	s := newTestStore(t, api)
	link := seedLink(t, s, "master-1", "slave-1", true)

	// Off, then on, then off: three intents, one call, final state off.
	for i := 0; i < 3; i++ {
		if err := s.Toggle(link.ID); err != nil {
			t.Fatalf("Toggle %d failed: %v", i, err)
		}
	}

	time.Sleep(4 * testWindow)

	api.mu.Lock()
	calls := append([]toggleCall(nil), api.toggleCalls...)
	api.mu.Unlock()

	if len(calls) != 1 {
		t.Fatalf("Expected exactly 1 network call, got %d", len(calls))
	}
	if calls[0].enabled {
		t.Error("Expected final desired state to be disabled")
	}
}

func TestToggleOptimisticStateIsImmediate(t *testing.T) {
	api := newFakeAPI()
	s := newTestStore(t, api)
	link := seedLink(t, s, "master-1", "slave-1", true)

	if err := s.Toggle(link.ID); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}

	// Visible state flips before any network traffic.
	got, _ := s.Get(link.ID)
	if got.Enabled {
		t.Error("Expected visible state disabled immediately after toggle")
	}
	if n := api.toggleCallCount(); n != 0 {
		t.Errorf("Expected no network call inside the window, got %d", n)
	}
}

func TestToggleFailureRestoresSnapshot(t *testing.T) {
	api := newFakeAPI()
	s := newTestStore(t, api)
	link := seedLink(t, s, "master-1", "slave-1", true)

	api.failToggle = errors.New("boom")
	if err := s.Toggle(link.ID); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}

	time.Sleep(4 * testWindow)

	got, _ := s.Get(link.ID)
	if !got.Enabled {
		t.Error("Expected enabled state restored after remote failure")
	}
}

func TestApplyEventDeleteAbsentIsNoOp(t *testing.T) {
	api := newFakeAPI()
	s := newTestStore(t, api)
	seedLink(t, s, "master-1", "slave-1", true)

	before := s.Links()
	s.ApplyEvent(relay.Event{Type: relay.EventDeleted, ID: 9999})
	after := s.Links()

	if len(before) != len(after) {
		t.Errorf("Expected no state change, got %d -> %d links", len(before), len(after))
	}
}

func TestApplyEventUpdateIsIdempotent(t *testing.T) {
	api := newFakeAPI()
	s := newTestStore(t, api)
	link := seedLink(t, s, "master-1", "slave-1", true)

	updated := link
	updated.Enabled = false
	ev := relay.Event{Type: relay.EventUpdated, ID: link.ID, Link: &updated}

	s.ApplyEvent(ev)
	once := s.Links()

	s.ApplyEvent(ev)
	twice := s.Links()

	if len(once) != len(twice) {
		t.Fatalf("Replay changed link count: %d -> %d", len(once), len(twice))
	}
	for i := range once {
		if !once[i].Equal(twice[i]) {
			t.Errorf("Replay changed record %d: %+v vs %+v", i, once[i], twice[i])
		}
	}
}

func TestApplyEventCreatedUpserts(t *testing.T) {
	api := newFakeAPI()
	s := newTestStore(t, api)

	link := relay.CopyLink{ID: 7, MasterAccount: "m", SlaveAccount: "s", Enabled: true}
	s.ApplyEvent(relay.Event{Type: relay.EventCreated, ID: 7, Link: &link})

	if s.Count() != 1 {
		t.Fatalf("Expected 1 link, got %d", s.Count())
	}

	// A duplicate created event replaces, never duplicates.
	s.ApplyEvent(relay.Event{Type: relay.EventCreated, ID: 7, Link: &link})
	if s.Count() != 1 {
		t.Errorf("Expected 1 link after duplicate event, got %d", s.Count())
	}
}

func TestResyncRefetches(t *testing.T) {
	api := newFakeAPI()
	api.settings = []relay.CopyLink{
		{ID: 1, MasterAccount: "m", SlaveAccount: "s", Enabled: true},
		{ID: 2, MasterAccount: "m", SlaveAccount: "s2", Enabled: false},
	}
	s := newTestStore(t, api)

	s.ApplyEvent(relay.Event{Type: relay.EventResync})

	if s.Count() != 2 {
		t.Errorf("Expected authoritative list of 2 links, got %d", s.Count())
	}
	api.mu.Lock()
	fetches := api.fetchCalls
	api.mu.Unlock()
	if fetches != 1 {
		t.Errorf("Expected 1 refetch, got %d", fetches)
	}
}

func TestCloseStopsPendingToggles(t *testing.T) {
	api := newFakeAPI()
	s := newTestStore(t, api)
	link := seedLink(t, s, "master-1", "slave-1", true)

	if err := s.Toggle(link.ID); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	s.Close()

	time.Sleep(4 * testWindow)

	if n := api.toggleCallCount(); n != 0 {
		t.Errorf("Expected no network calls after close, got %d", n)
	}
	if err := s.Toggle(link.ID); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed after close, got %v", err)
	}
}
