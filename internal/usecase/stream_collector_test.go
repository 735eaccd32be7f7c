package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"MoodPulse/internal/domain/models"
	internalrepo "MoodPulse/internal/repository"
)

// fakeStream drops its first connection immediately and rejects a fixed
// number of reconnect attempts before recovering.
type fakeStream struct {
	mu           sync.Mutex
	failuresLeft int
	reconnects   int
	smCh         chan *models.Sample
	errCh        chan error
}

func newFakeStream(failures int) *fakeStream {
	f := &fakeStream{
		failuresLeft: failures,
		smCh:         make(chan *models.Sample),
		errCh:        make(chan error, 1),
	}
	// First connection dies right away: one read error, then the reader
	// closes both channels.
	f.errCh <- errors.New("read: connection reset")
	close(f.errCh)
	close(f.smCh)
	return f
}

func (f *fakeStream) Connect(ctx context.Context) error   { return nil }
func (f *fakeStream) Subscribe(ctx context.Context) error { return nil }
func (f *fakeStream) Close() error                        { return nil }
func (f *fakeStream) IsConnected() bool                   { return true }

func (f *fakeStream) Read(ctx context.Context) (<-chan *models.Sample, <-chan error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.smCh, f.errCh
}

func (f *fakeStream) Reconnect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reconnects++
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return errors.New("dial refused")
	}
	f.smCh = make(chan *models.Sample, 1)
	f.errCh = make(chan error, 1)
	f.smCh <- &models.Sample{Asset: "BTC", Timestamp: time.Now(), Price: 101, Volume: 5}
	return nil
}

func (f *fakeStream) attempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reconnects
}

func TestStreamReconnectRetriesAfterFailure(t *testing.T) {
	store := internalrepo.NewMemoryPriceStore()
	st := newFakeStream(2)
	c := NewStreamCollector(st, NewSampleProcessor(store, nopMetrics{}), nopMetrics{}, nil)
	c.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := store.Latest(ctx, "BTC"); err == nil {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := store.Latest(ctx, "BTC"); err != nil {
		t.Fatalf("sample never ingested after recovery: %v", err)
	}
	if got := st.attempts(); got != 3 {
		t.Fatalf("reconnect attempts: got %d, want 3 (two failures then success)", got)
	}
}
