package presence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"tandem-server/models"
)

type statusCall struct {
	accountID string
	status    models.PresenceStatus
}

type recordingWriter struct {
	mu    sync.Mutex
	calls []statusCall
	err   error
}

func (w *recordingWriter) SetPresence(_ context.Context, accountID string, status models.PresenceStatus) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, statusCall{accountID, status})
	return w.err
}

func (w *recordingWriter) snapshot() []statusCall {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]statusCall(nil), w.calls...)
}

func TestHub_FirstAndLastConnectionDriveStatus(t *testing.T) {
	w := &recordingWriter{}
	h := NewHub(w, zap.NewNop())

	c1 := h.Add("a1", nil)
	c2 := h.Add("a1", nil)
	assert.True(t, h.Online("a1"))
	h.Wait()
	assert.Equal(t, []statusCall{{"a1", models.StatusOnline}}, w.snapshot())

	h.Remove(c1)
	assert.True(t, h.Online("a1"))
	h.Wait()
	assert.Len(t, w.snapshot(), 1)

	h.Remove(c2)
	h.Remove(c2)
	assert.False(t, h.Online("a1"))
	h.Wait()
	assert.Equal(t, []statusCall{
		{"a1", models.StatusOnline},
		{"a1", models.StatusOffline},
	}, w.snapshot())
}

func TestHub_WriterErrorsDoNotBlockTracking(t *testing.T) {
	w := &recordingWriter{err: errors.New("store down")}
	h := NewHub(w, zap.NewNop())

	c := h.Add("a1", nil)
	assert.True(t, h.Online("a1"))
	h.Remove(c)
	assert.False(t, h.Online("a1"))
	h.Wait()
	assert.Len(t, w.snapshot(), 2)
}

func TestHub_CloseAll(t *testing.T) {
	w := &recordingWriter{}
	h := NewHub(w, zap.NewNop())
	h.Add("a1", nil)
	h.Add("a2", nil)
	h.Add("a2", nil)

	h.CloseAll()

	assert.False(t, h.Online("a1"))
	assert.False(t, h.Online("a2"))
	offline := 0
	for _, c := range w.snapshot() {
		if c.status == models.StatusOffline {
			offline++
		}
	}
	assert.Equal(t, 2, offline)
}

func TestHub_ConcurrentConnectDisconnect(t *testing.T) {
	w := &recordingWriter{}
	h := NewHub(w, zap.NewNop())

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Remove(h.Add("a1", nil))
		}()
	}
	wg.Wait()
	h.Wait()

	assert.False(t, h.Online("a1"))
	calls := w.snapshot()
	if assert.NotEmpty(t, calls) {
		assert.Equal(t, models.StatusOffline, calls[len(calls)-1].status)
	}
	for i := 1; i < len(calls); i++ {
		assert.NotEqual(t, calls[i-1].status, calls[i].status, "status writes alternate")
	}
}

// blockingWriter holds every write for one account until released.
type blockingWriter struct {
	recordingWriter
	slowAccount string
	release     chan struct{}
}

func (w *blockingWriter) SetPresence(ctx context.Context, accountID string, status models.PresenceStatus) error {
	if accountID == w.slowAccount {
		<-w.release
	}
	return w.recordingWriter.SetPresence(ctx, accountID, status)
}

func TestHub_SlowWriteDoesNotStallOtherAccounts(t *testing.T) {
	w := &blockingWriter{slowAccount: "slow", release: make(chan struct{})}
	h := NewHub(w, zap.NewNop())

	slow := h.Add("slow", nil)
	h.Remove(slow)
	h.Add("slow", nil)

	done := make(chan struct{})
	go func() {
		h.Remove(h.Add("fast", nil))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("connect/disconnect of another account blocked on a slow status write")
	}
	assert.Eventually(t, func() bool { return len(w.snapshot()) == 2 }, time.Second, 5*time.Millisecond)

	close(w.release)
	h.Wait()

	var slowStatuses []models.PresenceStatus
	for _, c := range w.snapshot() {
		if c.accountID == "slow" {
			slowStatuses = append(slowStatuses, c.status)
		}
	}
	assert.Equal(t, []models.PresenceStatus{models.StatusOnline, models.StatusOffline, models.StatusOnline}, slowStatuses)
}
