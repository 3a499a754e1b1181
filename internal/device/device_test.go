package device

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/komari-monitor/companion/internal/conf"
	"github.com/komari-monitor/companion/internal/database/models"
	"github.com/komari-monitor/companion/internal/device/factory"
	"github.com/komari-monitor/companion/internal/options"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSender 按顺序返回 errs 中的错误，用完后返回 nil
type scriptedSender struct {
	mu    sync.Mutex
	errs  []error
	calls int32
	block bool
	got   []*factory.Message
}

func (s *scriptedSender) GetName() string                         { return "scripted" }
func (s *scriptedSender) GetConfiguration() factory.Configuration { return &struct{}{} }
func (s *scriptedSender) Init() error                             { return nil }
func (s *scriptedSender) Destroy() error                          { return nil }

func (s *scriptedSender) Send(ctx context.Context, msg *factory.Message) error {
	n := atomic.AddInt32(&s.calls, 1)
	s.mu.Lock()
	s.got = append(s.got, msg)
	s.mu.Unlock()
	if s.block {
		time.Sleep(500 * time.Millisecond)
	}
	if int(n) <= len(s.errs) {
		return s.errs[n-1]
	}
	return nil
}

type memRecorder struct {
	mu   sync.Mutex
	list []models.Delivery
}

func (r *memRecorder) Record(_ context.Context, d *models.Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, *d)
	return nil
}

func newDispatcher(sender factory.ISender, retries int, rec Recorder) *Dispatcher {
	d := NewDispatcher(conf.Device{MaxRetries: retries}, rec)
	d.sender = sender
	d.timeout = 100 * time.Millisecond
	return d
}

func recv(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case r, ok := <-ch:
		require.True(t, ok, "channel closed without result")
		_, open := <-ch
		assert.False(t, open, "channel must be closed after the result")
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for result")
		return Result{}
	}
}

func TestSendSuccessRecorded(t *testing.T) {
	s := &scriptedSender{}
	rec := &memRecorder{}
	d := newDispatcher(s, 0, rec)

	o := options.Options{Timezone: "2", VibWarn: true}
	r := recv(t, d.Send(context.Background(), o))
	require.NoError(t, r.Err)
	assert.Equal(t, 1, r.Attempts)
	assert.NotEmpty(t, r.ID)

	require.Len(t, s.got, 1)
	assert.JSONEq(t, `{"timezone":"2","vib_warn":true,"vib_renew":false}`, string(s.got[0].Payload))

	require.Len(t, rec.list, 1)
	assert.Equal(t, models.DeliverySent, rec.list[0].Status)
	assert.Equal(t, r.ID, rec.list[0].ID)
	assert.Equal(t, "scripted", rec.list[0].Transport)
}

func TestSendFailureNotRetriedByDefault(t *testing.T) {
	s := &scriptedSender{errs: []error{errors.New("unreachable")}}
	rec := &memRecorder{}
	d := newDispatcher(s, 0, rec)

	r := recv(t, d.Send(context.Background(), options.Default("0")))
	require.EqualError(t, r.Err, "unreachable")
	assert.EqualValues(t, 1, atomic.LoadInt32(&s.calls))

	require.Len(t, rec.list, 1)
	assert.Equal(t, models.DeliveryFailed, rec.list[0].Status)
	assert.Equal(t, "unreachable", rec.list[0].Error)
}

func TestSendRetries(t *testing.T) {
	s := &scriptedSender{errs: []error{errors.New("first"), errors.New("second")}}
	d := newDispatcher(s, 2, nil)

	r := recv(t, d.Send(context.Background(), options.Default("0")))
	require.NoError(t, r.Err)
	assert.Equal(t, 3, r.Attempts)
}

func TestSendTimeout(t *testing.T) {
	s := &scriptedSender{block: true}
	d := newDispatcher(s, 0, nil)

	start := time.Now()
	r := recv(t, d.Send(context.Background(), options.Default("0")))
	assert.ErrorIs(t, r.Err, ErrTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSendWithoutSender(t *testing.T) {
	d := NewDispatcher(conf.Device{}, nil)
	r := recv(t, d.Send(context.Background(), options.Default("0")))
	assert.ErrorIs(t, r.Err, ErrNoSender)
}

func TestLoadRegisteredTransports(t *testing.T) {
	for _, name := range []string{"empty", "javascript", "nats", "webhook", "websocket"} {
		_, ok := factory.GetConstructor(name)
		assert.True(t, ok, name)
		assert.True(t, conf.IsFieldRegistered(name), name)
	}

	cfg := conf.Default()
	d := NewDispatcher(conf.Device{}, nil)
	require.NoError(t, d.Load("empty", &cfg))
	assert.Equal(t, "empty", d.Active().GetName())
	_, ok := d.Endpoint()
	assert.False(t, ok)

	require.NoError(t, d.Load("websocket", &cfg))
	_, ok = d.Endpoint()
	assert.True(t, ok)

	err := d.Load("pigeon", &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available: empty, javascript, nats, webhook, websocket")
	assert.Error(t, d.Load("webhook", &cfg), "webhook needs a url")
	assert.Equal(t, "websocket", d.Active().GetName(), "failed load keeps the previous transport")
	require.NoError(t, d.Close())
	assert.Nil(t, d.Active())
}

func TestLoadReadsExtension(t *testing.T) {
	cfg := conf.Default()
	cfg.Extensions = map[string]interface{}{
		"webhook": map[string]interface{}{"url": "http://127.0.0.1:1/hook"},
	}
	d := NewDispatcher(conf.Device{}, nil)
	require.NoError(t, d.Load("webhook", &cfg))
	assert.Equal(t, "webhook", d.Active().GetName())
}
