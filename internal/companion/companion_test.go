package companion

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gookit/event"
	"github.com/komari-monitor/companion/internal/conf"
	"github.com/komari-monitor/companion/internal/device"
	"github.com/komari-monitor/companion/internal/eventType"
	"github.com/komari-monitor/companion/internal/host"
	logutil "github.com/komari-monitor/companion/internal/log"
	"github.com/komari-monitor/companion/internal/options"
	"github.com/komari-monitor/companion/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageURL = "https://example.com/html/configuration.html"

type fakeOpener struct {
	urls []string
}

func (f *fakeOpener) OpenURL(_ context.Context, url string) error {
	f.urls = append(f.urls, url)
	return nil
}

type fakeMessenger struct {
	mu   sync.Mutex
	sent []options.Options
	err  error
}

func (f *fakeMessenger) Send(_ context.Context, o options.Options) <-chan device.Result {
	f.mu.Lock()
	f.sent = append(f.sent, o)
	f.mu.Unlock()
	ch := make(chan device.Result, 1)
	ch <- device.Result{ID: "1", Err: f.err, Attempts: 1}
	close(ch)
	return ch
}

func (f *fakeMessenger) calls() []options.Options {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]options.Options(nil), f.sent...)
}

type fixture struct {
	c      *Companion
	bus    *host.Bus
	store  *store.Memory
	opener *fakeOpener
	msgr   *fakeMessenger
	logs   *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		bus:    host.NewBus("test"),
		store:  store.NewMemory(),
		opener: &fakeOpener{},
		msgr:   &fakeMessenger{},
		logs:   &bytes.Buffer{},
	}
	logger := slog.New(logutil.NewPlainHandler(f.logs, slog.LevelDebug))
	f.c = New(conf.Companion{ConfigPageURL: pageURL, DefaultTimezone: "0.0"}, f.store, f.opener, f.msgr, logger)
	Register(f.bus, f.c)
	t.Cleanup(func() { f.bus.Close() })
	return f
}

func (f *fixture) stored(t *testing.T) (string, bool) {
	t.Helper()
	v, ok, err := f.store.GetItem(context.Background(), options.StoreKey)
	require.NoError(t, err)
	return v, ok
}

func TestReadyIsNoop(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.bus.Dispatch(context.Background(), eventType.Ready, nil))
	assert.Empty(t, f.opener.urls)
	assert.Empty(t, f.msgr.calls())
	assert.Equal(t, 0, f.store.Len())
}

func TestShowConfigurationBuildsURL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.SetItem(ctx, options.StoreKey, `{"timezone":"-5","vib_warn":true,"vib_renew":false}`))

	require.NoError(t, f.bus.Dispatch(ctx, eventType.ShowConfiguration, nil))

	require.Len(t, f.opener.urls, 1)
	assert.True(t, strings.HasSuffix(f.opener.urls[0], "timezone=-5&vib_warn=true&vib_renew=false"), f.opener.urls[0])
	assert.True(t, strings.HasPrefix(f.opener.urls[0], pageURL+"?"))
	assert.Contains(t, f.logs.String(), `read options: {"timezone":"-5","vib_warn":true,"vib_renew":false}`)
	assert.Contains(t, f.logs.String(), "showing configuration")
}

func TestShowConfigurationFirstRunUsesDefaults(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.bus.Dispatch(context.Background(), eventType.ShowConfiguration, nil))

	require.Len(t, f.opener.urls, 1)
	assert.Equal(t, pageURL+"?timezone=0.0&vib_warn=false&vib_renew=false", f.opener.urls[0])
	_, ok := f.stored(t)
	assert.False(t, ok, "opening the page does not write the store")
}

func TestShowConfigurationMalformedStoreFailsFast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.SetItem(ctx, options.StoreKey, `{"timezone":`))

	err := f.bus.Dispatch(ctx, eventType.ShowConfiguration, nil)
	require.Error(t, err)
	var perr *options.ParseError
	require.True(t, errors.As(err, &perr), "got %T: %v", err, err)
	assert.Equal(t, "store", perr.Source)
	assert.Empty(t, f.opener.urls)
}

func TestWebviewClosedStoresAndSends(t *testing.T) {
	f := newFixture(t)
	want := options.Options{Timezone: "2", VibWarn: false, VibRenew: true}
	resp, err := options.EncodeResponse(want)
	require.NoError(t, err)

	require.NoError(t, f.bus.Dispatch(context.Background(), eventType.WebviewClosed, event.M{host.ResponseKey: resp}))
	f.c.Wait()

	v, ok := f.stored(t)
	require.True(t, ok)
	assert.Equal(t, `{"timezone":"2","vib_warn":false,"vib_renew":true}`, v)

	calls := f.msgr.calls()
	require.Len(t, calls, 1)
	assert.True(t, want.Equal(calls[0]))

	logs := f.logs.String()
	assert.Contains(t, logs, "configuration closed")
	assert.Contains(t, logs, `storing options: {"timezone":"2","vib_warn":false,"vib_renew":true}`)
	assert.Contains(t, logs, "successfully sent options to paired device")
}

func TestWebviewClosedWithoutResponse(t *testing.T) {
	for name, data := range map[string]event.M{
		"absent": nil,
		"nil":    {host.ResponseKey: nil},
		"empty":  {host.ResponseKey: ""},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			require.NoError(t, f.store.SetItem(ctx, options.StoreKey, `{"timezone":"1","vib_warn":true,"vib_renew":true}`))

			require.NoError(t, f.bus.Dispatch(ctx, eventType.WebviewClosed, data))
			f.c.Wait()

			v, _ := f.stored(t)
			assert.Equal(t, `{"timezone":"1","vib_warn":true,"vib_renew":true}`, v)
			assert.Empty(t, f.msgr.calls())
			assert.Contains(t, f.logs.String(), "no options received")
		})
	}
}

func TestWebviewClosedSendFailureIsLogged(t *testing.T) {
	f := newFixture(t)
	f.msgr.err = errors.New("timeout")
	resp, err := options.EncodeResponse(options.Options{Timezone: "3", VibWarn: true})
	require.NoError(t, err)

	require.NoError(t, f.bus.Dispatch(context.Background(), eventType.WebviewClosed, event.M{host.ResponseKey: resp}))
	f.c.Wait()

	var line string
	for _, l := range strings.Split(f.logs.String(), "\n") {
		if strings.Contains(l, "failed to send options") {
			line = l
		}
	}
	assert.Contains(t, line, "timeout")

	v, ok := f.stored(t)
	require.True(t, ok)
	assert.Equal(t, `{"timezone":"3","vib_warn":true,"vib_renew":false}`, v, "store keeps the written value")
}

func TestWebviewClosedMalformedResponse(t *testing.T) {
	f := newFixture(t)
	err := f.bus.Dispatch(context.Background(), eventType.WebviewClosed, event.M{host.ResponseKey: "%7Bnot-json"})
	require.Error(t, err)
	var perr *options.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "response", perr.Source)

	_, ok := f.stored(t)
	assert.False(t, ok)
	assert.Empty(t, f.msgr.calls())
}

func TestCloseThenShowRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	resp, err := options.EncodeResponse(options.Options{Timezone: "5.5", VibWarn: true, VibRenew: true})
	require.NoError(t, err)

	require.NoError(t, f.bus.Dispatch(ctx, eventType.WebviewClosed, event.M{host.ResponseKey: resp}))
	require.NoError(t, f.bus.Dispatch(ctx, eventType.ShowConfiguration, nil))
	f.c.Wait()

	require.Len(t, f.opener.urls, 1)
	assert.Equal(t, pageURL+"?timezone=5.5&vib_warn=true&vib_renew=true", f.opener.urls[0])

	o, err := f.c.Options(ctx)
	require.NoError(t, err)
	assert.Equal(t, "5.5", o.Timezone)
}

type gatedMessenger struct {
	entered chan struct{}
	release chan struct{}
}

func (g *gatedMessenger) Send(_ context.Context, _ options.Options) <-chan device.Result {
	close(g.entered)
	<-g.release
	ch := make(chan device.Result, 1)
	ch <- device.Result{ID: "1", Attempts: 1}
	close(ch)
	return ch
}

func TestWaitCoversSendBeingStarted(t *testing.T) {
	g := &gatedMessenger{entered: make(chan struct{}), release: make(chan struct{})}
	bus := host.NewBus("test")
	t.Cleanup(func() { bus.Close() })
	c := New(conf.Companion{ConfigPageURL: pageURL}, store.NewMemory(), &fakeOpener{}, g, slog.New(logutil.NewPlainHandler(&bytes.Buffer{}, slog.LevelDebug)))
	Register(bus, c)

	resp, err := options.EncodeResponse(options.Options{Timezone: "1"})
	require.NoError(t, err)
	dispatched := make(chan error, 1)
	go func() {
		dispatched <- bus.Dispatch(context.Background(), eventType.WebviewClosed, event.M{host.ResponseKey: resp})
	}()
	<-g.entered

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.WaitContext(ctx), context.DeadlineExceeded)

	close(g.release)
	require.NoError(t, <-dispatched)
	require.NoError(t, c.WaitContext(context.Background()))
}
