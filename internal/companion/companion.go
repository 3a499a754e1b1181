// Package companion bridges the configuration page and the paired device:
// it opens the page with the stored options, stores what the page returns
// and forwards it to the device.
package companion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/komari-monitor/companion/internal/conf"
	"github.com/komari-monitor/companion/internal/host"
	logutil "github.com/komari-monitor/companion/internal/log"
	"github.com/komari-monitor/companion/internal/options"
	"github.com/komari-monitor/companion/internal/store"
)

var errSendAborted = errors.New("send aborted without result")

type Companion struct {
	store     store.Store
	opener    URLOpener
	messenger Messenger
	logger    *slog.Logger

	pageURL         string
	defaultTimezone string

	wg sync.WaitGroup
}

func New(cfg conf.Companion, s store.Store, opener URLOpener, messenger Messenger, logger *slog.Logger) *Companion {
	return &Companion{
		store:           s,
		opener:          opener,
		messenger:       messenger,
		logger:          logutil.WithGroup(logger, "COMPANION"),
		pageURL:         cfg.ConfigPageURL,
		defaultTimezone: cfg.DefaultTimezone,
	}
}

func (c *Companion) OnReady(_ context.Context, _ *host.Event) error {
	c.logger.Debug("ready")
	return nil
}

// OnShowConfiguration 读取已保存的 options 并打开配置页。
// 从未保存过时使用默认值；保存的值损坏时返回 *options.ParseError
func (c *Companion) OnShowConfiguration(ctx context.Context, _ *host.Event) error {
	o, err := c.loadOptions(ctx)
	if err != nil {
		return err
	}
	c.logger.Info("read options: " + o.String())
	c.logger.Info("showing configuration")

	u, err := options.ConfigurationURL(c.pageURL, o)
	if err != nil {
		return err
	}
	return c.opener.OpenURL(ctx, u)
}

// OnWebviewClosed 保存配置页返回的 options 并异步发送给配对设备
func (c *Companion) OnWebviewClosed(ctx context.Context, e *host.Event) error {
	c.logger.Info("configuration closed")

	resp, ok := e.Response()
	if !ok {
		c.logger.Info("no options received")
		return nil
	}
	o, err := options.DecodeResponse(resp)
	if err != nil {
		return err
	}

	c.logger.Info("storing options: " + o.String())
	if err := c.store.SetItem(ctx, options.StoreKey, o.String()); err != nil {
		return fmt.Errorf("store options: %w", err)
	}
	c.send(ctx, o)
	return nil
}

// Options 返回当前保存的 options（未保存时为默认值）
func (c *Companion) Options(ctx context.Context) (options.Options, error) {
	return c.loadOptions(ctx)
}

func (c *Companion) loadOptions(ctx context.Context) (options.Options, error) {
	raw, ok, err := c.store.GetItem(ctx, options.StoreKey)
	if err != nil {
		return options.Options{}, fmt.Errorf("read options: %w", err)
	}
	if !ok {
		return options.Default(c.defaultTimezone), nil
	}
	return options.DecodeStored(raw)
}

// send 不阻塞当前事件，发送结果只记录日志
func (c *Companion) send(ctx context.Context, o options.Options) {
	// Add 必须先于 Send，保证 Wait 不会错过正在建立的发送
	c.wg.Add(1)
	results := c.messenger.Send(context.WithoutCancel(ctx), o)
	go func() {
		defer c.wg.Done()
		res, ok := <-results
		if !ok {
			res.Err = errSendAborted
		}
		if res.Err != nil {
			c.logger.Error("failed to send options to paired device. Error: "+res.Err.Error(), "id", res.ID)
			return
		}
		c.logger.Info("successfully sent options to paired device", "id", res.ID, "attempts", res.Attempts)
	}()
}

// Wait 等待所有进行中的发送完成
func (c *Companion) Wait() {
	c.wg.Wait()
}

// WaitContext 同 Wait，ctx 结束时提前返回
func (c *Companion) WaitContext(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ Handler = (*Companion)(nil)
