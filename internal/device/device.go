// Package device delivers options to the paired device through the
// configured transport.
package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/komari-monitor/companion/internal/conf"
	"github.com/komari-monitor/companion/internal/database/models"
	"github.com/komari-monitor/companion/internal/device/factory"
	logutil "github.com/komari-monitor/companion/internal/log"
	"github.com/komari-monitor/companion/internal/options"
)

var (
	ErrNoSender = errors.New("device: no transport loaded")
	ErrTimeout  = errors.New("device: send timed out")
)

// Result 一次发送的最终结果
type Result struct {
	ID       string
	Err      error
	Attempts int
}

// Recorder 保存发送记录，可为 nil
type Recorder interface {
	Record(ctx context.Context, d *models.Delivery) error
}

// Dispatcher 持有当前的发送器，把 options 异步投递给配对设备
type Dispatcher struct {
	mu         sync.RWMutex
	sender     factory.ISender
	timeout    time.Duration
	maxRetries int
	recorder   Recorder
	logger     *slog.Logger
}

func NewDispatcher(cfg conf.Device, recorder Recorder) *Dispatcher {
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &Dispatcher{
		timeout:    cfg.SendTimeout(),
		maxRetries: retries,
		recorder:   recorder,
		logger:     logutil.WithGroup(nil, "DEVICE"),
	}
}

// Load 切换到名为 name 的发送器，配置取自 cfg.Extensions[name]。
// 旧的发送器在新发送器初始化成功后销毁
func (d *Dispatcher) Load(name string, cfg *conf.Config) error {
	constructor, exists := factory.GetConstructor(name)
	if !exists {
		return fmt.Errorf("transport %s not found, available: %s", name, strings.Join(factory.GetSenderNames(), ", "))
	}
	sender := constructor()
	if cfg != nil {
		if raw, ok := cfg.Extensions[name]; ok {
			if err := conf.DecodeExtension(raw, sender.GetConfiguration()); err != nil {
				return fmt.Errorf("failed to decode config for transport %s: %w", name, err)
			}
		}
	}
	if err := sender.Init(); err != nil {
		return fmt.Errorf("failed to initialize transport %s: %w", name, err)
	}

	d.mu.Lock()
	old := d.sender
	d.sender = sender
	d.mu.Unlock()

	if old != nil {
		if err := old.Destroy(); err != nil {
			d.logger.Warn("failed to destroy transport", "transport", old.GetName(), "error", err)
		}
	}
	d.logger.Info("transport loaded", "transport", name)
	return nil
}

// Active 返回当前发送器，未加载时为 nil
func (d *Dispatcher) Active() factory.ISender {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.sender
}

func (d *Dispatcher) Close() error {
	d.mu.Lock()
	s := d.sender
	d.sender = nil
	d.mu.Unlock()
	if s == nil {
		return nil
	}
	return s.Destroy()
}

// Send 异步发送 o，返回的 channel 恰好收到一个 Result 后关闭。
// 每次尝试受 device.timeout 限制，失败后最多重试 device.max_retries 次
func (d *Dispatcher) Send(ctx context.Context, o options.Options) <-chan Result {
	ch := make(chan Result, 1)
	id := uuid.New().String()

	payload, err := json.Marshal(o)
	if err != nil {
		ch <- Result{ID: id, Err: fmt.Errorf("device: encode options: %w", err)}
		close(ch)
		return ch
	}
	sender := d.Active()
	if sender == nil {
		ch <- Result{ID: id, Err: ErrNoSender}
		close(ch)
		return ch
	}

	msg := &factory.Message{ID: id, Payload: payload}
	go func() {
		defer close(ch)
		var (
			err      error
			attempts int
		)
		for attempts <= d.maxRetries {
			attempts++
			err = d.attempt(ctx, sender, msg)
			if err == nil || ctx.Err() != nil {
				break
			}
			if attempts <= d.maxRetries {
				d.logger.Warn("send failed, retrying", "id", id, "attempt", attempts, "error", err)
			}
		}
		d.record(ctx, sender.GetName(), msg, err, attempts)
		ch <- Result{ID: id, Err: err, Attempts: attempts}
	}()
	return ch
}

// attempt 在超时内执行一次发送；发送器不理会 ctx 时也能按时返回
func (d *Dispatcher) attempt(ctx context.Context, sender factory.ISender, msg *factory.Message) error {
	sctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("device: transport panic: %v", r)
			}
		}()
		done <- sender.Send(sctx, msg)
	}()

	select {
	case err := <-done:
		return err
	case <-sctx.Done():
		if errors.Is(sctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s", ErrTimeout, d.timeout)
		}
		return sctx.Err()
	}
}

func (d *Dispatcher) record(ctx context.Context, transport string, msg *factory.Message, err error, attempts int) {
	if d.recorder == nil {
		return
	}
	rec := &models.Delivery{
		ID:        msg.ID,
		Transport: transport,
		Payload:   string(msg.Payload),
		Status:    models.DeliverySent,
		Attempts:  attempts,
		CreatedAt: time.Now(),
	}
	if err != nil {
		rec.Status = models.DeliveryFailed
		rec.Error = err.Error()
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if rerr := d.recorder.Record(rctx, rec); rerr != nil {
		d.logger.Warn("failed to record delivery", "id", msg.ID, "error", rerr)
	}
}
