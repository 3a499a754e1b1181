package host

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gookit/event"
)

// HandlerFunc 处理一个宿主事件
type HandlerFunc func(ctx context.Context, e *Event) error

// Bus 宿主事件总线。
//
// 事件逐个分发：一次 Dispatch 内的所有 listener 执行完毕后才会处理下一个事件。
// listener 返回的错误只终止本次分发，不影响后续事件。
type Bus struct {
	mu  sync.Mutex
	mgr *event.Manager
}

func NewBus(name string) *Bus {
	return &Bus{mgr: event.NewManager(name)}
}

// On 订阅事件，priority 与 gookit/event 一致，数值越大越先执行
func (b *Bus) On(name string, fn HandlerFunc, priority ...int) {
	if fn == nil {
		return
	}
	b.mgr.On(name, event.ListenerFunc(func(e event.Event) error {
		he, ok := e.(*Event)
		if !ok {
			return fmt.Errorf("host: unexpected event type %T", e)
		}
		return fn(he.Context(), he)
	}), priority...)
}

// Dispatch 同步分发事件，返回第一个失败的 listener 的错误
func (b *Bus) Dispatch(ctx context.Context, name string, data event.M) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("host: event name is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mgr.FireEvent(newEvent(ctx, name, data))
}

func (b *Bus) HasListeners(name string) bool {
	return b.mgr.HasListeners(name)
}

// Close 移除所有 listener
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mgr.Reset()
	return nil
}
