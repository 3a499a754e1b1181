package jsruntime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/dop251/goja_nodejs/require"
	"github.com/komari-monitor/companion/internal/store"
)

// Builder 构建 JsRuntime 的配置入口
type Builder struct {
	enableNodejs bool
	enableFetch  bool
	fetchClient  *http.Client
	storage      store.Store
	injectors    []Injector
}

// Injector 允许在构建时注入自定义能力
// 此时 VM 已经初始化，且处于 EventLoop 线程中
type Injector func(vm *goja.Runtime) error

// NewBuilder 返回 JsRuntime 的 builder
func NewBuilder() *Builder {
	return &Builder{}
}

// WithNodejs 启用 Node.js 风格的模块和 console 支持
func (b *Builder) WithNodejs() *Builder {
	b.enableNodejs = true
	return b
}

// WithFetch 向运行时注入全局 fetch() 函数，client 为空时使用 30s 超时的默认客户端
func (b *Builder) WithFetch(client ...*http.Client) *Builder {
	b.enableFetch = true
	if len(client) > 0 {
		b.fetchClient = client[0]
	}
	return b
}

// WithLocalStorage 注入浏览器风格的 localStorage.getItem / setItem，数据落在 s 中
func (b *Builder) WithLocalStorage(s store.Store) *Builder {
	b.storage = s
	return b
}

// WithInjector 注册自定义注入函数
func (b *Builder) WithInjector(inj Injector) *Builder {
	if inj != nil {
		b.injectors = append(b.injectors, inj)
	}
	return b
}

// Build 构建并返回 JsRuntime
func (b *Builder) Build() (*JsRuntime, error) {
	loop := eventloop.NewEventLoop()
	loop.Start()

	// RunOnLoop 是异步的，阻塞到环境准备好
	initCh := make(chan error, 1)
	loop.RunOnLoop(func(vm *goja.Runtime) {
		var err error
		defer func() {
			if r := recover(); r != nil {
				initCh <- fmt.Errorf("panic during initialization: %v", r)
			} else {
				initCh <- err
			}
		}()

		if b.enableNodejs {
			registry := new(require.Registry)
			registry.Enable(vm)
			console.Enable(vm)
		}

		if b.enableFetch {
			client := b.fetchClient
			if client == nil {
				client = &http.Client{Timeout: 30 * time.Second}
			}
			if err = injectFetch(vm, loop, client); err != nil {
				return
			}
		}

		if b.storage != nil {
			if err = injectLocalStorage(vm, b.storage); err != nil {
				return
			}
		}

		for _, inj := range b.injectors {
			if err = inj(vm); err != nil {
				return
			}
		}
	})

	if err := <-initCh; err != nil {
		loop.Stop()
		return nil, err
	}
	return &JsRuntime{loop: loop}, nil
}

func injectLocalStorage(vm *goja.Runtime, s store.Store) error {
	if s == nil {
		return errors.New("storage is nil")
	}
	obj := vm.NewObject()

	// localStorage.getItem(key) 不存在时返回 null
	obj.Set("getItem", func(call goja.FunctionCall) goja.Value {
		v, ok, err := s.GetItem(context.Background(), call.Argument(0).String())
		if err != nil {
			panic(vm.NewGoError(err))
		}
		if !ok {
			return goja.Null()
		}
		return vm.ToValue(v)
	})

	obj.Set("setItem", func(call goja.FunctionCall) goja.Value {
		if err := s.SetItem(context.Background(), call.Argument(0).String(), call.Argument(1).String()); err != nil {
			panic(vm.NewGoError(err))
		}
		return goja.Undefined()
	})

	return vm.Set("localStorage", obj)
}
