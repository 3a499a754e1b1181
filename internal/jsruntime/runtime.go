package jsruntime

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
)

var ErrStopped = errors.New("js runtime stopped")

// JsRuntime 封装运行在 EventLoop 上的 JS 虚拟机，所有对 vm 的访问都在 loop 线程内完成
type JsRuntime struct {
	loop    *eventloop.EventLoop
	stopped uint32
}

// CallResult 是一次函数调用的结果，Promise 会等待其 settle
type CallResult struct {
	Value goja.Value
	Err   error
}

// do 在 loop 线程内执行 fn 并等待完成
func (r *JsRuntime) do(ctx context.Context, fn func(vm *goja.Runtime) error) error {
	if atomic.LoadUint32(&r.stopped) == 1 {
		return ErrStopped
	}
	done := make(chan error, 1)
	r.loop.RunOnLoop(func(vm *goja.Runtime) {
		defer func() {
			if rec := recover(); rec != nil {
				done <- fmt.Errorf("js panic: %v", rec)
			}
		}()
		done <- fn(vm)
	})
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *JsRuntime) RunScript(script string) (goja.Value, error) {
	var out goja.Value
	err := r.do(context.Background(), func(vm *goja.Runtime) error {
		v, err := vm.RunString(script)
		out = v
		return err
	})
	return out, err
}

// HasFunction 判断全局作用域下是否定义了名为 name 的函数
func (r *JsRuntime) HasFunction(name string) bool {
	var ok bool
	_ = r.do(context.Background(), func(vm *goja.Runtime) error {
		_, ok = goja.AssertFunction(vm.Get(name))
		return nil
	})
	return ok
}

// Call 同步调用全局函数；返回 Promise 时等待其完成
func (r *JsRuntime) Call(name string, params ...any) (goja.Value, error) {
	return r.CallContext(context.Background(), name, params...)
}

// CallContext 同 Call，但 ctx 结束时放弃等待
func (r *JsRuntime) CallContext(ctx context.Context, name string, params ...any) (goja.Value, error) {
	select {
	case res := <-r.CallAsync(name, params...):
		return res.Value, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// CallAsync 调用全局函数，结果通过 channel 返回（只发送一次）
func (r *JsRuntime) CallAsync(name string, params ...any) <-chan CallResult {
	ch := make(chan CallResult, 1)
	if atomic.LoadUint32(&r.stopped) == 1 {
		ch <- CallResult{Err: ErrStopped}
		return ch
	}

	r.loop.RunOnLoop(func(vm *goja.Runtime) {
		defer func() {
			if rec := recover(); rec != nil {
				ch <- CallResult{Err: fmt.Errorf("js panic: %v", rec)}
			}
		}()

		fn, ok := goja.AssertFunction(vm.Get(name))
		if !ok {
			ch <- CallResult{Err: fmt.Errorf("%s is not a function", name)}
			return
		}
		args := make([]goja.Value, len(params))
		for i, p := range params {
			args[i] = vm.ToValue(p)
		}
		v, err := fn(goja.Undefined(), args...)
		if err != nil {
			ch <- CallResult{Value: v, Err: err}
			return
		}
		if _, isPromise := v.Export().(*goja.Promise); !isPromise {
			ch <- CallResult{Value: v}
			return
		}
		if err := awaitPromise(vm, v, ch); err != nil {
			ch <- CallResult{Err: err}
		}
	})
	return ch
}

// awaitPromise 挂上 then 回调，settle 时写入 ch
func awaitPromise(vm *goja.Runtime, v goja.Value, ch chan<- CallResult) error {
	obj := v.ToObject(vm)
	then, ok := goja.AssertFunction(obj.Get("then"))
	if !ok {
		return errors.New("promise has no then")
	}
	onFulfilled := vm.ToValue(func(call goja.FunctionCall) goja.Value {
		ch <- CallResult{Value: call.Argument(0)}
		return goja.Undefined()
	})
	onRejected := vm.ToValue(func(call goja.FunctionCall) goja.Value {
		ch <- CallResult{Value: call.Argument(0), Err: fmt.Errorf("promise rejected: %s", call.Argument(0).String())}
		return goja.Undefined()
	})
	if _, err := then(obj, onFulfilled, onRejected); err != nil {
		return err
	}
	drainMicrotasks(vm)
	return nil
}

// drainMicrotasks 执行一段空脚本，推动 goja 的 job 队列（Promise 回调等）
func drainMicrotasks(vm *goja.Runtime) {
	if vm == nil {
		return
	}
	_, _ = vm.RunString("void 0")
}

func (r *JsRuntime) Stop() {
	if !atomic.CompareAndSwapUint32(&r.stopped, 0, 1) {
		return
	}
	r.loop.Stop()
}
