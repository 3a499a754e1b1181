package jsruntime

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
)

const maxFetchBody = int64(1 << 20)

// injectFetch 注入精简版 fetch(url, {method, headers, body})，返回 Promise<Response>
func injectFetch(vm *goja.Runtime, loop *eventloop.EventLoop, client *http.Client) error {
	if loop == nil || client == nil {
		return errors.New("fetch: loop and client are required")
	}

	return vm.Set("fetch", func(call goja.FunctionCall) goja.Value {
		promise, resolve, reject := vm.NewPromise()

		req, err := buildRequest(vm, call.Argument(0), call.Argument(1))
		if err != nil {
			reject(vm.NewTypeError("fetch: %v", err))
			return vm.ToValue(promise)
		}

		go func() {
			status, body, err := doRequest(client, req)
			loop.RunOnLoop(func(vm *goja.Runtime) {
				if err != nil {
					_ = reject(vm.NewGoError(err))
				} else {
					_ = resolve(newResponse(vm, status, body))
				}
				drainMicrotasks(vm)
			})
		}()

		return vm.ToValue(promise)
	})
}

func buildRequest(vm *goja.Runtime, target, opts goja.Value) (*http.Request, error) {
	u, err := url.Parse(strings.TrimSpace(target.String()))
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	method := http.MethodGet
	header := http.Header{}
	var body io.Reader

	if opts != nil && !goja.IsUndefined(opts) && !goja.IsNull(opts) {
		o := opts.ToObject(vm)
		if m := o.Get("method"); m != nil && !goja.IsUndefined(m) {
			method = strings.ToUpper(m.String())
		}
		if h := o.Get("headers"); h != nil && !goja.IsUndefined(h) && !goja.IsNull(h) {
			ho := h.ToObject(vm)
			for _, k := range ho.Keys() {
				header.Set(k, ho.Get(k).String())
			}
		}
		if b := o.Get("body"); b != nil && !goja.IsUndefined(b) && !goja.IsNull(b) {
			switch v := b.Export().(type) {
			case string:
				body = strings.NewReader(v)
			default:
				// 对象按 JSON 发送
				data, err := json.Marshal(v)
				if err != nil {
					return nil, fmt.Errorf("invalid body: %w", err)
				}
				body = strings.NewReader(string(data))
				if header.Get("Content-Type") == "" {
					header.Set("Content-Type", "application/json; charset=utf-8")
				}
			}
		}
	}

	req, err := http.NewRequest(method, u.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header = header
	return req, nil
}

func doRequest(client *http.Client, req *http.Request) (int, []byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBody+1))
	if err != nil {
		return 0, nil, err
	}
	if int64(len(data)) > maxFetchBody {
		return 0, nil, fmt.Errorf("fetch: response body too large (>%d bytes)", maxFetchBody)
	}
	return resp.StatusCode, data, nil
}

func newResponse(vm *goja.Runtime, status int, body []byte) *goja.Object {
	obj := vm.NewObject()
	obj.Set("status", status)
	obj.Set("ok", status >= 200 && status < 300)

	obj.Set("text", func(goja.FunctionCall) goja.Value {
		p, resolve, _ := vm.NewPromise()
		resolve(vm.ToValue(string(body)))
		return vm.ToValue(p)
	})
	obj.Set("json", func(goja.FunctionCall) goja.Value {
		p, resolve, reject := vm.NewPromise()
		var out any
		if err := json.Unmarshal(body, &out); err != nil {
			reject(vm.NewGoError(err))
		} else {
			resolve(vm.ToValue(out))
		}
		return vm.ToValue(p)
	})
	return obj
}
