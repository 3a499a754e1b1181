package jsruntime

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/komari-monitor/companion/internal/store"
)

func TestCallSyncAndAsync(t *testing.T) {
	rt, err := NewBuilder().WithNodejs().Build()
	if err != nil {
		t.Fatalf("build runtime: %v", err)
	}
	defer rt.Stop()

	_, err = rt.RunScript(`
		function add(a, b) { return a + b; }
		async function asyncValue() { return 42; }
		async function asyncReject() { throw new Error("boom"); }
	`)
	if err != nil {
		t.Fatalf("load script: %v", err)
	}

	v, err := rt.Call("add", 1, 2)
	if err != nil {
		t.Fatalf("call add: %v", err)
	}
	if got := v.ToInteger(); got != 3 {
		t.Fatalf("unexpected add result: %#v", got)
	}

	v, err = rt.Call("asyncValue")
	if err != nil {
		t.Fatalf("call asyncValue: %v", err)
	}
	if got := v.ToInteger(); got != 42 {
		t.Fatalf("unexpected asyncValue result: %#v", got)
	}

	_, err = rt.Call("asyncReject")
	if err == nil {
		t.Fatalf("expected error from asyncReject")
	}

	if rt.HasFunction("missing") {
		t.Fatalf("missing should not be a function")
	}
	if _, err := rt.Call("missing"); err == nil {
		t.Fatalf("expected error calling an undefined function")
	}
}

func TestCallAsyncPromise(t *testing.T) {
	rt, err := NewBuilder().WithNodejs().Build()
	if err != nil {
		t.Fatalf("build runtime: %v", err)
	}
	defer rt.Stop()

	_, err = rt.RunScript(`
		function delay(ms) { return new Promise(resolve => setTimeout(resolve, ms)); }
		async function delayed() { await delay(30); return "ok"; }
	`)
	if err != nil {
		t.Fatalf("load script: %v", err)
	}

	select {
	case res := <-rt.CallAsync("delayed"):
		if res.Err != nil {
			t.Fatalf("callAsync delayed err: %v", res.Err)
		}
		if got := res.Value.String(); got != "ok" {
			t.Fatalf("unexpected delayed result: %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for CallAsync result")
	}
}

func TestCallContextTimeout(t *testing.T) {
	rt, err := NewBuilder().WithNodejs().Build()
	if err != nil {
		t.Fatalf("build runtime: %v", err)
	}
	defer rt.Stop()

	if _, err := rt.RunScript(`function never() { return new Promise(() => {}); }`); err != nil {
		t.Fatalf("load script: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := rt.CallContext(ctx, "never"); err != context.DeadlineExceeded {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestLocalStorage(t *testing.T) {
	mem := store.NewMemory()
	rt, err := NewBuilder().WithLocalStorage(mem).Build()
	if err != nil {
		t.Fatalf("build runtime: %v", err)
	}
	defer rt.Stop()

	v, err := rt.RunScript(`localStorage.getItem("options") === null`)
	if err != nil || !v.ToBoolean() {
		t.Fatalf("expected null for missing key, got %v (%v)", v, err)
	}
	if _, err := rt.RunScript(`localStorage.setItem("options", JSON.stringify({timezone: "2"}))`); err != nil {
		t.Fatalf("setItem: %v", err)
	}
	got, ok, _ := mem.GetItem(context.Background(), "options")
	if !ok || got != `{"timezone":"2"}` {
		t.Fatalf("unexpected stored value: %q", got)
	}
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"method":"` + r.Method + `","body":` + string(body) + `}`))
	}))
	defer srv.Close()

	rt, err := NewBuilder().WithFetch().Build()
	if err != nil {
		t.Fatalf("build runtime: %v", err)
	}
	defer rt.Stop()

	_, err = rt.RunScript(`
		async function post(url) {
			const res = await fetch(url, { method: "post", body: { a: 1 } });
			const data = await res.json();
			return res.ok && data.method === "POST" && data.body.a === 1;
		}
	`)
	if err != nil {
		t.Fatalf("load script: %v", err)
	}
	v, err := rt.Call("post", srv.URL)
	if err != nil {
		t.Fatalf("call post: %v", err)
	}
	if !v.ToBoolean() {
		t.Fatalf("unexpected fetch result")
	}
}
