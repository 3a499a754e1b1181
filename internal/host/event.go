package host

import (
	"context"

	"github.com/gookit/event"
)

// ResponseKey 是 webviewclosed 事件中配置页返回数据的字段名
const ResponseKey = "response"

// Event 是宿主分发给 handler 的事件对象，携带触发时的 context
type Event struct {
	*event.BasicEvent
	ctx context.Context
}

func newEvent(ctx context.Context, name string, data event.M) *Event {
	if data == nil {
		data = event.M{}
	}
	return &Event{BasicEvent: event.NewBasic(name, data), ctx: ctx}
}

// Context 返回触发事件时传入的 context
func (e *Event) Context() context.Context {
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

// Response 返回配置页关闭时携带的数据。
// 字段不存在、为 nil 或空字符串时返回 false，表示用户未提交就关闭了页面。
func (e *Event) Response() (string, bool) {
	switch v := e.Get(ResponseKey).(type) {
	case string:
		return v, v != ""
	case []byte:
		return string(v), len(v) > 0
	default:
		return "", false
	}
}
