package log

import (
	"context"
	"fmt"
	"io"
	stdlog "log"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"
)

// GroupKey 日志分组属性名，渲染为 [LEVEL/GROUP]
const GroupKey = "_group"

func Green(format string, v ...interface{}) string {
	return fmt.Sprintf("\033[32m"+format+"\033[0m", v...)
}

func Yellow(format string, v ...interface{}) string {
	return fmt.Sprintf("\033[33m"+format+"\033[0m", v...)
}

func Red(format string, v ...interface{}) string {
	return fmt.Sprintf("\033[31m"+format+"\033[0m", v...)
}

func Cyan(format string, v ...interface{}) string {
	return fmt.Sprintf("\033[36m"+format+"\033[0m", v...)
}

func Gray(format string, v ...interface{}) string {
	return fmt.Sprintf("\033[90m"+format+"\033[0m", v...)
}

type LogHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Leveler
	group string
	attrs []slog.Attr
	color bool
}

// NewHandler 创建彩色文本 handler，输出到 w
func NewHandler(w io.Writer, level slog.Leveler) *LogHandler {
	return &LogHandler{mu: &sync.Mutex{}, w: w, level: level, color: true}
}

// NewPlainHandler 创建无颜色的 handler，便于测试中断言日志内容
func NewPlainHandler(w io.Writer, level slog.Leveler) *LogHandler {
	h := NewHandler(w, level)
	h.color = false
	return h
}

// WithGroup 返回带有分组标识的 logger
func WithGroup(l *slog.Logger, group string) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	return l.With(slog.String(GroupKey, group))
}

func (h *LogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *LogHandler) paint(fn func(string, ...interface{}) string, format string, v ...interface{}) string {
	if h.color {
		return fn(format, v...)
	}
	return fmt.Sprintf(format, v...)
}

func (h *LogHandler) Handle(_ context.Context, r slog.Record) error {
	var file string
	var line int
	if r.PC != 0 {
		fs := runtime.CallersFrames([]uintptr{r.PC})
		f, _ := fs.Next()
		file = f.File
		line = f.Line
	}

	timeStr := r.Time.Format("2006/01/02 15:04:05")

	group := h.group
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == GroupKey {
			group = a.Value.String()
			return false
		}
		return true
	})

	tag := r.Level.String()
	if group != "" {
		tag += "/" + group
	}
	var levelStr string
	switch {
	case r.Level >= slog.LevelError:
		levelStr = h.paint(Red, "[%s]", tag)
	case r.Level >= slog.LevelWarn:
		levelStr = h.paint(Yellow, "[%s]", tag)
	case r.Level >= slog.LevelInfo:
		levelStr = h.paint(Green, "[%s]", tag)
	default:
		levelStr = h.paint(Cyan, "[%s]", tag)
	}

	msg := fmt.Sprintf("%s %s %s", timeStr, levelStr, r.Message)
	if file != "" && h.color {
		msg += " " + Gray("(%s:%d)", file, line)
	}

	appendAttr := func(a slog.Attr) bool {
		if a.Key != GroupKey {
			msg += fmt.Sprintf(" %s=%s", h.paint(Cyan, "%s", a.Key), h.paint(Yellow, "%v", a.Value))
		}
		return true
	}
	for _, a := range h.attrs {
		appendAttr(a)
	}
	r.Attrs(appendAttr)

	msg += "\n"
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write([]byte(msg))
	return err
}

func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	n := *h
	n.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	for _, a := range attrs {
		if a.Key == GroupKey {
			n.group = a.Value.String()
		}
	}
	return &n
}

func (h *LogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	n := *h
	n.group = name
	return &n
}

// SetupGlobalLogger 设置全局 slog，并让标准库 log 输出到同一 handler
func SetupGlobalLogger(level slog.Level) {
	handler := NewHandler(os.Stdout, level)
	slog.SetDefault(slog.New(handler))

	stdlog.SetFlags(0)
	stdlog.SetPrefix("")
	stdlog.SetOutput(&writerAdapter{handler: handler, level: slog.LevelInfo})
}

// writerAdapter 将标准库 log 的输出适配到 slog
type writerAdapter struct {
	handler slog.Handler
	level   slog.Level
}

func (w *writerAdapter) Write(p []byte) (n int, err error) {
	msg := string(p)
	if len(msg) > 0 && msg[len(msg)-1] == '\n' {
		msg = msg[:len(msg)-1]
	}

	var pcs [1]uintptr
	runtime.Callers(4, pcs[:]) // skip [Callers, Write, log.Output, log.Printf/etc]

	r := slog.NewRecord(time.Now(), w.level, msg, pcs[0])
	return len(p), w.handler.Handle(context.Background(), r)
}

// GetWriter 返回一个 io.Writer，可以用于 Gin 等框架
func GetWriter() io.Writer {
	return &writerAdapter{handler: slog.Default().Handler(), level: slog.LevelInfo}
}
