package log

import (
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// GinLogger 记录每个 HTTP 请求，状态码 >=500 使用 Error 级别
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		statusCode := c.Writer.Status()
		status := Green("%d", statusCode)
		level := slog.LevelInfo
		switch {
		case statusCode >= 500:
			status = Red("%d", statusCode)
			level = slog.LevelError
		case statusCode >= 400:
			status = Yellow("%d", statusCode)
		case statusCode >= 300:
			status = Cyan("%d", statusCode)
		}

		// query 中的 response 可能很长，只记录路径
		msg := fmt.Sprintf("%s %s %s | %s | %s", status, c.Request.Method, path, c.ClientIP(), time.Since(start))
		if len(c.Errors) > 0 {
			msg += " | " + c.Errors.String()
		}

		r := slog.NewRecord(time.Now(), level, msg, 0)
		r.AddAttrs(slog.String(GroupKey, "GIN"))
		_ = slog.Default().Handler().Handle(c.Request.Context(), r)
	}
}

// GinRecovery 恢复 handler 中的 panic 并返回 500
func GinRecovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				msg := fmt.Sprintf("panic recovered: %v | %s %s (%s)", err, c.Request.Method, c.Request.URL.Path, FileWithLineNum())
				r := slog.NewRecord(time.Now(), slog.LevelError, msg, 0)
				r.AddAttrs(slog.String(GroupKey, "GIN"))
				_ = slog.Default().Handler().Handle(c.Request.Context(), r)
				c.AbortWithStatus(500)
			}
		}()
		c.Next()
	}
}

func FileWithLineNum() string {
	pcs := [20]uintptr{}
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	for i := 0; i < n; i++ {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, "runtime") &&
			!strings.HasPrefix(frame.Function, "github.com/gin-gonic") &&
			!strings.HasPrefix(frame.Function, "gorm") &&
			!strings.HasSuffix(frame.File, ".gen.go") ||
			strings.HasSuffix(frame.File, "_test.go") {
			return string(strconv.AppendInt(append([]byte(frame.File), ':'), int64(frame.Line), 10))
		}
		if !more {
			break
		}
	}
	return ""
}
