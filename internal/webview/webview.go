// Package webview is the host side of "open this URL in a webview".
//
// The HTTP host has no real webview: a request that triggers
// showConfiguration carries a session id in its context, the opener records
// the URL under that id and the handler redirects the browser to it.
package webview

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	logutil "github.com/komari-monitor/companion/internal/log"
	"github.com/patrickmn/go-cache"
)

var ErrEmptyURL = errors.New("webview: empty url")

type sessionKey struct{}

// WithSession 将会话 id 放入 ctx，OpenURL 会把 URL 记录在该会话下
func WithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

func sessionFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionKey{}).(string)
	return id, ok && id != ""
}

// Sessions 记录每个会话最近一次被要求打开的 URL
type Sessions struct {
	cache  *cache.Cache
	logger *slog.Logger
}

func NewSessions() *Sessions {
	return &Sessions{
		cache:  cache.New(5*time.Minute, 10*time.Minute),
		logger: logutil.WithGroup(nil, "WEBVIEW"),
	}
}

// NewSession 生成新的会话 id
func (s *Sessions) NewSession() string {
	return uuid.New().String()
}

// OpenURL 实现 companion 的 URLOpener。没有会话时只记录日志（例如 CLI 场景）
func (s *Sessions) OpenURL(ctx context.Context, url string) error {
	if url == "" {
		return ErrEmptyURL
	}
	id, ok := sessionFrom(ctx)
	if !ok {
		s.logger.Info("open url", "url", url)
		return nil
	}
	s.cache.Set(id, url, cache.DefaultExpiration)
	return nil
}

// Take 取出并删除会话对应的 URL
func (s *Sessions) Take(id string) (string, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return "", false
	}
	s.cache.Delete(id)
	return v.(string), true
}
