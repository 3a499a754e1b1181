// Package websocket delivers options to a paired device connected to the
// companion over a websocket. Only the most recently connected device is
// paired; an older connection is closed when a new one arrives.
package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/komari-monitor/companion/internal/device/factory"
	logutil "github.com/komari-monitor/companion/internal/log"
)

var (
	ErrNoPeer       = errors.New("websocket: no paired device connected")
	ErrDisconnected = errors.New("websocket: paired device disconnected")
)

type WebsocketSender struct {
	Addition

	mu       sync.Mutex
	peer     *peer
	pending  map[string]chan factory.Ack
	closed   bool
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

type peer struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	done    chan struct{}
}

func (p *peer) writeJSON(v any, deadline time.Time) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	_ = p.conn.SetWriteDeadline(deadline)
	return p.conn.WriteJSON(v)
}

func (s *WebsocketSender) GetName() string {
	return "websocket"
}

func (s *WebsocketSender) GetConfiguration() factory.Configuration {
	return &s.Addition
}

func (s *WebsocketSender) Init() error {
	if s.Addition.PingInterval <= 0 {
		s.Addition.PingInterval = 30
	}
	s.pending = make(map[string]chan factory.Ack)
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	s.logger = logutil.WithGroup(nil, "WEBSOCKET")
	return nil
}

func (s *WebsocketSender) Destroy() error {
	s.mu.Lock()
	s.closed = true
	p := s.peer
	s.peer = nil
	s.mu.Unlock()
	if p != nil {
		p.conn.Close()
	}
	return nil
}

// Connected 是否有已配对的设备
func (s *WebsocketSender) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peer != nil
}

func (s *WebsocketSender) Send(ctx context.Context, msg *factory.Message) error {
	s.mu.Lock()
	p := s.peer
	if p == nil {
		s.mu.Unlock()
		return ErrNoPeer
	}
	ch := make(chan factory.Ack, 1)
	s.pending[msg.ID] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.pending, msg.ID)
		s.mu.Unlock()
	}()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(10 * time.Second)
	}
	if err := p.writeJSON(msg, deadline); err != nil {
		return fmt.Errorf("write message: %w", err)
	}

	select {
	case ack := <-ch:
		if ack.Error != "" {
			return fmt.Errorf("device: %s", ack.Error)
		}
		if !ack.Ack {
			return errors.New("device: rejected")
		}
		return nil
	case <-p.done:
		return ErrDisconnected
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HandlePeer 升级连接并作为当前配对设备，阻塞直到连接断开
func (s *WebsocketSender) HandlePeer(c *gin.Context) {
	if s.Addition.Token != "" && c.Query("token") != s.Addition.Token {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Unauthorized"})
		return
	}
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "error", err)
		return
	}

	p := &peer{conn: conn, done: make(chan struct{})}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	old := s.peer
	s.peer = p
	s.mu.Unlock()
	if old != nil {
		old.conn.Close()
	}

	s.logger.Info("paired device connected", "remote", c.ClientIP())
	s.readLoop(p)
	s.logger.Info("paired device disconnected", "remote", c.ClientIP())
}

func (s *WebsocketSender) readLoop(p *peer) {
	interval := time.Duration(s.Addition.PingInterval) * time.Second
	stop := make(chan struct{})
	defer func() {
		close(stop)
		close(p.done)
		p.conn.Close()
		s.mu.Lock()
		if s.peer == p {
			s.peer = nil
		}
		s.mu.Unlock()
	}()

	_ = p.conn.SetReadDeadline(time.Now().Add(2 * interval))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(2 * interval))
	})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := p.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		var ack factory.Ack
		if err := p.conn.ReadJSON(&ack); err != nil {
			return
		}
		_ = p.conn.SetReadDeadline(time.Now().Add(2 * interval))
		s.mu.Lock()
		ch := s.pending[ack.ID]
		s.mu.Unlock()
		if ch == nil {
			s.logger.Debug("ack for unknown message", "id", ack.ID)
			continue
		}
		select {
		case ch <- ack:
		default:
		}
	}
}

var _ factory.ISender = (*WebsocketSender)(nil)
