// Package api exposes the host events and companion state over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gookit/event"
	"github.com/komari-monitor/companion/internal/api/resp"
	"github.com/komari-monitor/companion/internal/database/models"
	"github.com/komari-monitor/companion/internal/device"
	"github.com/komari-monitor/companion/internal/options"
	"github.com/komari-monitor/companion/public"
)

// Dispatcher 分发宿主事件，*host.Bus 实现了它
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, data event.M) error
}

// Sessions 记录每次请求打开的 URL，*webview.Sessions 实现了它
type Sessions interface {
	NewSession() string
	Take(id string) (string, bool)
}

type OptionsReader interface {
	Options(ctx context.Context) (options.Options, error)
}

type DeliveryLister interface {
	Recent(ctx context.Context, limit int) ([]models.Delivery, error)
}

type Handler struct {
	Bus        Dispatcher
	Sessions   Sessions
	Options    OptionsReader
	Deliveries DeliveryLister
	Device     *device.Dispatcher
}

// LoadRoutes 注册所有路由
func LoadRoutes(r *gin.Engine, h *Handler) {
	r.Use(func(c *gin.Context) {
		if len(c.Request.URL.Path) >= 4 && c.Request.URL.Path[:4] == "/api" {
			c.Header("Cache-Control", "no-store")
		}
		c.Next()
	})

	r.Any("/ping", func(c *gin.Context) {
		c.String(200, "pong")
	})
	public.Static(r)

	r.GET("/api/version", resp.GetVersion)
	r.GET("/api/configure", h.Configure)
	r.GET("/api/webview/close", h.WebviewClose)
	r.POST("/api/webview/close", h.WebviewClose)
	r.GET("/api/options", h.GetOptions)
	r.GET("/api/deliveries", h.GetDeliveries)
	r.GET("/api/device", h.GetDevice)
	r.GET("/api/device/ws", h.DeviceConnect)
}

// respondDispatchError 解析错误返回 4xx/5xx，其余视为内部错误
func respondDispatchError(c *gin.Context, parseStatus int, err error) {
	var perr *options.ParseError
	if errors.As(err, &perr) {
		resp.RespondError(c, parseStatus, perr.Error())
		return
	}
	resp.RespondError(c, http.StatusInternalServerError, err.Error())
}
