package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gookit/event"
	"github.com/komari-monitor/companion/internal/api/resp"
	"github.com/komari-monitor/companion/internal/eventType"
	"github.com/komari-monitor/companion/internal/host"
	"github.com/komari-monitor/companion/internal/webview"
)

// Configure 触发 showConfiguration，并把浏览器重定向到打开的配置页。
// ?format=json 时返回 URL 而不跳转
func (h *Handler) Configure(c *gin.Context) {
	id := h.Sessions.NewSession()
	ctx := webview.WithSession(c.Request.Context(), id)
	if err := h.Bus.Dispatch(ctx, eventType.ShowConfiguration, nil); err != nil {
		respondDispatchError(c, http.StatusInternalServerError, err)
		return
	}
	url, ok := h.Sessions.Take(id)
	if !ok {
		resp.RespondError(c, http.StatusInternalServerError, "configuration page was not opened")
		return
	}
	if c.Query("format") == "json" {
		resp.RespondSuccess(c, gin.H{"url": url})
		return
	}
	c.Redirect(http.StatusFound, url)
}

// WebviewClose 配置页关闭时回调，response 保持 URL 编码原样交给 webviewclosed
func (h *Handler) WebviewClose(c *gin.Context) {
	raw := rawParam(c.Request.URL.RawQuery, host.ResponseKey)
	if raw == "" && c.Request.Method == http.MethodPost {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, 64<<10))
		if err != nil {
			resp.RespondError(c, http.StatusBadRequest, err.Error())
			return
		}
		raw = rawParam(string(body), host.ResponseKey)
	}

	data := event.M{}
	if raw != "" {
		data[host.ResponseKey] = raw
	}
	if err := h.Bus.Dispatch(c.Request.Context(), eventType.WebviewClosed, data); err != nil {
		respondDispatchError(c, http.StatusBadRequest, err)
		return
	}
	if raw == "" {
		resp.RespondSuccessMessage(c, "no options received", nil)
		return
	}
	resp.RespondSuccessMessage(c, "options stored", nil)
}

// rawParam 取出 query/form 中 key 的值，不做 URL 解码
func rawParam(query, key string) string {
	for _, pair := range strings.Split(query, "&") {
		k, v, ok := strings.Cut(pair, "=")
		if ok && k == key {
			return v
		}
	}
	return ""
}
