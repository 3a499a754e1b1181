package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/komari-monitor/companion/internal/api/resp"
	"github.com/komari-monitor/companion/internal/device/factory"
)

func (h *Handler) GetOptions(c *gin.Context) {
	o, err := h.Options.Options(c.Request.Context())
	if err != nil {
		respondDispatchError(c, http.StatusInternalServerError, err)
		return
	}
	resp.RespondSuccess(c, o.Values())
}

func (h *Handler) GetDeliveries(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	list, err := h.Deliveries.Recent(c.Request.Context(), limit)
	if err != nil {
		resp.RespondError(c, http.StatusInternalServerError, "Failed to load deliveries: "+err.Error())
		return
	}
	resp.RespondSuccess(c, list)
}

// GetDevice 返回当前传输方式及设备连接状态
func (h *Handler) GetDevice(c *gin.Context) {
	sender := h.Device.Active()
	if sender == nil {
		resp.RespondError(c, http.StatusServiceUnavailable, "no transport loaded")
		return
	}
	data := gin.H{
		"transport":  sender.GetName(),
		"transports": factory.GetSenderNames(),
	}
	if cs, ok := sender.(interface{ Connected() bool }); ok {
		data["connected"] = cs.Connected()
	}
	resp.RespondSuccess(c, data)
}

// DeviceConnect 配对设备接入点，仅当前传输方式接受连接时可用
func (h *Handler) DeviceConnect(c *gin.Context) {
	ep, ok := h.Device.Endpoint()
	if !ok {
		resp.RespondError(c, http.StatusNotFound, "active transport does not accept device connections")
		return
	}
	ep.HandlePeer(c)
}
