package device

import "github.com/gin-gonic/gin"

// PeerEndpoint 由等待设备主动连接的发送器实现（例如 websocket）
type PeerEndpoint interface {
	HandlePeer(c *gin.Context)
}

// Endpoint 返回当前发送器的设备接入点，发送器不接受连接时返回 false
func (d *Dispatcher) Endpoint() (PeerEndpoint, bool) {
	ep, ok := d.Active().(PeerEndpoint)
	return ep, ok
}
