package nats

import "github.com/komari-monitor/companion/internal/device/factory"

type Addition struct {
	URL     string `json:"url" default:"nats://127.0.0.1:4222" help:"NATS 服务器地址"`
	Subject string `json:"subject" default:"companion.options" help:"配对设备订阅的 subject，使用 request/reply 确认"`
	Token   string `json:"token" help:"NATS token 认证（可选）"`
}

func init() {
	factory.RegisterSender(func() factory.ISender {
		return &NatsSender{Addition: Addition{
			URL:     "nats://127.0.0.1:4222",
			Subject: "companion.options",
		}}
	})
}
