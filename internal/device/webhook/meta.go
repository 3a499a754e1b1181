package webhook

import "github.com/komari-monitor/companion/internal/device/factory"

type Addition struct {
	URL    string `json:"url" required:"true" help:"配对设备的 HTTP 接收地址，options 以 JSON POST 发送"`
	Secret string `json:"secret" help:"写入 X-Companion-Secret 请求头（可选）"`
}

func init() {
	factory.RegisterSender(func() factory.ISender {
		return &WebhookSender{}
	})
}
