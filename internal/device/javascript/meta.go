package javascript

import "github.com/komari-monitor/companion/internal/device/factory"

type Addition struct {
	Script string `json:"script" type:"richtext" required:"true" help:"定义 function sendMessage(options, id)，返回 true 或 resolve 为 true 表示设备已确认。可使用 fetch()"`
}

func init() {
	factory.RegisterSender(func() factory.ISender {
		return &JavaScriptSender{}
	})
}
