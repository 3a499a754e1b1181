package eventType

// 宿主事件，由 host.Bus 逐个分发给 companion
const (
	Ready             = "ready"             // companion 已加载
	ShowConfiguration = "showConfiguration" // 用户请求打开配置页
	WebviewClosed     = "webviewclosed"     // 配置页关闭，可能携带 response

	SchedulerEvery5Minutes = "scheduler.every5minutes" // 每五分钟定时触发
	SchedulerEveryHour     = "scheduler.everyhour"     // 每小时定时触发
	SchedulerEveryDay      = "scheduler.everyday"      // 每天定时触发，启动当天不会触发此事件
)
