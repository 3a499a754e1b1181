package flags

var (
	ConfigFile string // 配置文件路径
	Listen     string // 监听地址，覆盖配置文件中的 listen
)
