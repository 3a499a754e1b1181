package conf

const Version_Development = "dev"

var (
	Version    = Version_Development
	CommitHash = "unknown"
)

var (
	Conf *Config // 进程级配置，由 FxModule 载入后赋值
)

type Config struct {
	Listen     string                 `json:"listen" yaml:"listen"`
	Companion  Companion              `json:"companion" yaml:"companion"`
	Database   Database               `json:"database" yaml:"database"`
	Device     Device                 `json:"device" yaml:"device"`
	Extensions map[string]interface{} `json:"extensions" yaml:"extensions"` // 各传输方式的附加配置，键为传输名
}

type Companion struct {
	ConfigPageURL   string `json:"config_page_url" yaml:"config_page_url"`   // 外部配置页地址
	DefaultTimezone string `json:"default_timezone" yaml:"default_timezone"` // 首次运行、尚无 options 时使用
}

type Database struct {
	DatabaseType string `json:"database_type" yaml:"database_type"` // sqlite, mysql
	DatabaseFile string `json:"database_file" yaml:"database_file"`
	DatabaseHost string `json:"database_host" yaml:"database_host"`
	DatabasePort string `json:"database_port" yaml:"database_port"`
	DatabaseUser string `json:"database_user" yaml:"database_user"`
	DatabasePass string `json:"database_pass" yaml:"database_pass"`
	DatabaseName string `json:"database_name" yaml:"database_name"`
}

type Device struct {
	Transport         string `json:"transport" yaml:"transport"`                   // empty, websocket, nats, webhook, javascript
	Timeout           int    `json:"timeout" yaml:"timeout"`                       // 单次发送超时，单位秒
	MaxRetries        int    `json:"max_retries" yaml:"max_retries"`               // 失败后的重试次数，默认 0 即只记录日志
	DeliveryRetention int    `json:"delivery_retention" yaml:"delivery_retention"` // 发送记录保留时间，单位小时
}
