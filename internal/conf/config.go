package conf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// 返回默认配置对象
func Default() Config {
	return Config{
		Listen: "0.0.0.0:25780",
		Companion: Companion{
			ConfigPageURL:   "http://127.0.0.1:25780/html/configuration.html",
			DefaultTimezone: "0.0",
		},
		Database: Database{
			DatabaseType: "sqlite",
			DatabaseFile: "./data/companion.db",
		},
		Device: Device{
			Transport:         "websocket",
			Timeout:           30,
			MaxRetries:        0,
			DeliveryRetention: 720,
		},
		Extensions: map[string]interface{}{},
	}
}

// SendTimeout 返回单次发送超时，未设置时为 30 秒
func (d Device) SendTimeout() time.Duration {
	if d.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(d.Timeout) * time.Second
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Load 读取配置文件，未设置的字段保留默认值
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cst := Default()
	if isYAML(path) {
		err = yaml.Unmarshal(b, &cst)
	} else {
		err = json.Unmarshal(b, &cst)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	ensureExtensionsDefaults(&cst)
	return &cst, nil
}

// Save 将配置写入文件，格式由扩展名决定
func Save(path string, cst Config) error {
	ensureExtensionsDefaults(&cst)

	var (
		b   []byte
		err error
	)
	if isYAML(path) {
		b, err = yaml.Marshal(cst)
	} else {
		b, err = json.MarshalIndent(cst, "", "  ")
	}
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, b, 0644)
}

// LoadOrCreate 配置文件不存在时写入默认配置
func LoadOrCreate(path string) (*Config, bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cst := Default()
		if err := Save(path, cst); err != nil {
			return nil, false, err
		}
		ensureExtensionsDefaults(&cst)
		return &cst, true, nil
	}
	cst, err := Load(path)
	return cst, false, err
}
