// Package factory defines the transport contract used to reach the paired
// device and keeps the registry of available transports.
package factory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/komari-monitor/companion/internal/conf"
)

// Message 发往配对设备的一条消息
type Message struct {
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

// Ack 配对设备对 Message 的确认
type Ack struct {
	ID    string `json:"id,omitempty"`
	Ack   bool   `json:"ack"`
	Error string `json:"error,omitempty"`
}

type ISender interface {
	// GetName 返回注册名，同时也是配置中 extensions 的键
	GetName() string
	// 请务必返回 &Addition{} 的指针
	GetConfiguration() Configuration
	Init() error
	Destroy() error
	// Send 投递一条消息，返回 nil 表示设备已确认
	Send(ctx context.Context, msg *Message) error
}

type Configuration interface{}

type SenderConstructor func() ISender

var (
	mu           sync.RWMutex
	constructors = make(map[string]SenderConstructor)
)

// RegisterSender 注册发送器，应在 init() 中调用。
// 构造出的默认配置同时注册为 extensions[name] 的默认值
func RegisterSender(constructor SenderConstructor) {
	mu.Lock()
	defer mu.Unlock()
	inst := constructor()
	name := inst.GetName()
	if _, exists := constructors[name]; exists {
		panic("factory: sender " + name + " registered twice")
	}
	constructors[name] = constructor
	conf.MustRegisterSimpleField(name, inst.GetConfiguration())
}

func GetConstructor(name string) (SenderConstructor, bool) {
	mu.RLock()
	defer mu.RUnlock()
	c, ok := constructors[name]
	return c, ok
}

// GetSenderNames 返回所有已注册的发送器名称，按字典序
func GetSenderNames() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
