package conf

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// CustomFieldProvider 是扩展字段提供者需要实现的接口
type CustomFieldProvider interface {
	// Key 返回 extensions 中的唯一键名
	Key() string
	// Default 返回默认值
	Default() interface{}
	// Validate 验证配置值是否有效（返回 nil 表示验证通过）
	Validate(value interface{}) error
}

// BaseFieldProvider 提供一个基础实现，简化扩展字段的创建
type BaseFieldProvider struct {
	key          string
	defaultValue interface{}
	validator    func(interface{}) error
}

func NewFieldProvider(key string, defaultValue interface{}, validator func(interface{}) error) *BaseFieldProvider {
	return &BaseFieldProvider{
		key:          key,
		defaultValue: defaultValue,
		validator:    validator,
	}
}

func (p *BaseFieldProvider) Key() string {
	return p.key
}

func (p *BaseFieldProvider) Default() interface{} {
	return p.defaultValue
}

func (p *BaseFieldProvider) Validate(value interface{}) error {
	if p.validator != nil {
		return p.validator(value)
	}
	return nil
}

var (
	registryMu      sync.RWMutex
	customProviders = make(map[string]CustomFieldProvider)
)

// RegisterField 注册一个扩展字段提供者
// 应在 init() 中调用，以确保在配置加载前完成注册
func RegisterField(provider CustomFieldProvider) error {
	registryMu.Lock()
	defer registryMu.Unlock()

	key := provider.Key()
	if key == "" {
		return fmt.Errorf("custom field key cannot be empty")
	}
	if _, exists := customProviders[key]; exists {
		return fmt.Errorf("custom field '%s' is already registered", key)
	}
	customProviders[key] = provider
	return nil
}

// MustRegisterField 注册一个扩展字段提供者，失败时 panic
func MustRegisterField(provider CustomFieldProvider) {
	if err := RegisterField(provider); err != nil {
		panic(err)
	}
}

// MustRegisterSimpleField 简化的字段注册，失败时 panic
func MustRegisterSimpleField(key string, defaultValue interface{}) {
	MustRegisterField(NewFieldProvider(key, defaultValue, nil))
}

// GetExtensionAs 读取扩展字段并转换为指定类型
// 使用示例: val, ok := GetExtensionAs[webhook.Addition](cfg, "webhook")
func GetExtensionAs[T any](cfg *Config, key string) (T, bool) {
	var zero T
	if cfg == nil || cfg.Extensions == nil {
		return zero, false
	}
	val, ok := cfg.Extensions[key]
	if !ok {
		return zero, false
	}
	if typed, ok := val.(T); ok {
		return typed, true
	}

	var result T
	if err := DecodeExtension(val, &result); err != nil {
		return zero, false
	}
	return result, true
}

// DecodeExtension 通过 JSON 将扩展字段的值写入 dst
func DecodeExtension(val interface{}, dst interface{}) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

// SetExtension 设置扩展字段的值（不自动保存）
func SetExtension(cfg *Config, key string, value interface{}) error {
	registryMu.RLock()
	provider, exists := customProviders[key]
	registryMu.RUnlock()

	if !exists {
		return fmt.Errorf("extension field '%s' is not registered", key)
	}
	if err := provider.Validate(value); err != nil {
		return fmt.Errorf("validation failed for field '%s': %w", key, err)
	}
	if cfg.Extensions == nil {
		cfg.Extensions = make(map[string]interface{})
	}
	cfg.Extensions[key] = value
	return nil
}

// GetRegisteredKeys 获取所有已注册的字段键名，按字典序
func GetRegisteredKeys() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	keys := make([]string, 0, len(customProviders))
	for k := range customProviders {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func IsFieldRegistered(key string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()

	_, exists := customProviders[key]
	return exists
}

// ensureExtensionsDefaults 确保所有已注册的扩展字段都有值
func ensureExtensionsDefaults(cfg *Config) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if cfg.Extensions == nil {
		cfg.Extensions = make(map[string]interface{})
	}
	for key, provider := range customProviders {
		if _, exists := cfg.Extensions[key]; !exists {
			cfg.Extensions[key] = provider.Default()
		}
	}
}
