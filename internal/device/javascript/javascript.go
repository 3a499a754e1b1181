package javascript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/komari-monitor/companion/internal/device/factory"
	"github.com/komari-monitor/companion/internal/jsruntime"
)

// JavaScriptSender 把消息交给用户脚本中的 sendMessage 处理
type JavaScriptSender struct {
	Addition
	js *jsruntime.JsRuntime
}

func (j *JavaScriptSender) GetName() string {
	return "javascript"
}

func (j *JavaScriptSender) GetConfiguration() factory.Configuration {
	return &j.Addition
}

func (j *JavaScriptSender) Init() error {
	if strings.TrimSpace(j.Addition.Script) == "" {
		return errors.New("script is empty")
	}

	var err error
	j.js, err = jsruntime.NewBuilder().WithNodejs().WithFetch().Build()
	if err != nil {
		return fmt.Errorf("failed to build js runtime: %v", err)
	}
	if _, err := j.js.RunScript(j.Addition.Script); err != nil {
		j.Destroy()
		return fmt.Errorf("failed to execute script: %v", err)
	}
	if !j.js.HasFunction("sendMessage") {
		j.Destroy()
		return errors.New("sendMessage function not defined in script")
	}
	return nil
}

func (j *JavaScriptSender) Destroy() error {
	if j.js != nil {
		j.js.Stop()
		j.js = nil
	}
	return nil
}

func (j *JavaScriptSender) Send(ctx context.Context, msg *factory.Message) error {
	if j.js == nil {
		return errors.New("JavaScript runtime not initialized")
	}

	var payload map[string]any
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode payload: %v", err)
	}

	result, err := j.js.CallContext(ctx, "sendMessage", payload, msg.ID)
	if err != nil {
		return fmt.Errorf("JavaScript error: %w", err)
	}
	if result == nil || !result.ToBoolean() {
		return errors.New("sendMessage returned false")
	}
	return nil
}

var _ factory.ISender = (*JavaScriptSender)(nil)
