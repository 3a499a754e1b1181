package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/komari-monitor/companion/internal/device/factory"
	"github.com/nats-io/nats.go"
)

// NatsSender 通过 NATS request/reply 把消息发给订阅 Subject 的配对设备
type NatsSender struct {
	Addition
	conn *nats.Conn
}

func (n *NatsSender) GetName() string {
	return "nats"
}

func (n *NatsSender) GetConfiguration() factory.Configuration {
	return &n.Addition
}

func (n *NatsSender) Init() error {
	if strings.TrimSpace(n.Addition.Subject) == "" {
		return errors.New("subject is required")
	}
	opts := []nats.Option{
		nats.Name("companion"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	if n.Addition.Token != "" {
		opts = append(opts, nats.Token(n.Addition.Token))
	}
	nc, err := nats.Connect(n.Addition.URL, opts...)
	if err != nil {
		return fmt.Errorf("connecting to NATS at %s: %w", n.Addition.URL, err)
	}
	n.conn = nc
	return nil
}

func (n *NatsSender) Destroy() error {
	if n.conn != nil {
		n.conn.Close()
		n.conn = nil
	}
	return nil
}

func (n *NatsSender) Send(ctx context.Context, msg *factory.Message) error {
	if n.conn == nil {
		return errors.New("NATS connection not initialized")
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}
	reply, err := n.conn.RequestWithContext(ctx, n.Addition.Subject, data)
	if err != nil {
		return fmt.Errorf("request on %s: %w", n.Addition.Subject, err)
	}

	var ack factory.Ack
	if err := json.Unmarshal(reply.Data, &ack); err != nil {
		return fmt.Errorf("invalid ack: %w", err)
	}
	if !ack.Ack {
		if ack.Error == "" {
			ack.Error = "rejected"
		}
		return fmt.Errorf("device: %s", ack.Error)
	}
	return nil
}

var _ factory.ISender = (*NatsSender)(nil)
