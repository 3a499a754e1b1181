package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/komari-monitor/companion/cmd/flags"
	"github.com/komari-monitor/companion/internal/authenticator"
	"github.com/komari-monitor/companion/internal/conf"
	"github.com/komari-monitor/companion/internal/device/factory"
	devicews "github.com/komari-monitor/companion/internal/device/websocket"
	logutil "github.com/komari-monitor/companion/internal/log"
	"github.com/komari-monitor/companion/internal/options"
	"github.com/spf13/cobra"
)

var (
	watchURL     string
	watchSecrets string
	watchToken   string
)

var WatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run a simulated paired device over the websocket transport",
	Long: `Connect to the companion device endpoint, apply every options message it
receives, acknowledge it and print the current code whenever it changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sf, err := authenticator.LoadSecrets(watchSecrets)
		if err != nil {
			return err
		}
		a := authenticator.New(sf)
		logger := logutil.WithGroup(slog.Default(), "WATCH")

		token := watchToken
		if token == "" {
			token = configuredToken(flags.ConfigFile)
		}
		target, err := deviceURL(watchURL, token)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go tickCodes(ctx, a, logger)

		backoff := time.Second
		for {
			err := watchOnce(ctx, target, a, logger)
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn("connection lost, reconnecting", slog.Any("error", err), slog.Duration("in", backoff))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
		}
	},
}

// configuredToken 从本地配置文件读取 websocket 传输的 token，文件不存在时返回空
func configuredToken(path string) string {
	cfg, err := conf.Load(path)
	if err != nil {
		return ""
	}
	add, ok := conf.GetExtensionAs[devicews.Addition](cfg, "websocket")
	if !ok {
		return ""
	}
	return add.Token
}

// deviceURL 在 endpoint 上附加 token，地址中已带 token 时保持不变
func deviceURL(endpoint, token string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid device url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("invalid device url %q: scheme must be ws or wss", endpoint)
	}
	q := u.Query()
	if token != "" && q.Get("token") == "" {
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func watchOnce(ctx context.Context, target string, a *authenticator.Authenticator, logger *slog.Logger) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	logger.Info("connected", slog.String("url", target))

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	for {
		var msg factory.Message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}
		ack := factory.Ack{ID: msg.ID, Ack: true}
		o, err := options.Decode(msg.Payload)
		if err != nil {
			ack.Ack = false
			ack.Error = err.Error()
			logger.Warn("rejected options", slog.Any("error", err))
		} else {
			a.Apply(o)
			logger.Info("applied options: " + o.String())
		}
		if err := conn.WriteJSON(ack); err != nil {
			return err
		}
	}
}

// tickCodes 每秒刷新一次，code 变化时打印，并按 options 输出振动提醒
func tickCodes(ctx context.Context, a *authenticator.Authenticator, logger *slog.Logger) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	last := ""
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s, err := a.Current()
			if err != nil {
				continue
			}
			code, err := a.Code(a.LocalClock(now))
			if err != nil {
				logger.Error("failed to compute code", slog.Any("error", err))
				continue
			}
			remaining := authenticator.SecondsRemaining(now)
			if code != last {
				last = code
				fmt.Printf("%s %s (%ds)\n", s.Label, code, remaining)
			}
			if v := a.Alert(remaining); v != authenticator.VibrateNone {
				logger.Info("vibrate", slog.String("pattern", v.String()))
			}
		}
	}
}

func init() {
	WatchCmd.Flags().StringVarP(&watchURL, "url", "u", "ws://127.0.0.1:25780/api/device/ws", "Device endpoint of the companion")
	WatchCmd.Flags().StringVarP(&watchToken, "token", "t", "", "Device token, read from extensions.websocket.token of --config when empty")
	WatchCmd.Flags().StringVarP(&watchSecrets, "secrets", "s", GetEnv("COMPANION_SECRETS_FILE", "./data/configuration.txt"), "Secrets file, one label:secret per line [env: COMPANION_SECRETS_FILE]")
	RootCmd.AddCommand(WatchCmd)
}
