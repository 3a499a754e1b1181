package device

import (
	_ "github.com/komari-monitor/companion/internal/device/empty"
	_ "github.com/komari-monitor/companion/internal/device/javascript"
	_ "github.com/komari-monitor/companion/internal/device/nats"
	_ "github.com/komari-monitor/companion/internal/device/webhook"
	_ "github.com/komari-monitor/companion/internal/device/websocket"
)
