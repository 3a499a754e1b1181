package server

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/komari-monitor/companion/internal/conf"
	logutil "github.com/komari-monitor/companion/internal/log"
	"go.uber.org/fx"
)

// FxModule provides the gin engine and runs the HTTP server for the app lifetime.
func FxModule() fx.Option {
	return fx.Options(
		fx.Provide(NewEngine),
		fx.Invoke(registerHTTPLifecycle),
	)
}

func NewEngine() *gin.Engine {
	if conf.Version != conf.Version_Development {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(logutil.GinLogger())
	r.Use(logutil.GinRecovery())
	return r
}

func registerHTTPLifecycle(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg *conf.Config, eng *gin.Engine) {
	srv := &http.Server{Addr: cfg.Listen, Handler: eng}
	stopped := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// 先监听，端口被占用时启动直接失败
			ln, err := net.Listen("tcp", cfg.Listen)
			if err != nil {
				return err
			}
			log.Printf("Starting server on %s ...", ln.Addr())
			go func() {
				defer close(stopped)
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Printf("listen: %v", err)
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			err := srv.Shutdown(ctx)
			select {
			case <-stopped:
			case <-ctx.Done():
			}
			return err
		},
	})
}
