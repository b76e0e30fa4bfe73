package cli

import (
	"context"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticketdesk/internal/api/http"
)

const shutdownTimeout = 5 * time.Second

func serveCommand(env *Env) *Command {
	var addr string
	return &Command{
		Name:    "serve",
		Summary: "Run the local view server",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
			fs.StringVar(&addr, "addr", env.App.Config.App.Addr(), "listen address")
			return fs
		},
		Run: func(ctx context.Context, _ []string) error {
			logger := env.App.Logger
			// The server starts signed out when the persisted session cannot be restored.
			if err := env.App.Bootstrap(ctx); err != nil {
				logger.Warn("session not restored", zap.Error(err))
			}

			server := httptransport.NewServer(env.App)
			pollCtx, stopPolling := context.WithCancel(ctx)
			defer stopPolling()
			polled := env.App.SessionPoller(server.Visibility.Visible).Start(pollCtx)

			listenErr := make(chan error, 1)
			go func() {
				logger.Info("view server listening", zap.String("addr", addr))
				listenErr <- server.Listen(addr)
			}()

			select {
			case err := <-listenErr:
				stopPolling()
				<-polled
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			err := server.Shutdown(shutdownCtx)
			stopPolling()
			<-polled
			return err
		},
	}
}
