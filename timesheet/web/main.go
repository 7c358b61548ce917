package main

import (
	"context"
	"os"

	"acceptrec.co.uk/timesheets/config"
	"acceptrec.co.uk/timesheets/security"
	"acceptrec.co.uk/timesheets/timesheet/app"
	"acceptrec.co.uk/timesheets/timesheet/web/handlers"
	"github.com/gin-gonic/gin"
)

func main() {
	ctx := context.Background()
	cfg, err := config.Load(ctx, os.Getenv("TIMESHEETS_CONFIG_FILE"))
	if err != nil {
		config.LogError(config.NewLogger("error"), "web", "main", "load config", nil, err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Log.Level)

	secret, err := security.DecodeSecret(cfg.Auth.SigningSecret)
	if err != nil {
		config.LogError(logger, "web", "main", "decode signing secret", nil, err)
		os.Exit(1)
	}

	a, err := app.Open(ctx, cfg, logger)
	if err != nil {
		config.LogError(logger, "web", "main", "open app", nil, err)
		os.Exit(1)
	}
	defer a.Close()

	gin.SetMode(cfg.Server.Mode)
	r := handlers.NewRouter(a.Service, handlers.RouterOptions{
		Secret:       secret,
		CookieName:   cfg.Auth.CookieName,
		AllowOrigins: cfg.CORS.AllowOrigins,
		Log:          logger,
	})

	logger.WithField("addr", cfg.Server.Addr).Info("listening")
	if err := r.Run(cfg.Server.Addr); err != nil {
		config.LogError(logger, "web", "main", "run server", nil, err)
	}
}
