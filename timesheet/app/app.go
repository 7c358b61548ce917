// Package app wires the service and its infrastructure from configuration. The HTTP
// server, the CLI and the payroll Lambda all start here.
package app

import (
	"context"
	"fmt"

	"acceptrec.co.uk/timesheets/config"
	"acceptrec.co.uk/timesheets/core"
	"acceptrec.co.uk/timesheets/infrastructure/communication"
	"acceptrec.co.uk/timesheets/infrastructure/filesystem"
	"acceptrec.co.uk/timesheets/infrastructure/locking"
	"acceptrec.co.uk/timesheets/timesheet/service"
	"github.com/sirupsen/logrus"
)

type App struct {
	Config   config.Config
	Log      *logrus.Logger
	DM       *core.DatabaseManager
	Service  *service.Service
	Notifier communication.Notifier
}

// Open connects the database and the optional integrations. Email falls back to a
// logging mailer when disabled, receipts are unavailable without a bucket and locks are
// local without Redis.
func Open(ctx context.Context, cfg config.Config, log *logrus.Logger) (*App, error) {
	dm, err := core.New(cfg.Database.DSN, cfg.Database.MaxConnections, core.ParseLogLevel(cfg.Database.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	deps := service.Dependencies{Log: log}

	if cfg.Email.Enabled {
		mailer, err := communication.ConnectSES(ctx, cfg.Email.Region, log)
		if err != nil {
			dm.Close()
			return nil, err
		}
		deps.Mailer = mailer
	}

	deps.Notifier = communication.ConnectSlack(cfg.Slack.Token, communication.SlackOption{
		InfoChannelID:  cfg.Slack.InfoChannel,
		ErrorChannelID: cfg.Slack.ErrorChannel,
	})

	if cfg.Storage.Bucket != "" {
		files, err := filesystem.ConnectS3(ctx, cfg.Storage.Bucket)
		if err != nil {
			dm.Close()
			return nil, err
		}
		deps.Files = files
	}

	locker, err := locking.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		dm.Close()
		return nil, err
	}
	deps.Locker = locker

	svc := service.New(dm, deps, service.Options{
		BaseURL:        cfg.App.BaseURL,
		From:           cfg.Email.From,
		ApprovalTTL:    cfg.Approval.TokenTTL,
		ReceiptsPrefix: cfg.Storage.ReceiptsPrefix,
	})

	log.WithFields(logrus.Fields{
		"email":    cfg.Email.Enabled,
		"slack":    cfg.Slack.Token != "",
		"receipts": cfg.Storage.Bucket != "",
		"redis":    cfg.Redis.Addr != "",
	}).Info("timesheet service ready")

	return &App{
		Config:   cfg,
		Log:      log,
		DM:       dm,
		Service:  svc,
		Notifier: deps.Notifier,
	}, nil
}

// Load reads the configuration at path (or the default locations) and opens the app.
func Load(ctx context.Context, path string) (*App, error) {
	cfg, err := config.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return Open(ctx, cfg, config.NewLogger(cfg.Log.Level))
}

func (a *App) Close() error {
	return a.DM.Close()
}
