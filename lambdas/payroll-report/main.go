package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"acceptrec.co.uk/timesheets/config"
	"acceptrec.co.uk/timesheets/infrastructure/communication"
	"acceptrec.co.uk/timesheets/timesheet/app"
	engine "acceptrec.co.uk/timesheets/timesheet/core"
	"acceptrec.co.uk/timesheets/timesheet/service"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"
)

type ReportSender interface {
	SendPayrollReport(ctx context.Context, email string) (*service.PayrollReport, error)
}

type Result struct {
	Sent    []service.PayrollReport `json:"sent"`
	Skipped bool                    `json:"skipped"`
}

type Handler struct {
	sender     ReportSender
	notifier   communication.Notifier
	log        logrus.FieldLogger
	recipients []string
}

// Handle sends the payroll report to every configured recipient. A week with nothing
// approved is not a failure.
func (h *Handler) Handle(ctx context.Context, event events.CloudWatchEvent) (*Result, error) {
	h.log.WithFields(logrus.Fields{"id": event.ID, "time": event.Time}).Info("payroll report triggered")

	if len(h.recipients) == 0 {
		return nil, errors.New("payroll.recipients is empty")
	}

	res := &Result{Sent: []service.PayrollReport{}}
	var failed []error
	for _, to := range h.recipients {
		sent, err := h.sender.SendPayrollReport(ctx, to)
		if errors.Is(err, engine.ErrNotFound) {
			h.log.WithField("recipient", to).Info("no approved timesheets, report skipped")
			res.Skipped = true
			return res, nil
		}
		if err != nil {
			config.LogError(h.log, "payroll-report", "Handle", to, nil, err)
			failed = append(failed, fmt.Errorf("%s: %w", to, err))
			continue
		}
		res.Sent = append(res.Sent, *sent)
	}

	if len(failed) > 0 {
		err := errors.Join(failed...)
		if nerr := h.notifier.Error("Scheduled payroll report failed: " + err.Error()); nerr != nil {
			config.LogError(h.log, "payroll-report", "Handle", "slack", nil, nerr)
		}
		return res, err
	}
	return res, nil
}

func main() {
	ctx := context.Background()
	a, err := app.Load(ctx, os.Getenv("TIMESHEETS_CONFIG_FILE"))
	if err != nil {
		config.LogError(config.NewLogger("error"), "payroll-report", "main", "open app", nil, err)
		os.Exit(1)
	}
	defer a.Close()

	h := &Handler{
		sender:     a.Service,
		notifier:   a.Notifier,
		log:        a.Log,
		recipients: a.Config.Payroll.Recipients,
	}
	lambda.Start(h.Handle)
}
