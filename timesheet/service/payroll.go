package service

import (
	"context"
	"fmt"
	"strings"

	"acceptrec.co.uk/timesheets/security"
	engine "acceptrec.co.uk/timesheets/timesheet/core"
	"acceptrec.co.uk/timesheets/timesheet/model"
	"acceptrec.co.uk/timesheets/timesheet/report"
	"acceptrec.co.uk/timesheets/timesheet/store"
	"acceptrec.co.uk/timesheets/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ExportFormat string

const (
	FormatXLSX ExportFormat = "xlsx"
	FormatCSV  ExportFormat = "csv"
)

type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

type PayrollReport struct {
	Recipient string `json:"recipient"`
	Filename  string `json:"filename"`
	Weeks     int    `json:"weeks"`
	Drivers   int    `json:"drivers"`
}

type DashboardStats struct {
	Timesheets     map[model.ApprovalStatus]int64 `json:"timesheets"`
	PendingBatches int64                          `json:"pendingBatches"`
	PartialBatches int64                          `json:"partialBatches"`
	LatestWeek     *engine.WeekGroup              `json:"latestWeek"`
	// LatestWeekExpenses sums the expenses of approved timesheets in the latest week.
	LatestWeekExpenses decimal.Decimal `json:"latestWeekExpenses"`
}

// payroll does the two bulk reads the aggregation needs and folds them in memory.
func (s *Service) payroll(db *gorm.DB, weekStartDate string) ([]engine.WeekGroup, []model.Timesheet, error) {
	approved, err := store.ApprovedTimesheets(db, weekStartDate)
	if err != nil {
		return nil, nil, err
	}
	clients, err := store.ListClients(db)
	if err != nil {
		return nil, nil, err
	}
	return engine.NewAggregator(s.log).Aggregate(approved, clients), approved, nil
}

// Payroll aggregates the approved timesheets of a week, or of every week when
// weekStartDate is empty.
func (s *Service) Payroll(ctx context.Context, p security.Principal, weekStartDate string) ([]engine.WeekGroup, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if weekStartDate != "" && !utils.IsWeekStart(weekStartDate) {
		return nil, engine.Validationf("weekStartDate %q must be a Sunday in yyyy-MM-dd format", weekStartDate)
	}
	var out []engine.WeekGroup
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		var err error
		out, _, err = s.payroll(db, weekStartDate)
		return err
	})
	return out, err
}

func (s *Service) reportFilename(ext string) string {
	return "Payroll_Report_" + s.now().UTC().Format(utils.DateLayout) + "." + ext
}

// ExportPayroll renders the payroll as a workbook or a CSV file.
func (s *Service) ExportPayroll(ctx context.Context, p security.Principal, weekStartDate string, format ExportFormat) (*Export, error) {
	if format == "" {
		format = FormatXLSX
	}
	format = ExportFormat(strings.ToLower(string(format)))
	if format != FormatXLSX && format != FormatCSV {
		return nil, engine.Validationf("unsupported export format %q", format)
	}

	weeks, err := s.Payroll(ctx, p, weekStartDate)
	if err != nil {
		return nil, err
	}

	if format == FormatCSV {
		data, err := report.CSV(weeks)
		if err != nil {
			return nil, err
		}
		return &Export{Filename: s.reportFilename("csv"), ContentType: report.CSVContentType, Data: data}, nil
	}
	data, err := report.Workbook(weeks)
	if err != nil {
		return nil, err
	}
	return &Export{Filename: s.reportFilename("xlsx"), ContentType: report.XLSXContentType, Data: data}, nil
}

// SendPayrollReport emails the full payroll workbook. Only one report is sent at a
// time across all instances.
func (s *Service) SendPayrollReport(ctx context.Context, email string) (*PayrollReport, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	var out *PayrollReport
	err := s.withLock(ctx, "payroll:send", func(ctx context.Context) error {
		var weeks []engine.WeekGroup
		if err := s.dm.Exec(ctx, func(db *gorm.DB) error {
			var err error
			weeks, _, err = s.payroll(db, "")
			return err
		}); err != nil {
			return err
		}
		if len(weeks) == 0 {
			return fmt.Errorf("no approved timesheets found: %w", engine.ErrNotFound)
		}

		workbook, err := report.Workbook(weeks)
		if err != nil {
			return err
		}
		filename := s.reportFilename("xlsx")
		if err := s.mailer.Send(ctx, s.payrollEmail(email, workbook, filename)); err != nil {
			s.notifyError(fmt.Sprintf("Payroll report to %s failed: %v", email, err))
			return fmt.Errorf("failed to send payroll report: %w", err)
		}

		drivers := 0
		for _, w := range weeks {
			drivers += w.DriverCount
		}
		out = &PayrollReport{Recipient: email, Filename: filename, Weeks: len(weeks), Drivers: drivers}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyInfo(fmt.Sprintf("Payroll report %s sent to %s", out.Filename, email))
	return out, nil
}

// Dashboard summarises the workflow for the admin home page.
func (s *Service) Dashboard(ctx context.Context, p security.Principal) (*DashboardStats, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	stats := &DashboardStats{LatestWeekExpenses: decimal.Zero}
	err := s.dm.Exec(ctx, func(db *gorm.DB) error {
		var err error
		if stats.Timesheets, err = store.CountByStatus(db); err != nil {
			return err
		}
		if stats.PendingBatches, err = store.CountBatchesByStatus(db, model.BatchPending); err != nil {
			return err
		}
		if stats.PartialBatches, err = store.CountBatchesByStatus(db, model.BatchPartial); err != nil {
			return err
		}

		week, err := store.LatestApprovedWeek(db)
		if err != nil || week == "" {
			return err
		}
		weeks, approved, err := s.payroll(db, week)
		if err != nil {
			return err
		}
		if len(weeks) > 0 {
			stats.LatestWeek = &weeks[0]
		}
		for _, ts := range approved {
			for _, d := range ts.Days {
				stats.LatestWeekExpenses = stats.LatestWeekExpenses.Add(d.ExpenseAmount)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
