package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"acceptrec.co.uk/timesheets/config"
	"acceptrec.co.uk/timesheets/core"
	"acceptrec.co.uk/timesheets/infrastructure/communication"
	"acceptrec.co.uk/timesheets/infrastructure/locking"
	"acceptrec.co.uk/timesheets/security"
	engine "acceptrec.co.uk/timesheets/timesheet/core"
	"acceptrec.co.uk/timesheets/timesheet/model"
	"acceptrec.co.uk/timesheets/timesheet/store"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	DefaultSender         = "Accept Recruitment <timesheets@acceptrec.co.uk>"
	DefaultApprovalTTL    = 30 * 24 * time.Hour
	DefaultReceiptsPrefix = "receipts"

	lockTTL = 30 * time.Second
)

// Files is the object storage used for expense receipts.
type Files interface {
	WriteFile(ctx context.Context, key, contentType string, body io.Reader) error
	ReadFile(ctx context.Context, key string, outStream io.Writer) (string, error)
	ListFiles(ctx context.Context, prefix string) ([]string, error)
}

type Dependencies struct {
	Mailer   communication.Mailer
	Notifier communication.Notifier
	Locker   locking.Locker
	Files    Files
	Log      logrus.FieldLogger
}

type Options struct {
	// BaseURL is the public address of the web app, used in approval links.
	BaseURL        string
	From           string
	ApprovalTTL    time.Duration
	ReceiptsPrefix string
}

// RequestInfo identifies where a request came from for the audit log.
type RequestInfo struct {
	IPAddress string
	UserAgent string
}

// Service runs the timesheet workflows on top of the store and the payroll engine.
type Service struct {
	dm       *core.DatabaseManager
	mailer   communication.Mailer
	notifier communication.Notifier
	locker   locking.Locker
	files    Files
	log      logrus.FieldLogger
	opts     Options
	now      func() time.Time
}

func New(dm *core.DatabaseManager, deps Dependencies, opts Options) *Service {
	if deps.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		deps.Log = l
	}
	if deps.Mailer == nil {
		deps.Mailer = communication.LogMailer{Log: deps.Log}
	}
	if deps.Notifier == nil {
		deps.Notifier = communication.NopNotifier{}
	}
	if deps.Locker == nil {
		deps.Locker = locking.NopLocker{}
	}
	if opts.From == "" {
		opts.From = DefaultSender
	}
	if opts.ApprovalTTL <= 0 {
		opts.ApprovalTTL = DefaultApprovalTTL
	}
	if opts.ReceiptsPrefix == "" {
		opts.ReceiptsPrefix = DefaultReceiptsPrefix
	}
	return &Service{
		dm:       dm,
		mailer:   deps.Mailer,
		notifier: deps.Notifier,
		locker:   deps.Locker,
		files:    deps.Files,
		log:      deps.Log,
		opts:     opts,
		now:      time.Now,
	}
}

func requireAdmin(p security.Principal) error {
	if !p.IsAdmin() {
		return fmt.Errorf("%w: administrator role required", engine.ErrAccessDenied)
	}
	return nil
}

// withLock runs fn under a distributed lock. A lock held elsewhere is a conflict.
func (s *Service) withLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	err := s.locker.WithLock(ctx, key, lockTTL, fn)
	if errors.Is(err, locking.ErrLocked) {
		return fmt.Errorf("%w: %s is already in progress", engine.ErrConflict, key)
	}
	return err
}

func (s *Service) audit(db *gorm.DB, batchID string, timesheetID *string, action model.AuditAction, by string, info RequestInfo, notes string) error {
	return store.AppendAudit(db, &model.ApprovalAuditLog{
		BatchID:     batchID,
		TimesheetID: timesheetID,
		Action:      action,
		PerformedBy: by,
		IPAddress:   info.IPAddress,
		UserAgent:   info.UserAgent,
		Notes:       notes,
		Timestamp:   s.now(),
	})
}

func (s *Service) notifyInfo(message string) {
	if err := s.notifier.Info(message); err != nil {
		config.LogError(s.log, "service", "notifyInfo", "slack", message, err)
	}
}

func (s *Service) notifyError(message string) {
	if err := s.notifier.Error(message); err != nil {
		config.LogError(s.log, "service", "notifyError", "slack", message, err)
	}
}

// clientDirectory loads the active clients into a directory for name resolution.
func clientDirectory(db *gorm.DB) (*engine.ClientDirectory, []model.Client, error) {
	clients, err := store.ListClients(db)
	if err != nil {
		return nil, nil, err
	}
	return engine.NewClientDirectory(clients), clients, nil
}
