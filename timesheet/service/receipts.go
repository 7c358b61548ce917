package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"acceptrec.co.uk/timesheets/security"
	engine "acceptrec.co.uk/timesheets/timesheet/core"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var errReceiptsDisabled = errors.New("receipt storage is not configured")

// receiptTypes are the accepted receipt file extensions.
var receiptTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".pdf":  "application/pdf",
}

type ReceiptUpload struct {
	Filename string
	Body     io.Reader
}

func (s *Service) receiptPrefix(timesheetID string) string {
	return s.opts.ReceiptsPrefix + "/" + timesheetID + "/"
}

func (s *Service) checkReceiptAccess(ctx context.Context, p security.Principal, timesheetID string) error {
	if s.files == nil {
		return errReceiptsDisabled
	}
	return s.dm.Exec(ctx, func(db *gorm.DB) error {
		_, err := s.loadAccessibleTimesheet(db, p, timesheetID)
		return err
	})
}

// UploadReceipts stores expense receipts of a timesheet and returns their keys. Files
// of other types are skipped.
func (s *Service) UploadReceipts(ctx context.Context, p security.Principal, timesheetID string, files []ReceiptUpload) ([]string, error) {
	if err := s.checkReceiptAccess(ctx, p, timesheetID); err != nil {
		return nil, err
	}

	keys := []string{}
	for _, f := range files {
		ext := strings.ToLower(path.Ext(f.Filename))
		contentType, ok := receiptTypes[ext]
		if !ok {
			continue
		}
		key := s.receiptPrefix(timesheetID) + uuid.NewString() + ext
		if err := s.files.WriteFile(ctx, key, contentType, f.Body); err != nil {
			return nil, fmt.Errorf("failed to store receipt %s: %w", f.Filename, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *Service) ListReceipts(ctx context.Context, p security.Principal, timesheetID string) ([]string, error) {
	if err := s.checkReceiptAccess(ctx, p, timesheetID); err != nil {
		return nil, err
	}
	return s.files.ListFiles(ctx, s.receiptPrefix(timesheetID))
}

// ReadReceipt streams a receipt into w and returns its content type.
func (s *Service) ReadReceipt(ctx context.Context, p security.Principal, key string, w io.Writer) (string, error) {
	rest, ok := strings.CutPrefix(key, s.opts.ReceiptsPrefix+"/")
	timesheetID, name, found := strings.Cut(rest, "/")
	if !ok || !found || timesheetID == "" || name == "" || strings.Contains(key, "..") {
		return "", engine.Validationf("invalid receipt key %q", key)
	}
	if err := s.checkReceiptAccess(ctx, p, timesheetID); err != nil {
		return "", err
	}
	contentType, err := s.files.ReadFile(ctx, key, w)
	if err != nil {
		return "", fmt.Errorf("failed to read receipt %s: %w", key, err)
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(key))
	}
	return contentType, nil
}
