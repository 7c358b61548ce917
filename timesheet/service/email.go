package service

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"acceptrec.co.uk/timesheets/infrastructure/communication"
	"acceptrec.co.uk/timesheets/timesheet/model"
	"acceptrec.co.uk/timesheets/timesheet/report"
	"acceptrec.co.uk/timesheets/utils"
)

var approvalTemplate = template.Must(template.New("approval").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333333;">
  <h2>Timesheet Approval Request</h2>
  <p>Dear {{.ClientName}},</p>
  <p>You have new timesheets waiting for your approval for the week starting on <strong>{{.Week}}</strong>.</p>
  <p>
    <a href="{{.Link}}" style="background-color: #2563eb; color: #ffffff; padding: 12px 24px; text-decoration: none; border-radius: 4px;">Review Timesheets</a>
  </p>
  <p>If the button does not work, copy and paste this link into your browser:</p>
  <p>{{.Link}}</p>
  <p>This link expires on {{.Expires}}.</p>
  <hr>
  <p style="font-size: 12px; color: #888888;">Accept Recruitment Drivers Portal</p>
</body>
</html>
`))

type approvalEmailData struct {
	ClientName string
	Week       string
	Link       string
	Expires    string
}

// ApprovalLink is the public review page of a batch.
func (s *Service) ApprovalLink(b *model.ApprovalBatch) string {
	return strings.TrimRight(s.opts.BaseURL, "/") + "/approve/" + b.ApprovalToken
}

func (s *Service) approvalEmail(b *model.ApprovalBatch, to string) (*communication.EmailInfo, error) {
	data := approvalEmailData{
		ClientName: b.ClientName,
		Week:       utils.FormatWeek(b.WeekStartDate),
		Link:       s.ApprovalLink(b),
		Expires:    b.ApprovalTokenExpiry.UTC().Format("2 January 2006"),
	}
	var html bytes.Buffer
	if err := approvalTemplate.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("failed to render approval email: %w", err)
	}
	text := fmt.Sprintf("Dear %s,\n\nYou have new timesheets waiting for your approval for the week starting on %s.\n\nReview them here: %s\n\nAccept Recruitment Drivers Portal\n",
		data.ClientName, data.Week, data.Link)

	return &communication.EmailInfo{
		From:    s.opts.From,
		To:      []string{to},
		Subject: "Timesheet Approval Required - Week of " + data.Week,
		Text:    text,
		HTML:    html.String(),
	}, nil
}

func (s *Service) payrollEmail(to string, workbook []byte, filename string) *communication.EmailInfo {
	generated := s.now().UTC().Format("2 January 2006 15:04 MST")
	return &communication.EmailInfo{
		From:    s.opts.From,
		To:      []string{to},
		Subject: "Payroll Report - " + s.now().UTC().Format("2 January 2006"),
		Text:    "Please find the attached payroll report.\n\nGenerated at: " + generated + "\n",
		HTML:    "<h1>Payroll Report Generated</h1><p>Please find the attached payroll report.</p><p>Generated at: " + template.HTMLEscapeString(generated) + "</p>",
		Attachments: []communication.Attachment{{
			Filename:    filename,
			ContentType: report.XLSXContentType,
			Content:     workbook,
		}},
	}
}
