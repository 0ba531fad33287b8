package issue

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"text/template"
)

// Email is a composed message ready for a Mailer.
type Email struct {
	From    string
	To      string
	Subject string
	HTML    string
	Text    string
}

type emailData struct {
	Report
	Type       Type
	ReportedAt string
}

var htmlBody = htmltemplate.Must(htmltemplate.New("html").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Issue Report</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f4f8fb;">
  <table width="100%" cellpadding="0" cellspacing="0" style="background-color: #f4f8fb; padding: 40px 20px;">
    <tr><td align="center">
      <table width="600" cellpadding="0" cellspacing="0" style="background-color: #ffffff; border-radius: 8px;">
        <tr><td style="background-color: #0073a8; padding: 32px; text-align: center;">
          <h1 style="margin: 0; color: #ffffff; font-size: 24px;">Issue Report Submission</h1>
        </td></tr>
        <tr><td style="padding: 32px 32px 24px 32px;">
          <div style="display: inline-block; background-color: {{.Type.Color}}; color: #ffffff; padding: 10px 20px; border-radius: 24px; font-size: 14px;">{{.Type.Display}}</div>
        </td></tr>
        <tr><td style="padding: 0 32px 32px 32px;">
          <strong style="color: #0f2233; font-size: 16px;">Issue Description</strong>
          <div style="background-color: #f0f6fb; border-left: 4px solid {{.Type.Color}}; padding: 20px; border-radius: 8px;">
            <p style="margin: 0; color: #2f4f62; font-size: 14px; white-space: pre-wrap;">{{.Description}}</p>
          </div>
        </td></tr>
{{- if .ConversationTitle}}
        <tr><td style="padding: 0 32px 32px 32px;">
          <p style="margin: 0; color: #0f2233; font-size: 13px;"><strong>Related Conversation:</strong> {{.ConversationTitle}}</p>
        </td></tr>
{{- end}}
{{- if .ReportedAt}}
        <tr><td style="padding: 0 32px 24px 32px; color: #2f4f62; font-size: 12px;">Reported {{.ReportedAt}}</td></tr>
{{- end}}
        <tr><td style="background-color: #e3edf4; padding: 24px 32px; text-align: center;">
          <p style="margin: 0; color: #2f4f62; font-size: 12px;">This issue was reported via the <strong>Beaird Harris Knowledge Bot</strong> issue reporting system.</p>
        </td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>
`))

var textBody = template.Must(template.New("text").Parse(`Issue Report Submission
=======================

Issue Type: {{.Type.Display}}

Issue Description:
{{.Description}}
{{- if .ConversationTitle}}

Related Conversation: {{.ConversationTitle}}
{{- end}}
{{- if .ConversationID}}
Conversation ID: {{.ConversationID}}
{{- end}}
{{- if .ReportedAt}}
Reported: {{.ReportedAt}}
{{- end}}

---
This issue was reported via the Beaird Harris Knowledge Bot issue reporting system.
`))

// reportedAtLayout renders the report time for humans.
const reportedAtLayout = "Mon, Jan 2, 2006, 03:04 PM MST"

// Subject returns the email subject for r.
func Subject(r Report) string {
	s := "Issue Report: " + TypeOf(r.IssueType).Display
	if r.ConversationTitle != "" {
		s += " - " + r.ConversationTitle
	}
	return s
}

// Compose renders the email for a validated report.
func Compose(r Report, from, to string) (Email, error) {
	data := emailData{Report: r, Type: TypeOf(r.IssueType)}
	if t, ok := r.ReportedAt(); ok {
		data.ReportedAt = t.Format(reportedAtLayout)
	}

	var html, text bytes.Buffer
	if err := htmlBody.Execute(&html, data); err != nil {
		return Email{}, fmt.Errorf("render html body: %w", err)
	}
	if err := textBody.Execute(&text, data); err != nil {
		return Email{}, fmt.Errorf("render text body: %w", err)
	}

	return Email{
		From:    from,
		To:      to,
		Subject: Subject(r),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}
