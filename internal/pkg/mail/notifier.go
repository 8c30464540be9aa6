package mail

import (
	"bytes"
	"context"
	"strings"
	"text/template"

	"github.com/ufsoft/screener/app/models"
	"github.com/ufsoft/screener/internal/pkg/constants"
)

var templates = template.Must(template.New("mail").Parse(`
{{define "confirm_account"}}Hello {{.Name}},

please confirm your account by visiting:

{{.URL}}

The link is valid for 48 hours.
{{end}}
{{define "confirm_email"}}Hello {{.Name}},

please confirm your new email address by visiting:

{{.URL}}
{{end}}
{{define "reset_password"}}Hello {{.Name}},

a password reset was requested for your account. To set the new password
visit:

{{.URL}}

If you did not request this, ignore this message.
{{end}}
{{define "confirm_abuse"}}Hello,

you reported the image {{.Image}} as abusive:

{{.Reason}}

Please confirm the report by visiting:

{{.URL}}
{{end}}
`))

// Notifier renders and sends the account and abuse notifications.
type Notifier struct {
	mailer  Mailer
	baseURL string
}

func NewNotifier(mailer Mailer, baseURL string) *Notifier {
	return &Notifier{mailer: mailer, baseURL: strings.TrimRight(baseURL, "/")}
}

// SendChange mails the confirmation link of a pending account change.
func (n *Notifier) SendChange(ctx context.Context, user *models.User, change *models.Change) error {
	to := user.EmailAddress()
	subject, tmpl := "Confirm your account", "confirm_account"
	switch change.Name {
	case models.ChangeEmail:
		to = change.Value
		subject, tmpl = "Confirm your email address", "confirm_email"
	case models.ChangePassword:
		subject, tmpl = "Password reset", "reset_password"
	}
	return n.send(ctx, to, subject, tmpl, map[string]string{
		"Name": user.DisplayName(),
		"URL":  n.baseURL + constants.AccountConfirmRoute + "/" + change.Hash,
	})
}

// SendAbuseConfirmation mails the reporter the link confirming a report.
func (n *Notifier) SendAbuseConfirmation(ctx context.Context, abuse *models.Abuse, image *models.Image) error {
	return n.send(ctx, abuse.ReporterEmail, "Confirm your abuse report", "confirm_abuse", map[string]string{
		"Image":  image.CategoryName + "/" + image.Filename,
		"Reason": abuse.Reason,
		"URL":    n.baseURL + constants.AbuseConfirmRoute + "/" + abuse.Hash,
	})
}

func (n *Notifier) send(ctx context.Context, to, subject, name string, data any) error {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	return n.mailer.Send(ctx, to, subject, strings.TrimLeft(buf.String(), "\n"))
}
