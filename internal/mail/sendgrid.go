package mail

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// SendgridMailer delivers through the SendGrid v3 API using dynamic
// templates.
type SendgridMailer struct {
	key      string
	from     *sgmail.Email
	tplIDs   map[string]string
	subjPref string
}

var _ Mailer = (*SendgridMailer)(nil)

func NewSendgridMailer() *SendgridMailer {
	return &SendgridMailer{
		key:  os.Getenv("SENDGRID_API_KEY"),
		from: sgmail.NewEmail(os.Getenv("MAIL_FROM_NAME"), os.Getenv("MAIL_FROM_ADDRESS")),
		tplIDs: map[string]string{
			TemplateOrderCreated:   os.Getenv("SENDGRID_TPL_ORDER_CREATED"),
			TemplateOrderModified:  os.Getenv("SENDGRID_TPL_ORDER_MODIFIED"),
			TemplateOrderCancelled: os.Getenv("SENDGRID_TPL_ORDER_CANCELLED"),
			TemplateOrderReminder:  os.Getenv("SENDGRID_TPL_ORDER_REMINDER"),
		},
		subjPref: "[Cantine] ",
	}
}

func (m *SendgridMailer) Send(_ context.Context, msg Message) error {
	tplID, ok := m.tplIDs[msg.TemplateID]
	if !ok || tplID == "" {
		return fmt.Errorf("no sendgrid template configured for %q", msg.TemplateID)
	}

	p := sgmail.NewPersonalization()
	p.Subject = m.subjPref + msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.To))
	for k, v := range msg.Vars {
		p.SetDynamicTemplateData(k, v)
	}

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(m.from)
	v3.SetTemplateID(tplID)
	v3.AddPersonalizations(p)

	req := sendgrid.GetRequest(m.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(v3)

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("send email to %s: %w", msg.To, err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("send email to %s: status %d: %s", msg.To, res.StatusCode, res.Body)
	}
	return nil
}
