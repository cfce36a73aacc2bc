// README: Email (SendGrid) and SMS (Twilio) delivery channels.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

var ErrDelivery = errors.New("notification delivery failed")

type Email struct {
	ToEmail string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	SendEmail(ctx context.Context, e Email) error
}

type Texter interface {
	SendSMS(ctx context.Context, to, body string) error
}

type SendGridMailer struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewSendGridMailer(apiKey, fromEmail, fromName string) *SendGridMailer {
	return &SendGridMailer{client: sendgrid.NewSendClient(apiKey), fromEmail: fromEmail, fromName: fromName}
}

func (m *SendGridMailer) SendEmail(ctx context.Context, e Email) error {
	from := mail.NewEmail(m.fromName, m.fromEmail)
	to := mail.NewEmail(e.ToName, e.ToEmail)
	msg := mail.NewSingleEmail(from, e.Subject, to, e.Text, e.HTML)

	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("%w: sendgrid: %v", ErrDelivery, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: sendgrid status %d: %s", ErrDelivery, resp.StatusCode, resp.Body)
	}
	return nil
}

type TwilioTexter struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioTexter(accountSID, authToken, from string) *TwilioTexter {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username:   accountSID,
		Password:   authToken,
		AccountSid: accountSID,
	})
	return &TwilioTexter{client: client, from: from}
}

func (t *TwilioTexter) SendSMS(_ context.Context, to, body string) error {
	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.from)
	params.SetBody(body)

	if _, err := t.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("%w: twilio: %v", ErrDelivery, err)
	}
	return nil
}

// E164 turns local Indian mobile numbers into +91 form; other input is returned trimmed.
func E164(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	switch {
	case strings.HasPrefix(strings.TrimSpace(phone), "+"):
		return "+" + d
	case len(d) == 10:
		return "+91" + d
	case len(d) == 11 && d[0] == '0':
		return "+91" + d[1:]
	case len(d) == 12 && strings.HasPrefix(d, "91"):
		return "+" + d
	}
	return strings.TrimSpace(phone)
}
