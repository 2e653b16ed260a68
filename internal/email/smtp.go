package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements the Sender interface using a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) buildMessage(toEmail, subject, htmlContent string) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return nil, fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return nil, fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)
	return msg, nil
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg, err := s.buildMessage(toEmail, subject, htmlContent)
	if err != nil {
		return err
	}

	opts := []gomail.Option{
		gomail.WithPort(s.port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15 * time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	}
	if s.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.username),
			gomail.WithPassword(s.password),
		)
	}

	client, err := gomail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) signature() string {
	return s.fromName
}

func (s *SMTPSender) SendQuoteLinkEmail(ctx context.Context, m QuoteLinkEmail) error {
	subject, heading := fmt.Sprintf(subjectQuoteLinkFmt, m.QuoteID), headingQuoteLink
	if m.Resend {
		subject, heading = fmt.Sprintf(subjectQuoteResentFmt, m.QuoteID), headingQuoteResent
	}
	content, err := renderEmailTemplate("quote_link.html", quoteLinkEmailData{
		baseEmailData: baseEmailData{
			Title:     heading,
			Heading:   heading,
			CTALabel:  ctaQuoteLink,
			CTAURL:    m.Link,
			Signature: s.signature(),
		},
		ClientName: m.ClientName,
		QuoteID:    m.QuoteID,
		TotalTTC:   formatEUR(m.TotalTTC),
		ValidUntil: formatDate(m.ValidUntil),
		Resend:     m.Resend,
		Message:    m.Message,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, m.To, subject, content)
}

func (s *SMTPSender) SendQuoteRefusedEmail(ctx context.Context, m QuoteRefusedEmail) error {
	content, err := renderEmailTemplate("quote_refused.html", quoteRefusedEmailData{
		baseEmailData: baseEmailData{
			Title:     headingQuoteRefused,
			Heading:   headingQuoteRefused,
			Signature: s.signature(),
		},
		ClientName: m.ClientName,
		QuoteID:    m.QuoteID,
		ReasonText: m.ReasonText,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, m.To, fmt.Sprintf(subjectQuoteRefusedFmt, m.QuoteID), content)
}

func (s *SMTPSender) SendQuoteDecisionEmail(ctx context.Context, m QuoteDecisionEmail) error {
	subject, decision := fmt.Sprintf(subjectQuoteDeclinedFmt, m.QuoteID), decisionDeclined
	if m.Accepted {
		subject, decision = fmt.Sprintf(subjectQuoteAcceptedFmt, m.QuoteID), decisionAccepted
	}
	content, err := renderEmailTemplate("quote_decision.html", quoteDecisionEmailData{
		baseEmailData: baseEmailData{
			Title:     headingQuoteDecision,
			Heading:   headingQuoteDecision,
			Signature: s.signature(),
		},
		ClientName: m.ClientName,
		QuoteID:    m.QuoteID,
		Decision:   decision,
		TotalTTC:   formatEUR(m.TotalTTC),
		Comment:    m.Comment,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, m.To, subject, content)
}
