// Package email delivers quote emails over the tenant's SMTP server.
package email

import (
	"context"
	"fmt"
	"net"
	"time"

	"travelquote_backend/internal/quotes/repository"
	"travelquote_backend/internal/storage"
	"travelquote_backend/internal/tenant"
	"travelquote_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

const emailDateLayout = "02 Jan 2006"

// DownloadLinker produces a time-limited download URL for a stored quote PDF.
type DownloadLinker interface {
	GenerateDownloadURL(ctx context.Context, fileKey string) (*storage.PresignedURL, error)
}

// SMTPSender delivers quote emails via direct SMTP using go-mail. It
// implements the orchestrator's EmailSender port.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
	links     DownloadLinker
}

// NewSMTPSender creates an SMTP quote sender. links may be nil; the email
// then omits the PDF download button.
func NewSMTPSender(cfg config.EmailConfig, links DownloadLinker) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
		links:     links,
	}
}

// SendQuote renders and delivers the quote email. The tenant's configured
// sender identity overrides the process-wide default when present.
func (s *SMTPSender) SendQuote(ctx context.Context, tn *tenant.Tenant, q *repository.Quote, pdfKey string) error {
	data := quoteEmailData{
		baseEmailData: baseEmailData{
			Title:      "Your travel quote",
			Heading:    "Your travel quote is ready",
			AgencyName: tn.Name,
		},
		CustomerName: q.CustomerName,
		QuoteID:      q.QuoteID,
		Destination:  q.Destination,
		CheckIn:      q.CheckIn.Format(emailDateLayout),
		CheckOut:     q.CheckOut.Format(emailDateLayout),
		Nights:       q.Nights,
		Currency:     tn.Currency,
		FromPrice:    q.TotalPrice,
	}
	for _, h := range q.Hotels {
		data.Options = append(data.Options, quoteEmailOption{
			HotelName: h.HotelName,
			RoomType:  h.RoomType,
			MealPlan:  h.MealPlan,
			Total:     h.TotalPrice,
		})
	}

	if s.links != nil && pdfKey != "" {
		link, err := s.links.GenerateDownloadURL(ctx, pdfKey)
		if err != nil {
			return fmt.Errorf("quote download link: %w", err)
		}
		data.CTALabel = "Download your quote"
		data.CTAURL = link.URL
	}

	content, err := renderEmailTemplate("quote.html", data)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf(subjectQuoteFmt, q.QuoteID, q.Destination)
	return s.send(ctx, tn, q.CustomerEmail, subject, content)
}

func (s *SMTPSender) send(ctx context.Context, tn *tenant.Tenant, toEmail, subject, htmlContent string) error {
	fromName, fromEmail := s.fromName, s.fromEmail
	if tn.EmailFromAddress != "" {
		fromEmail = tn.EmailFromAddress
	}
	if tn.EmailFromName != "" {
		fromName = tn.EmailFromName
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(fromName, fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
