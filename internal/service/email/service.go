package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/resend/resend-go/v3"
	"go.uber.org/zap"

	"blood-donation/internal/config"
	"blood-donation/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

type Service interface {
	SendContactsProvided(ctx context.Context, toEmail, recipientName string, req *domain.EmergencyRequest) error
	SendRequestRejected(ctx context.Context, toEmail, recipientName string, req *domain.EmergencyRequest) error
	SendDonationCompleted(ctx context.Context, toEmail, recipientName string, unit *domain.BloodUnit) error
}

type service struct {
	client *resend.Client
	config *config.Config
	logger *zap.Logger
}

func NewService(cfg *config.Config, logger *zap.Logger) Service {
	return &service{
		client: resend.NewClient(cfg.ResendAPIKey),
		config: cfg,
		logger: logger,
	}
}

var funcs = template.FuncMap{
	"deref": func(f *float64) float64 {
		if f == nil {
			return 0
		}
		return *f
	},
}

// Render executes templateName inside the shared layout.
func Render(templateName string, data interface{}) (string, error) {
	tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+templateName)
	if err != nil {
		return "", fmt.Errorf("failed to parse email templates: %w", err)
	}

	var body bytes.Buffer
	if err := tmpl.ExecuteTemplate(&body, "layout", data); err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}
	return body.String(), nil
}

func (s *service) sendEmail(toEmail, subject, templateName string, data interface{}) error {
	html, err := Render(templateName, data)
	if err != nil {
		return err
	}
	if s.config.ResendAPIKey == "" {
		s.logger.Debug("Email delivery disabled", zap.String("to", toEmail), zap.String("subject", subject))
		return nil
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("Blood Donation <%s>", s.config.FromEmail),
		To:      []string{toEmail},
		Html:    html,
		Subject: subject,
	}

	_, err = s.client.Emails.Send(params)
	return err
}

func (s *service) requestLink(id fmt.Stringer) string {
	return fmt.Sprintf("https://%s/emergency-requests/%s", s.config.Domain, id)
}

func (s *service) SendContactsProvided(ctx context.Context, toEmail, recipientName string, req *domain.EmergencyRequest) error {
	data := struct {
		Title     string
		Name      string
		BloodType string
		Component domain.ComponentType
		Volume    int
		Contacts  domain.DonorContacts
		Link      string
	}{
		Title:     "Donor contacts for your emergency request",
		Name:      recipientName,
		BloodType: req.BloodType.String(),
		Component: req.ComponentType,
		Volume:    req.RequiredVolume,
		Contacts:  req.SuggestedContacts,
		Link:      s.requestLink(req.ID),
	}
	return s.sendEmail(toEmail, "Donor contacts for your emergency request", "contacts_provided.html", data)
}

func (s *service) SendRequestRejected(ctx context.Context, toEmail, recipientName string, req *domain.EmergencyRequest) error {
	reason := ""
	if req.RejectionReason != nil {
		reason = *req.RejectionReason
	}
	data := struct {
		Title     string
		Name      string
		BloodType string
		Component domain.ComponentType
		Reason    string
		Link      string
	}{
		Title:     "Emergency request rejected",
		Name:      recipientName,
		BloodType: req.BloodType.String(),
		Component: req.ComponentType,
		Reason:    reason,
		Link:      s.requestLink(req.ID),
	}
	return s.sendEmail(toEmail, "Your emergency request was rejected", "request_rejected.html", data)
}

func (s *service) SendDonationCompleted(ctx context.Context, toEmail, recipientName string, unit *domain.BloodUnit) error {
	data := struct {
		Title     string
		Name      string
		Volume    int
		BloodType string
		ExpiresAt string
		Link      string
	}{
		Title:     "Thank you for your donation",
		Name:      recipientName,
		Volume:    unit.Volume,
		BloodType: unit.BloodType.String(),
		ExpiresAt: unit.ExpiredDate.Format("2 January 2006"),
		Link:      fmt.Sprintf("https://%s/donations", s.config.Domain),
	}
	return s.sendEmail(toEmail, "Thank you for donating blood", "donation_completed.html", data)
}
