package rfq

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"storefront-api/internal/auth"
	"storefront-api/internal/notify"
	"storefront-api/internal/observability"
	"storefront-api/internal/util"
)

const notifyTimeout = 10 * time.Second

type Store interface {
	Create(ctx context.Context, req Request) (Request, error)
	List(ctx context.Context, filter ListFilter) ([]Request, int, error)
	UpdateStatus(ctx context.Context, id string, status Status, notes string) error
}

type Service struct {
	store      Store
	notifier   notify.Notifier
	logger     *observability.Logger
	adminEmail string
}

func NewService(store Store, notifier notify.Notifier, logger *observability.Logger, adminEmail string) *Service {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Service{
		store:      store,
		notifier:   notifier,
		logger:     logger,
		adminEmail: strings.TrimSpace(adminEmail),
	}
}

// Submit stores the request and then notifies the admin and the customer.
// Notification failures are logged and never returned.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (Request, error) {
	req := Request{
		Name:            util.SanitizeInput(input.Name),
		Email:           strings.TrimSpace(input.Email),
		Phone:           util.SanitizeInput(input.Phone),
		Company:         util.SanitizeInput(input.Company),
		Requirements:    util.SanitizeInput(input.Requirements),
		AdditionalInfo:  util.SanitizeInput(input.AdditionalInfo),
		ProductCategory: util.SanitizeInput(input.ProductCategory),
		Quantity:        util.SanitizeInput(input.Quantity),
		Budget:          util.SanitizeInput(input.Budget),
		Timeline:        util.SanitizeInput(input.Timeline),
		Status:          StatusNew,
	}

	required := []struct{ name, value string }{
		{"name", req.Name},
		{"email", req.Email},
		{"phone", req.Phone},
		{"company", req.Company},
		{"requirements", req.Requirements},
	}
	for _, field := range required {
		if field.value == "" {
			return Request{}, ValidationError{Message: fmt.Sprintf("%s is required", field.name)}
		}
	}
	if !auth.ValidEmail(req.Email) {
		return Request{}, ValidationError{Message: "Invalid email format"}
	}

	created, err := s.store.Create(ctx, req)
	if err != nil {
		return Request{}, err
	}

	s.notify(ctx, created)
	return created, nil
}

func (s *Service) notify(ctx context.Context, req Request) {
	if s.notifier == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	var g errgroup.Group
	if s.adminEmail != "" {
		g.Go(func() error {
			s.send(ctx, req.ID, "admin", adminMessage(s.adminEmail, req))
			return nil
		})
	}
	g.Go(func() error {
		s.send(ctx, req.ID, "customer", confirmationMessage(req))
		return nil
	})
	_ = g.Wait()
}

func (s *Service) send(ctx context.Context, rfqID, audience string, msg notify.Message) {
	if err := s.notifier.Send(ctx, msg); err != nil {
		observability.CaptureError(err)
		s.logger.Warn("rfq notification failed", map[string]any{
			"rfq_id":   rfqID,
			"audience": audience,
			"error":    err.Error(),
		})
	}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Request, int, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, ValidationError{Message: "Invalid status"}
	}
	return s.store.List(ctx, filter)
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status string, notes string) error {
	status = strings.TrimSpace(status)
	if status == "" {
		return ValidationError{Message: "Status is required"}
	}
	if !Status(status).Valid() {
		return ValidationError{Message: "Invalid status"}
	}
	return s.store.UpdateStatus(ctx, id, Status(status), util.SanitizeInput(notes))
}

func adminMessage(to string, req Request) notify.Message {
	var b strings.Builder
	b.WriteString("New RFQ Request Received:\n\n")
	fmt.Fprintf(&b, "Name: %s\n", req.Name)
	fmt.Fprintf(&b, "Email: %s\n", req.Email)
	fmt.Fprintf(&b, "Phone: %s\n", req.Phone)
	fmt.Fprintf(&b, "Company: %s\n", req.Company)
	fmt.Fprintf(&b, "Requirements: %s\n", req.Requirements)
	fmt.Fprintf(&b, "Additional Info: %s\n", orNA(req.AdditionalInfo))
	fmt.Fprintf(&b, "Product Category: %s\n", orNA(req.ProductCategory))
	fmt.Fprintf(&b, "Quantity: %s\n", orNA(req.Quantity))
	fmt.Fprintf(&b, "Budget: %s\n", orNA(req.Budget))
	fmt.Fprintf(&b, "Timeline: %s\n\n", orNA(req.Timeline))
	fmt.Fprintf(&b, "RFQ ID: %s\n", req.ID)

	return notify.Message{
		To:      to,
		Subject: fmt.Sprintf("New RFQ from %s - %s", req.Name, req.Company),
		Body:    b.String(),
	}
}

func confirmationMessage(req Request) notify.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", req.Name)
	b.WriteString("Thank you for submitting your request for quote.\n\n")
	b.WriteString("Your RFQ details:\n")
	fmt.Fprintf(&b, "- RFQ ID: %s\n", req.ID)
	fmt.Fprintf(&b, "- Company: %s\n", req.Company)
	fmt.Fprintf(&b, "- Requirements: %s\n\n", req.Requirements)
	b.WriteString("Our team will review it and get back to you within 24-48 hours with a detailed quote.\n")

	return notify.Message{
		To:      req.Email,
		Subject: "RFQ Submitted Successfully",
		Body:    b.String(),
	}
}

func orNA(value string) string {
	if value == "" {
		return "N/A"
	}
	return value
}
