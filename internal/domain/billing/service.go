package billing

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/counsel/counsel/internal/domain/client"
	"github.com/counsel/counsel/internal/platform/blobstore"
	"github.com/counsel/counsel/internal/platform/notification"
	"github.com/counsel/counsel/internal/platform/payments"
)

type clientSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*client.Client, error)
}

type notifier interface {
	SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*notification.Notification, error)
}

// Service manages invoices: creation, issuing with a hosted payment link,
// PDF attachment and the two-phase delete.
type Service struct {
	repo      Repository
	clients   clientSource
	blobs     blobstore.BlobStore
	processor payments.Processor
	notify    notifier
	tenantID  string
	logger    zerolog.Logger
}

func NewService(repo Repository, clients clientSource, blobs blobstore.BlobStore, processor payments.Processor, notify notifier, tenantID string, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		clients:   clients,
		blobs:     blobs,
		processor: processor,
		notify:    notify,
		tenantID:  tenantID,
		logger:    logger,
	}
}

// CreateInvoice creates a draft invoice with the next sequential number.
func (s *Service) CreateInvoice(ctx context.Context, inv *Invoice) error {
	if inv.ClientID == uuid.Nil {
		return fmt.Errorf("client_id is required")
	}
	if inv.AmountCents <= 0 {
		return fmt.Errorf("amount_cents must be positive")
	}
	if _, err := s.clients.GetByID(ctx, inv.ClientID); err != nil {
		return err
	}

	if inv.Currency == "" {
		inv.Currency = "usd"
	}
	inv.Currency = strings.ToLower(inv.Currency)
	inv.Status = StatusDraft

	number, err := s.repo.NextNumber(ctx, time.Now().UTC().Year())
	if err != nil {
		return fmt.Errorf("assign invoice number: %w", err)
	}
	inv.Number = number

	return s.repo.Create(ctx, inv)
}

func (s *Service) GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListInvoices(ctx context.Context, status string, limit, offset int) ([]*Invoice, int, error) {
	if status != "" && !ValidStatuses[status] {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	return s.repo.List(ctx, status, limit, offset)
}

func (s *Service) ListInvoicesByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Invoice, int, error) {
	return s.repo.ListByClient(ctx, clientID, limit, offset)
}

// AttachPDF stores the rendered invoice document and links it to the
// invoice. Re-attaching replaces the reference; the old blob is removed
// best-effort.
func (s *Service) AttachPDF(ctx context.Context, id uuid.UUID, fileName string, content io.Reader, uploadedBy string) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	meta, err := s.blobs.Upload(ctx, blobstore.BlobMetadata{
		FileName:    fileName,
		ContentType: "application/pdf",
		ClientID:    inv.ClientID.String(),
		InvoiceID:   inv.ID.String(),
		Category:    "invoice-pdf",
		CreatedBy:   uploadedBy,
	}, content)
	if err != nil {
		return nil, fmt.Errorf("store invoice pdf: %w", err)
	}

	if old := inv.PDFBlobID; old != "" {
		if err := s.blobs.Delete(ctx, old); err != nil {
			s.logger.Warn().Err(err).Str("blob_id", old).Msg("replaced invoice pdf cleanup failed")
		}
	}

	inv.PDFBlobID = meta.ID
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// IssueInvoice moves a draft to sent: it creates a hosted payment link,
// stamps the issue time and emails the client. The email is best-effort.
func (s *Service) IssueInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != StatusDraft {
		return nil, ErrInvoiceNotDraft
	}

	link, err := s.processor.CreateInvoicePaymentLink(ctx, payments.InvoiceLinkParams{
		InvoiceNumber: inv.Number,
		Description:   fmt.Sprintf("Counseling services, invoice %s", inv.Number),
		AmountCents:   inv.AmountCents,
		Currency:      inv.Currency,
		TenantID:      s.tenantID,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	inv.Status = StatusSent
	inv.IssuedAt = &now
	inv.PaymentLinkID = link.ID
	inv.PaymentLinkURL = link.URL
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}

	s.sendIssuedEmail(ctx, inv)
	return inv, nil
}

func (s *Service) sendIssuedEmail(ctx context.Context, inv *Invoice) {
	cl, err := s.clients.GetByID(ctx, inv.ClientID)
	if err != nil {
		s.logger.Warn().Err(err).Str("invoice", inv.Number).Msg("invoice email: load client failed")
		return
	}
	_, err = s.notify.SendFromTemplate(ctx, "invoice-issued", map[string]string{
		"client_name":    cl.FullName(),
		"invoice_number": inv.Number,
		"amount":         formatAmount(inv.AmountCents, inv.Currency),
	}, cl.Email)
	if err != nil {
		s.logger.Warn().Err(err).Str("invoice", inv.Number).Msg("invoice email: send failed")
	}
}

func formatAmount(cents int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", cents/100, cents%100, strings.ToUpper(currency))
}

// MarkPaid records payment on a sent invoice.
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != StatusSent {
		return nil, fmt.Errorf("%w: only sent invoices can be marked paid", ErrInvalidStatus)
	}
	now := time.Now().UTC()
	inv.Status = StatusPaid
	inv.PaidAt = &now
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// VoidInvoice voids a draft or sent invoice. Paid invoices stay on record.
func (s *Service) VoidInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status == StatusPaid {
		return nil, ErrInvoiceFinalized
	}
	inv.Status = StatusVoid
	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// DeleteInvoice removes an invoice in two phases: first the stored PDF,
// then the database record. A storage failure is recorded in the result
// and never blocks record removal.
func (s *Service) DeleteInvoice(ctx context.Context, id uuid.UUID) (*DeleteInvoiceResult, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	result := &DeleteInvoiceResult{}
	if inv.PDFBlobID != "" {
		if err := s.blobs.Delete(ctx, inv.PDFBlobID); err != nil {
			result.FileError = err.Error()
			s.logger.Warn().Err(err).
				Str("invoice", inv.Number).
				Str("blob_id", inv.PDFBlobID).
				Msg("invoice pdf delete failed, removing record anyway")
		} else {
			result.FileRemoved = true
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return result, err
	}
	result.RecordRemoved = true
	return result, nil
}
