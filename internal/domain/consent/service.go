package consent

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/counsel/counsel/internal/domain/client"
	"github.com/counsel/counsel/internal/platform/blobstore"
	"github.com/counsel/counsel/internal/platform/middleware"
	"github.com/counsel/counsel/internal/platform/notification"
)

type clientSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*client.Client, error)
}

type notifier interface {
	SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*notification.Notification, error)
}

// Service manages the consent e-signature flow: creating forms, emailing
// signature links, and resolving them through the public token endpoints.
type Service struct {
	repo         Repository
	clients      clientSource
	blobs        blobstore.BlobStore
	notify       notifier
	recorder     middleware.AuditRecorder
	baseURL      string
	practiceName string
	tokenTTL     time.Duration
	logger       zerolog.Logger
}

func NewService(repo Repository, clients clientSource, blobs blobstore.BlobStore, notify notifier, recorder middleware.AuditRecorder, baseURL, practiceName string, tokenTTL time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		clients:      clients,
		blobs:        blobs,
		notify:       notify,
		recorder:     recorder,
		baseURL:      strings.TrimRight(baseURL, "/"),
		practiceName: practiceName,
		tokenTTL:     tokenTTL,
		logger:       logger,
	}
}

// CreateParams holds the input for creating a consent form.
type CreateParams struct {
	ClientID      uuid.UUID
	TemplateName  string
	Title         string
	Body          string
	CounselorName string
	CreatedBy     string
}

// Create stores a pending consent form and emails the client a signature
// link. Email delivery is best-effort; the form exists either way and the
// link can be re-sent.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Form, error) {
	cl, err := s.clients.GetByID(ctx, p.ClientID)
	if err != nil {
		return nil, err
	}
	token, err := newSignatureToken()
	if err != nil {
		return nil, err
	}

	form := &Form{
		ClientID:       p.ClientID,
		TemplateName:   p.TemplateName,
		Title:          p.Title,
		Body:           p.Body,
		Status:         StatusPending,
		SignatureToken: token,
		TokenExpiresAt: time.Now().UTC().Add(s.tokenTTL),
		CreatedBy:      p.CreatedBy,
	}
	if err := s.repo.Create(ctx, form); err != nil {
		return nil, err
	}

	s.sendSignatureRequest(ctx, form, cl, p.CounselorName)
	return form, nil
}

// GetByToken resolves a signature token for the public signing page. A
// pending form past its deadline is flipped to expired on read.
func (s *Service) GetByToken(ctx context.Context, token string) (*Form, error) {
	form, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if form.Status == StatusPending && time.Now().UTC().After(form.TokenExpiresAt) {
		form.Status = StatusExpired
		if err := s.repo.Update(ctx, form); err != nil {
			s.logger.Warn().Err(err).Str("form_id", form.ID.String()).Msg("consent expiry store failed")
		}
		return nil, ErrTokenExpired
	}
	return form, nil
}

// Sign records the client's signature, snapshots the document to blob
// storage, and notifies the counselor.
func (s *Service) Sign(ctx context.Context, token, signerName, signerIP string) (*Form, error) {
	form, err := s.resolvePending(ctx, token)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	form.Status = StatusSigned
	form.SignedAt = &now
	form.SignerName = signerName
	form.SignerIP = signerIP
	form.SnapshotBlobID = s.storeSnapshot(ctx, form)

	if err := s.repo.Update(ctx, form); err != nil {
		return nil, err
	}

	s.recordSignatureEvent(form, "sign", signerIP)
	s.sendSignedNotice(ctx, form)
	return form, nil
}

// Decline records that the client refused to sign.
func (s *Service) Decline(ctx context.Context, token, signerName, signerIP string) (*Form, error) {
	form, err := s.resolvePending(ctx, token)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	form.Status = StatusDeclined
	form.SignedAt = &now
	form.SignerName = signerName
	form.SignerIP = signerIP

	if err := s.repo.Update(ctx, form); err != nil {
		return nil, err
	}

	s.recordSignatureEvent(form, "decline", signerIP)
	return form, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Form, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*Form, error) {
	return s.repo.ListByClient(ctx, clientID)
}

func (s *Service) resolvePending(ctx context.Context, token string) (*Form, error) {
	form, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	switch {
	case form.Status != StatusPending:
		return nil, ErrAlreadyResolved
	case time.Now().UTC().After(form.TokenExpiresAt):
		form.Status = StatusExpired
		if err := s.repo.Update(ctx, form); err != nil {
			s.logger.Warn().Err(err).Str("form_id", form.ID.String()).Msg("consent expiry store failed")
		}
		return nil, ErrTokenExpired
	}
	return form, nil
}

// storeSnapshot writes a plain-text copy of the signed document. A storage
// failure is logged and leaves SnapshotBlobID empty; the signature itself
// stands.
func (s *Service) storeSnapshot(ctx context.Context, form *Form) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n%s\n\nSigned by %s on %s (IP %s)\n",
		form.Title, form.Body, form.SignerName,
		form.SignedAt.Format(time.RFC3339), form.SignerIP)

	meta, err := s.blobs.Upload(ctx, blobstore.BlobMetadata{
		FileName:    fmt.Sprintf("consent-%s.txt", form.ID),
		ContentType: "text/plain",
		ClientID:    form.ClientID.String(),
		Category:    "consent-form",
		CreatedBy:   form.SignerName,
	}, strings.NewReader(b.String()))
	if err != nil {
		s.logger.Warn().Err(err).Str("form_id", form.ID.String()).Msg("consent snapshot upload failed")
		return ""
	}
	return meta.ID
}

func (s *Service) sendSignatureRequest(ctx context.Context, form *Form, cl *client.Client, counselorName string) {
	if s.notify == nil || cl.Email == "" {
		return
	}
	_, err := s.notify.SendFromTemplate(ctx, "consent-signature-request", map[string]string{
		"client_name":    cl.FullName(),
		"counselor_name": counselorName,
		"practice_name":  s.practiceName,
		"signing_link":   s.baseURL + "/consent/sign/" + form.SignatureToken,
		"expires_at":     form.TokenExpiresAt.Format("January 2, 2006"),
	}, cl.Email)
	if err != nil {
		s.logger.Warn().Err(err).Str("form_id", form.ID.String()).Msg("consent signature email failed")
	}
}

// sendSignedNotice emails the issuing counselor. CreatedBy holds the
// counselor's address when the form was issued through the API; skip when
// it is not addressable.
func (s *Service) sendSignedNotice(ctx context.Context, form *Form) {
	if s.notify == nil || !strings.Contains(form.CreatedBy, "@") {
		return
	}
	_, err := s.notify.SendFromTemplate(ctx, "consent-signed", map[string]string{
		"client_name":    form.SignerName,
		"document_title": form.Title,
		"signed_at":      form.SignedAt.Format("January 2, 2006 15:04 MST"),
	}, form.CreatedBy)
	if err != nil {
		s.logger.Warn().Err(err).Str("form_id", form.ID.String()).Msg("consent signed notice failed")
	}
}

func (s *Service) recordSignatureEvent(form *Form, action, ip string) {
	if s.recorder == nil {
		return
	}
	err := s.recorder.RecordAccess(middleware.AuditEntry{
		UserID:       form.SignerName,
		ResourceType: "consent_form",
		ClientID:     form.ClientID.String(),
		Action:       action,
		IPAddress:    ip,
		Path:         "/consent/sign",
		Method:       "POST",
		Timestamp:    time.Now().UTC(),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("form_id", form.ID.String()).Msg("consent audit record failed")
	}
}

func newSignatureToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating signature token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
