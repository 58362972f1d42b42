package documents

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jay270804/medical-claim-processing-server/internal/domain/claims"
	"github.com/jay270804/medical-claim-processing-server/internal/extraction"
	"github.com/jay270804/medical-claim-processing-server/internal/pipeline"
	"github.com/jay270804/medical-claim-processing-server/internal/platform/apperror"
	"github.com/jay270804/medical-claim-processing-server/internal/platform/blobstore"
	"github.com/jay270804/medical-claim-processing-server/internal/platform/cache"
	"github.com/jay270804/medical-claim-processing-server/internal/platform/metrics"
)

// presignReuseMargin is how long before expiry a cached URL stops being
// handed out.
const presignReuseMargin = 5 * time.Minute

// ClaimStore is the part of the claim service documents depend on.
type ClaimStore interface {
	CreateFromExtraction(ctx context.Context, sub claims.Submission, result pipeline.Result) (*claims.Claim, error)
	GetByDocument(ctx context.Context, userID uuid.UUID, documentID string) (*claims.Claim, error)
}

type Config struct {
	Threshold  float64
	PresignTTL time.Duration
}

type Service struct {
	blobs     blobstore.Store
	presigner *blobstore.Presigner
	extractor extraction.Extractor
	claims    ClaimStore
	urls      *cache.Memory[PresignedURL]
	cfg       Config
	metrics   *metrics.Registry
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(
	blobs blobstore.Store,
	presigner *blobstore.Presigner,
	extractor extraction.Extractor,
	claimStore ClaimStore,
	cfg Config,
	m *metrics.Registry,
	logger zerolog.Logger,
) *Service {
	if cfg.Threshold <= 0 {
		cfg.Threshold = pipeline.DefaultThreshold
	}
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = blobstore.DefaultPresignTTL
	}
	return &Service{
		blobs:     blobs,
		presigner: presigner,
		extractor: extractor,
		claims:    claimStore,
		urls:      cache.New[PresignedURL](cfg.PresignTTL, 10*time.Minute),
		cfg:       cfg,
		metrics:   m,
		logger:    logger.With().Str("component", "documents").Logger(),
		now:       time.Now,
	}
}

// Upload stores the document, extracts and reduces its observations and
// persists the resulting claim. The blob is not removed if a later step
// fails.
func (s *Service) Upload(ctx context.Context, in Upload) (*UploadResult, error) {
	if strings.TrimSpace(in.DocumentType) == "" {
		return nil, apperror.Validation(apperror.CodeMissingDocType, "documentType is required.")
	}
	if len(in.Content) == 0 {
		return nil, apperror.Validation(apperror.CodeNoFile, "No file uploaded.")
	}

	now := s.now().UTC()
	key := DocumentKey(in.UserID, now, newKeyNonce(), in.FileName)
	log := s.logger.With().Str("document_id", key).Str("user_id", in.UserID.String()).Logger()

	_, err := s.blobs.Put(ctx, blobstore.Metadata{
		Key:         key,
		FileName:    in.FileName,
		ContentType: in.ContentType,
	}, bytes.NewReader(in.Content))
	switch {
	case errors.Is(err, blobstore.ErrInvalidContentType):
		return nil, apperror.Validation("", "Unsupported file type. Upload a PDF or an image.")
	case errors.Is(err, blobstore.ErrFileTooLarge):
		return nil, apperror.New(http.StatusRequestEntityTooLarge, apperror.CodePayloadTooLarge, "File is too large")
	case err != nil:
		log.Error().Err(err).Msg("store document failed")
		return nil, apperror.Internal(apperror.CodeUploadFailed, err)
	}
	s.metrics.RecordUpload()

	raw, err := s.extractor.Extract(ctx, extraction.Document{Content: in.Content, MIMEType: in.ContentType})
	if err != nil {
		var upErr *extraction.UpstreamError
		if errors.As(err, &upErr) {
			log.Warn().Err(err).Int("upstream_status", upErr.Status).Msg("extraction failed")
			return nil, apperror.Upstream(upErr.Message, err)
		}
		log.Error().Err(err).Msg("extraction failed")
		return nil, apperror.Internal(apperror.CodeUploadFailed, err)
	}

	result := pipeline.Process(raw, s.cfg.Threshold, now)
	s.metrics.RecordFilter(result.Stats.Kept, result.Stats.Dropped)

	claim, err := s.claims.CreateFromExtraction(ctx, claims.Submission{
		UserID:       in.UserID,
		DocumentID:   key,
		DocumentType: in.DocumentType,
		FileName:     in.FileName,
	}, result)
	if err != nil {
		log.Error().Err(err).Msg("claim creation failed; blob left unreferenced")
		return nil, apperror.Internal(apperror.CodeUploadFailed, err)
	}

	log.Info().
		Str("claim_id", claim.ID.String()).
		Int("total_lines", result.Stats.Total).
		Int("kept_lines", result.Stats.Kept).
		Msg("document processed")

	return &UploadResult{
		DocumentID:   key,
		FileName:     in.FileName,
		DocumentType: in.DocumentType,
		Description:  in.Description,
		UploadedAt:   now,
		Status:       claim.Status,
		ClaimID:      claim.ID,
	}, nil
}

// PresignedURL returns a time-limited download link for a document the
// caller owns. Links are reused until presignReuseMargin before expiry.
func (s *Service) PresignedURL(ctx context.Context, userID uuid.UUID, documentID string) (*PresignedURL, error) {
	claim, err := s.claims.GetByDocument(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}

	cacheKey := userID.String() + "|" + documentID
	if cached, ok := s.urls.Get(cacheKey); ok && s.now().Before(cached.ExpiresAt.Add(-presignReuseMargin)) {
		return &cached, nil
	}

	fileName := claim.FileName
	if fileName == "" {
		fileName = fileNameFromKey(documentID)
	}
	url, expiresAt, err := s.presigner.Presign(documentID, fileName, s.cfg.PresignTTL)
	if err != nil {
		return nil, apperror.Internal("", err)
	}

	out := PresignedURL{
		DocumentID:   documentID,
		FileName:     fileName,
		PresignedURL: url,
		ExpiresAt:    expiresAt,
	}
	if ttl := expiresAt.Sub(s.now()) - presignReuseMargin; ttl > 0 {
		s.urls.Set(cacheKey, out, ttl)
	}
	return &out, nil
}

// Status reports the processing state of a document the caller owns.
func (s *Service) Status(ctx context.Context, userID uuid.UUID, documentID string) (*ProcessingStatus, error) {
	claim, err := s.claims.GetByDocument(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}

	st := &ProcessingStatus{
		DocumentID: documentID,
		Status:     claim.Status,
		StartedAt:  claim.CreatedAt,
		ClaimID:    claim.ID,
	}
	if claim.Status == claims.StatusProcessed {
		st.Progress = 100
		done := claim.UpdatedAt
		st.CompletedAt = &done
	}
	return st, nil
}
