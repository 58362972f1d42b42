package claims

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jay270804/medical-claim-processing-server/internal/pipeline"
	"github.com/jay270804/medical-claim-processing-server/internal/platform/apperror"
	"github.com/jay270804/medical-claim-processing-server/internal/platform/events"
	"github.com/jay270804/medical-claim-processing-server/internal/platform/metrics"
	"github.com/jay270804/medical-claim-processing-server/pkg/pagination"
)

var validStatuses = map[string]bool{
	StatusNotProcessed: true,
	StatusProcessed:    true,
}

type Service struct {
	repo    Repository
	events  events.Publisher
	metrics *metrics.Registry
	logger  zerolog.Logger
	now     func() time.Time
}

// NewService wires the claim service. pub may be nil, in which case events
// are dropped.
func NewService(repo Repository, pub events.Publisher, m *metrics.Registry, logger zerolog.Logger) *Service {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &Service{
		repo:    repo,
		events:  pub,
		metrics: m,
		logger:  logger.With().Str("component", "claims").Logger(),
		now:     time.Now,
	}
}

// CreateFromExtraction assembles and persists the claim for a processed
// document, then announces it. A failed publish is logged and otherwise
// ignored; a failed write is returned.
func (s *Service) CreateFromExtraction(ctx context.Context, sub Submission, result pipeline.Result) (*Claim, error) {
	c := Assemble(sub, result, s.now())
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("persist claim for %s: %w", sub.DocumentID, err)
	}
	s.metrics.RecordClaim(c.Status)

	s.logger.Info().
		Str("claim_id", c.ID.String()).
		Str("document_id", c.DocumentID).
		Str("user_id", c.UserID.String()).
		Str("status", c.Status).
		Int("lines", len(c.ExtractedData.Lines)).
		Msg("claim assembled")

	ev := events.ClaimEvent{
		Type:       events.TypeClaimAssembled,
		ClaimID:    c.ID.String(),
		UserID:     c.UserID.String(),
		DocumentID: c.DocumentID,
		Status:     c.Status,
		OccurredAt: c.CreatedAt,
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Warn().Err(err).Str("claim_id", c.ID.String()).Msg("publish claim event failed")
	}
	return c, nil
}

// Get returns the claim if userID owns it. Absent claims are NotFound, claims
// owned by someone else are Forbidden.
func (s *Service) Get(ctx context.Context, userID, claimID uuid.UUID) (*Claim, error) {
	c, err := s.repo.GetByID(ctx, claimID)
	if errors.Is(err, ErrNotFound) {
		return nil, apperror.NotFound("Claim not found")
	}
	if err != nil {
		return nil, apperror.Internal("", err)
	}
	if c.UserID != userID {
		s.logger.Warn().Str("claim_id", claimID.String()).Str("user_id", userID.String()).Msg("claim owner mismatch")
		return nil, apperror.Forbidden("You do not have permission to access this claim")
	}
	return c, nil
}

// GetByDocument finds the claim built from documentID among userID's claims.
func (s *Service) GetByDocument(ctx context.Context, userID uuid.UUID, documentID string) (*Claim, error) {
	c, err := s.repo.GetByDocumentID(ctx, userID, documentID)
	if errors.Is(err, ErrNotFound) {
		return nil, apperror.NotFound("Document not found")
	}
	if err != nil {
		return nil, apperror.Internal("", err)
	}
	return c, nil
}

// ListResult is the payload of GET /claims.
type ListResult struct {
	Claims     []*Claim            `json:"claims"`
	Pagination pagination.PageInfo `json:"pagination"`
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, f ListFilter, p pagination.Params) (*ListResult, error) {
	if f.Status != "" && !validStatuses[f.Status] {
		return nil, apperror.Validation("", fmt.Sprintf("invalid status: %s", f.Status))
	}
	items, total, err := s.repo.ListByUser(ctx, userID, f, p.Limit, p.Offset())
	if err != nil {
		return nil, apperror.Internal("", err)
	}
	return &ListResult{Claims: items, Pagination: pagination.NewPageInfo(p, total)}, nil
}
