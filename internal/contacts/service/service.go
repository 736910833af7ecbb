package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"consultancy_site_backend/internal/contacts/repository"
	"consultancy_site_backend/internal/contacts/transport"
	"consultancy_site_backend/internal/crm"
	"consultancy_site_backend/internal/events"
	syncengine "consultancy_site_backend/internal/sync"
	"consultancy_site_backend/platform/apperr"
	"consultancy_site_backend/platform/logger"
	"consultancy_site_backend/platform/phone"
)

const syncKindContact = "contact"

// pendingStaleAfter bounds how long a pending record blocks the sweep before
// it is considered abandoned (e.g. a crash mid-sync).
const pendingStaleAfter = time.Hour

// Service provides business logic for contact submissions.
type Service struct {
	repo     repository.Repository
	engine   *syncengine.Engine
	eventBus events.Bus
	log      *logger.Logger
}

// New creates a new contact submissions service.
func New(repo repository.Repository, engine *syncengine.Engine, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, engine: engine, eventBus: eventBus, log: log}
}

// Submit persists a public contact form submission and kicks off the CRM
// sync out-of-band. The submission is durable before any CRM work starts.
func (s *Service) Submit(ctx context.Context, req transport.SubmitContactRequest) (transport.SubmissionResponse, error) {
	params := repository.CreateParams{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Company:   req.Company,
		Message:   strings.TrimSpace(req.Message),
	}
	if req.Phone != nil {
		normalized := phone.NormalizeE164(*req.Phone)
		params.Phone = &normalized
	}

	sub, err := s.repo.Create(ctx, params)
	if err != nil {
		return transport.SubmissionResponse{}, err
	}

	s.log.Info("contact submission created", "id", sub.ID, "email", sub.Email)

	s.eventBus.Publish(ctx, events.ContactSubmitted{
		BaseEvent:    events.NewBaseEvent(),
		SubmissionID: sub.ID,
		Email:        sub.Email,
	})

	return toResponse(sub), nil
}

// SyncSubmission runs a single CRM sync for the given submission. Used both
// by the event handler after Submit and by the admin resync action.
func (s *Service) SyncSubmission(ctx context.Context, id uuid.UUID) (transport.SubmissionResponse, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.SubmissionResponse{}, err
	}

	rec, err := s.engine.SyncOne(ctx, s.target(sub))
	if err != nil {
		if err == syncengine.ErrAlreadyInFlight {
			return transport.SubmissionResponse{}, apperr.Conflict("a sync is already in progress for this submission")
		}
		return transport.SubmissionResponse{}, err
	}

	s.notifyIfFailed(ctx, sub.ID, rec)

	sub.Sync = rec
	return toResponse(sub), nil
}

// ResyncAll re-runs the CRM sync over every submission.
func (s *Service) ResyncAll(ctx context.Context) (transport.ResyncSummaryResponse, error) {
	subs, err := s.repo.ListAll(ctx)
	if err != nil {
		return transport.ResyncSummaryResponse{}, err
	}

	summary := s.engine.SyncMany(ctx, s.targets(subs))
	s.log.Info("contact bulk resync finished",
		"synced", summary.Synced, "failed", summary.Failed, "total", summary.Total)

	return transport.ResyncSummaryResponse(summary), nil
}

// SweepTargets exposes the submissions the background sweep should retry.
func (s *Service) SweepTargets(ctx context.Context) ([]syncengine.Target, error) {
	subs, err := s.repo.ListSyncable(ctx, pendingStaleAfter)
	if err != nil {
		return nil, err
	}
	return s.targets(subs), nil
}

// GetByID retrieves a submission.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.SubmissionResponse, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.SubmissionResponse{}, err
	}
	return toResponse(sub), nil
}

// List retrieves submissions with filters and pagination.
func (s *Service) List(ctx context.Context, req transport.ListSubmissionsRequest) (transport.SubmissionListResponse, error) {
	page := req.Page
	pageSize := req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	params := repository.ListParams{
		Search: req.Search,
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	}
	if req.WorkflowStatus != "" {
		status := repository.WorkflowStatus(req.WorkflowStatus)
		if !repository.ValidWorkflowStatus(status) {
			return transport.SubmissionListResponse{}, apperr.Validation("unknown workflow status")
		}
		params.WorkflowStatus = &status
	}
	if req.SyncStatus != "" {
		status := syncengine.Status(req.SyncStatus)
		params.SyncStatus = &status
	}

	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.SubmissionListResponse{}, err
	}

	return toListResponse(items, total, page, pageSize), nil
}

// UpdateWorkflowStatus changes the operator-facing status. The sync
// sub-record is untouched: operators cannot hand-mark a record as synced.
func (s *Service) UpdateWorkflowStatus(ctx context.Context, id uuid.UUID, req transport.UpdateWorkflowStatusRequest) (transport.SubmissionResponse, error) {
	status := repository.WorkflowStatus(req.WorkflowStatus)
	if !repository.ValidWorkflowStatus(status) {
		return transport.SubmissionResponse{}, apperr.Validation("unknown workflow status")
	}

	sub, err := s.repo.UpdateWorkflowStatus(ctx, id, status)
	if err != nil {
		return transport.SubmissionResponse{}, err
	}

	s.log.Info("contact workflow status updated", "id", id, "status", status)
	return toResponse(sub), nil
}

// BulkDelete removes submissions locally. Remote CRM twins are never deleted.
func (s *Service) BulkDelete(ctx context.Context, req transport.BulkDeleteRequest, actor uuid.UUID) (transport.BulkDeleteResponse, error) {
	deleted, err := s.repo.BulkDelete(ctx, req.IDs)
	if err != nil {
		return transport.BulkDeleteResponse{}, err
	}

	s.log.Info("contact submissions deleted", "requested", len(req.IDs), "deleted", deleted, "by", actor)
	return transport.BulkDeleteResponse{Deleted: deleted}, nil
}

func (s *Service) target(sub repository.Submission) syncengine.Target {
	return syncengine.NewClaimedTarget(sub.ID, syncKindContact, profileFor(sub), sub.Sync,
		func(ctx context.Context, rec syncengine.Record) error {
			return s.repo.SaveSync(ctx, sub.ID, rec)
		},
		func(ctx context.Context) (bool, error) {
			return s.repo.ClaimSync(ctx, sub.ID, pendingStaleAfter)
		})
}

func (s *Service) targets(subs []repository.Submission) []syncengine.Target {
	targets := make([]syncengine.Target, len(subs))
	for i, sub := range subs {
		targets[i] = s.target(sub)
	}
	return targets
}

func (s *Service) notifyIfFailed(ctx context.Context, id uuid.UUID, rec syncengine.Record) {
	if rec.Status != syncengine.StatusFailed || rec.LastError == nil {
		return
	}
	s.eventBus.Publish(ctx, events.SyncFailed{
		BaseEvent:  events.NewBaseEvent(),
		EntityType: syncKindContact,
		EntityID:   id,
		Diagnostic: *rec.LastError,
	})
}

func profileFor(sub repository.Submission) crm.Profile {
	profile := crm.Profile{
		FirstName: sub.FirstName,
		LastName:  sub.LastName,
		Email:     sub.Email,
	}
	if sub.Phone != nil {
		profile.Phone = *sub.Phone
	}
	if sub.Company != nil {
		profile.Company = *sub.Company
	}
	return profile
}

func toResponse(sub repository.Submission) transport.SubmissionResponse {
	resp := transport.SubmissionResponse{
		ID:             sub.ID,
		FirstName:      sub.FirstName,
		LastName:       sub.LastName,
		Email:          sub.Email,
		Phone:          sub.Phone,
		Company:        sub.Company,
		Message:        sub.Message,
		WorkflowStatus: string(sub.WorkflowStatus),
		Sync: transport.SyncStateResponse{
			Status:     string(sub.Sync.Status),
			ExternalID: sub.Sync.ExternalID,
			LastError:  sub.Sync.LastError,
		},
		CreatedAt: sub.CreatedAt.Format(time.RFC3339),
		UpdatedAt: sub.UpdatedAt.Format(time.RFC3339),
	}
	if sub.Sync.SyncedAt != nil {
		formatted := sub.Sync.SyncedAt.Format(time.RFC3339)
		resp.Sync.SyncedAt = &formatted
	}
	return resp
}

func toListResponse(items []repository.Submission, total, page, pageSize int) transport.SubmissionListResponse {
	responses := make([]transport.SubmissionResponse, len(items))
	for i, item := range items {
		responses[i] = toResponse(item)
	}
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return transport.SubmissionListResponse{
		Items:      responses,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
