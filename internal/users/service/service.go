package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"consultancy_site_backend/internal/crm"
	"consultancy_site_backend/internal/events"
	syncengine "consultancy_site_backend/internal/sync"
	"consultancy_site_backend/internal/users/password"
	"consultancy_site_backend/internal/users/repository"
	"consultancy_site_backend/internal/users/transport"
	"consultancy_site_backend/platform/apperr"
	"consultancy_site_backend/platform/logger"
	"consultancy_site_backend/platform/phone"
)

const syncKindUser = "user"

const pendingStaleAfter = time.Hour

// Service provides business logic for registered users.
type Service struct {
	repo     repository.Repository
	engine   *syncengine.Engine
	eventBus events.Bus
	log      *logger.Logger
}

// New creates a new users service.
func New(repo repository.Repository, engine *syncengine.Engine, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, engine: engine, eventBus: eventBus, log: log}
}

// Register creates a user account. The CRM sync runs out-of-band; a CRM
// outage never blocks registration.
func (s *Service) Register(ctx context.Context, req transport.RegisterUserRequest) (transport.UserResponse, error) {
	hash, err := password.Hash(req.Password)
	if err != nil {
		return transport.UserResponse{}, apperr.Internal("could not process password")
	}

	params := repository.CreateParams{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Company:      req.Company,
		PasswordHash: hash,
	}
	if req.Phone != nil {
		normalized := phone.NormalizeE164(*req.Phone)
		params.Phone = &normalized
	}

	user, err := s.repo.Create(ctx, params)
	if err != nil {
		return transport.UserResponse{}, err
	}

	s.log.Info("user registered", "id", user.ID, "email", user.Email)

	s.eventBus.Publish(ctx, events.UserRegistered{
		BaseEvent: events.NewBaseEvent(),
		UserID:    user.ID,
		Email:     user.Email,
	})

	return toResponse(user), nil
}

// SyncUser runs a single CRM sync for the given user.
func (s *Service) SyncUser(ctx context.Context, id uuid.UUID) (transport.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.UserResponse{}, err
	}

	rec, err := s.engine.SyncOne(ctx, s.target(user))
	if err != nil {
		if err == syncengine.ErrAlreadyInFlight {
			return transport.UserResponse{}, apperr.Conflict("a sync is already in progress for this user")
		}
		return transport.UserResponse{}, err
	}

	s.notifyIfFailed(ctx, user.ID, rec)

	user.Sync = rec
	return toResponse(user), nil
}

// ResyncAll re-runs the CRM sync over every user.
func (s *Service) ResyncAll(ctx context.Context) (transport.ResyncSummaryResponse, error) {
	users, err := s.repo.ListAll(ctx)
	if err != nil {
		return transport.ResyncSummaryResponse{}, err
	}

	summary := s.engine.SyncMany(ctx, s.targets(users))
	s.log.Info("user bulk resync finished",
		"synced", summary.Synced, "failed", summary.Failed, "total", summary.Total)

	return transport.ResyncSummaryResponse(summary), nil
}

// SweepTargets exposes the users the background sweep should retry.
func (s *Service) SweepTargets(ctx context.Context) ([]syncengine.Target, error) {
	users, err := s.repo.ListSyncable(ctx, pendingStaleAfter)
	if err != nil {
		return nil, err
	}
	return s.targets(users), nil
}

// GetByID retrieves a user.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.UserResponse{}, err
	}
	return toResponse(user), nil
}

// List retrieves users with filters and pagination.
func (s *Service) List(ctx context.Context, req transport.ListUsersRequest) (transport.UserListResponse, error) {
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
	if req.SyncStatus != "" {
		status := syncengine.Status(req.SyncStatus)
		params.SyncStatus = &status
	}

	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.UserListResponse{}, err
	}

	return toListResponse(items, total, page, pageSize), nil
}

// BulkDelete removes users locally. Remote CRM twins are never deleted.
func (s *Service) BulkDelete(ctx context.Context, req transport.BulkDeleteRequest, actor uuid.UUID) (transport.BulkDeleteResponse, error) {
	deleted, err := s.repo.BulkDelete(ctx, req.IDs)
	if err != nil {
		return transport.BulkDeleteResponse{}, err
	}

	s.log.Info("users deleted", "requested", len(req.IDs), "deleted", deleted, "by", actor)
	return transport.BulkDeleteResponse{Deleted: deleted}, nil
}

func (s *Service) target(user repository.User) syncengine.Target {
	return syncengine.NewClaimedTarget(user.ID, syncKindUser, profileFor(user), user.Sync,
		func(ctx context.Context, rec syncengine.Record) error {
			return s.repo.SaveSync(ctx, user.ID, rec)
		},
		func(ctx context.Context) (bool, error) {
			return s.repo.ClaimSync(ctx, user.ID, pendingStaleAfter)
		})
}

func (s *Service) targets(users []repository.User) []syncengine.Target {
	targets := make([]syncengine.Target, len(users))
	for i, user := range users {
		targets[i] = s.target(user)
	}
	return targets
}

func (s *Service) notifyIfFailed(ctx context.Context, id uuid.UUID, rec syncengine.Record) {
	if rec.Status != syncengine.StatusFailed || rec.LastError == nil {
		return
	}
	s.eventBus.Publish(ctx, events.SyncFailed{
		BaseEvent:  events.NewBaseEvent(),
		EntityType: syncKindUser,
		EntityID:   id,
		Diagnostic: *rec.LastError,
	})
}

func profileFor(user repository.User) crm.Profile {
	profile := crm.Profile{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	}
	if user.Phone != nil {
		profile.Phone = *user.Phone
	}
	if user.Company != nil {
		profile.Company = *user.Company
	}
	return profile
}

func toResponse(user repository.User) transport.UserResponse {
	resp := transport.UserResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Phone:     user.Phone,
		Company:   user.Company,
		Sync: transport.SyncStateResponse{
			Status:     string(user.Sync.Status),
			ExternalID: user.Sync.ExternalID,
			LastError:  user.Sync.LastError,
		},
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
	if user.Sync.SyncedAt != nil {
		formatted := user.Sync.SyncedAt.Format(time.RFC3339)
		resp.Sync.SyncedAt = &formatted
	}
	return resp
}

func toListResponse(items []repository.User, total, page, pageSize int) transport.UserListResponse {
	responses := make([]transport.UserResponse, len(items))
	for i, item := range items {
		responses[i] = toResponse(item)
	}
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return transport.UserListResponse{
		Items:      responses,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
