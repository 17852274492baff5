package authz

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/flock-suite/flock-sdk/pkg/eventbus"
)

// DecisionDenied is published on the event bus for every denial so the
// audit-log consumer can persist it. The engine itself never writes audit
// rows.
type DecisionDenied struct {
	UserID     uuid.UUID
	TenantID   uuid.UUID
	Permission string
	OrgUnitID  *uuid.UUID
	Reason     string
	At         time.Time
}

// Service is the single authorization decision point. Every domain module
// answers "can user U, with permission P, act on org unit O?" through it.
type Service struct {
	catalog     PermissionCatalog
	assignments AssignmentStore
	resolver    *ScopeResolver
	logger      *logrus.Entry
	publisher   eventbus.EventBus
}

type ServiceOption func(*Service)

func WithLogger(logger *logrus.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger.WithField("component", "authz")
	}
}

func WithEventBus(publisher eventbus.EventBus) ServiceOption {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func NewService(catalog PermissionCatalog, assignments AssignmentStore, resolver *ScopeResolver, opts ...ServiceOption) *Service {
	s := &Service{
		catalog:     catalog,
		assignments: assignments,
		resolver:    resolver,
		logger:      logrus.WithField("component", "authz"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequirePermission denies unless the permission code is in the union of
// codes granted by the user's roles across all assignments in the tenant.
func (s *Service) RequirePermission(ctx context.Context, userID, tenantID uuid.UUID, permission string) error {
	start := time.Now()
	err := s.requirePermission(ctx, userID, tenantID, permission)
	recordDecision("permission", resultLabel(err), time.Since(start))
	return err
}

func (s *Service) requirePermission(ctx context.Context, userID, tenantID uuid.UUID, permission string) error {
	granted, err := s.catalog.PermissionsForUser(ctx, userID, tenantID)
	if err != nil {
		return err
	}
	for _, code := range granted {
		if code == permission {
			return nil
		}
	}
	s.deny(ctx, DecisionDenied{
		UserID:     userID,
		TenantID:   tenantID,
		Permission: permission,
		Reason:     CodePermissionDenied,
		At:         time.Now(),
	})
	return permissionDeniedError(permission)
}

// RequireOrgAccess checks the permission first and evaluates scope only on
// success, so callers without the permission learn nothing about the org
// tree and no assignment query runs for them.
func (s *Service) RequireOrgAccess(ctx context.Context, userID, tenantID, targetOrgUnitID uuid.UUID, permission string) error {
	start := time.Now()
	err := s.requireOrgAccess(ctx, userID, tenantID, targetOrgUnitID, permission)
	recordDecision("org_access", resultLabel(err), time.Since(start))
	return err
}

func (s *Service) requireOrgAccess(ctx context.Context, userID, tenantID, targetOrgUnitID uuid.UUID, permission string) error {
	if err := s.requirePermission(ctx, userID, tenantID, permission); err != nil {
		return err
	}

	assignments, err := s.assignments.ListForUser(ctx, userID, tenantID)
	if err != nil {
		return err
	}
	ok, err := s.resolver.HasAccess(ctx, assignments, targetOrgUnitID)
	if err != nil {
		if IsDataIntegrity(err) {
			s.logger.WithContext(ctx).WithFields(logrus.Fields{
				"user_id":  userID,
				"tenant":   tenantID,
				"org_unit": targetOrgUnitID,
			}).Error("authz: hierarchy walk exceeded safety bound, cycle suspected")
		}
		return err
	}
	if !ok {
		s.deny(ctx, DecisionDenied{
			UserID:     userID,
			TenantID:   tenantID,
			Permission: permission,
			OrgUnitID:  &targetOrgUnitID,
			Reason:     CodeScopeDenied,
			At:         time.Now(),
		})
		return scopeDeniedError(targetOrgUnitID, permission)
	}
	return nil
}

// Authorize is the facade consumed by the request-handling layer. A nil
// OrgUnitID degrades to a plain permission check.
func (s *Service) Authorize(ctx context.Context, req Request) error {
	if req.OrgUnitID == nil {
		return s.RequirePermission(ctx, req.UserID, req.TenantID, req.Permission)
	}
	return s.RequireOrgAccess(ctx, req.UserID, req.TenantID, *req.OrgUnitID, req.Permission)
}

func (s *Service) deny(ctx context.Context, event DecisionDenied) {
	fields := logrus.Fields{
		"user_id":    event.UserID,
		"tenant":     event.TenantID,
		"permission": event.Permission,
		"reason":     event.Reason,
	}
	if event.OrgUnitID != nil {
		fields["org_unit"] = *event.OrgUnitID
	}
	s.logger.WithContext(ctx).WithFields(fields).Warn("authz denied request")
	if s.publisher != nil {
		s.publisher.Publish(event)
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "allowed"
	case IsPermissionDenied(err):
		return "permission_denied"
	case IsScopeDenied(err):
		return "scope_denied"
	default:
		return "error"
	}
}
