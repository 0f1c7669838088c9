package rbac

import (
	"sync"

	"leavedesk/internal/domain"

	"github.com/casbin/casbin/v2"
	"go.uber.org/zap"
)

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// rolePolicies is the static permission table. Roles come from the token;
// there is no role management surface here, so the policy set is fixed at
// startup.
var rolePolicies = [][3]string{
	{RoleEmployee, "leave-type", "read"},
	{RoleEmployee, "leave-request", "create"},
	{RoleEmployee, "leave-request", "read"},
	{RoleEmployee, "leave-request", "cancel"},
	{RoleEmployee, "allocation", "read"},

	{RoleAdmin, "leave-type", "manage"},
	{RoleAdmin, "leave-request", "read-all"},
	{RoleAdmin, "leave-request", "approve"},
	{RoleAdmin, "allocation", "read-all"},
	{RoleAdmin, "allocation", "provision"},
}

//go:generate mockgen -source=rbac_service.go -destination=mock/rbac_service_mock.go -package=mock
type Service interface {
	Enforce(req domain.EnforceRequest) (bool, error)
}

type service struct {
	enforcer *casbin.Enforcer
	logger   *zap.Logger
	mu       sync.Mutex
}

func NewService(enforcer *casbin.Enforcer, logger ...*zap.Logger) (Service, error) {
	l := zap.L().Named("rbac.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.service")
	}

	s := &service{enforcer: enforcer, logger: l}
	if err := s.loadPolicies(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *service) loadPolicies() error {
	s.enforcer.ClearPolicy()

	// Admins hold every employee permission on top of their own.
	if _, err := s.enforcer.AddGroupingPolicy(RoleAdmin, RoleEmployee); err != nil {
		return err
	}

	for _, p := range rolePolicies {
		if _, err := s.enforcer.AddPolicy(p[0], p[1], p[2]); err != nil {
			return err
		}
	}

	s.logger.Debug("rbac policies loaded", zap.Int("policies", len(rolePolicies)))
	return nil
}

func (s *service) Enforce(req domain.EnforceRequest) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	allowed, err := s.enforcer.Enforce(req.Role, req.Resource, req.Action)
	if err != nil {
		s.logger.Error("rbac enforce failed",
			zap.String("employee_id", req.EmployeeID),
			zap.String("role", req.Role),
			zap.String("resource", req.Resource),
			zap.String("action", req.Action),
			zap.Error(err),
		)
		return false, err
	}

	s.logger.Debug("rbac enforce result",
		zap.String("employee_id", req.EmployeeID),
		zap.String("role", req.Role),
		zap.String("resource", req.Resource),
		zap.String("action", req.Action),
		zap.Bool("allowed", allowed),
	)
	return allowed, nil
}
