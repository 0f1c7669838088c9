package allocation

import (
	"context"
	"errors"

	allocationerrors "leavedesk/internal/allocation/errors"
	"leavedesk/internal/leavetype"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

//go:generate mockgen -source=allocation_service.go -destination=mock/allocation_service_mock.go -package=mock
type Service interface {
	GetForEmployee(ctx context.Context, employeeID string, period int) ([]AllocationResponse, error)
	Provision(ctx context.Context, req ProvisionRequest) (ProvisionResponse, error)
}

type service struct {
	repo          Repository
	leaveTypeRepo leavetype.Repository
	logger        *zap.Logger
}

func NewService(repo Repository, leaveTypeRepo leavetype.Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("allocation.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("allocation.service")
	}
	return &service{repo: repo, leaveTypeRepo: leaveTypeRepo, logger: l}
}

func (s *service) GetForEmployee(ctx context.Context, employeeID string, period int) ([]AllocationResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return nil, allocationerrors.ErrInvalidEmployeeID
	}
	if period <= 0 {
		return nil, allocationerrors.ErrInvalidPeriod
	}

	allocations, err := s.repo.FindAllByEmployee(ctx, employeeID, period)
	if err != nil {
		return nil, err
	}
	return MapToListResponse(allocations), nil
}

// Provision creates the period's allocation rows for one employee from the
// leave type catalog's default days. Existing rows are left untouched, so the
// operation is safe to repeat for the same employee and period.
func (s *service) Provision(ctx context.Context, req ProvisionRequest) (ProvisionResponse, error) {
	employeeUUID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return ProvisionResponse{}, allocationerrors.ErrInvalidEmployeeID
	}
	if req.Period <= 0 {
		return ProvisionResponse{}, allocationerrors.ErrInvalidPeriod
	}

	s.logger.Debug("provision allocations requested",
		zap.String("employee_id", req.EmployeeID),
		zap.Int("period", req.Period),
	)

	types, err := s.leaveTypeRepo.FindAll(ctx)
	if err != nil {
		s.logger.Error("provision allocations load catalog failed", zap.Error(err))
		return ProvisionResponse{}, err
	}

	resp := ProvisionResponse{EmployeeID: req.EmployeeID, Period: req.Period}
	for _, lt := range types {
		exists, err := s.repo.Exists(ctx, req.EmployeeID, lt.ID.String(), req.Period)
		if err != nil {
			return ProvisionResponse{}, err
		}
		if exists {
			resp.Skipped++
			continue
		}

		a := &LeaveAllocation{
			ID:           uuid.New(),
			EmployeeID:   employeeUUID,
			LeaveTypeID:  lt.ID,
			Period:       req.Period,
			NumberOfDays: lt.DefaultDays,
		}
		if err := s.repo.Create(ctx, a); err != nil {
			if isUniqueScopeViolation(err) {
				// Lost a race with a concurrent provisioner for the same scope.
				resp.Skipped++
				continue
			}
			s.logger.Error("provision allocation persist failed",
				zap.String("employee_id", req.EmployeeID),
				zap.String("leave_type_id", lt.ID.String()),
				zap.Error(err),
			)
			return ProvisionResponse{}, err
		}
		resp.Provisioned++
	}

	s.logger.Info("provision allocations success",
		zap.String("employee_id", req.EmployeeID),
		zap.Int("period", req.Period),
		zap.Int("provisioned", resp.Provisioned),
		zap.Int("skipped", resp.Skipped),
	)
	return resp, nil
}

func isUniqueScopeViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func MapToResponse(a LeaveAllocation) AllocationResponse {
	resp := AllocationResponse{
		ID:           a.ID.String(),
		EmployeeID:   a.EmployeeID.String(),
		LeaveTypeID:  a.LeaveTypeID.String(),
		Period:       a.Period,
		NumberOfDays: a.NumberOfDays,
	}
	if a.LeaveType != nil {
		resp.LeaveTypeName = a.LeaveType.Name
	}
	return resp
}

func MapToListResponse(allocations []LeaveAllocation) []AllocationResponse {
	resp := make([]AllocationResponse, len(allocations))
	for i, a := range allocations {
		resp[i] = MapToResponse(a)
	}
	return resp
}
