package leaverequest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"leavedesk/internal/allocation"
	"leavedesk/internal/events"
	leaverequesterrors "leavedesk/internal/leaverequest/errors"
	"leavedesk/internal/leavetype"
	leavetypeerrors "leavedesk/internal/leavetype/errors"
	"leavedesk/internal/messaging/kafka"
	"leavedesk/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=leaverequest_service.go -destination=mock/leaverequest_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, employeeID string, req CreateLeaveRequestRequest) (LeaveRequestResponse, error)
	Approve(ctx context.Context, approverID, id string) (LeaveRequestResponse, error)
	Reject(ctx context.Context, approverID, id string) (LeaveRequestResponse, error)
	Cancel(ctx context.Context, employeeID, id string) (LeaveRequestResponse, error)
	GetByID(ctx context.Context, id string) (LeaveRequestResponse, error)
	ListForEmployee(ctx context.Context, employeeID string) (EmployeeLeaveViewResponse, error)
	ListAll(ctx context.Context) (AdminLeaveSummaryResponse, error)
}

// service is the workflow coordinator: every transition runs the request
// write and its ledger adjustment in one transaction, so the reconciliation
// invariant (balance = default minus outstanding reservations) survives
// failures at any point.
type service struct {
	db          *sql.DB
	repo        Repository
	ledger      allocation.Ledger
	allocations allocation.Service
	leaveTypes  leavetype.Repository
	outbox      kafka.OutboxRepository
	logger      *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	ledger allocation.Ledger,
	allocations allocation.Service,
	leaveTypes leavetype.Repository,
	logger ...*zap.Logger,
) Service {
	return NewServiceWithOutbox(db, repo, ledger, allocations, leaveTypes, nil, logger...)
}

func NewServiceWithOutbox(
	db *sql.DB,
	repo Repository,
	ledger allocation.Ledger,
	allocations allocation.Service,
	leaveTypes leavetype.Repository,
	outboxRepo kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leaverequest.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leaverequest.service")
	}
	return &service{
		db:          db,
		repo:        repo,
		ledger:      ledger,
		allocations: allocations,
		leaveTypes:  leaveTypes,
		outbox:      outboxRepo,
		logger:      l,
	}
}

// Submit reserves the requested days at submission time: the ledger debit and
// the request insert commit together. Approve later performs no further debit.
func (s *service) Submit(ctx context.Context, employeeID string, req CreateLeaveRequestRequest) (LeaveRequestResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("submit leave request",
		zap.String("request_id", rid),
		zap.String("employee_id", employeeID),
		zap.String("leave_type_id", req.LeaveTypeID),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidEmployeeID
	}
	leaveTypeUUID, err := uuid.Parse(req.LeaveTypeID)
	if err != nil {
		return LeaveRequestResponse{}, leavetypeerrors.ErrInvalidLeaveTypeID
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	if startDate.After(endDate) {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidDateRange
	}

	lt, err := s.leaveTypes.FindByID(ctx, req.LeaveTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, leavetypeerrors.ErrLeaveTypeNotFound
		}
		return LeaveRequestResponse{}, err
	}

	// Whole days between the bounds; computed once here, never recomputed.
	daysRequested := int(endDate.Sub(startDate).Hours() / 24)
	now := time.Now().UTC()
	period := now.Year()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("submit leave request begin tx failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if err := s.ledger.WithTx(tx).Debit(ctx, employeeID, req.LeaveTypeID, period, daysRequested); err != nil {
		s.logger.Warn("submit leave request reservation failed",
			zap.String("employee_id", employeeID),
			zap.String("leave_type_id", req.LeaveTypeID),
			zap.Int("period", period),
			zap.Int("days_requested", daysRequested),
			zap.Error(err),
		)
		return LeaveRequestResponse{}, err
	}

	lr := &LeaveRequest{
		ID:            uuid.New(),
		EmployeeID:    employeeUUID,
		LeaveTypeID:   leaveTypeUUID,
		Period:        period,
		StartDate:     startDate,
		EndDate:       endDate,
		DaysRequested: daysRequested,
		Comments:      req.Comments,
		Approved:      nil,
		Cancelled:     false,
		DateRequested: now,
		LeaveType:     lt,
	}

	if err := qtx.Create(ctx, lr); err != nil {
		s.logger.Error("submit leave request persist failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	if err := s.enqueueLifecycleEvent(ctx, tx, events.LeaveRequestSubmitted, lr); err != nil {
		return LeaveRequestResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("submit leave request commit failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	s.logger.Info("submit leave request success",
		zap.String("leave_request_id", lr.ID.String()),
		zap.String("employee_id", employeeID),
		zap.Int("days_requested", daysRequested),
		zap.Int("period", period),
	)
	return mapToResponse(*lr), nil
}

// Approve marks a pending request approved. The days were already reserved at
// submission, so the ledger is untouched here.
func (s *service) Approve(ctx context.Context, approverID, id string) (LeaveRequestResponse, error) {
	approverUUID, err := uuid.Parse(approverID)
	if err != nil {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidApproverID
	}
	if _, err := uuid.Parse(id); err != nil {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidRequestID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("approve leave request begin tx failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	lr, err := qtx.FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LeaveRequestResponse{}, leaverequesterrors.ErrRequestNotFound
		}
		return LeaveRequestResponse{}, err
	}
	if !lr.IsPending() {
		s.logger.Warn("approve leave request invalid transition",
			zap.String("leave_request_id", id),
			zap.String("state", lr.State()),
			zap.Bool("cancelled", lr.Cancelled),
		)
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidTransition
	}

	approved := true
	now := time.Now().UTC()
	lr.Approved = &approved
	lr.ApprovedByID = &approverUUID
	lr.DateActioned = &now

	if err := qtx.UpdateLifecycle(ctx, lr); err != nil {
		s.logger.Error("approve leave request persist failed",
			zap.String("leave_request_id", id),
			zap.Error(err),
		)
		return LeaveRequestResponse{}, err
	}

	if err := s.enqueueLifecycleEvent(ctx, tx, events.LeaveRequestApproved, lr); err != nil {
		return LeaveRequestResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("approve leave request commit failed",
			zap.String("leave_request_id", id),
			zap.Error(err),
		)
		return LeaveRequestResponse{}, err
	}

	s.logger.Info("approve leave request success",
		zap.String("leave_request_id", id),
		zap.String("approver_id", approverID),
	)
	return mapToResponse(*lr), nil
}

// Reject marks a pending request rejected and releases its reservation: the
// credit and the state write commit together.
func (s *service) Reject(ctx context.Context, approverID, id string) (LeaveRequestResponse, error) {
	approverUUID, err := uuid.Parse(approverID)
	if err != nil {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidApproverID
	}
	if _, err := uuid.Parse(id); err != nil {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidRequestID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("reject leave request begin tx failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	lr, err := qtx.FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LeaveRequestResponse{}, leaverequesterrors.ErrRequestNotFound
		}
		return LeaveRequestResponse{}, err
	}
	if !lr.IsPending() {
		s.logger.Warn("reject leave request invalid transition",
			zap.String("leave_request_id", id),
			zap.String("state", lr.State()),
			zap.Bool("cancelled", lr.Cancelled),
		)
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidTransition
	}

	approved := false
	now := time.Now().UTC()
	lr.Approved = &approved
	lr.ApprovedByID = &approverUUID
	lr.DateActioned = &now

	if err := s.ledger.WithTx(tx).Credit(ctx, lr.EmployeeID.String(), lr.LeaveTypeID.String(), lr.Period, lr.DaysRequested); err != nil {
		s.logger.Error("reject leave request release reservation failed",
			zap.String("leave_request_id", id),
			zap.Error(err),
		)
		return LeaveRequestResponse{}, err
	}

	if err := qtx.UpdateLifecycle(ctx, lr); err != nil {
		s.logger.Error("reject leave request persist failed",
			zap.String("leave_request_id", id),
			zap.Error(err),
		)
		return LeaveRequestResponse{}, err
	}

	if err := s.enqueueLifecycleEvent(ctx, tx, events.LeaveRequestRejected, lr); err != nil {
		return LeaveRequestResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("reject leave request commit failed",
			zap.String("leave_request_id", id),
			zap.Error(err),
		)
		return LeaveRequestResponse{}, err
	}

	s.logger.Info("reject leave request success",
		zap.String("leave_request_id", id),
		zap.String("approver_id", approverID),
	)
	return mapToResponse(*lr), nil
}

// Cancel withdraws a pending or approved request and credits back exactly the
// days it reserved. Only the requesting employee may cancel.
func (s *service) Cancel(ctx context.Context, employeeID, id string) (LeaveRequestResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidEmployeeID
	}
	if _, err := uuid.Parse(id); err != nil {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidRequestID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("cancel leave request begin tx failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	lr, err := qtx.FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LeaveRequestResponse{}, leaverequesterrors.ErrRequestNotFound
		}
		return LeaveRequestResponse{}, err
	}
	if lr.EmployeeID.String() != employeeID {
		return LeaveRequestResponse{}, leaverequesterrors.ErrNotRequestOwner
	}
	if !lr.CanCancel() {
		s.logger.Warn("cancel leave request invalid transition",
			zap.String("leave_request_id", id),
			zap.String("state", lr.State()),
			zap.Bool("cancelled", lr.Cancelled),
		)
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidTransition
	}

	lr.Cancelled = true

	if err := s.ledger.WithTx(tx).Credit(ctx, lr.EmployeeID.String(), lr.LeaveTypeID.String(), lr.Period, lr.DaysRequested); err != nil {
		s.logger.Error("cancel leave request release reservation failed",
			zap.String("leave_request_id", id),
			zap.Error(err),
		)
		return LeaveRequestResponse{}, err
	}

	if err := qtx.UpdateLifecycle(ctx, lr); err != nil {
		s.logger.Error("cancel leave request persist failed",
			zap.String("leave_request_id", id),
			zap.Error(err),
		)
		return LeaveRequestResponse{}, err
	}

	if err := s.enqueueLifecycleEvent(ctx, tx, events.LeaveRequestCancelled, lr); err != nil {
		return LeaveRequestResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("cancel leave request commit failed",
			zap.String("leave_request_id", id),
			zap.Error(err),
		)
		return LeaveRequestResponse{}, err
	}

	s.logger.Info("cancel leave request success",
		zap.String("leave_request_id", id),
		zap.String("employee_id", employeeID),
		zap.Int("days_restored", lr.DaysRequested),
	)
	return mapToResponse(*lr), nil
}

func (s *service) GetByID(ctx context.Context, id string) (LeaveRequestResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return LeaveRequestResponse{}, leaverequesterrors.ErrInvalidRequestID
	}

	lr, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, leaverequesterrors.ErrRequestNotFound
		}
		return LeaveRequestResponse{}, err
	}
	return mapToResponse(*lr), nil
}

// ListForEmployee is the employee's own view: current-period allocations next
// to every request they have submitted.
func (s *service) ListForEmployee(ctx context.Context, employeeID string) (EmployeeLeaveViewResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return EmployeeLeaveViewResponse{}, leaverequesterrors.ErrInvalidEmployeeID
	}

	requests, err := s.repo.FindAllByEmployee(ctx, employeeID)
	if err != nil {
		return EmployeeLeaveViewResponse{}, err
	}

	allocations, err := s.allocations.GetForEmployee(ctx, employeeID, time.Now().UTC().Year())
	if err != nil {
		return EmployeeLeaveViewResponse{}, err
	}

	return EmployeeLeaveViewResponse{
		Allocations:   allocations,
		LeaveRequests: mapToListResponse(requests),
	}, nil
}

// ListAll is the admin view. The counts are derived from the list on every
// call; nothing is stored.
func (s *service) ListAll(ctx context.Context) (AdminLeaveSummaryResponse, error) {
	requests, err := s.repo.FindAll(ctx)
	if err != nil {
		return AdminLeaveSummaryResponse{}, err
	}

	summary := AdminLeaveSummaryResponse{
		TotalRequests: len(requests),
		LeaveRequests: mapToListResponse(requests),
	}
	for i := range requests {
		switch requests[i].State() {
		case StateApproved:
			summary.ApprovedRequests++
		case StatePending:
			summary.PendingRequests++
		case StateRejected:
			summary.RejectedRequests++
		}
	}
	return summary, nil
}

func (s *service) enqueueLifecycleEvent(ctx context.Context, tx *sql.Tx, eventType string, lr *LeaveRequest) error {
	if s.outbox == nil {
		return nil
	}

	payload, err := json.Marshal(events.LeaveLifecycleEvent{
		EventType:     eventType,
		RequestID:     lr.ID.String(),
		EmployeeID:    lr.EmployeeID.String(),
		LeaveTypeID:   lr.LeaveTypeID.String(),
		Period:        lr.Period,
		DaysRequested: lr.DaysRequested,
		OccurredAt:    time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "leave_request",
		AggregateID:   lr.ID.String(),
		EventType:     eventType,
		Topic:         events.LeaveLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		s.logger.Error("enqueue leave lifecycle event failed",
			zap.String("leave_request_id", lr.ID.String()),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, leaverequesterrors.ErrInvalidDateFormat
	}
	return t, nil
}

func mapToResponse(lr LeaveRequest) LeaveRequestResponse {
	resp := LeaveRequestResponse{
		ID:            lr.ID.String(),
		EmployeeID:    lr.EmployeeID.String(),
		LeaveTypeID:   lr.LeaveTypeID.String(),
		Period:        lr.Period,
		StartDate:     lr.StartDate.Format("2006-01-02"),
		EndDate:       lr.EndDate.Format("2006-01-02"),
		DaysRequested: lr.DaysRequested,
		Comments:      lr.Comments,
		State:         lr.State(),
		Cancelled:     lr.Cancelled,
		DateRequested: lr.DateRequested.Format(time.RFC3339),
	}
	if lr.LeaveType != nil {
		resp.LeaveTypeName = lr.LeaveType.Name
	}
	if lr.ApprovedByID != nil {
		v := lr.ApprovedByID.String()
		resp.ApprovedBy = &v
	}
	if lr.DateActioned != nil {
		v := lr.DateActioned.Format(time.RFC3339)
		resp.DateActioned = &v
	}
	return resp
}

func mapToListResponse(requests []LeaveRequest) []LeaveRequestResponse {
	resp := make([]LeaveRequestResponse, len(requests))
	for i, lr := range requests {
		resp[i] = mapToResponse(lr)
	}
	return resp
}
