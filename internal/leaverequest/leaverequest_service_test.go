package leaverequest_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"leavedesk/internal/allocation"
	allocationerrors "leavedesk/internal/allocation/errors"
	"leavedesk/internal/events"
	"leavedesk/internal/leaverequest"
	leaverequesterrors "leavedesk/internal/leaverequest/errors"
	"leavedesk/internal/leavetype"
	leavetypeerrors "leavedesk/internal/leavetype/errors"
	"leavedesk/internal/messaging/kafka"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeLeaveRequestRepository struct {
	withTxFn            func(tx *sql.Tx) leaverequest.Repository
	createFn            func(ctx context.Context, lr *leaverequest.LeaveRequest) error
	findByIDFn          func(ctx context.Context, id string) (*leaverequest.LeaveRequest, error)
	findByIDForUpdateFn func(ctx context.Context, id string) (*leaverequest.LeaveRequest, error)
	updateLifecycleFn   func(ctx context.Context, lr *leaverequest.LeaveRequest) error
	findAllByEmployeeFn func(ctx context.Context, employeeID string) ([]leaverequest.LeaveRequest, error)
	findAllFn           func(ctx context.Context) ([]leaverequest.LeaveRequest, error)
}

func (f *fakeLeaveRequestRepository) WithTx(tx *sql.Tx) leaverequest.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeLeaveRequestRepository) Create(ctx context.Context, lr *leaverequest.LeaveRequest) error {
	if f.createFn != nil {
		return f.createFn(ctx, lr)
	}
	return nil
}

func (f *fakeLeaveRequestRepository) FindByID(ctx context.Context, id string) (*leaverequest.LeaveRequest, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLeaveRequestRepository) FindByIDForUpdate(ctx context.Context, id string) (*leaverequest.LeaveRequest, error) {
	if f.findByIDForUpdateFn != nil {
		return f.findByIDForUpdateFn(ctx, id)
	}
	return nil, sql.ErrNoRows
}

func (f *fakeLeaveRequestRepository) UpdateLifecycle(ctx context.Context, lr *leaverequest.LeaveRequest) error {
	if f.updateLifecycleFn != nil {
		return f.updateLifecycleFn(ctx, lr)
	}
	return nil
}

func (f *fakeLeaveRequestRepository) FindAllByEmployee(ctx context.Context, employeeID string) ([]leaverequest.LeaveRequest, error) {
	if f.findAllByEmployeeFn != nil {
		return f.findAllByEmployeeFn(ctx, employeeID)
	}
	return nil, nil
}

func (f *fakeLeaveRequestRepository) FindAll(ctx context.Context) ([]leaverequest.LeaveRequest, error) {
	if f.findAllFn != nil {
		return f.findAllFn(ctx)
	}
	return nil, nil
}

type fakeLedger struct {
	balanceFn func(ctx context.Context, employeeID, leaveTypeID string, period int) (int, error)
	debitFn   func(ctx context.Context, employeeID, leaveTypeID string, period, days int) error
	creditFn  func(ctx context.Context, employeeID, leaveTypeID string, period, days int) error
}

func (f *fakeLedger) WithTx(tx *sql.Tx) allocation.Ledger {
	return f
}

func (f *fakeLedger) Balance(ctx context.Context, employeeID, leaveTypeID string, period int) (int, error) {
	if f.balanceFn != nil {
		return f.balanceFn(ctx, employeeID, leaveTypeID, period)
	}
	return 0, nil
}

func (f *fakeLedger) Debit(ctx context.Context, employeeID, leaveTypeID string, period, days int) error {
	if f.debitFn != nil {
		return f.debitFn(ctx, employeeID, leaveTypeID, period, days)
	}
	return nil
}

func (f *fakeLedger) Credit(ctx context.Context, employeeID, leaveTypeID string, period, days int) error {
	if f.creditFn != nil {
		return f.creditFn(ctx, employeeID, leaveTypeID, period, days)
	}
	return nil
}

type fakeAllocationService struct {
	getForEmployeeFn func(ctx context.Context, employeeID string, period int) ([]allocation.AllocationResponse, error)
	provisionFn      func(ctx context.Context, req allocation.ProvisionRequest) (allocation.ProvisionResponse, error)
}

func (f *fakeAllocationService) GetForEmployee(ctx context.Context, employeeID string, period int) ([]allocation.AllocationResponse, error) {
	if f.getForEmployeeFn != nil {
		return f.getForEmployeeFn(ctx, employeeID, period)
	}
	return nil, nil
}

func (f *fakeAllocationService) Provision(ctx context.Context, req allocation.ProvisionRequest) (allocation.ProvisionResponse, error) {
	if f.provisionFn != nil {
		return f.provisionFn(ctx, req)
	}
	return allocation.ProvisionResponse{}, nil
}

type fakeLeaveTypeRepository struct {
	createFn       func(ctx context.Context, lt *leavetype.LeaveType) error
	findAllFn      func(ctx context.Context) ([]leavetype.LeaveType, error)
	findByIDFn     func(ctx context.Context, id string) (*leavetype.LeaveType, error)
	updateFn       func(ctx context.Context, lt *leavetype.LeaveType) error
	deleteFn       func(ctx context.Context, id string) error
	isReferencedFn func(ctx context.Context, id string) (bool, error)
}

func (f *fakeLeaveTypeRepository) Create(ctx context.Context, lt *leavetype.LeaveType) error {
	if f.createFn != nil {
		return f.createFn(ctx, lt)
	}
	return nil
}

func (f *fakeLeaveTypeRepository) FindAll(ctx context.Context) ([]leavetype.LeaveType, error) {
	if f.findAllFn != nil {
		return f.findAllFn(ctx)
	}
	return nil, nil
}

func (f *fakeLeaveTypeRepository) FindByID(ctx context.Context, id string) (*leavetype.LeaveType, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLeaveTypeRepository) Update(ctx context.Context, lt *leavetype.LeaveType) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, lt)
	}
	return nil
}

func (f *fakeLeaveTypeRepository) Delete(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

func (f *fakeLeaveTypeRepository) IsReferenced(ctx context.Context, id string) (bool, error) {
	if f.isReferencedFn != nil {
		return f.isReferencedFn(ctx, id)
	}
	return false, nil
}

type fakeOutboxRepository struct {
	createFn func(ctx context.Context, event kafka.OutboxEvent) error
}

func (f *fakeOutboxRepository) WithTx(tx *sql.Tx) kafka.OutboxRepository {
	return f
}

func (f *fakeOutboxRepository) Create(ctx context.Context, event kafka.OutboxEvent) error {
	if f.createFn != nil {
		return f.createFn(ctx, event)
	}
	return nil
}

func (f *fakeOutboxRepository) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepository) MarkSent(ctx context.Context, id string) error {
	return nil
}

func (f *fakeOutboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	return nil
}

type leaveRequestServiceDeps struct {
	db         *sql.DB
	sqlMock    sqlmock.Sqlmock
	service    leaverequest.Service
	repo       *fakeLeaveRequestRepository
	ledger     *fakeLedger
	allocSvc   *fakeAllocationService
	leaveTypes *fakeLeaveTypeRepository
	outbox     *fakeOutboxRepository
}

func setupLeaveRequestServiceTest(t *testing.T) *leaveRequestServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeLeaveRequestRepository{}
	ledger := &fakeLedger{}
	allocSvc := &fakeAllocationService{}
	leaveTypes := &fakeLeaveTypeRepository{}
	outbox := &fakeOutboxRepository{}

	svc := leaverequest.NewServiceWithOutbox(db, repo, ledger, allocSvc, leaveTypes, outbox)

	return &leaveRequestServiceDeps{
		db:         db,
		sqlMock:    sqlMock,
		service:    svc,
		repo:       repo,
		ledger:     ledger,
		allocSvc:   allocSvc,
		leaveTypes: leaveTypes,
		outbox:     outbox,
	}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func pendingRequest(employeeID, leaveTypeID uuid.UUID, days int) *leaverequest.LeaveRequest {
	return &leaverequest.LeaveRequest{
		ID:            uuid.New(),
		EmployeeID:    employeeID,
		LeaveTypeID:   leaveTypeID,
		Period:        2026,
		StartDate:     time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2026, 3, 2+days, 0, 0, 0, 0, time.UTC),
		DaysRequested: days,
		DateRequested: time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC),
	}
}

func TestLeaveRequestService_Submit(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New().String()
	leaveTypeID := uuid.New()

	annualLeave := &leavetype.LeaveType{
		ID:          leaveTypeID,
		Name:        "Annual Leave",
		DefaultDays: 20,
	}

	t.Run("success reserves days at submission", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		req := leaverequest.CreateLeaveRequestRequest{
			LeaveTypeID: leaveTypeID.String(),
			StartDate:   "2026-03-02",
			EndDate:     "2026-03-06",
			Comments:    "Family trip",
		}

		deps.leaveTypes.findByIDFn = func(ctx context.Context, id string) (*leavetype.LeaveType, error) {
			assert.Equal(t, leaveTypeID.String(), id)
			return annualLeave, nil
		}

		debited := 0
		deps.ledger.debitFn = func(ctx context.Context, eid, ltid string, period, days int) error {
			assert.Equal(t, employeeID, eid)
			assert.Equal(t, leaveTypeID.String(), ltid)
			assert.Equal(t, time.Now().UTC().Year(), period)
			debited = days
			return nil
		}
		deps.repo.createFn = func(ctx context.Context, lr *leaverequest.LeaveRequest) error {
			assert.Equal(t, uuid.MustParse(employeeID), lr.EmployeeID)
			assert.Equal(t, leaveTypeID, lr.LeaveTypeID)
			assert.Equal(t, 4, lr.DaysRequested)
			assert.Nil(t, lr.Approved)
			assert.False(t, lr.Cancelled)
			assert.Nil(t, lr.DateActioned)
			return nil
		}

		resp, err := deps.service.Submit(ctx, employeeID, req)

		assert.NoError(t, err)
		assert.Equal(t, 4, debited)
		assert.Equal(t, leaverequest.StatePending, resp.State)
		assert.Equal(t, 4, resp.DaysRequested)
		assert.Equal(t, "Annual Leave", resp.LeaveTypeName)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("success same day bounds request zero days", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		req := leaverequest.CreateLeaveRequestRequest{
			LeaveTypeID: leaveTypeID.String(),
			StartDate:   "2026-03-02",
			EndDate:     "2026-03-02",
		}

		deps.leaveTypes.findByIDFn = func(ctx context.Context, id string) (*leavetype.LeaveType, error) {
			return annualLeave, nil
		}

		debited := -1
		deps.ledger.debitFn = func(ctx context.Context, eid, ltid string, period, days int) error {
			debited = days
			return nil
		}

		resp, err := deps.service.Submit(ctx, employeeID, req)

		assert.NoError(t, err)
		assert.Equal(t, 0, debited)
		assert.Equal(t, 0, resp.DaysRequested)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("success enqueues submitted event", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		req := leaverequest.CreateLeaveRequestRequest{
			LeaveTypeID: leaveTypeID.String(),
			StartDate:   "2026-03-02",
			EndDate:     "2026-03-04",
		}

		deps.leaveTypes.findByIDFn = func(ctx context.Context, id string) (*leavetype.LeaveType, error) {
			return annualLeave, nil
		}

		var published kafka.OutboxEvent
		deps.outbox.createFn = func(ctx context.Context, event kafka.OutboxEvent) error {
			published = event
			return nil
		}

		_, err := deps.service.Submit(ctx, employeeID, req)

		assert.NoError(t, err)
		assert.Equal(t, events.LeaveRequestSubmitted, published.EventType)
		assert.Equal(t, events.LeaveLifecycleTopic, published.Topic)
		assert.Equal(t, "leave_request", published.AggregateType)
		assert.Equal(t, kafka.OutboxStatusPending, published.Status)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative start date after end date", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		req := leaverequest.CreateLeaveRequestRequest{
			LeaveTypeID: leaveTypeID.String(),
			StartDate:   "2026-03-06",
			EndDate:     "2026-03-02",
		}

		deps.ledger.debitFn = func(ctx context.Context, eid, ltid string, period, days int) error {
			t.Fatal("ledger must not be touched on invalid date range")
			return nil
		}

		_, err := deps.service.Submit(ctx, employeeID, req)

		assert.ErrorIs(t, err, leaverequesterrors.ErrInvalidDateRange)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative malformed date", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		req := leaverequest.CreateLeaveRequestRequest{
			LeaveTypeID: leaveTypeID.String(),
			StartDate:   "02-03-2026",
			EndDate:     "2026-03-06",
		}

		_, err := deps.service.Submit(ctx, employeeID, req)

		assert.ErrorIs(t, err, leaverequesterrors.ErrInvalidDateFormat)
	})

	t.Run("negative unknown leave type", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		req := leaverequest.CreateLeaveRequestRequest{
			LeaveTypeID: leaveTypeID.String(),
			StartDate:   "2026-03-02",
			EndDate:     "2026-03-06",
		}

		deps.leaveTypes.findByIDFn = func(ctx context.Context, id string) (*leavetype.LeaveType, error) {
			return nil, gorm.ErrRecordNotFound
		}

		_, err := deps.service.Submit(ctx, employeeID, req)

		assert.ErrorIs(t, err, leavetypeerrors.ErrLeaveTypeNotFound)
	})

	t.Run("negative insufficient balance rolls back without a request", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		req := leaverequest.CreateLeaveRequestRequest{
			LeaveTypeID: leaveTypeID.String(),
			StartDate:   "2026-03-02",
			EndDate:     "2026-03-30",
		}

		deps.leaveTypes.findByIDFn = func(ctx context.Context, id string) (*leavetype.LeaveType, error) {
			return annualLeave, nil
		}
		deps.ledger.debitFn = func(ctx context.Context, eid, ltid string, period, days int) error {
			return allocationerrors.ErrInsufficientBalance
		}
		deps.repo.createFn = func(ctx context.Context, lr *leaverequest.LeaveRequest) error {
			t.Fatal("request must not be created when the reservation fails")
			return nil
		}

		_, err := deps.service.Submit(ctx, employeeID, req)

		assert.ErrorIs(t, err, allocationerrors.ErrInsufficientBalance)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative invalid employee id", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		req := leaverequest.CreateLeaveRequestRequest{
			LeaveTypeID: leaveTypeID.String(),
			StartDate:   "2026-03-02",
			EndDate:     "2026-03-06",
		}

		_, err := deps.service.Submit(ctx, "not-a-uuid", req)

		assert.ErrorIs(t, err, leaverequesterrors.ErrInvalidEmployeeID)
	})
}

func TestLeaveRequestService_Approve(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New()
	leaveTypeID := uuid.New()
	approverID := uuid.New().String()

	t.Run("success without touching the ledger", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		lr := pendingRequest(employeeID, leaveTypeID, 4)

		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leaverequest.LeaveRequest, error) {
			assert.Equal(t, lr.ID.String(), id)
			return lr, nil
		}
		deps.ledger.debitFn = func(ctx context.Context, eid, ltid string, period, days int) error {
			t.Fatal("approve must not debit: days were reserved at submission")
			return nil
		}
		deps.ledger.creditFn = func(ctx context.Context, eid, ltid string, period, days int) error {
			t.Fatal("approve must not credit")
			return nil
		}
		deps.repo.updateLifecycleFn = func(ctx context.Context, updated *leaverequest.LeaveRequest) error {
			assert.NotNil(t, updated.Approved)
			assert.True(t, *updated.Approved)
			assert.Equal(t, approverID, updated.ApprovedByID.String())
			assert.NotNil(t, updated.DateActioned)
			assert.False(t, updated.Cancelled)
			return nil
		}

		resp, err := deps.service.Approve(ctx, approverID, lr.ID.String())

		assert.NoError(t, err)
		assert.Equal(t, leaverequest.StateApproved, resp.State)
		assert.Equal(t, approverID, *resp.ApprovedBy)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative already approved", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		lr := pendingRequest(employeeID, leaveTypeID, 4)
		approved := true
		lr.Approved = &approved

		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leaverequest.LeaveRequest, error) {
			return lr, nil
		}

		_, err := deps.service.Approve(ctx, approverID, lr.ID.String())

		assert.ErrorIs(t, err, leaverequesterrors.ErrInvalidTransition)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative cancelled while pending", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		lr := pendingRequest(employeeID, leaveTypeID, 4)
		lr.Cancelled = true

		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leaverequest.LeaveRequest, error) {
			return lr, nil
		}

		_, err := deps.service.Approve(ctx, approverID, lr.ID.String())

		assert.ErrorIs(t, err, leaverequesterrors.ErrInvalidTransition)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative not found", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leaverequest.LeaveRequest, error) {
			return nil, sql.ErrNoRows
		}

		_, err := deps.service.Approve(ctx, approverID, uuid.New().String())

		assert.ErrorIs(t, err, leaverequesterrors.ErrRequestNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative invalid approver id", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Approve(ctx, "not-a-uuid", uuid.New().String())

		assert.ErrorIs(t, err, leaverequesterrors.ErrInvalidApproverID)
	})
}

func TestLeaveRequestService_Reject(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New()
	leaveTypeID := uuid.New()
	approverID := uuid.New().String()

	t.Run("success releases the reservation", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		lr := pendingRequest(employeeID, leaveTypeID, 4)

		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leaverequest.LeaveRequest, error) {
			return lr, nil
		}

		credited := 0
		deps.ledger.creditFn = func(ctx context.Context, eid, ltid string, period, days int) error {
			assert.Equal(t, employeeID.String(), eid)
			assert.Equal(t, leaveTypeID.String(), ltid)
			assert.Equal(t, lr.Period, period)
			credited = days
			return nil
		}
		deps.repo.updateLifecycleFn = func(ctx context.Context, updated *leaverequest.LeaveRequest) error {
			assert.NotNil(t, updated.Approved)
			assert.False(t, *updated.Approved)
			assert.NotNil(t, updated.DateActioned)
			return nil
		}

		resp, err := deps.service.Reject(ctx, approverID, lr.ID.String())

		assert.NoError(t, err)
		assert.Equal(t, 4, credited)
		assert.Equal(t, leaverequest.StateRejected, resp.State)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative already rejected", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		lr := pendingRequest(employeeID, leaveTypeID, 4)
		rejected := false
		lr.Approved = &rejected

		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leaverequest.LeaveRequest, error) {
			return lr, nil
		}
		deps.ledger.creditFn = func(ctx context.Context, eid, ltid string, period, days int) error {
			t.Fatal("rejecting twice must not credit twice")
			return nil
		}

		_, err := deps.service.Reject(ctx, approverID, lr.ID.String())

		assert.ErrorIs(t, err, leaverequesterrors.ErrInvalidTransition)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestLeaveRequestService_Cancel(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New()
	leaveTypeID := uuid.New()

	t.Run("success from pending restores the balance", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		lr := pendingRequest(employeeID, leaveTypeID, 4)

		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leaverequest.LeaveRequest, error) {
			return lr, nil
		}

		credited := 0
		deps.ledger.creditFn = func(ctx context.Context, eid, ltid string, period, days int) error {
			credited = days
			return nil
		}
		deps.repo.updateLifecycleFn = func(ctx context.Context, updated *leaverequest.LeaveRequest) error {
			assert.True(t, updated.Cancelled)
			assert.Nil(t, updated.Approved)
			assert.Nil(t, updated.DateActioned)
			return nil
		}

		resp, err := deps.service.Cancel(ctx, employeeID.String(), lr.ID.String())

		assert.NoError(t, err)
		assert.Equal(t, 4, credited)
		assert.True(t, resp.Cancelled)
		assert.Equal(t, leaverequest.StatePending, resp.State)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("success after approval credits the stored period", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		lr := pendingRequest(employeeID, leaveTypeID, 6)
		lr.Period = 2025
		approved := true
		actioned := time.Date(2025, 12, 30, 10, 0, 0, 0, time.UTC)
		lr.Approved = &approved
		lr.DateActioned = &actioned

		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leaverequest.LeaveRequest, error) {
			return lr, nil
		}

		creditedPeriod := 0
		credited := 0
		deps.ledger.creditFn = func(ctx context.Context, eid, ltid string, period, days int) error {
			creditedPeriod = period
			credited = days
			return nil
		}
		deps.repo.updateLifecycleFn = func(ctx context.Context, updated *leaverequest.LeaveRequest) error {
			assert.True(t, updated.Cancelled)
			assert.NotNil(t, updated.Approved)
			assert.True(t, *updated.Approved)
			return nil
		}

		resp, err := deps.service.Cancel(ctx, employeeID.String(), lr.ID.String())

		assert.NoError(t, err)
		assert.Equal(t, 2025, creditedPeriod)
		assert.Equal(t, 6, credited)
		assert.True(t, resp.Cancelled)
		assert.Equal(t, leaverequest.StateApproved, resp.State)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative not the owner", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		lr := pendingRequest(employeeID, leaveTypeID, 4)

		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leaverequest.LeaveRequest, error) {
			return lr, nil
		}
		deps.ledger.creditFn = func(ctx context.Context, eid, ltid string, period, days int) error {
			t.Fatal("another employee's cancel must not touch the ledger")
			return nil
		}

		_, err := deps.service.Cancel(ctx, uuid.New().String(), lr.ID.String())

		assert.ErrorIs(t, err, leaverequesterrors.ErrNotRequestOwner)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative already cancelled", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		lr := pendingRequest(employeeID, leaveTypeID, 4)
		lr.Cancelled = true

		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leaverequest.LeaveRequest, error) {
			return lr, nil
		}
		deps.ledger.creditFn = func(ctx context.Context, eid, ltid string, period, days int) error {
			t.Fatal("cancelling twice must not credit twice")
			return nil
		}

		_, err := deps.service.Cancel(ctx, employeeID.String(), lr.ID.String())

		assert.ErrorIs(t, err, leaverequesterrors.ErrInvalidTransition)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative rejected holds no reservation", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		lr := pendingRequest(employeeID, leaveTypeID, 4)
		rejected := false
		lr.Approved = &rejected

		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leaverequest.LeaveRequest, error) {
			return lr, nil
		}
		deps.ledger.creditFn = func(ctx context.Context, eid, ltid string, period, days int) error {
			t.Fatal("cancelling a rejected request must not credit")
			return nil
		}

		_, err := deps.service.Cancel(ctx, employeeID.String(), lr.ID.String())

		assert.ErrorIs(t, err, leaverequesterrors.ErrInvalidTransition)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestLeaveRequestService_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		lr := pendingRequest(uuid.New(), uuid.New(), 3)
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leaverequest.LeaveRequest, error) {
			return lr, nil
		}

		resp, err := deps.service.GetByID(ctx, lr.ID.String())

		assert.NoError(t, err)
		assert.Equal(t, lr.ID.String(), resp.ID)
		assert.Equal(t, leaverequest.StatePending, resp.State)
	})

	t.Run("negative not found", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leaverequest.LeaveRequest, error) {
			return nil, gorm.ErrRecordNotFound
		}

		_, err := deps.service.GetByID(ctx, uuid.New().String())

		assert.ErrorIs(t, err, leaverequesterrors.ErrRequestNotFound)
	})
}

func TestLeaveRequestService_ListForEmployee(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New()

	t.Run("success combines allocations and requests", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		deps.repo.findAllByEmployeeFn = func(ctx context.Context, eid string) ([]leaverequest.LeaveRequest, error) {
			assert.Equal(t, employeeID.String(), eid)
			return []leaverequest.LeaveRequest{*pendingRequest(employeeID, uuid.New(), 2)}, nil
		}
		deps.allocSvc.getForEmployeeFn = func(ctx context.Context, eid string, period int) ([]allocation.AllocationResponse, error) {
			assert.Equal(t, time.Now().UTC().Year(), period)
			return []allocation.AllocationResponse{
				{EmployeeID: employeeID.String(), NumberOfDays: 18},
			}, nil
		}

		resp, err := deps.service.ListForEmployee(ctx, employeeID.String())

		assert.NoError(t, err)
		assert.Len(t, resp.Allocations, 1)
		assert.Len(t, resp.LeaveRequests, 1)
		assert.Equal(t, 18, resp.Allocations[0].NumberOfDays)
	})

	t.Run("negative allocation lookup error", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		deps.allocSvc.getForEmployeeFn = func(ctx context.Context, eid string, period int) ([]allocation.AllocationResponse, error) {
			return nil, errors.New("db error")
		}

		_, err := deps.service.ListForEmployee(ctx, employeeID.String())

		assert.Error(t, err)
	})
}

func TestLeaveRequestService_ListAll(t *testing.T) {
	ctx := context.Background()

	t.Run("success derives counts from the tri-state", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		approved := true
		rejected := false

		pending := *pendingRequest(uuid.New(), uuid.New(), 2)
		approvedReq := *pendingRequest(uuid.New(), uuid.New(), 3)
		approvedReq.Approved = &approved
		rejectedReq := *pendingRequest(uuid.New(), uuid.New(), 1)
		rejectedReq.Approved = &rejected
		cancelledApproved := *pendingRequest(uuid.New(), uuid.New(), 5)
		cancelledApproved.Approved = &approved
		cancelledApproved.Cancelled = true

		deps.repo.findAllFn = func(ctx context.Context) ([]leaverequest.LeaveRequest, error) {
			return []leaverequest.LeaveRequest{pending, approvedReq, rejectedReq, cancelledApproved}, nil
		}

		resp, err := deps.service.ListAll(ctx)

		assert.NoError(t, err)
		assert.Equal(t, 4, resp.TotalRequests)
		assert.Equal(t, 2, resp.ApprovedRequests)
		assert.Equal(t, 1, resp.PendingRequests)
		assert.Equal(t, 1, resp.RejectedRequests)
		assert.Len(t, resp.LeaveRequests, 4)
	})

	t.Run("negative repo error", func(t *testing.T) {
		deps := setupLeaveRequestServiceTest(t)
		defer deps.db.Close()

		deps.repo.findAllFn = func(ctx context.Context) ([]leaverequest.LeaveRequest, error) {
			return nil, errors.New("db error")
		}

		_, err := deps.service.ListAll(ctx)

		assert.Error(t, err)
	})
}
