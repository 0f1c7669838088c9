package leaverequest

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

//go:generate mockgen -source=leaverequest_repo.go -destination=mock/leaverequest_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, lr *LeaveRequest) error
	FindByID(ctx context.Context, id string) (*LeaveRequest, error)
	FindByIDForUpdate(ctx context.Context, id string) (*LeaveRequest, error)
	UpdateLifecycle(ctx context.Context, lr *LeaveRequest) error
	FindAllByEmployee(ctx context.Context, employeeID string) ([]LeaveRequest, error)
	FindAll(ctx context.Context) ([]LeaveRequest, error)
}

// repository reads lists through gorm; Create, FindByIDForUpdate and
// UpdateLifecycle go through raw SQL on the execer so that a transition's
// request write shares the caller's transaction with the ledger adjustment.
type repository struct {
	gdb *gorm.DB
	db  *sql.DB
	tx  *sql.Tx
}

func NewRepository(gdb *gorm.DB, db *sql.DB) Repository {
	return &repository{gdb: gdb, db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{gdb: r.gdb, db: r.db, tx: tx}
}

func (r *repository) Create(ctx context.Context, lr *LeaveRequest) error {
	query := `
        INSERT INTO leave_requests (
            id, employee_id, leave_type_id, period,
            start_date, end_date, days_requested, comments,
            approved, approved_by_id, cancelled, date_requested, date_actioned,
            created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now(), now())
    `
	_, err := r.execer().ExecContext(
		ctx, query,
		lr.ID, lr.EmployeeID, lr.LeaveTypeID, lr.Period,
		lr.StartDate, lr.EndDate, lr.DaysRequested, lr.Comments,
		lr.Approved, lr.ApprovedByID, lr.Cancelled, lr.DateRequested, lr.DateActioned,
	)
	return err
}

func (r *repository) FindByID(ctx context.Context, id string) (*LeaveRequest, error) {
	var lr LeaveRequest
	err := r.gdb.WithContext(ctx).
		Preload("LeaveType").
		First(&lr, "id = ?", id).Error
	return &lr, err
}

// FindByIDForUpdate locks the request row for the remainder of the bound
// transaction. Racing transitions on the same request serialize here; the
// loser re-reads post-commit state and fails its precondition instead of
// double-adjusting the ledger.
func (r *repository) FindByIDForUpdate(ctx context.Context, id string) (*LeaveRequest, error) {
	query := `
        SELECT id, employee_id, leave_type_id, period,
            start_date, end_date, days_requested, comments,
            approved, approved_by_id, cancelled, date_requested, date_actioned
        FROM leave_requests
        WHERE id = $1
        FOR UPDATE
    `
	row := r.queryer().QueryRowContext(ctx, query, id)

	var lr LeaveRequest
	err := row.Scan(
		&lr.ID, &lr.EmployeeID, &lr.LeaveTypeID, &lr.Period,
		&lr.StartDate, &lr.EndDate, &lr.DaysRequested, &lr.Comments,
		&lr.Approved, &lr.ApprovedByID, &lr.Cancelled, &lr.DateRequested, &lr.DateActioned,
	)
	if err != nil {
		return nil, err
	}
	return &lr, nil
}

// UpdateLifecycle persists only the four lifecycle fields; everything else on
// a submitted request is immutable.
func (r *repository) UpdateLifecycle(ctx context.Context, lr *LeaveRequest) error {
	query := `
        UPDATE leave_requests
        SET approved = $2, approved_by_id = $3, cancelled = $4, date_actioned = $5, updated_at = now()
        WHERE id = $1
    `
	_, err := r.execer().ExecContext(
		ctx, query,
		lr.ID, lr.Approved, lr.ApprovedByID, lr.Cancelled, lr.DateActioned,
	)
	return err
}

func (r *repository) FindAllByEmployee(ctx context.Context, employeeID string) ([]LeaveRequest, error) {
	var requests []LeaveRequest
	err := r.gdb.WithContext(ctx).
		Preload("LeaveType").
		Where("employee_id = ?", employeeID).
		Order("date_requested DESC").
		Find(&requests).Error
	return requests, err
}

func (r *repository) FindAll(ctx context.Context) ([]LeaveRequest, error) {
	var requests []LeaveRequest
	err := r.gdb.WithContext(ctx).
		Preload("LeaveType").
		Order("date_requested DESC").
		Find(&requests).Error
	return requests, err
}

func (r *repository) execer() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *repository) queryer() interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}
