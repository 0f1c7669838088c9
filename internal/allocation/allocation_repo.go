package allocation

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

//go:generate mockgen -source=allocation_repo.go -destination=mock/allocation_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, a *LeaveAllocation) error
	FindByScope(ctx context.Context, employeeID, leaveTypeID string, period int) (*LeaveAllocation, error)
	FindAllByEmployee(ctx context.Context, employeeID string, period int) ([]LeaveAllocation, error)
	Exists(ctx context.Context, employeeID, leaveTypeID string, period int) (bool, error)
	Debit(ctx context.Context, employeeID, leaveTypeID string, period, days int) (bool, error)
	Credit(ctx context.Context, employeeID, leaveTypeID string, period, days int) (bool, error)
}

// repository reads through gorm; every write that can be part of a lifecycle
// transaction goes through raw SQL on the execer so it honors the caller's tx.
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

func (r *repository) Create(ctx context.Context, a *LeaveAllocation) error {
	query := `
        INSERT INTO leave_allocations (
            id, employee_id, leave_type_id, period, number_of_days, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, now(), now())
    `
	_, err := r.execer().ExecContext(
		ctx, query,
		a.ID, a.EmployeeID, a.LeaveTypeID, a.Period, a.NumberOfDays,
	)
	return err
}

func (r *repository) FindByScope(ctx context.Context, employeeID, leaveTypeID string, period int) (*LeaveAllocation, error) {
	var a LeaveAllocation
	err := r.gdb.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Where("leave_type_id = ?", leaveTypeID).
		Where("period = ?", period).
		First(&a).Error
	return &a, err
}

func (r *repository) FindAllByEmployee(ctx context.Context, employeeID string, period int) ([]LeaveAllocation, error) {
	var allocations []LeaveAllocation
	err := r.gdb.WithContext(ctx).
		Preload("LeaveType").
		Where("employee_id = ?", employeeID).
		Where("period = ?", period).
		Find(&allocations).Error
	return allocations, err
}

func (r *repository) Exists(ctx context.Context, employeeID, leaveTypeID string, period int) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM leave_allocations
            WHERE employee_id = $1 AND leave_type_id = $2 AND period = $3
        )
    `
	var exists bool
	err := r.queryer().QueryRowContext(ctx, query, employeeID, leaveTypeID, period).Scan(&exists)
	return exists, err
}

// Debit decrements the balance only when enough days remain. The conditional
// update is the non-negativity enforcement point: no row matches when the
// balance is short, so the ledger is never driven below zero.
func (r *repository) Debit(ctx context.Context, employeeID, leaveTypeID string, period, days int) (bool, error) {
	query := `
        UPDATE leave_allocations
        SET number_of_days = number_of_days - $4, updated_at = now()
        WHERE employee_id = $1 AND leave_type_id = $2 AND period = $3
            AND number_of_days >= $4
    `
	res, err := r.execer().ExecContext(ctx, query, employeeID, leaveTypeID, period, days)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Credit is unconditional; restoring days can never fail on balance.
func (r *repository) Credit(ctx context.Context, employeeID, leaveTypeID string, period, days int) (bool, error) {
	query := `
        UPDATE leave_allocations
        SET number_of_days = number_of_days + $4, updated_at = now()
        WHERE employee_id = $1 AND leave_type_id = $2 AND period = $3
    `
	res, err := r.execer().ExecContext(ctx, query, employeeID, leaveTypeID, period, days)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
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
