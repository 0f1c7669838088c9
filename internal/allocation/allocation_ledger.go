package allocation

import (
	"context"
	"database/sql"
	"errors"

	allocationerrors "leavedesk/internal/allocation/errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Ledger is the balance arithmetic over allocation rows. Debit and Credit are
// meant to run inside the same transaction as the request state write that
// triggers them; bind the transaction first with WithTx.
//
//go:generate mockgen -source=allocation_ledger.go -destination=mock/allocation_ledger_mock.go -package=mock
type Ledger interface {
	WithTx(tx *sql.Tx) Ledger
	Balance(ctx context.Context, employeeID, leaveTypeID string, period int) (int, error)
	Debit(ctx context.Context, employeeID, leaveTypeID string, period, days int) error
	Credit(ctx context.Context, employeeID, leaveTypeID string, period, days int) error
}

type ledger struct {
	repo   Repository
	logger *zap.Logger
}

func NewLedger(repo Repository, logger ...*zap.Logger) Ledger {
	l := zap.L().Named("allocation.ledger")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("allocation.ledger")
	}
	return &ledger{repo: repo, logger: l}
}

func (l *ledger) WithTx(tx *sql.Tx) Ledger {
	return &ledger{repo: l.repo.WithTx(tx), logger: l.logger}
}

func (l *ledger) Balance(ctx context.Context, employeeID, leaveTypeID string, period int) (int, error) {
	a, err := l.repo.FindByScope(ctx, employeeID, leaveTypeID, period)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, allocationerrors.ErrAllocationNotFound
		}
		return 0, err
	}
	return a.NumberOfDays, nil
}

func (l *ledger) Debit(ctx context.Context, employeeID, leaveTypeID string, period, days int) error {
	if days < 0 {
		return allocationerrors.ErrNegativeDays
	}

	ok, err := l.repo.Debit(ctx, employeeID, leaveTypeID, period, days)
	if err != nil {
		l.logger.Error("ledger debit failed",
			zap.String("employee_id", employeeID),
			zap.String("leave_type_id", leaveTypeID),
			zap.Int("period", period),
			zap.Error(err),
		)
		return err
	}
	if ok {
		return nil
	}

	// No row updated: either the allocation is missing or the balance is short.
	exists, err := l.repo.Exists(ctx, employeeID, leaveTypeID, period)
	if err != nil {
		return err
	}
	if !exists {
		return allocationerrors.ErrAllocationNotFound
	}

	l.logger.Warn("ledger debit rejected, insufficient balance",
		zap.String("employee_id", employeeID),
		zap.String("leave_type_id", leaveTypeID),
		zap.Int("period", period),
		zap.Int("days", days),
	)
	return allocationerrors.ErrInsufficientBalance
}

func (l *ledger) Credit(ctx context.Context, employeeID, leaveTypeID string, period, days int) error {
	if days < 0 {
		return allocationerrors.ErrNegativeDays
	}

	ok, err := l.repo.Credit(ctx, employeeID, leaveTypeID, period, days)
	if err != nil {
		l.logger.Error("ledger credit failed",
			zap.String("employee_id", employeeID),
			zap.String("leave_type_id", leaveTypeID),
			zap.Int("period", period),
			zap.Error(err),
		)
		return err
	}
	if !ok {
		return allocationerrors.ErrAllocationNotFound
	}
	return nil
}
