package spectrocoin

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/brave-intl/spectrocoin-callback/libs/datastore"
	"github.com/brave-intl/spectrocoin-callback/services/spectrocoin/model"
	"github.com/brave-intl/spectrocoin-callback/services/spectrocoin/storage/repository"
)

type orderStore interface {
	Get(ctx context.Context, dbi sqlx.QueryerContext, id int64) (*model.Order, error)
	SetStatus(ctx context.Context, dbi sqlx.ExecerContext, id int64, code model.HistoryCode) error
}

type orderHistoryStore interface {
	Insert(ctx context.Context, dbi sqlx.QueryerContext, ev model.HistoryEvent) (*model.HistoryEvent, error)
}

type callbackLogStore interface {
	Insert(ctx context.Context, dbi sqlx.ExecerContext, entry model.CallbackLogEntry) error
}

// Ledger is the order ledger backed by postgres.
type Ledger struct {
	ds      datastore.Datastore
	orders  orderStore
	history orderHistoryStore
	cblog   callbackLogStore
}

// NewLedger returns a Ledger on top of ds.
func NewLedger(ds datastore.Datastore) *Ledger {
	return &Ledger{
		ds:      ds,
		orders:  repository.NewOrder(),
		history: repository.NewOrderHistory(),
		cblog:   repository.NewCallbackLog(),
	}
}

// GetOrder returns the order, or model.ErrOrderNotFound.
func (l *Ledger) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	return l.orders.Get(ctx, l.ds.RawDB(), id)
}

// AddHistory appends ev and moves the order to its status in one transaction.
func (l *Ledger) AddHistory(ctx context.Context, ev model.HistoryEvent) (*model.HistoryEvent, error) {
	tx, err := l.ds.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer l.ds.RollbackTx(tx)

	result, err := l.history.Insert(ctx, tx, ev)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order history: %w", err)
	}

	if err := l.orders.SetStatus(ctx, tx, ev.OrderID, ev.Code); err != nil {
		return nil, fmt.Errorf("failed to set order status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order history: %w", err)
	}

	return result, nil
}

// RecordCallback writes entry to the callback audit log.
func (l *Ledger) RecordCallback(ctx context.Context, entry model.CallbackLogEntry) error {
	return l.cblog.Insert(ctx, l.ds.RawDB(), entry)
}

// Ping checks the database connection.
func (l *Ledger) Ping(ctx context.Context) error {
	return l.ds.RawDB().PingContext(ctx)
}
