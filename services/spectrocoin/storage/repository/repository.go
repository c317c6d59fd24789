// Package repository provides access to data available in SQL-based data store.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	uuid "github.com/satori/go.uuid"

	"github.com/brave-intl/spectrocoin-callback/services/spectrocoin/model"
)

type Order struct{}

func NewOrder() *Order { return &Order{} }

// Get retrieves the order for the given id.
func (r *Order) Get(ctx context.Context, dbi sqlx.QueryerContext, id int64) (*model.Order, error) {
	const q = `SELECT id, order_status_id, payment_method, created_at, updated_at FROM orders WHERE id = $1`

	result := &model.Order{}
	if err := sqlx.GetContext(ctx, dbi, result, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrOrderNotFound
		}

		return nil, err
	}

	return result, nil
}

// SetStatus sets the current status of the order to code.
func (r *Order) SetStatus(ctx context.Context, dbi sqlx.ExecerContext, id int64, code model.HistoryCode) error {
	const q = `UPDATE orders SET order_status_id = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`

	result, err := dbi.ExecContext(ctx, q, id, code)
	if err != nil {
		return err
	}

	numAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if numAffected == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}

type OrderHistory struct{}

func NewOrderHistory() *OrderHistory { return &OrderHistory{} }

// Insert appends ev to the history of its order.
func (r *OrderHistory) Insert(ctx context.Context, dbi sqlx.QueryerContext, ev model.HistoryEvent) (*model.HistoryEvent, error) {
	const q = `INSERT INTO order_history (order_id, order_status_id, comment, notify)
	VALUES ($1, $2, $3, $4)
	RETURNING id, order_id, order_status_id, comment, notify, created_at`

	result := &model.HistoryEvent{}
	if err := sqlx.GetContext(ctx, dbi, result, q, ev.OrderID, ev.Code, ev.Comment, ev.Notify); err != nil {
		return nil, err
	}

	return result, nil
}

// List returns the history of the order, oldest first.
func (r *OrderHistory) List(ctx context.Context, dbi sqlx.QueryerContext, orderID int64) ([]model.HistoryEvent, error) {
	const q = `SELECT id, order_id, order_status_id, comment, notify, created_at
	FROM order_history WHERE order_id = $1 ORDER BY id`

	var result []model.HistoryEvent
	if err := sqlx.SelectContext(ctx, dbi, &result, q, orderID); err != nil {
		return nil, err
	}

	return result, nil
}

type CallbackLog struct{}

func NewCallbackLog() *CallbackLog { return &CallbackLog{} }

// Insert records entry, assigning it an id when it has none.
func (r *CallbackLog) Insert(ctx context.Context, dbi sqlx.ExecerContext, entry model.CallbackLogEntry) error {
	const q = `INSERT INTO callback_log
		(id, variant, order_ref, order_id, raw_status, status, outcome, gateway_id, merchant_api_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	if entry.ID == "" {
		entry.ID = uuid.NewV4().String()
	}

	_, err := dbi.ExecContext(
		ctx,
		q,
		entry.ID,
		entry.Variant,
		entry.OrderRef,
		entry.OrderID,
		entry.RawStatus,
		entry.Status,
		entry.Outcome,
		entry.GatewayID,
		entry.MerchantAPIID,
	)

	return err
}
