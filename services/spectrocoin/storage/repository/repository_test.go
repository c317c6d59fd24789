package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	should "github.com/stretchr/testify/assert"
	must "github.com/stretchr/testify/require"

	"github.com/brave-intl/spectrocoin-callback/services/spectrocoin/model"
	"github.com/brave-intl/spectrocoin-callback/services/spectrocoin/storage/repository"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	must.Equal(t, nil, err)

	t.Cleanup(func() { _ = db.Close() })

	return sqlx.NewDb(db, "postgres"), mock
}

var orderColumns = []string{"id", "order_status_id", "payment_method", "created_at", "updated_at"}

func TestOrder_Get(t *testing.T) {
	type tcExpected struct {
		order *model.Order
		err   error
	}

	type testCase struct {
		name  string
		given func(mock sqlmock.Sqlmock)
		exp   tcExpected
	}

	now := time.Now().UTC()

	tests := []testCase{
		{
			name: "found",
			given: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(orderColumns).AddRow(int64(500), int64(1), "spectrocoin", now, now)
				mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = $1")).WithArgs(int64(500)).WillReturnRows(rows)
			},
			exp: tcExpected{
				order: &model.Order{ID: 500, StatusID: 1, PaymentMethod: "spectrocoin", CreatedAt: now, UpdatedAt: now},
			},
		},

		{
			name: "not_found",
			given: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = $1")).WithArgs(int64(500)).WillReturnRows(sqlmock.NewRows(orderColumns))
			},
			exp: tcExpected{err: model.ErrOrderNotFound},
		},

		{
			name: "db_error",
			given: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = $1")).WithArgs(int64(500)).WillReturnError(errors.New("connection reset"))
			},
			exp: tcExpected{err: errors.New("connection reset")},
		},
	}

	repo := repository.NewOrder()

	for i := range tests {
		tc := tests[i]

		t.Run(tc.name, func(t *testing.T) {
			dbi, mock := newMockDB(t)
			tc.given(mock)

			actual, err := repo.Get(context.Background(), dbi, 500)
			must.Equal(t, tc.exp.err, err)

			should.Equal(t, tc.exp.order, actual)
			should.Equal(t, nil, mock.ExpectationsWereMet())
		})
	}
}

func TestOrder_SetStatus(t *testing.T) {
	type testCase struct {
		name  string
		given int64
		exp   error
	}

	tests := []testCase{
		{name: "updated", given: 1},
		{name: "not_found", given: 0, exp: model.ErrOrderNotFound},
	}

	repo := repository.NewOrder()

	for i := range tests {
		tc := tests[i]

		t.Run(tc.name, func(t *testing.T) {
			dbi, mock := newMockDB(t)

			mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET order_status_id = $2")).
				WithArgs(int64(500), int64(15)).
				WillReturnResult(sqlmock.NewResult(0, tc.given))

			err := repo.SetStatus(context.Background(), dbi, 500, model.DefaultHistoryCodes.Complete)
			should.Equal(t, tc.exp, err)
			should.Equal(t, nil, mock.ExpectationsWereMet())
		})
	}
}

func TestOrderHistory_Insert(t *testing.T) {
	dbi, mock := newMockDB(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "order_id", "order_status_id", "comment", "notify", "created_at"}).
		AddRow(int64(1), int64(500), int64(2), "SpectroCoin: status PENDING", false, now)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO order_history")).
		WithArgs(int64(500), int64(2), "SpectroCoin: status PENDING", false).
		WillReturnRows(rows)

	repo := repository.NewOrderHistory()

	actual, err := repo.Insert(context.Background(), dbi, model.NewHistoryEvent(500, model.DefaultHistoryCodes.Processing, model.StatusPending))
	must.Equal(t, nil, err)

	should.Equal(t, &model.HistoryEvent{
		ID:        1,
		OrderID:   500,
		Code:      2,
		Comment:   "SpectroCoin: status PENDING",
		CreatedAt: now,
	}, actual)
	should.Equal(t, nil, mock.ExpectationsWereMet())
}

func TestOrderHistory_List(t *testing.T) {
	dbi, mock := newMockDB(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "order_id", "order_status_id", "comment", "notify", "created_at"}).
		AddRow(int64(1), int64(500), int64(2), "SpectroCoin: status PENDING", false, now).
		AddRow(int64(2), int64(500), int64(15), "SpectroCoin: status PAID", false, now)

	mock.ExpectQuery(regexp.QuoteMeta("FROM order_history WHERE order_id = $1")).WithArgs(int64(500)).WillReturnRows(rows)

	actual, err := repository.NewOrderHistory().List(context.Background(), dbi, 500)
	must.Equal(t, nil, err)
	must.Len(t, actual, 2)

	should.Equal(t, model.HistoryCode(2), actual[0].Code)
	should.Equal(t, model.HistoryCode(15), actual[1].Code)
	should.Equal(t, nil, mock.ExpectationsWereMet())
}

func TestCallbackLog_Insert(t *testing.T) {
	dbi, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO callback_log")).
		WithArgs(sqlmock.AnyArg(), "modern", "700-x", int64(700), "paid", "PAID", "applied", "uuid-1", "mapi-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repository.NewCallbackLog().Insert(context.Background(), dbi, model.CallbackLogEntry{
		Variant:       model.VariantModern,
		OrderRef:      "700-x",
		OrderID:       700,
		RawStatus:     "paid",
		Status:        "PAID",
		Outcome:       model.OutcomeApplied,
		GatewayID:     "uuid-1",
		MerchantAPIID: "mapi-1",
	})
	must.Equal(t, nil, err)
	should.Equal(t, nil, mock.ExpectationsWereMet())
}
