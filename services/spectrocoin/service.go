// Package spectrocoin reconciles local orders with SpectroCoin payment callbacks.
package spectrocoin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brave-intl/spectrocoin-callback/libs/clients/spectrocoin"
	appctx "github.com/brave-intl/spectrocoin-callback/libs/context"
	"github.com/brave-intl/spectrocoin-callback/libs/logging"
	"github.com/brave-intl/spectrocoin-callback/services/spectrocoin/callback"
	"github.com/brave-intl/spectrocoin-callback/services/spectrocoin/model"
)

const recordTimeout = 5 * time.Second

type orderLedger interface {
	GetOrder(ctx context.Context, id int64) (*model.Order, error)
	AddHistory(ctx context.Context, ev model.HistoryEvent) (*model.HistoryEvent, error)
}

type callbackRecorder interface {
	RecordCallback(ctx context.Context, entry model.CallbackLogEntry) error
}

type merchantClient interface {
	GetOrder(ctx context.Context, id string) (*spectrocoin.Order, error)
}

// Service turns callbacks into order history.
type Service struct {
	ledger    orderLedger
	recorder  callbackRecorder
	merchant  merchantClient
	codes     model.HistoryCodes
	projectID string
}

// NewService returns a Service.
//
// merchant may be nil, in which case modern callbacks fail as upstream errors.
func NewService(ledger orderLedger, recorder callbackRecorder, merchant merchantClient, codes model.HistoryCodes, projectID string) *Service {
	return &Service{
		ledger:    ledger,
		recorder:  recorder,
		merchant:  merchant,
		codes:     codes,
		projectID: projectID,
	}
}

// Process resolves cb and reconciles the order it refers to.
func (s *Service) Process(ctx context.Context, cb callback.Callback) error {
	n, err := s.Resolve(ctx, cb)
	if err != nil {
		return err
	}

	return s.Reconcile(ctx, n)
}

// Resolve returns the canonical notification for cb.
//
// A modern callback carries no status, so the order is fetched from the merchant API first.
func (s *Service) Resolve(ctx context.Context, cb callback.Callback) (model.Notification, error) {
	switch c := cb.(type) {
	case *callback.LegacyCallback:
		return c.Notification(), nil

	case *callback.ModernCallback:
		return s.resolveModern(ctx, c)

	default:
		return model.Notification{}, model.ErrInvalidCallback
	}
}

func (s *Service) resolveModern(ctx context.Context, c *callback.ModernCallback) (model.Notification, error) {
	lg := logging.Logger(ctx, "spectrocoin").With().Str("func", "resolveModern").Str("gateway_id", c.ID()).Logger()

	if s.merchant == nil {
		lg.Error().Msg("modern callback received but merchant api credentials are not configured")
		return model.Notification{}, fmt.Errorf("%w: %w", model.ErrUpstreamAPI, model.ErrMerchantClientDisabled)
	}

	if s.projectID != "" && c.MerchantAPIID() != s.projectID {
		lg.Warn().Str("merchant_api_id", c.MerchantAPIID()).Msg("callback merchant api id does not match configured project")
	}

	order, err := s.merchant.GetOrder(ctx, c.ID())
	if err != nil {
		if errors.Is(err, spectrocoin.ErrInvalidOrder) {
			lg.Warn().Err(err).Msg("merchant api returned an incomplete order")

			return model.Notification{}, model.NewValidationError(model.ErrInvalidUpstreamOrder, model.FieldError{
				Field:  "order",
				Reason: "orderId and status are required",
			})
		}

		lg.Error().Err(err).Msg("failed to fetch order from merchant api")

		return model.Notification{}, fmt.Errorf("%w: %w", model.ErrUpstreamAPI, err)
	}

	return model.Notification{
		Variant:       model.VariantModern,
		OrderRef:      order.OrderID,
		RawStatus:     order.Status,
		MerchantAPIID: c.MerchantAPIID(),
		GatewayID:     c.ID(),
	}, nil
}

// Reconcile applies the history transition of n to the local order.
//
// The order is looked up before anything is written. No history is written when the order is missing,
// when the status is unrecognized, or when the status is NEW.
func (s *Service) Reconcile(ctx context.Context, n model.Notification) (err error) {
	lg := logging.Logger(ctx, "spectrocoin").With().
		Str("func", "Reconcile").
		Str("variant", string(n.Variant)).
		Str("order_ref", n.OrderRef).
		Logger()

	ref, err := model.ParseOrderReference(n.OrderRef)
	if err != nil {
		lg.Warn().Err(err).Msg("invalid order reference")
		return err
	}

	status := model.NormalizeStatus(n.RawStatus)

	defer func() {
		outcome := model.OutcomeFromError(err)
		if err == nil && !s.applies(status) {
			outcome = model.OutcomeNoop
		}

		reconciliationsTotal.WithLabelValues(string(n.Variant), status.String(), string(outcome)).Inc()
		s.record(ctx, n, ref, status, outcome)
	}()

	order, err := s.ledger.GetOrder(ctx, ref.ID)
	if err != nil {
		if errors.Is(err, model.ErrOrderNotFound) {
			lg.Warn().Int64("order_id", ref.ID).Msg("order not found")
			return model.ErrOrderNotFound
		}

		lg.Error().Err(err).Int64("order_id", ref.ID).Msg("failed to get order")

		return fmt.Errorf("%w: %w", model.ErrLedger, err)
	}

	code, apply, err := s.codes.Transition(status)
	if err != nil {
		lg.Error().Str("raw_status", n.RawStatus).Msg("unknown order status")
		return err
	}

	if !apply {
		lg.Debug().Str("status", status.String()).Msg("status requires no change")
		return nil
	}

	if _, err := s.ledger.AddHistory(ctx, model.NewHistoryEvent(order.ID, code, status)); err != nil {
		lg.Error().Err(err).Int64("order_id", order.ID).Msg("failed to add order history")

		return fmt.Errorf("%w: %w", model.ErrLedger, err)
	}

	lg.Info().Int64("order_id", order.ID).Str("status", status.String()).Int("history_code", int(code)).Msg("order history added")

	return nil
}

func (s *Service) applies(status model.Status) bool {
	_, apply, err := s.codes.Transition(status)
	return err == nil && apply
}

func (s *Service) record(ctx context.Context, n model.Notification, ref model.OrderReference, status model.Status, outcome model.Outcome) {
	if s.recorder == nil {
		return
	}

	entry := model.CallbackLogEntry{
		Variant:       n.Variant,
		OrderRef:      n.OrderRef,
		OrderID:       ref.ID,
		RawStatus:     n.RawStatus,
		Status:        status.String(),
		Outcome:       outcome,
		GatewayID:     n.GatewayID,
		MerchantAPIID: n.MerchantAPIID,
	}

	// The audit row outlives a cancelled request.
	rctx, cancel := appctx.Detach(ctx, recordTimeout)
	defer cancel()

	if err := s.recorder.RecordCallback(rctx, entry); err != nil {
		logging.Logger(ctx, "spectrocoin").Error().Err(err).Str("func", "record").Msg("failed to record callback")
	}
}

// Ping reports whether the ledger is reachable.
func (s *Service) Ping(ctx context.Context) error {
	p, ok := s.ledger.(interface{ Ping(context.Context) error })
	if !ok {
		return nil
	}

	return p.Ping(ctx)
}
