package model

import (
	"strings"
)

// Status is the canonical payment status of an order.
type Status int

const (
	StatusUnrecognized Status = iota
	StatusNew
	StatusPending
	StatusPaid
	StatusFailed
	StatusExpired
)

// statusTable covers both the current word spellings and the numeric codes the legacy API sent.
var statusTable = map[string]Status{
	"new":     StatusNew,
	"1":       StatusNew,
	"pending": StatusPending,
	"2":       StatusPending,
	"paid":    StatusPaid,
	"3":       StatusPaid,
	"failed":  StatusFailed,
	"4":       StatusFailed,
	"expired": StatusExpired,
	"5":       StatusExpired,
}

// NormalizeStatus maps a gateway status spelling to a Status.
//
// Unknown spellings yield StatusUnrecognized.
func NormalizeStatus(raw string) Status {
	s, ok := statusTable[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return StatusUnrecognized
	}

	return s
}

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "NEW"
	case StatusPending:
		return "PENDING"
	case StatusPaid:
		return "PAID"
	case StatusFailed:
		return "FAILED"
	case StatusExpired:
		return "EXPIRED"
	default:
		return "UNRECOGNIZED"
	}
}

func (s Status) IsRecognized() bool {
	return s != StatusUnrecognized
}

// HistoryCode is a local order status id written into order history.
type HistoryCode int

// HistoryCodes holds the local history codes each status transitions to.
type HistoryCodes struct {
	Processing HistoryCode
	Complete   HistoryCode
	Failed     HistoryCode
	Expired    HistoryCode
}

// DefaultHistoryCodes matches the stock order statuses of the store.
var DefaultHistoryCodes = HistoryCodes{
	Processing: 2,
	Complete:   15,
	Failed:     7,
	Expired:    14,
}

// Transition returns the history code for s.
//
// The second value is false when s requires no local change.
// An unrecognized status returns ErrUnrecognizedStatus.
func (c HistoryCodes) Transition(s Status) (HistoryCode, bool, error) {
	switch s {
	case StatusNew:
		return 0, false, nil
	case StatusPending:
		return c.Processing, true, nil
	case StatusPaid:
		return c.Complete, true, nil
	case StatusFailed:
		return c.Failed, true, nil
	case StatusExpired:
		return c.Expired, true, nil
	default:
		return 0, false, ErrUnrecognizedStatus
	}
}
