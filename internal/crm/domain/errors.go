package domain

import "errors"

var (
	ErrClientNotFound   = errors.New("client not found")
	ErrDealNotFound     = errors.New("deal not found")
	ErrNoUnpaidDeal     = errors.New("no unpaid active deal")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrInvalidDealState = errors.New("invalid deal status")
)
