package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/Abdulrahman-Hijazy/Currency-Conversion-API-Task/pkg/provider"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrInvalidRequest      = errors.New("missing required parameter")
	ErrInvalidAmount       = errors.New("amount must be a positive number")
	ErrUnknownCurrency     = errors.New("unknown currency code")
	ErrUpstreamUnavailable = errors.New("rate provider unavailable")
)

// Outcome labels used in logs and metrics.
const (
	OutcomeSuccess         = "success"
	OutcomeInvalidRequest  = "invalid_request"
	OutcomeInvalidAmount   = "invalid_amount"
	OutcomeUnknownCurrency = "unknown_currency"
	OutcomeUpstreamFailure = "upstream_failure"
)

const (
	// resultPlaces is the number of fraction digits in ConvertedAmount.
	resultPlaces = 2

	// decimal orders of magnitude representable as a float64
	maxMagnitude = 309
	minMagnitude = -323
)

// RateProvider fetches the rate table for a base currency.
type RateProvider interface {
	FetchRates(ctx context.Context, base string) (provider.RateTable, error)
}

// CurrencyServiceInterface is what the HTTP layer depends on.
type CurrencyServiceInterface interface {
	Convert(ctx context.Context, req ConversionRequest) (*ConversionResult, error)
}

// ConversionRequest carries the raw caller input.
type ConversionRequest struct {
	From   string
	To     string
	Amount string
}

type ConversionResult struct {
	From            string
	To              string
	Amount          string // echoed as received
	ConvertedAmount string // rounded half away from zero, two fraction digits
	Rate            float64
}

type CurrencyService struct {
	provider RateProvider
	logger   *zap.Logger
	recorder func(outcome string)
}

type Option func(*CurrencyService)

// WithOutcomeRecorder registers a callback invoked once per Convert call
// with the outcome classification.
func WithOutcomeRecorder(fn func(outcome string)) Option {
	return func(s *CurrencyService) { s.recorder = fn }
}

func NewCurrencyService(p RateProvider, logger *zap.Logger, opts ...Option) *CurrencyService {
	s := &CurrencyService{
		provider: p,
		logger:   logger,
		recorder: func(string) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseAmount parses a caller supplied amount. Only decimal values strictly
// greater than zero that are representable as a finite, non-zero float64
// are accepted; 5e-324 is the smallest.
func ParseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	// Bound the magnitude before any arbitrary precision work, then require
	// the value to survive as a non-zero finite float64.
	magnitude := amount.NumDigits() + int(amount.Exponent())
	if magnitude > maxMagnitude || magnitude < minMagnitude {
		return decimal.Zero, fmt.Errorf("%w: %q out of range", ErrInvalidAmount, raw)
	}
	if f := amount.InexactFloat64(); f <= 0 || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("%w: %q out of range", ErrInvalidAmount, raw)
	}
	return amount, nil
}

// Convert validates req, fetches the rate table for req.From with a single
// upstream call and converts req.Amount into req.To.
func (s *CurrencyService) Convert(ctx context.Context, req ConversionRequest) (*ConversionResult, error) {
	log := s.logger.With(
		zap.String("from", req.From),
		zap.String("to", req.To),
		zap.String("amount", req.Amount),
	)

	if req.From == "" || req.To == "" || req.Amount == "" {
		s.finish(log, OutcomeInvalidRequest, nil)
		return nil, ErrInvalidRequest
	}

	amount, err := ParseAmount(req.Amount)
	if err != nil {
		s.finish(log, OutcomeInvalidAmount, nil)
		return nil, err
	}

	rates, err := s.provider.FetchRates(ctx, req.From)
	if err != nil {
		s.finish(log, OutcomeUpstreamFailure, err)
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}

	rate, ok := rates.Rate(req.To)
	if !ok || rate <= 0 {
		s.finish(log, OutcomeUnknownCurrency, nil)
		return nil, fmt.Errorf("%w: %s", ErrUnknownCurrency, req.To)
	}

	converted := amount.Mul(decimal.NewFromFloat(rate)).Round(resultPlaces)

	result := &ConversionResult{
		From:            req.From,
		To:              req.To,
		Amount:          req.Amount,
		ConvertedAmount: converted.StringFixed(resultPlaces),
		Rate:            rate,
	}

	s.finish(log.With(
		zap.Float64("rate", rate),
		zap.String("converted_amount", result.ConvertedAmount),
	), OutcomeSuccess, nil)

	return result, nil
}

func (s *CurrencyService) finish(log *zap.Logger, outcome string, cause error) {
	s.recorder(outcome)

	switch outcome {
	case OutcomeSuccess:
		log.Info("Currency conversion completed", zap.String("outcome", outcome))
	case OutcomeUpstreamFailure:
		log.Error("Failed to fetch exchange rate", zap.String("outcome", outcome), zap.Error(cause))
	default:
		log.Warn("Conversion request rejected", zap.String("outcome", outcome))
	}
}

var _ CurrencyServiceInterface = (*CurrencyService)(nil)
