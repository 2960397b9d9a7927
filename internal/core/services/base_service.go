package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/SscSPs/ucoin_ledger/internal/apperrors"
	portssvc "github.com/SscSPs/ucoin_ledger/internal/core/ports/services"
	"github.com/SscSPs/ucoin_ledger/internal/platform/clock"
	"github.com/SscSPs/ucoin_ledger/internal/platform/logging"
	"github.com/SscSPs/ucoin_ledger/internal/platform/metrics"
)

// Options carries the collaborators shared by every service.
type Options struct {
	Metrics   *metrics.Metrics
	Validator *validator.Validate
	Clock     clock.Clock
	Notifier  portssvc.BalanceNotifier
}

// Option is a functional option for configuring the services
type Option func(*Options)

// WithMetrics records postings, replays and rejections on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Options) {
		o.Metrics = m
	}
}

// WithValidator replaces the default request validator.
func WithValidator(v *validator.Validate) Option {
	return func(o *Options) {
		o.Validator = v
	}
}

// WithClock sets the clock used for expiry dates and active-event lookup.
func WithClock(c clock.Clock) Option {
	return func(o *Options) {
		o.Clock = c
	}
}

// WithNotifier publishes committed wallet balances to n.
func WithNotifier(n portssvc.BalanceNotifier) Option {
	return func(o *Options) {
		o.Notifier = n
	}
}

func newOptions(opts []Option) Options {
	o := Options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Validator == nil {
		o.Validator = validator.New()
	}
	if o.Clock == nil {
		o.Clock = clock.RealClock{}
	}
	if o.Notifier == nil {
		o.Notifier = portssvc.NopNotifier{}
	}
	return o
}

// BaseService provides common functionality for all services
type BaseService struct {
	metrics  *metrics.Metrics
	validate *validator.Validate
}

func newBaseService(o Options) BaseService {
	return BaseService{metrics: o.Metrics, validate: o.Validator}
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	s.GetLogger(ctx).Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// validateStruct runs the struct tag validation and wraps failures with ErrValidation.
func (s *BaseService) validateStruct(req any) error {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return apperrors.NewValidationError(fmt.Sprintf("field %s failed on the '%s' rule", fe.Namespace(), fe.Tag()))
		}
		return apperrors.NewValidationError(err.Error())
	}
	return nil
}

// rejectionReason maps a business-rule error to a metric label. Storage
// failures have no reason.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, apperrors.ErrEventClosed):
		return "event_closed"
	case errors.Is(err, apperrors.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, apperrors.ErrUnbalanced):
		return "unbalanced"
	case errors.Is(err, apperrors.ErrValidation):
		return "validation"
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	}
	return ""
}

// logFailure logs business rejections at warn level and counts them, and
// everything else at error level.
func (s *BaseService) logFailure(ctx context.Context, err error, msg string, keyvals ...any) {
	if reason := rejectionReason(err); reason != "" {
		s.metrics.ObserveRejection(reason)
		args := append([]any{slog.String("reason", reason), slog.String("error", err.Error())}, keyvals...)
		s.GetLogger(ctx).Warn(msg, args...)
		return
	}
	s.LogError(ctx, err, msg, append(keyvals, slog.Bool("retryable", apperrors.IsRetryable(err)))...)
}

func isNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}
