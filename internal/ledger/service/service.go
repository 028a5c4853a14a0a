// Package service implements the custody ledger: access control, the
// configuration singleton, deposit classification, the time-gated withdrawal
// and the vesting bridge.
//
// Every mutating operation runs behind one service-wide lock and follows the
// same shape: authorize, validate, compute the next state from a snapshot,
// then apply it in a single unit of work (tx.Runner). Irreversible token calls
// run last inside the unit, so a failure anywhere earlier leaves the ledger
// untouched. Audit events are published only once the whole unit succeeded.
// Stores that do not take part in a SQL transaction are restored from an undo
// log when the unit fails.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"custody/internal/ledger/metrics"
	"custody/internal/ledger/models"
	"custody/internal/ledger/ports"
	"custody/pkg/domain"
	dErrors "custody/pkg/domain-errors"
	"custody/pkg/platform/audit"
	"custody/pkg/platform/sentinel"
	txcontext "custody/pkg/platform/tx"
	"custody/pkg/requestcontext"
)

const tracerName = "custody/internal/ledger/service"

// Stores groups the persistence ports the ledger owns.
type Stores struct {
	Accounts ports.AccountStore
	Admins   ports.AdminStore
	Settings ports.SettingsStore
}

// Service is the custody ledger.
type Service struct {
	mu sync.Mutex

	accounts ports.AccountStore
	admins   ports.AdminStore
	settings ports.SettingsStore
	token    ports.Token
	registry ports.VestingRegistry

	tx             txcontext.Runner
	rollsBack      bool
	auditPublisher ports.AuditPublisher
	auditTrail     ports.AuditTrail
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTxRunner sets the unit-of-work runner. Defaults to tx.NoopRunner, which
// suits the in-memory stores.
func WithTxRunner(runner txcontext.Runner) Option {
	return func(s *Service) {
		if runner != nil {
			s.tx = runner
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// New constructs the ledger from its construction parameters. The parameters
// are always validated. The first start seeds the admin set and the settings
// in one unit of work and emits one AdminAdded per initial admin from the zero
// actor. Later starts against populated stores keep the persisted state.
func New(ctx context.Context, params models.Params, stores Stores, token ports.Token, registry ports.VestingRegistry, opts ...Option) (*Service, error) {
	if stores.Accounts == nil {
		return nil, errors.New("account store is required")
	}
	if stores.Admins == nil {
		return nil, errors.New("admin store is required")
	}
	if stores.Settings == nil {
		return nil, errors.New("settings store is required")
	}
	if token == nil {
		return nil, errors.New("token is required")
	}
	if registry == nil {
		return nil, errors.New("vesting registry is required")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	s := &Service{
		accounts: stores.Accounts,
		admins:   stores.Admins,
		settings: stores.Settings,
		token:    token,
		registry: registry,
		tx:       txcontext.NoopRunner{},
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rollsBack = txcontext.RollsBack(s.tx)

	if err := s.bootstrap(ctx, params); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) bootstrap(ctx context.Context, params models.Params) error {
	_, err := s.settings.Load(ctx)
	if err == nil {
		if s.logger != nil {
			s.logger.InfoContext(ctx, "ledger state found, keeping persisted settings and admins")
		}
		return nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load settings")
	}

	// Construction has no caller.
	ctx = requestcontext.WithCaller(ctx, domain.ZeroAddress)
	err = s.runInTx(ctx, func(ctx context.Context, u *unit) error {
		for _, admin := range params.Admins {
			if err := s.admins.Add(ctx, admin); err != nil {
				if errors.Is(err, sentinel.ErrConflict) {
					continue
				}
				return err
			}
			u.onAbort(func(ctx context.Context) error { return s.admins.Remove(ctx, admin) })
			u.record(event(ctx, audit.EventAdminAdded, admin, nil, nil))
		}
		return s.settings.Save(ctx, params.Settings())
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to initialize ledger")
	}
	for _, admin := range params.Admins {
		ports.LogAudit(ctx, s.logger, audit.EventAdminAdded, "admin", admin.Hex(), "actor", domain.ZeroAddress.Hex())
	}
	return nil
}

// callerFrom returns the authenticated principal carried by ctx.
func callerFrom(ctx context.Context) (domain.Address, error) {
	caller := requestcontext.Caller(ctx)
	if domain.IsZero(caller) {
		return domain.ZeroAddress, dErrors.New(dErrors.CodeUnauthorized, "caller is required")
	}
	return caller, nil
}

// requireAdmin resolves the caller and checks admin membership. Callers must
// hold s.mu.
func (s *Service) requireAdmin(ctx context.Context) (domain.Address, error) {
	caller, err := callerFrom(ctx)
	if err != nil {
		return domain.ZeroAddress, err
	}
	ok, err := s.admins.Contains(ctx, caller)
	if err != nil {
		return domain.ZeroAddress, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check admin membership")
	}
	if !ok {
		return domain.ZeroAddress, models.Fail(models.ErrUnauthorized)
	}
	return caller, nil
}

func (s *Service) loadSettings(ctx context.Context) (models.Settings, error) {
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return models.Settings{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load settings")
	}
	return settings, nil
}

func (s *Service) loadAccount(ctx context.Context, owner domain.Address) (*models.Account, error) {
	acct, err := s.accounts.Get(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return acct, nil
}

// observe starts a span for op and returns the function that ends it and
// records the outcome.
func (s *Service) observe(ctx context.Context, op string) (context.Context, func(err error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "ledger."+op,
		trace.WithAttributes(attribute.String("custody.caller", requestcontext.Caller(ctx).Hex())))
	return ctx, func(err error) {
		result := "ok"
		if err != nil {
			result = string(dErrors.CodeOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		s.metrics.ObserveOperation(op, result, time.Since(start))
	}
}

// wrapInternal wraps infrastructure failures; coded errors pass through.
func wrapInternal(err error, message string) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, message)
}
