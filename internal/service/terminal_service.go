package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-pos-terminal/internal/cart"
	"go-pos-terminal/internal/metrics"
	"go-pos-terminal/internal/model"
	"go-pos-terminal/internal/repository"
	"go-pos-terminal/internal/terminal"
	"go-pos-terminal/internal/ws"
	"go-pos-terminal/pkg/validator"

	"go.uber.org/zap"
)

var (
	ErrInvalidEvent = errors.New("invalid terminal event")
	ErrForbidden    = errors.New("forbidden")
)

type TerminalService interface {
	Open(ctx context.Context, p *Principal) terminal.Reply
	Dispatch(ctx context.Context, p *Principal, ev terminal.Event) (terminal.Reply, error)
	DispatchFrom(ctx context.Context, p *Principal, ev terminal.Event, origin ws.Client) (terminal.Reply, error)
	Submissions(filter repository.SubmissionFilter) ([]model.SubmissionRecord, error)
	Summary(startDate, endDate time.Time) (*repository.SubmissionSummary, error)
	CloseSession(key string)
	Sweep() int
}

type TerminalOptions struct {
	IdleTimeout time.Duration
}

type terminalService struct {
	registry *terminal.Registry
	journal  repository.SubmissionRepository
	hub      *ws.Hub
	metrics  *metrics.Metrics
	log      *zap.Logger
	opts     TerminalOptions
}

func NewTerminalService(registry *terminal.Registry, journal repository.SubmissionRepository, hub *ws.Hub, m *metrics.Metrics, log *zap.Logger, opts TerminalOptions) TerminalService {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 12 * time.Hour
	}
	return &terminalService{
		registry: registry,
		journal:  journal,
		hub:      hub,
		metrics:  m,
		log:      log,
		opts:     opts,
	}
}

// Open returns the cashier's current screen, starting a session and loading
// the catalog if this login has none yet.
func (s *terminalService) Open(ctx context.Context, p *Principal) terminal.Reply {
	ctrl := s.session(ctx, p)
	return terminal.Reply{View: ctrl.View()}
}

func (s *terminalService) Dispatch(ctx context.Context, p *Principal, ev terminal.Event) (terminal.Reply, error) {
	return s.DispatchFrom(ctx, p, ev, nil)
}

// DispatchFrom is Dispatch for an event read from a socket. The caller answers
// origin itself; the session's other connections get the reply through the hub.
func (s *terminalService) DispatchFrom(ctx context.Context, p *Principal, ev terminal.Event, origin ws.Client) (terminal.Reply, error) {
	if errs := validator.ValidateStruct(ev); len(errs) > 0 {
		return terminal.Reply{}, fmt.Errorf("%w: field '%s' failed on tag '%s'", ErrInvalidEvent, errs[0].FailedField, errs[0].Tag)
	}
	if ev.Type == terminal.EventKey {
		if mapped, ok := terminal.ShortcutFor(ev); ok {
			ev = mapped
		}
	}
	if ev.Type == terminal.EventPay && !p.HasPrivilege(model.PrivSaleCreate) {
		return terminal.Reply{}, fmt.Errorf("%w: requires '%s' privilege", ErrForbidden, model.PrivSaleCreate)
	}

	ctrl := s.session(ctx, p)
	reply := ctrl.Handle(ctx, ev)
	s.count(ev, reply.Err)

	if reply.Err != nil && reply.Submission == nil && !isCashierError(reply.Err) {
		s.log.Warn("terminal event failed",
			zap.String("cashier", p.Username),
			zap.String("event", string(ev.Type)),
			zap.Error(reply.Err),
		)
	}

	if sub := reply.Submission; sub != nil {
		s.record(p, sub)
		if sub.Err == nil {
			// Stock moved; the next screen should show it.
			if err := ctrl.Reload(ctx); err != nil {
				s.log.Warn("catalog reload after sale failed", zap.Error(err))
			}
			reply.View = ctrl.View()
		}
	}

	s.publish(p.TokenVersion, reply, origin)
	return reply, nil
}

func (s *terminalService) Submissions(filter repository.SubmissionFilter) ([]model.SubmissionRecord, error) {
	return s.journal.List(filter)
}

func (s *terminalService) Summary(startDate, endDate time.Time) (*repository.SubmissionSummary, error) {
	return s.journal.GetSummary(startDate, endDate)
}

func (s *terminalService) CloseSession(key string) {
	s.registry.Drop(key)
	s.kick(key)
	s.gauge()
}

// Sweep drops idle sessions and returns how many went.
func (s *terminalService) Sweep() int {
	dropped := s.registry.Sweep(s.opts.IdleTimeout)
	for _, key := range dropped {
		s.kick(key)
	}
	s.gauge()
	if len(dropped) > 0 {
		s.log.Info("idle terminal sessions closed", zap.Int("count", len(dropped)))
	}
	return len(dropped)
}

func (s *terminalService) session(ctx context.Context, p *Principal) *terminal.Controller {
	ctrl, created := s.registry.Get(p.TokenVersion, p.Username)
	if !created {
		return ctrl
	}
	s.gauge()
	s.log.Info("terminal session opened", zap.String("cashier", p.Username))
	if err := ctrl.Reload(ctx); err != nil {
		s.log.Warn("initial catalog load failed", zap.String("cashier", p.Username), zap.Error(err))
	}
	return ctrl
}

func (s *terminalService) record(p *Principal, sub *terminal.Submission) {
	rec := &model.SubmissionRecord{
		IdempotencyKey: sub.IdempotencyKey,
		Cashier:        p.Username,
		Session:        p.TokenVersion,
		Status:         model.SubmissionSubmitted,
		ItemCount:      sub.Totals.Count,
		Subtotal:       sub.Totals.Subtotal.Round(2),
		Discount:       sub.Totals.Discount,
		Tax:            sub.Totals.Tax,
		Total:          sub.Totals.Total.Round(2),
	}
	rec.CreatedBy = p.UserID.String()
	rec.UpdatedBy = p.UserID.String()
	if sub.Receipt != nil {
		rec.SaleID = sub.Receipt.SaleID
	}
	if sub.Err != nil {
		rec.Status = model.SubmissionFailed
		rec.Error = sub.Err.Error()
	}

	if s.metrics != nil {
		s.metrics.Sales.WithLabelValues(string(rec.Status)).Inc()
		// Counters cannot go down; a discount larger than the sale adds nothing.
		if sub.Err == nil && sub.Totals.Total.IsPositive() {
			s.metrics.SaleTotal.Add(sub.Totals.Total.InexactFloat64())
		}
	}

	fields := []zap.Field{
		zap.String("cashier", p.Username),
		zap.String("idempotency_key", sub.IdempotencyKey.String()),
		zap.Int("items", sub.Totals.Count),
		zap.String("total", cart.Money(sub.Totals.Total)),
	}
	if sub.Err != nil {
		s.log.Warn("sale rejected", append(fields, zap.Error(sub.Err))...)
	} else {
		s.log.Info("sale submitted", append(fields, zap.String("sale_id", rec.SaleID))...)
	}

	if s.journal == nil {
		return
	}
	if err := s.journal.Create(rec); err != nil {
		s.log.Error("failed to journal submission", zap.String("idempotency_key", sub.IdempotencyKey.String()), zap.Error(err))
	}
}

func (s *terminalService) publish(session string, reply terminal.Reply, origin ws.Client) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(reply)
	if err != nil {
		s.log.Error("failed to encode terminal reply", zap.Error(err))
		return
	}
	select {
	case s.hub.Broadcast <- ws.Envelope{Session: session, Payload: payload, Skip: origin}:
	default:
		s.log.Warn("terminal broadcast queue full, dropping update", zap.String("session", session))
	}
}

func (s *terminalService) kick(key string) {
	if s.hub == nil {
		return
	}
	select {
	case s.hub.Kick <- key:
	default:
	}
}

func (s *terminalService) count(ev terminal.Event, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.metrics.Events.WithLabelValues(string(ev.Type), outcome).Inc()
}

func (s *terminalService) gauge() {
	if s.metrics != nil {
		s.metrics.Sessions.Set(float64(s.registry.Len()))
	}
}

// isCashierError reports outcomes the cashier already sees as a notice or
// prompt, which need no log line.
func isCashierError(err error) bool {
	return errors.Is(err, terminal.ErrEmptyCart) ||
		errors.Is(err, terminal.ErrConfirmationRequired) ||
		errors.Is(err, terminal.ErrSubmissionInFlight) ||
		errors.Is(err, cart.ErrLineNotFound)
}
