// Package query is the entry point the HTTP layer, the risk engine worker
// and the CLI call into. It composes the access filter, the risk engine and
// the property/inspection store.
//
// Every read checks the stored aggregate against the risk engine. A row
// whose score or alerts lag behind (after a recalibration, or when written
// by another tool) is refreshed and written back once, so alert ids and
// creation times are minted a single time.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/swassyman/heart/internal/access"
	"github.com/swassyman/heart/internal/contracts"
	"github.com/swassyman/heart/internal/report"
	"github.com/swassyman/heart/internal/risk"
	"github.com/swassyman/heart/internal/storage"
)

type EventPublisher interface {
	InspectionSubmitted(ctx context.Context, in contracts.Inspection) error
	AlertsRaised(ctx context.Context, propertyID string, alerts []contracts.Alert) error
}

type ReportGenerator interface {
	Generate(ctx context.Context, req report.Request) ([]byte, error)
}

type Service struct {
	store   storage.Store
	engine  *risk.Engine
	events  EventPublisher
	reports ReportGenerator
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

type Option func(*Service)

func WithEvents(events EventPublisher) Option {
	return func(s *Service) { s.events = events }
}

func WithReports(reports ReportGenerator) Option {
	return func(s *Service) { s.reports = reports }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func NewService(store storage.Store, engine *risk.Engine, opts ...Option) *Service {
	s := &Service{
		store:  store,
		engine: engine,
		logger: slog.Default(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Risk is the projection returned by GetRisks.
type Risk struct {
	Score   float64                     `json:"score"`
	Details *contracts.TechnicalDetails `json:"details"`
}

// Seed aggregates and stores each property. Properties that fail
// validation are skipped and reported together in the returned error.
func (s *Service) Seed(ctx context.Context, properties []contracts.Property) error {
	var errs []error
	for _, p := range properties {
		applied, _, err := s.engine.Apply(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.store.SaveProperty(ctx, applied); err != nil {
			errs = append(errs, fmt.Errorf("seed %s: %w", p.ID, err))
		}
	}
	return errors.Join(errs...)
}

// GetProperties lists the summaries user may see. A property whose data
// fails validation is logged and left out; the others are still returned.
func (s *Service) GetProperties(ctx context.Context, user contracts.User) ([]contracts.Property, error) {
	all, err := s.store.ListProperties(ctx)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}

	visible := access.VisibleProperties(all, user)
	out := make([]contracts.Property, 0, len(visible))
	for _, p := range visible {
		current, err := s.current(ctx, p)
		if err != nil {
			s.logger.Warn("skipping malformed property", "property_id", p.ID, "error", err)
			continue
		}
		out = append(out, current.Summary())
	}
	return out, nil
}

// GetPropertyByID returns the full aggregate. A missing property, or one
// user may not see, yields found == false and a nil error.
func (s *Service) GetPropertyByID(ctx context.Context, user contracts.User, id string) (contracts.Property, bool, error) {
	p, found, err := s.visibleProperty(ctx, user, id)
	if err != nil || !found {
		return contracts.Property{}, found, err
	}
	current, err := s.current(ctx, p)
	if err != nil {
		return contracts.Property{}, false, err
	}
	return current, true, nil
}

// current returns p with a score and alert set that agree with its
// findings. A stale row is brought up to date under the store's row lock.
// When that write fails the stored alerts are returned unchanged with the
// derived score, so no alert identity exists only in a response.
func (s *Service) current(ctx context.Context, p contracts.Property) (contracts.Property, error) {
	ok, err := s.engine.Consistent(p)
	if err != nil {
		return contracts.Property{}, fmt.Errorf("property %s: %w: %w", p.ID, contracts.ErrCorrupt, err)
	}
	if ok {
		return p, nil
	}

	refreshed, err := s.store.UpdateProperty(ctx, p.ID, func(stored *contracts.Property) error {
		applied, _, err := s.engine.Apply(*stored)
		if err != nil {
			return err
		}
		*stored = applied
		return nil
	})
	if err == nil {
		s.logger.Info("refreshed stale aggregate", "property_id", p.ID, "risk_score", refreshed.RiskScore)
		return refreshed, nil
	}
	s.logger.Warn("refresh stale aggregate failed", "property_id", p.ID, "error", err)

	result, err := s.engine.Aggregate(p)
	if err != nil {
		return contracts.Property{}, fmt.Errorf("property %s: %w: %w", p.ID, contracts.ErrCorrupt, err)
	}
	out := p.Clone()
	out.RiskScore = result.Score
	return out, nil
}

func (s *Service) GetRisks(ctx context.Context, user contracts.User, propertyID string) (Risk, bool, error) {
	p, found, err := s.GetPropertyByID(ctx, user, propertyID)
	if err != nil || !found {
		return Risk{}, found, err
	}
	return Risk{Score: p.RiskScore, Details: p.TechnicalDetails}, true, nil
}

// Analyze returns the full engine derivation for a visible property.
func (s *Service) Analyze(ctx context.Context, user contracts.User, propertyID string) (risk.Result, bool, error) {
	p, found, err := s.GetPropertyByID(ctx, user, propertyID)
	if err != nil || !found {
		return risk.Result{}, found, err
	}
	result, err := s.engine.Aggregate(p)
	if err != nil {
		return risk.Result{}, false, fmt.Errorf("property %s: %w: %w", p.ID, contracts.ErrCorrupt, err)
	}
	return result, true, nil
}

func (s *Service) visibleProperty(ctx context.Context, user contracts.User, id string) (contracts.Property, bool, error) {
	p, err := s.store.GetProperty(ctx, id)
	if errors.Is(err, contracts.ErrNotFound) {
		return contracts.Property{}, false, nil
	}
	if err != nil {
		return contracts.Property{}, false, fmt.Errorf("get property %s: %w", id, err)
	}
	if !access.CanView(user, p) {
		return contracts.Property{}, false, nil
	}
	return p, true, nil
}

// Report renders the PDF report for a property the user can see.
func (s *Service) Report(ctx context.Context, user contracts.User, propertyID string, lang report.Lang) ([]byte, bool, error) {
	if s.reports == nil {
		return nil, false, &contracts.TransportError{Op: "generate report", Err: errors.New("report service not configured")}
	}
	p, found, err := s.GetPropertyByID(ctx, user, propertyID)
	if err != nil || !found {
		return nil, found, err
	}
	result, err := s.engine.Aggregate(p)
	if err != nil {
		return nil, false, fmt.Errorf("property %s: %w: %w", p.ID, contracts.ErrCorrupt, err)
	}
	analysis := report.BuildAnalysis(p, result, s.engine.Config(), s.now())

	pdf, err := s.reports.Generate(ctx, report.Request{
		PropertyID: p.ID,
		Role:       report.RoleLabel(user.Role),
		Lang:       lang,
		AIAnalysis: &analysis,
	})
	if err != nil {
		s.logger.Error("report generation failed", "property_id", p.ID, "error", err)
		return nil, true, err
	}
	return pdf, true, nil
}
