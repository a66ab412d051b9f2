package risk

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/swassyman/heart/internal/contracts"
)

type Engine struct {
	cfg Config
	now func() time.Time
}

func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("risk config: %w", err)
	}
	return &Engine{
		cfg: cfg,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithClock replaces the clock used to stamp new alerts.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	clone := *e
	clone.now = now
	return &clone
}

func (e *Engine) Config() Config {
	return e.cfg
}

// Group is the set of findings sharing a room and defect type, together
// with the upstream root cause and predicted events attached to it.
type Group struct {
	RoomID       string                  `json:"roomId"`
	DefectType   string                  `json:"defectType"`
	Findings     []contracts.Finding     `json:"findings"`
	RootCause    *contracts.RootCause    `json:"rootCause,omitempty"`
	FutureEvents []contracts.FutureEvent `json:"futureEvents,omitempty"`
	Exposure     float64                 `json:"exposure"`
	Score        float64                 `json:"score"`
}

type Room struct {
	RoomID   string  `json:"roomId"`
	Findings int     `json:"findings"`
	Exposure float64 `json:"exposure"`
	Score    float64 `json:"score"`
}

// Result is the full derivation for one property. Alerts are candidates:
// they carry no id or timestamp until reconciled against stored alerts.
type Result struct {
	PropertyID string                  `json:"propertyId"`
	Score      float64                 `json:"score"`
	Exposure   float64                 `json:"exposure"`
	Rooms      []Room                  `json:"rooms"`
	Groups     []Group                 `json:"groups"`
	Orphans    []contracts.RootCause   `json:"orphans,omitempty"`
	Unlinked   []contracts.FutureEvent `json:"unlinked,omitempty"`
	Alerts     []contracts.Alert       `json:"alerts"`
}

type groupKey struct {
	room   string
	defect string
}

// Aggregate derives the property score, room rollups and candidate alerts.
// Malformed findings, root causes or events fail with a ValidationError and
// nothing is derived.
func (e *Engine) Aggregate(p contracts.Property) (Result, error) {
	for _, f := range p.Findings {
		if err := f.Validate(); err != nil {
			return Result{}, fmt.Errorf("aggregate %s: %w", p.ID, err)
		}
	}
	for _, rc := range p.RootCauses {
		if err := rc.Validate(); err != nil {
			return Result{}, fmt.Errorf("aggregate %s: %w", p.ID, err)
		}
	}
	for _, fe := range p.FutureEvents {
		if err := fe.Validate(); err != nil {
			return Result{}, fmt.Errorf("aggregate %s: %w", p.ID, err)
		}
	}

	groups := make(map[groupKey]*Group)
	rooms := make(map[string]*Room)
	total := 0.0
	for _, f := range p.Findings {
		exposure := e.cfg.Weights.Of(f.Severity) * f.Confidence
		total += exposure

		key := groupKey{room: f.RoomID, defect: f.DefectType}
		g, ok := groups[key]
		if !ok {
			g = &Group{RoomID: f.RoomID, DefectType: f.DefectType}
			groups[key] = g
		}
		g.Findings = append(g.Findings, f)
		g.Exposure += exposure

		r, ok := rooms[f.RoomID]
		if !ok {
			r = &Room{RoomID: f.RoomID}
			rooms[f.RoomID] = r
		}
		r.Findings++
		r.Exposure += exposure
	}

	result := Result{
		PropertyID: p.ID,
		Score:      e.scoreOf(total),
		Exposure:   round2(total),
	}

	for _, rc := range p.RootCauses {
		g, ok := groups[groupKey{room: rc.RoomID, defect: rc.DefectType}]
		if !ok {
			result.Orphans = append(result.Orphans, rc)
			continue
		}
		attached := rc
		g.RootCause = &attached
	}

	for _, fe := range p.FutureEvents {
		linked := false
		for key, g := range groups {
			if key.room != fe.RoomID {
				continue
			}
			if fe.DefectType != "" && key.defect != fe.DefectType {
				continue
			}
			g.FutureEvents = append(g.FutureEvents, fe)
			linked = true
		}
		if !linked {
			result.Unlinked = append(result.Unlinked, fe)
		}
	}

	result.Groups = make([]Group, 0, len(groups))
	for _, g := range groups {
		g.Score = e.scoreOf(g.Exposure)
		g.Exposure = round2(g.Exposure)
		result.Groups = append(result.Groups, *g)
	}
	sort.Slice(result.Groups, func(i, j int) bool {
		if result.Groups[i].RoomID != result.Groups[j].RoomID {
			return result.Groups[i].RoomID < result.Groups[j].RoomID
		}
		return result.Groups[i].DefectType < result.Groups[j].DefectType
	})

	result.Rooms = make([]Room, 0, len(rooms))
	for _, r := range rooms {
		r.Score = e.scoreOf(r.Exposure)
		r.Exposure = round2(r.Exposure)
		result.Rooms = append(result.Rooms, *r)
	}
	sort.Slice(result.Rooms, func(i, j int) bool {
		return result.Rooms[i].RoomID < result.Rooms[j].RoomID
	})

	result.Alerts = e.candidateAlerts(p.ID, result)
	return result, nil
}

// Score returns the property-level score for a set of findings without
// validating them.
func (e *Engine) Score(findings []contracts.Finding) float64 {
	total := 0.0
	for _, f := range findings {
		total += e.cfg.Weights.Of(f.Severity) * f.Confidence
	}
	return e.scoreOf(total)
}

// Apply returns a copy of p whose RiskScore and Alerts are derived from its
// findings. Already stored alerts are refreshed rather than duplicated; the
// second return value lists alerts that did not exist before.
func (e *Engine) Apply(p contracts.Property) (contracts.Property, []contracts.Alert, error) {
	result, err := e.Aggregate(p)
	if err != nil {
		return contracts.Property{}, nil, err
	}
	out := p.Clone()
	out.RiskScore = result.Score
	var raised []contracts.Alert
	out.Alerts, raised = Reconcile(p.Alerts, result.Alerts, e.now())
	return out, raised, nil
}

// Consistent reports whether the stored score and alerts of p match what
// the engine derives from its findings.
func (e *Engine) Consistent(p contracts.Property) (bool, error) {
	result, err := e.Aggregate(p)
	if err != nil {
		return false, err
	}
	if math.Abs(result.Score-p.RiskScore) > 1e-9 {
		return false, nil
	}
	stored := make(map[contracts.AlertKey]struct{}, len(p.Alerts))
	for _, a := range p.Alerts {
		stored[a.Key()] = struct{}{}
	}
	for _, a := range result.Alerts {
		if _, ok := stored[a.Key()]; !ok {
			return false, nil
		}
	}
	return true, nil
}

func (e *Engine) candidateAlerts(propertyID string, result Result) []contracts.Alert {
	var alerts []contracts.Alert
	if result.Score >= e.cfg.HighRiskThreshold {
		alerts = append(alerts, contracts.Alert{
			Level:     contracts.AlertLevelProperty,
			EntityID:  propertyID,
			RiskScore: normalize(result.Score),
			Type:      AlertTypeHighRisk,
			Message: fmt.Sprintf("Property risk score %.2f reached the high-risk threshold %.0f. %s",
				result.Score, e.cfg.HighRiskThreshold, recommendation(result.Score)),
		})
	}
	for _, r := range result.Rooms {
		if r.Score <= e.cfg.RoomRiskThreshold {
			continue
		}
		alerts = append(alerts, contracts.Alert{
			Level:     contracts.AlertLevelRoom,
			EntityID:  r.RoomID,
			RiskScore: normalize(r.Score),
			Type:      AlertTypeRoomRisk,
			Message: fmt.Sprintf("%s scored %.2f across %d findings. %s",
				r.RoomID, r.Score, r.Findings, recommendation(r.Score)),
		})
	}
	return alerts
}

func (e *Engine) scoreOf(exposure float64) float64 {
	if exposure <= 0 {
		return 0
	}
	score := 100 * (1 - math.Exp(-exposure/e.cfg.Saturation))
	return round2(clamp(score, 0, 100))
}

func recommendation(score float64) string {
	switch {
	case score >= 90:
		return "Immediate intervention: stop occupancy-critical work and commission a structural review."
	case score >= 80:
		return "High risk: schedule specialist remediation before closing."
	case score >= 50:
		return "Moderate risk: obtain repair quotes and re-inspect within 30 days."
	default:
		return "Low risk: continue routine maintenance."
	}
}

func normalize(score float64) float64 {
	return math.Round(clamp(score/100, 0, 1)*10000) / 10000
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func newAlertID() string {
	return uuid.NewString()
}
