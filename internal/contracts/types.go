package contracts

import "time"

type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// Probability is the qualitative likelihood attached to a predicted event.
// The empty value means the predictor gave no estimate.
type Probability string

const (
	ProbabilityLow      Probability = "LOW"
	ProbabilityPossible Probability = "POSSIBLE"
	ProbabilityLikely   Probability = "LIKELY"
	ProbabilityHigh     Probability = "HIGH"
)

func (p Probability) Valid() bool {
	switch p {
	case "", ProbabilityLow, ProbabilityPossible, ProbabilityLikely, ProbabilityHigh:
		return true
	default:
		return false
	}
}

type AlertLevel string

const (
	AlertLevelRoom     AlertLevel = "ROOM"
	AlertLevelProperty AlertLevel = "PROPERTY"
	AlertLevelRegion   AlertLevel = "REGION"
)

func (l AlertLevel) Valid() bool {
	switch l {
	case AlertLevelRoom, AlertLevelProperty, AlertLevelRegion:
		return true
	default:
		return false
	}
}

type InspectionStatus string

const (
	InspectionPending   InspectionStatus = "PENDING"
	InspectionCompleted InspectionStatus = "COMPLETED"
)

func (s InspectionStatus) Valid() bool {
	return s == InspectionPending || s == InspectionCompleted
}

type Role string

const (
	RoleBuyer     Role = "BUYER"
	RoleBuilder   Role = "BUILDER"
	RoleInspector Role = "INSPECTOR"
)

func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleBuilder, RoleInspector:
		return true
	default:
		return false
	}
}

// Finding is a single inspector observation. Findings are immutable once
// recorded and belong to exactly one inspection.
type Finding struct {
	ID              string   `json:"id"`
	InspectionID    string   `json:"inspectionId"`
	RoomID          string   `json:"roomId"`
	ObservationText string   `json:"observationText"`
	ImageRef        string   `json:"imageRef,omitempty"`
	DefectType      string   `json:"defectType"`
	Severity        Severity `json:"severity"`
	Confidence      float64  `json:"confidence"`
}

// RootCause explains the findings sharing its (RoomID, DefectType). Its
// confidence and signal counts come from upstream analysis and are never
// recomputed here.
type RootCause struct {
	RoomID            string   `json:"roomId"`
	DefectType        string   `json:"defectType"`
	RootCause         string   `json:"rootCause"`
	Confidence        float64  `json:"confidence"`
	SupportingSignals int      `json:"supportingSignals"`
	SignalStrength    string   `json:"signalStrength,omitempty"`
	Reasoning         string   `json:"reasoning,omitempty"`
	Recommendations   []string `json:"recommendations,omitempty"`
}

// FutureEvent is advisory. An empty DefectType links the event to every
// root cause in its room.
type FutureEvent struct {
	EventName          string      `json:"eventName"`
	Severity           Severity    `json:"severity"`
	RoomID             string      `json:"roomId"`
	DefectType         string      `json:"defectType,omitempty"`
	Probability        Probability `json:"probability,omitempty"`
	Timeframe          string      `json:"timeframe,omitempty"`
	PreventiveMeasures []string    `json:"preventiveMeasures,omitempty"`
}

type Alert struct {
	ID        string     `json:"id"`
	Level     AlertLevel `json:"level"`
	EntityID  string     `json:"entityId"`
	RiskScore float64    `json:"riskScore"`
	Type      string     `json:"type"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"createdAt"`
}

// AlertKey identifies an alert for deduplication across recomputations.
type AlertKey struct {
	Level    AlertLevel
	EntityID string
	Type     string
}

func (a Alert) Key() AlertKey {
	return AlertKey{Level: a.Level, EntityID: a.EntityID, Type: a.Type}
}

type TechnicalDetails struct {
	Foundation string `json:"foundation"`
	Roof       string `json:"roof"`
	Electrical string `json:"electrical"`
	Plumbing   string `json:"plumbing"`
}

// Property is the aggregation root. RiskScore and Alerts are derived from
// Findings and must only be written by the risk engine.
type Property struct {
	ID               string            `json:"id"`
	Address          string            `json:"address"`
	Owner            string            `json:"owner"`
	OwnerID          string            `json:"ownerId"`
	RiskScore        float64           `json:"riskScore"`
	ImageURL         string            `json:"imageUrl"`
	Description      string            `json:"description"`
	TechnicalDetails *TechnicalDetails `json:"technicalDetails,omitempty"`
	Findings         []Finding         `json:"findings,omitempty"`
	RootCauses       []RootCause       `json:"rootCauses,omitempty"`
	FutureEvents     []FutureEvent     `json:"futureEvents,omitempty"`
	Alerts           []Alert           `json:"alerts,omitempty"`
}

// Clone returns a deep copy so callers can never alias repository state.
func (p Property) Clone() Property {
	out := p
	if p.TechnicalDetails != nil {
		details := *p.TechnicalDetails
		out.TechnicalDetails = &details
	}
	out.Findings = append([]Finding(nil), p.Findings...)
	if p.RootCauses != nil {
		out.RootCauses = make([]RootCause, len(p.RootCauses))
		for i, rc := range p.RootCauses {
			rc.Recommendations = append([]string(nil), rc.Recommendations...)
			out.RootCauses[i] = rc
		}
	}
	if p.FutureEvents != nil {
		out.FutureEvents = make([]FutureEvent, len(p.FutureEvents))
		for i, fe := range p.FutureEvents {
			fe.PreventiveMeasures = append([]string(nil), fe.PreventiveMeasures...)
			out.FutureEvents[i] = fe
		}
	}
	out.Alerts = append([]Alert(nil), p.Alerts...)
	return out
}

// Summary drops the detail collections for list views.
func (p Property) Summary() Property {
	out := p
	if p.TechnicalDetails != nil {
		details := *p.TechnicalDetails
		out.TechnicalDetails = &details
	}
	out.Findings = nil
	out.RootCauses = nil
	out.FutureEvents = nil
	out.Alerts = nil
	return out
}

type Inspection struct {
	ID          string           `json:"id"`
	PropertyID  string           `json:"propertyId"`
	InspectorID string           `json:"inspectorId"`
	Date        string           `json:"date"`
	Summary     string           `json:"summary"`
	Status      InspectionStatus `json:"status"`
	RiskScore   *float64         `json:"riskScore,omitempty"`
	Images      []string         `json:"images"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
}

// Complete moves a pending inspection to COMPLETED. The transition happens
// once; a completed inspection is never reopened.
func (i *Inspection) Complete(riskScore *float64, now time.Time) error {
	if i.Status != InspectionPending {
		return ErrInvalidTransition
	}
	if riskScore != nil {
		if err := checkRange("inspection", "riskScore", *riskScore, 0, 100); err != nil {
			return err
		}
		score := *riskScore
		i.RiskScore = &score
	}
	i.Status = InspectionCompleted
	completed := now.UTC()
	i.CompletedAt = &completed
	return nil
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	Token string `json:"token"`
}
