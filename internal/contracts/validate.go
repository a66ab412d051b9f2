package contracts

import (
	"fmt"
	"math"
	"strings"
)

func checkRange(entity, field string, v, lo, hi float64) error {
	if math.IsNaN(v) || v < lo || v > hi {
		return invalid(entity, field, "%v outside [%v,%v]", v, lo, hi)
	}
	return nil
}

func (f Finding) Validate() error {
	if strings.TrimSpace(f.ID) == "" {
		return invalid("finding", "id", "required")
	}
	if strings.TrimSpace(f.RoomID) == "" {
		return invalid("finding", "roomId", "required")
	}
	if strings.TrimSpace(f.DefectType) == "" {
		return invalid("finding", "defectType", "required")
	}
	if !f.Severity.Valid() {
		return invalid("finding", "severity", "unknown value %q", f.Severity)
	}
	return checkRange("finding", "confidence", f.Confidence, 0, 1)
}

func (r RootCause) Validate() error {
	if strings.TrimSpace(r.RoomID) == "" || strings.TrimSpace(r.DefectType) == "" {
		return invalid("rootCause", "", "roomId and defectType are required")
	}
	if r.SupportingSignals < 0 {
		return invalid("rootCause", "supportingSignals", "negative count %d", r.SupportingSignals)
	}
	return checkRange("rootCause", "confidence", r.Confidence, 0, 1)
}

func (e FutureEvent) Validate() error {
	if strings.TrimSpace(e.EventName) == "" {
		return invalid("futureEvent", "eventName", "required")
	}
	if strings.TrimSpace(e.RoomID) == "" {
		return invalid("futureEvent", "roomId", "required")
	}
	if !e.Severity.Valid() {
		return invalid("futureEvent", "severity", "unknown value %q", e.Severity)
	}
	if !e.Probability.Valid() {
		return invalid("futureEvent", "probability", "unknown value %q", e.Probability)
	}
	return nil
}

func (a Alert) Validate() error {
	if !a.Level.Valid() {
		return invalid("alert", "level", "unknown value %q", a.Level)
	}
	if a.EntityID == "" {
		return invalid("alert", "entityId", "required")
	}
	return checkRange("alert", "riskScore", a.RiskScore, 0, 1)
}

// Validate checks the property and every entity it owns. The first failure
// is returned wrapped with the offending index.
func (p Property) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return invalid("property", "id", "required")
	}
	if err := checkRange("property", "riskScore", p.RiskScore, 0, 100); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(p.Findings))
	for i, f := range p.Findings {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("property %s finding %d: %w", p.ID, i, err)
		}
		if _, dup := seen[f.ID]; dup {
			return fmt.Errorf("property %s: %w", p.ID, invalid("finding", "id", "duplicate %q", f.ID))
		}
		seen[f.ID] = struct{}{}
	}
	for i, rc := range p.RootCauses {
		if err := rc.Validate(); err != nil {
			return fmt.Errorf("property %s root cause %d: %w", p.ID, i, err)
		}
	}
	for i, fe := range p.FutureEvents {
		if err := fe.Validate(); err != nil {
			return fmt.Errorf("property %s future event %d: %w", p.ID, i, err)
		}
	}
	for i, a := range p.Alerts {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("property %s alert %d: %w", p.ID, i, err)
		}
	}
	return nil
}

func (i Inspection) Validate() error {
	if strings.TrimSpace(i.PropertyID) == "" {
		return invalid("inspection", "propertyId", "required")
	}
	if strings.TrimSpace(i.InspectorID) == "" {
		return invalid("inspection", "inspectorId", "required")
	}
	if !i.Status.Valid() {
		return invalid("inspection", "status", "unknown value %q", i.Status)
	}
	if i.RiskScore != nil {
		return checkRange("inspection", "riskScore", *i.RiskScore, 0, 100)
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return invalid("user", "id", "required")
	}
	if strings.TrimSpace(u.Name) == "" {
		return invalid("user", "name", "required")
	}
	if !u.Role.Valid() {
		return invalid("user", "role", "unknown value %q", u.Role)
	}
	return nil
}

// ParseRole accepts the canonical upper-case role names and the title-case
// spelling the report service uses.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", invalid("user", "role", "unknown value %q", raw)
	}
	return role, nil
}
