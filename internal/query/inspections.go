package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/swassyman/heart/internal/access"
	"github.com/swassyman/heart/internal/contracts"
)

// InspectionDraft is an inspection before the service assigns its id.
type InspectionDraft struct {
	PropertyID  string                     `json:"propertyId"`
	InspectorID string                     `json:"inspectorId,omitempty"`
	Date        string                     `json:"date,omitempty"`
	Summary     string                     `json:"summary"`
	Status      contracts.InspectionStatus `json:"status,omitempty"`
	RiskScore   *float64                   `json:"riskScore,omitempty"`
	Images      []string                   `json:"images,omitempty"`
}

// SubmitInspection stores a new PENDING inspection under a fresh id. Only
// inspectors may submit, and the property must exist.
func (s *Service) SubmitInspection(ctx context.Context, user contracts.User, draft InspectionDraft) (contracts.Inspection, error) {
	if !access.CanRecord(user) {
		return contracts.Inspection{}, fmt.Errorf("submit inspection as %s: %w", user.Role, contracts.ErrForbidden)
	}
	if draft.Status != "" && draft.Status != contracts.InspectionPending {
		return contracts.Inspection{}, &contracts.ValidationError{Entity: "inspection", Field: "status", Reason: "new inspections start PENDING"}
	}
	if _, err := s.store.GetProperty(ctx, draft.PropertyID); err != nil {
		return contracts.Inspection{}, fmt.Errorf("submit inspection: %w", err)
	}

	in := contracts.Inspection{
		ID:          s.newID(),
		PropertyID:  draft.PropertyID,
		InspectorID: strings.TrimSpace(draft.InspectorID),
		Date:        strings.TrimSpace(draft.Date),
		Summary:     draft.Summary,
		Status:      contracts.InspectionPending,
		RiskScore:   draft.RiskScore,
		Images:      append([]string{}, draft.Images...),
	}
	if in.InspectorID == "" {
		in.InspectorID = user.ID
	}
	if in.Date == "" {
		in.Date = s.now().Format("2006-01-02")
	}
	if err := in.Validate(); err != nil {
		return contracts.Inspection{}, err
	}

	if err := s.store.AppendInspection(ctx, in); err != nil {
		return contracts.Inspection{}, fmt.Errorf("append inspection: %w", err)
	}
	s.logger.Info("inspection submitted", "inspection_id", in.ID, "property_id", in.PropertyID)

	if s.events != nil {
		if err := s.events.InspectionSubmitted(ctx, in); err != nil {
			s.logger.Error("publish inspection event failed", "inspection_id", in.ID, "error", err)
		}
	}
	return in, nil
}

// CompleteInspection performs the one-way PENDING to COMPLETED transition.
func (s *Service) CompleteInspection(ctx context.Context, user contracts.User, id string, riskScore *float64) (contracts.Inspection, error) {
	if !access.CanRecord(user) {
		return contracts.Inspection{}, fmt.Errorf("complete inspection as %s: %w", user.Role, contracts.ErrForbidden)
	}
	now := s.now()
	in, err := s.store.UpdateInspection(ctx, id, func(in *contracts.Inspection) error {
		return in.Complete(riskScore, now)
	})
	if err != nil {
		return contracts.Inspection{}, fmt.Errorf("complete inspection %s: %w", id, err)
	}
	s.logger.Info("inspection completed", "inspection_id", in.ID, "property_id", in.PropertyID)
	return in, nil
}

// ListInspections returns inspections on properties user may see. An empty
// propertyID lists across every visible property.
func (s *Service) ListInspections(ctx context.Context, user contracts.User, propertyID string) ([]contracts.Inspection, error) {
	all, err := s.store.ListInspections(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("list inspections: %w", err)
	}
	if user.Role == contracts.RoleBuilder || user.Role == contracts.RoleInspector {
		return all, nil
	}

	properties, err := s.store.ListProperties(ctx)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	visible := make(map[string]struct{})
	for _, p := range access.VisibleProperties(properties, user) {
		visible[p.ID] = struct{}{}
	}
	out := make([]contracts.Inspection, 0, len(all))
	for _, in := range all {
		if _, ok := visible[in.PropertyID]; ok {
			out = append(out, in)
		}
	}
	return out, nil
}

// RecordFindings appends a batch of findings to a property, refreshes the
// root causes and predicted events delivered with it, recomputes the
// aggregate and stores it. It returns the alerts raised by this batch.
//
// The merge runs inside the store's row lock, so concurrent batches from
// any number of processes are all kept. Recorded findings are immutable: a
// batch reusing an existing finding id is rejected as a whole.
func (s *Service) RecordFindings(ctx context.Context, batch contracts.FindingsRecorded) ([]contracts.Alert, error) {
	var raised []contracts.Alert
	applied, err := s.store.UpdateProperty(ctx, batch.PropertyID, func(p *contracts.Property) error {
		known := make(map[string]struct{}, len(p.Findings)+len(batch.Findings))
		for _, f := range p.Findings {
			known[f.ID] = struct{}{}
		}
		for _, f := range batch.Findings {
			if _, dup := known[f.ID]; dup {
				return &contracts.ValidationError{Entity: "finding", Field: "id", Reason: fmt.Sprintf("%q already recorded on %s", f.ID, p.ID)}
			}
			known[f.ID] = struct{}{}
			if f.InspectionID == "" {
				f.InspectionID = batch.InspectionID
			}
			p.Findings = append(p.Findings, f)
		}
		p.RootCauses = mergeRootCauses(p.RootCauses, batch.RootCauses)
		p.FutureEvents = mergeFutureEvents(p.FutureEvents, batch.FutureEvents)

		out, r, err := s.engine.Apply(*p)
		if err != nil {
			return err
		}
		*p = out
		raised = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record findings on %s: %w", batch.PropertyID, err)
	}
	s.logger.Info("findings recorded",
		"property_id", applied.ID,
		"findings", len(batch.Findings),
		"risk_score", applied.RiskScore,
		"alerts_raised", len(raised))

	if s.events != nil && len(raised) > 0 {
		if err := s.events.AlertsRaised(ctx, applied.ID, raised); err != nil {
			s.logger.Error("publish alerts failed", "property_id", applied.ID, "error", err)
		}
	}
	return raised, nil
}

func mergeRootCauses(stored, incoming []contracts.RootCause) []contracts.RootCause {
	type key struct{ room, defect string }
	index := make(map[key]int, len(stored))
	out := append([]contracts.RootCause(nil), stored...)
	for i, rc := range out {
		index[key{rc.RoomID, rc.DefectType}] = i
	}
	for _, rc := range incoming {
		k := key{rc.RoomID, rc.DefectType}
		if i, ok := index[k]; ok {
			out[i] = rc
			continue
		}
		index[k] = len(out)
		out = append(out, rc)
	}
	return out
}

func mergeFutureEvents(stored, incoming []contracts.FutureEvent) []contracts.FutureEvent {
	type key struct{ room, defect, name string }
	index := make(map[key]int, len(stored))
	out := append([]contracts.FutureEvent(nil), stored...)
	for i, fe := range out {
		index[key{fe.RoomID, fe.DefectType, fe.EventName}] = i
	}
	for _, fe := range incoming {
		k := key{fe.RoomID, fe.DefectType, fe.EventName}
		if i, ok := index[k]; ok {
			out[i] = fe
			continue
		}
		index[k] = len(out)
		out = append(out, fe)
	}
	return out
}
