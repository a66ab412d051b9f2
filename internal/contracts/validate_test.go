package contracts

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinding_Validate(t *testing.T) {
	valid := Finding{ID: "f1", RoomID: "Basement", DefectType: "crack", Severity: SeverityHigh, Confidence: 0.5}
	tests := []struct {
		name    string
		mutate  func(*Finding)
		wantErr bool
	}{
		{"valid", func(*Finding) {}, false},
		{"confidence zero", func(f *Finding) { f.Confidence = 0 }, false},
		{"confidence one", func(f *Finding) { f.Confidence = 1 }, false},
		{"confidence above one", func(f *Finding) { f.Confidence = 1.01 }, true},
		{"negative confidence", func(f *Finding) { f.Confidence = -0.01 }, true},
		{"lower case severity", func(f *Finding) { f.Severity = "high" }, true},
		{"missing room", func(f *Finding) { f.RoomID = " " }, true},
		{"missing defect", func(f *Finding) { f.DefectType = "" }, true},
		{"missing id", func(f *Finding) { f.ID = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			tt.mutate(&f)
			err := f.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestProperty_Validate(t *testing.T) {
	p := Property{
		ID:        "p1",
		RiskScore: 101,
	}
	err := p.Validate()
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "riskScore", verr.Field)

	p.RiskScore = 50
	p.Findings = []Finding{
		{ID: "f1", RoomID: "a", DefectType: "b", Severity: SeverityLow, Confidence: 0.1},
		{ID: "f1", RoomID: "a", DefectType: "b", Severity: SeverityLow, Confidence: 0.1},
	}
	assert.ErrorIs(t, p.Validate(), ErrValidation)

	p.Findings = p.Findings[:1]
	p.Alerts = []Alert{{ID: "a1", Level: "BUILDING", EntityID: "p1"}}
	assert.ErrorIs(t, p.Validate(), ErrValidation)

	p.Alerts[0].Level = AlertLevelProperty
	assert.NoError(t, p.Validate())
}

func TestInspection_Complete(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	in := Inspection{ID: "i1", PropertyID: "p1", InspectorID: "u3", Status: InspectionPending}

	bad := 140.0
	err := in.Complete(&bad, now)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, InspectionPending, in.Status)

	score := 42.0
	require.NoError(t, in.Complete(&score, now))
	assert.Equal(t, InspectionCompleted, in.Status)
	require.NotNil(t, in.RiskScore)
	assert.Equal(t, 42.0, *in.RiskScore)
	assert.Equal(t, now, *in.CompletedAt)

	err = in.Complete(nil, now.Add(time.Hour))
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, now, *in.CompletedAt)
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"BUYER", RoleBuyer, false},
		{"Builder", RoleBuilder, false},
		{" inspector ", RoleInspector, false},
		{"admin", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProperty_CloneAndSummary(t *testing.T) {
	p := Property{
		ID:               "p1",
		TechnicalDetails: &TechnicalDetails{Roof: "slate"},
		Findings:         []Finding{{ID: "f1"}},
		RootCauses:       []RootCause{{RoomID: "r", Recommendations: []string{"seal"}}},
		Alerts:           []Alert{{ID: "a1"}},
	}

	clone := p.Clone()
	clone.Findings[0].ID = "changed"
	clone.RootCauses[0].Recommendations[0] = "changed"
	clone.TechnicalDetails.Roof = "changed"
	assert.Equal(t, "f1", p.Findings[0].ID)
	assert.Equal(t, "seal", p.RootCauses[0].Recommendations[0])
	assert.Equal(t, "slate", p.TechnicalDetails.Roof)
	assert.Nil(t, clone.FutureEvents)

	summary := p.Summary()
	assert.Nil(t, summary.Findings)
	assert.Nil(t, summary.RootCauses)
	assert.Nil(t, summary.Alerts)
	assert.Equal(t, "slate", summary.TechnicalDetails.Roof)
}

func TestTransportError(t *testing.T) {
	cause := errors.New("connection refused")
	err := error(&TransportError{Op: "generate report", Err: cause})
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, cause)
	assert.True(t, err.(*TransportError).Retryable())

	err = &TransportError{Op: "generate report", StatusCode: 400, Body: "bad lang"}
	assert.Equal(t, "generate report: status 400: bad lang", err.Error())
	assert.False(t, err.(*TransportError).Retryable())
}
