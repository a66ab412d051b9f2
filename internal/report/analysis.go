package report

import (
	"time"

	"github.com/swassyman/heart/internal/contracts"
	"github.com/swassyman/heart/internal/risk"
)

// Analysis is the aiAnalysis document sent to the report generator. It is
// a read-only projection of an aggregated property.
type Analysis struct {
	PropertyID  string                  `json:"propertyId"`
	RiskScore   float64                 `json:"riskScore"`
	RiskBand    string                  `json:"riskBand"`
	Rooms       []risk.Room             `json:"rooms"`
	Defects     []Defect                `json:"defects"`
	Unexplained []contracts.RootCause   `json:"unmatchedRootCauses,omitempty"`
	Advisories  []contracts.FutureEvent `json:"unlinkedFutureEvents,omitempty"`
	Alerts      []contracts.Alert       `json:"alerts"`
	GeneratedAt time.Time               `json:"generatedAt"`
}

type Defect struct {
	RoomID       string                  `json:"roomId"`
	DefectType   string                  `json:"defectType"`
	Score        float64                 `json:"score"`
	Findings     []contracts.Finding     `json:"findings"`
	RootCause    *contracts.RootCause    `json:"rootCause,omitempty"`
	FutureEvents []contracts.FutureEvent `json:"futureEvents,omitempty"`
}

// BuildAnalysis projects p and its aggregation result into the report
// payload.
func BuildAnalysis(p contracts.Property, result risk.Result, cfg risk.Config, now time.Time) Analysis {
	a := Analysis{
		PropertyID:  p.ID,
		RiskScore:   result.Score,
		RiskBand:    Band(result.Score, cfg),
		Rooms:       result.Rooms,
		Defects:     make([]Defect, 0, len(result.Groups)),
		Unexplained: result.Orphans,
		Advisories:  result.Unlinked,
		Alerts:      p.Alerts,
		GeneratedAt: now.UTC(),
	}
	for _, g := range result.Groups {
		a.Defects = append(a.Defects, Defect{
			RoomID:       g.RoomID,
			DefectType:   g.DefectType,
			Score:        g.Score,
			Findings:     g.Findings,
			RootCause:    g.RootCause,
			FutureEvents: g.FutureEvents,
		})
	}
	return a
}

func Band(score float64, cfg risk.Config) string {
	switch {
	case score >= cfg.HighRiskThreshold:
		return "HIGH"
	case score > cfg.RoomRiskThreshold:
		return "ELEVATED"
	case score > 0:
		return "LOW"
	default:
		return "NONE"
	}
}
