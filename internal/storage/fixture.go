package storage

import "github.com/swassyman/heart/internal/contracts"

// SampleProperties returns the demo portfolio served when no database is
// configured. Scores and alerts are left empty; callers run the risk engine
// over the result before storing it.
func SampleProperties() []contracts.Property {
	return []contracts.Property{
		{
			ID:          "p1",
			Address:     "123 Maple Avenue, Springfield",
			Owner:       "Alice Buyer",
			OwnerID:     "u1",
			ImageURL:    "https://images.unsplash.com/photo-1568605114967-8130f3a36994?auto=format&fit=crop&w=800&q=80",
			Description: "Charming suburban home with minimal wear. Recently renovated.",
			TechnicalDetails: &contracts.TechnicalDetails{
				Foundation: "Slab on grade, good condition",
				Roof:       "Asphalt shingles, 5 years old",
				Electrical: "200A Service, updated 2020",
				Plumbing:   "Copper piping throughout",
			},
			Findings: []contracts.Finding{
				{ID: "p1-f1", InspectionID: "seed-p1", RoomID: "Kitchen", ObservationText: "Hairline grout cracks behind the sink.", DefectType: "grout_wear", Severity: contracts.SeverityLow, Confidence: 0.7},
				{ID: "p1-f2", InspectionID: "seed-p1", RoomID: "Garage", ObservationText: "Minor efflorescence on the north wall.", DefectType: "efflorescence", Severity: contracts.SeverityLow, Confidence: 0.6},
			},
		},
		{
			ID:          "p2",
			Address:     "456 Oak Street, Downtown",
			Owner:       "Bob Builder",
			OwnerID:     "u2",
			ImageURL:    "https://images.unsplash.com/photo-1570129477492-45c003edd2be?auto=format&fit=crop&w=800&q=80",
			Description: "Historic property requiring significant structural work.",
			TechnicalDetails: &contracts.TechnicalDetails{
				Foundation: "Brick, signs of settling",
				Roof:       "Slate, original (needs repair)",
				Electrical: "Knob and tube active",
				Plumbing:   "Galvanized, corrosion present",
			},
			Findings: []contracts.Finding{
				{ID: "p2-f1", InspectionID: "seed-p2", RoomID: "Basement", ObservationText: "Stepped cracking along the east foundation wall.", DefectType: "foundation_settlement", Severity: contracts.SeverityCritical, Confidence: 0.6},
				{ID: "p2-f2", InspectionID: "seed-p2", RoomID: "Attic", ObservationText: "Daylight visible through slate underlayment.", DefectType: "roof_leak", Severity: contracts.SeverityHigh, Confidence: 0.6},
				{ID: "p2-f3", InspectionID: "seed-p2", RoomID: "Utility Room", ObservationText: "Rust staining at galvanized supply joints.", DefectType: "pipe_corrosion", Severity: contracts.SeverityMedium, Confidence: 0.66},
			},
			RootCauses: []contracts.RootCause{
				{RoomID: "Basement", DefectType: "foundation_settlement", RootCause: "Clay soil shrinkage beneath unreinforced footing", Confidence: 0.72, SupportingSignals: 3, SignalStrength: "strong", Recommendations: []string{"Commission a structural engineer survey", "Install crack monitors"}},
				{RoomID: "Attic", DefectType: "roof_leak", RootCause: "Failed nail fixings on original slate", Confidence: 0.64, SupportingSignals: 2},
			},
			FutureEvents: []contracts.FutureEvent{
				{EventName: "Wall displacement", Severity: contracts.SeverityCritical, RoomID: "Basement", DefectType: "foundation_settlement", Probability: contracts.ProbabilityLikely, Timeframe: "12-24 months", PreventiveMeasures: []string{"Underpin east wall"}},
				{EventName: "Ceiling water damage", Severity: contracts.SeverityHigh, RoomID: "Attic", Probability: contracts.ProbabilityHigh, Timeframe: "next heavy rain"},
			},
		},
		{
			ID:          "p3",
			Address:     "789 Pine Lane, Westside",
			Owner:       "Alice Buyer",
			OwnerID:     "u1",
			ImageURL:    "https://images.unsplash.com/photo-1580587771525-78b9dba3b91d?auto=format&fit=crop&w=800&q=80",
			Description: "Modern condo unit. Standard finishes.",
			TechnicalDetails: &contracts.TechnicalDetails{
				Foundation: "Shared concrete structure",
				Roof:       "Flat membrane (HOA managed)",
				Electrical: "100A Service",
				Plumbing:   "PEX",
			},
			Findings: []contracts.Finding{
				{ID: "p3-f1", InspectionID: "seed-p3", RoomID: "Bathroom", ObservationText: "Soft subfloor around the toilet flange.", DefectType: "water_damage", Severity: contracts.SeverityMedium, Confidence: 0.9},
				{ID: "p3-f2", InspectionID: "seed-p3", RoomID: "Bathroom", ObservationText: "Extractor fan not vented outside.", DefectType: "ventilation", Severity: contracts.SeverityLow, Confidence: 0.8},
				{ID: "p3-f3", InspectionID: "seed-p3", RoomID: "Living Room", ObservationText: "Undersized breaker on the AC circuit.", DefectType: "electrical", Severity: contracts.SeverityMedium, Confidence: 0.43},
			},
			RootCauses: []contracts.RootCause{
				{RoomID: "Bathroom", DefectType: "water_damage", RootCause: "Degraded wax ring seal", Confidence: 0.58, SupportingSignals: 2, Reasoning: "Moisture readings peak at the flange and fall off radially."},
			},
			FutureEvents: []contracts.FutureEvent{
				{EventName: "Subfloor rot", Severity: contracts.SeverityMedium, RoomID: "Bathroom", DefectType: "water_damage", Probability: contracts.ProbabilityPossible},
			},
		},
	}
}
