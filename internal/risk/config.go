package risk

import (
	"fmt"

	"github.com/swassyman/heart/internal/contracts"
)

// Weights maps finding severity to its contribution before confidence is
// applied.
type Weights struct {
	Low      float64 `yaml:"low" json:"low"`
	Medium   float64 `yaml:"medium" json:"medium"`
	High     float64 `yaml:"high" json:"high"`
	Critical float64 `yaml:"critical" json:"critical"`
}

func (w Weights) Of(s contracts.Severity) float64 {
	switch s {
	case contracts.SeverityLow:
		return w.Low
	case contracts.SeverityMedium:
		return w.Medium
	case contracts.SeverityHigh:
		return w.High
	case contracts.SeverityCritical:
		return w.Critical
	default:
		return 0
	}
}

// Config holds every calibration constant the engine uses.
//
// Saturation controls how quickly accumulated exposure approaches 100: the
// score is 100*(1-exp(-exposure/Saturation)). With the default of 8 a single
// CRITICAL finding at confidence 0.9 scores 81.5.
type Config struct {
	Weights           Weights `yaml:"weights" json:"weights"`
	Saturation        float64 `yaml:"saturation" json:"saturation"`
	HighRiskThreshold float64 `yaml:"high_risk_threshold" json:"highRiskThreshold"`
	RoomRiskThreshold float64 `yaml:"room_risk_threshold" json:"roomRiskThreshold"`
}

const (
	DefaultSaturation        = 8.0
	DefaultHighRiskThreshold = 80.0
	DefaultRoomRiskThreshold = 50.0

	AlertTypeHighRisk = "HIGH_RISK"
	AlertTypeRoomRisk = "ROOM_RISK"
)

func DefaultWeights() Weights {
	return Weights{Low: 1, Medium: 3, High: 7, Critical: 15}
}

func DefaultConfig() Config {
	return Config{
		Weights:           DefaultWeights(),
		Saturation:        DefaultSaturation,
		HighRiskThreshold: DefaultHighRiskThreshold,
		RoomRiskThreshold: DefaultRoomRiskThreshold,
	}
}

func (c Config) Validate() error {
	for name, w := range map[string]float64{
		"low": c.Weights.Low, "medium": c.Weights.Medium,
		"high": c.Weights.High, "critical": c.Weights.Critical,
	} {
		if w <= 0 {
			return fmt.Errorf("weight %s must be positive, got %v", name, w)
		}
	}
	if c.Saturation <= 0 {
		return fmt.Errorf("saturation must be positive, got %v", c.Saturation)
	}
	if c.HighRiskThreshold <= 0 || c.HighRiskThreshold > 100 {
		return fmt.Errorf("high risk threshold %v outside (0,100]", c.HighRiskThreshold)
	}
	if c.RoomRiskThreshold <= 0 || c.RoomRiskThreshold >= c.HighRiskThreshold {
		return fmt.Errorf("room risk threshold %v must be positive and below %v", c.RoomRiskThreshold, c.HighRiskThreshold)
	}
	return nil
}
