package contracts

import "time"

// FindingsRecorded is consumed by the risk engine. Findings listed here are
// appended to the property and the aggregate is recomputed.
type FindingsRecorded struct {
	PropertyID   string        `json:"propertyId"`
	InspectionID string        `json:"inspectionId"`
	Findings     []Finding     `json:"findings"`
	RootCauses   []RootCause   `json:"rootCauses,omitempty"`
	FutureEvents []FutureEvent `json:"futureEvents,omitempty"`
	Timestamp    time.Time     `json:"timestamp"`
}

type InspectionSubmitted struct {
	Inspection Inspection `json:"inspection"`
	Timestamp  time.Time  `json:"timestamp"`
}

type AlertRaised struct {
	PropertyID string    `json:"propertyId"`
	Alert      Alert     `json:"alert"`
	Timestamp  time.Time `json:"timestamp"`
}

func (e AlertRaised) Key() string {
	return e.PropertyID + "|" + string(e.Alert.Level) + "|" + e.Alert.EntityID + "|" + e.Alert.Type
}
