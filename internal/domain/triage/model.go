package triage

// Priority buckets for an appointment, derived from the patient's intake.
const (
	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"
	PriorityLow    = "LOW"
)

// ValidPriority reports whether p is a known priority.
func ValidPriority(p string) bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// Intake is the patient-reported information triage operates on.
type Intake struct {
	Symptoms           []string `json:"symptoms"`
	PatientAge         int      `json:"patient_age"`
	ExistingConditions []string `json:"existing_conditions"`
}

// Recommendation is the outcome of a specialty recommendation.
type Recommendation struct {
	Specialty string `json:"specialty"`
	Message   string `json:"message,omitempty"`
}
