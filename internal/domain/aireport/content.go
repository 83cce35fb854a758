package aireport

import "encoding/json"

// The model returns passthrough-schema JSON: known fields vary by report
// type and extra fields are legal. Each content type below captures its
// known shape as typed fields and keeps everything else in an Extra
// side-map so that marshal/unmarshal round-trips are lossless.

// RiskFactor is a single risk entry in an assessment or documentation
// report. Level values "high" and "severe" mark the entry critical.
type RiskFactor struct {
	Factor string `json:"factor"`
	Level  string `json:"level"`
	Notes  string `json:"notes,omitempty"`
}

// InterventionEffectiveness scores one intervention on a 0-1 scale.
type InterventionEffectiveness struct {
	Intervention  string  `json:"intervention"`
	Effectiveness float64 `json:"effectiveness"`
	Notes         string  `json:"notes,omitempty"`
}

// TreatmentProgress is the progress report's view of the treatment plan.
type TreatmentProgress struct {
	OverallStatus             string                      `json:"overallStatus,omitempty"`
	InterventionEffectiveness []InterventionEffectiveness `json:"interventionEffectiveness,omitempty"`
}

// GoalProgress tracks one treatment goal inside a progress report.
type GoalProgress struct {
	Goal          string `json:"goal"`
	Status        string `json:"status,omitempty"`
	ProgressNotes string `json:"progressNotes,omitempty"`
}

// Diagnosis is one diagnostic conclusion with an optional confidence score.
type Diagnosis struct {
	Code          string  `json:"code,omitempty"`
	Name          string  `json:"name"`
	Confidence    float64 `json:"confidence,omitempty"`
	Justification string  `json:"justification,omitempty"`
}

// TreatmentGoal is a planned goal with its chosen interventions.
type TreatmentGoal struct {
	Goal          string   `json:"goal"`
	Interventions []string `json:"interventions,omitempty"`
	TargetDate    string   `json:"targetDate,omitempty"`
}

// AssessmentContent is the structured body of an assessment report.
type AssessmentContent struct {
	Summary              string       `json:"summary,omitempty"`
	PresentingConcerns   []string     `json:"presentingConcerns,omitempty"`
	MentalStatus         string       `json:"mentalStatus,omitempty"`
	RiskFactors          []RiskFactor `json:"riskFactors,omitempty"`
	ClinicalObservations []string     `json:"clinicalObservations,omitempty"`
	Recommendations      []string     `json:"recommendations,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var assessmentKeys = knownKeys("summary", "presentingConcerns", "mentalStatus",
	"riskFactors", "clinicalObservations", "recommendations")

func (c *AssessmentContent) UnmarshalJSON(data []byte) error {
	type alias AssessmentContent
	extra, err := decodeWithExtra(data, (*alias)(c), assessmentKeys)
	if err != nil {
		return err
	}
	c.Extra = extra
	return nil
}

func (c AssessmentContent) MarshalJSON() ([]byte, error) {
	type alias AssessmentContent
	return encodeWithExtra(alias(c), c.Extra)
}

// DiagnosticContent is the structured body of a diagnostic report.
type DiagnosticContent struct {
	Summary               string      `json:"summary,omitempty"`
	Diagnoses             []Diagnosis `json:"diagnoses,omitempty"`
	DifferentialDiagnoses []string    `json:"differentialDiagnoses,omitempty"`
	ClinicalFindings      []string    `json:"clinicalFindings,omitempty"`
	Recommendations       []string    `json:"recommendations,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var diagnosticKeys = knownKeys("summary", "diagnoses", "differentialDiagnoses",
	"clinicalFindings", "recommendations")

func (c *DiagnosticContent) UnmarshalJSON(data []byte) error {
	type alias DiagnosticContent
	extra, err := decodeWithExtra(data, (*alias)(c), diagnosticKeys)
	if err != nil {
		return err
	}
	c.Extra = extra
	return nil
}

func (c DiagnosticContent) MarshalJSON() ([]byte, error) {
	type alias DiagnosticContent
	return encodeWithExtra(alias(c), c.Extra)
}

// ProgressContent is the structured body of a progress report.
type ProgressContent struct {
	Summary           string            `json:"summary,omitempty"`
	TreatmentProgress *TreatmentProgress `json:"treatmentProgress,omitempty"`
	Goals             []GoalProgress    `json:"goals,omitempty"`
	Challenges        []string          `json:"challenges,omitempty"`
	NextSteps         []string          `json:"nextSteps,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var progressKeys = knownKeys("summary", "treatmentProgress", "goals",
	"challenges", "nextSteps")

func (c *ProgressContent) UnmarshalJSON(data []byte) error {
	type alias ProgressContent
	extra, err := decodeWithExtra(data, (*alias)(c), progressKeys)
	if err != nil {
		return err
	}
	c.Extra = extra
	return nil
}

func (c ProgressContent) MarshalJSON() ([]byte, error) {
	type alias ProgressContent
	return encodeWithExtra(alias(c), c.Extra)
}

// TreatmentContent is the structured body of a treatment plan report.
type TreatmentContent struct {
	Summary         string          `json:"summary,omitempty"`
	Goals           []TreatmentGoal `json:"goals,omitempty"`
	Modality        string          `json:"modality,omitempty"`
	Frequency       string          `json:"frequency,omitempty"`
	Recommendations []string        `json:"recommendations,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var treatmentKeys = knownKeys("summary", "goals", "modality", "frequency",
	"recommendations")

func (c *TreatmentContent) UnmarshalJSON(data []byte) error {
	type alias TreatmentContent
	extra, err := decodeWithExtra(data, (*alias)(c), treatmentKeys)
	if err != nil {
		return err
	}
	c.Extra = extra
	return nil
}

func (c TreatmentContent) MarshalJSON() ([]byte, error) {
	type alias TreatmentContent
	return encodeWithExtra(alias(c), c.Extra)
}

// DocumentationContent is the structured body of a session documentation
// report.
type DocumentationContent struct {
	Summary        string       `json:"summary,omitempty"`
	SessionNotes   string       `json:"sessionNotes,omitempty"`
	RiskAssessment []RiskFactor `json:"riskAssessment,omitempty"`
	FollowUpItems  []string     `json:"followUpItems,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var documentationKeys = knownKeys("summary", "sessionNotes", "riskAssessment",
	"followUpItems")

func (c *DocumentationContent) UnmarshalJSON(data []byte) error {
	type alias DocumentationContent
	extra, err := decodeWithExtra(data, (*alias)(c), documentationKeys)
	if err != nil {
		return err
	}
	c.Extra = extra
	return nil
}

func (c DocumentationContent) MarshalJSON() ([]byte, error) {
	type alias DocumentationContent
	return encodeWithExtra(alias(c), c.Extra)
}

func knownKeys(keys ...string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}

// decodeWithExtra unmarshals data into out, then collects every top-level
// key that is not in known into an extra map. Returns nil when there are
// no extra keys.
func decodeWithExtra(data []byte, out interface{}, known map[string]bool) (map[string]json.RawMessage, error) {
	if err := json.Unmarshal(data, out); err != nil {
		return nil, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	var extra map[string]json.RawMessage
	for k, v := range raw {
		if known[k] {
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[k] = v
	}
	return extra, nil
}

// encodeWithExtra marshals v and folds the extra side-map back into the
// result. Typed fields win over a stale extra entry with the same key.
func encodeWithExtra(v interface{}, extra map[string]json.RawMessage) ([]byte, error) {
	base, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return base, nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(base, &m); err != nil {
		return nil, err
	}
	for k, val := range extra {
		if _, ok := m[k]; !ok {
			m[k] = val
		}
	}
	return json.Marshal(m)
}
