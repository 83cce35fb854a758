package aireport

import (
	"encoding/json"
	"testing"
)

func TestProgressContent_RoundTripPreservesUnknownFields(t *testing.T) {
	in := []byte(`{
		"summary": "steady improvement",
		"treatmentProgress": {
			"overallStatus": "on track",
			"interventionEffectiveness": [
				{"intervention": "CBT", "effectiveness": 0.8}
			]
		},
		"challenges": ["sleep"],
		"clinicianMoodNote": "engaged",
		"experimentalScore": 0.42
	}`)

	var c ProgressContent
	if err := json.Unmarshal(in, &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if c.Summary != "steady improvement" {
		t.Errorf("unexpected summary: %s", c.Summary)
	}
	if len(c.TreatmentProgress.InterventionEffectiveness) != 1 ||
		c.TreatmentProgress.InterventionEffectiveness[0].Intervention != "CBT" {
		t.Errorf("unexpected intervention effectiveness: %+v", c.TreatmentProgress)
	}
	if _, ok := c.Extra["clinicianMoodNote"]; !ok {
		t.Error("expected clinicianMoodNote captured in Extra")
	}
	if _, ok := c.Extra["experimentalScore"]; !ok {
		t.Error("expected experimentalScore captured in Extra")
	}
	if _, ok := c.Extra["summary"]; ok {
		t.Error("known field summary must not appear in Extra")
	}

	out, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var before, after map[string]interface{}
	if err := json.Unmarshal(in, &before); err != nil {
		t.Fatalf("unmarshal original: %v", err)
	}
	if err := json.Unmarshal(out, &after); err != nil {
		t.Fatalf("unmarshal round-tripped: %v", err)
	}
	for k := range before {
		if _, ok := after[k]; !ok {
			t.Errorf("round-trip dropped key %q", k)
		}
	}
}

func TestProgressContent_AbsentTreatmentProgressStaysAbsent(t *testing.T) {
	in := []byte(`{"summary":"early sessions","challenges":["scheduling"]}`)

	var c ProgressContent
	if err := json.Unmarshal(in, &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.TreatmentProgress != nil {
		t.Errorf("expected nil TreatmentProgress, got %+v", c.TreatmentProgress)
	}

	out, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if _, ok := m["treatmentProgress"]; ok {
		t.Error("round-trip invented a treatmentProgress key")
	}
}

func TestAssessmentContent_RoundTripNoExtras(t *testing.T) {
	in := []byte(`{"summary":"initial intake","riskFactors":[{"factor":"isolation","level":"moderate"}]}`)

	var c AssessmentContent
	if err := json.Unmarshal(in, &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Extra != nil {
		t.Errorf("expected nil Extra for fully-known input, got %v", c.Extra)
	}
	if len(c.RiskFactors) != 1 || c.RiskFactors[0].Level != "moderate" {
		t.Errorf("unexpected risk factors: %+v", c.RiskFactors)
	}

	out, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var round AssessmentContent
	if err := json.Unmarshal(out, &round); err != nil {
		t.Fatalf("unmarshal round-tripped: %v", err)
	}
	if round.Summary != c.Summary || len(round.RiskFactors) != 1 {
		t.Errorf("round-trip changed content: %+v", round)
	}
}

func TestDocumentationContent_ExtraDoesNotShadowTypedFields(t *testing.T) {
	var c DocumentationContent
	if err := json.Unmarshal([]byte(`{"summary":"old","extraKey":1}`), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	// Mutate the typed field after decode; the marshaled output must carry
	// the new value, not the stale one captured at decode time.
	c.Summary = "new"
	out, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if m["summary"] != "new" {
		t.Errorf("expected typed field to win, got %v", m["summary"])
	}
	if _, ok := m["extraKey"]; !ok {
		t.Error("expected extraKey preserved")
	}
}
