package agent

import (
	"fmt"
	"strings"

	"github.com/counsel/counsel/internal/domain/aireport"
	"github.com/counsel/counsel/internal/domain/client"
	"github.com/counsel/counsel/internal/domain/session"
	"github.com/counsel/counsel/internal/platform/ai"
)

// systemPrompts instruct the model per report type. Every prompt demands a
// bare JSON object; field lists mirror the content types in the aireport
// package.
var systemPrompts = map[string]string{
	aireport.TypeAssessment: `You are a clinical assistant drafting an intake assessment for a licensed counselor to review.
Respond with a single JSON object using these fields where applicable:
summary, presentingConcerns (array), mentalStatus, riskFactors (array of {factor, level, notes} with level one of low/moderate/high/severe), clinicalObservations (array), recommendations (array).
Do not diagnose. Do not include any text outside the JSON object.`,

	aireport.TypeDiagnostic: `You are a clinical assistant drafting diagnostic impressions for a licensed counselor to review.
Respond with a single JSON object using these fields where applicable:
summary, diagnoses (array of {code, name, confidence, justification}), differentialDiagnoses (array), clinicalFindings (array), recommendations (array).
Impressions only; final diagnosis is the clinician's. Do not include any text outside the JSON object.`,

	aireport.TypeProgress: `You are a clinical assistant summarizing treatment progress for a licensed counselor to review.
Respond with a single JSON object using these fields where applicable:
summary, treatmentProgress ({overallStatus, interventionEffectiveness: array of {intervention, effectiveness, notes} with effectiveness between 0 and 1}), goals (array of {goal, status, progressNotes}), challenges (array), nextSteps (array).
Do not include any text outside the JSON object.`,

	aireport.TypeTreatment: `You are a clinical assistant drafting a treatment plan for a licensed counselor to review.
Respond with a single JSON object using these fields where applicable:
summary, goals (array of {goal, interventions, targetDate}), modality, frequency, recommendations (array).
Do not include any text outside the JSON object.`,

	aireport.TypeDocumentation: `You are a clinical assistant writing session documentation for a licensed counselor to review.
Respond with a single JSON object using these fields where applicable:
summary, sessionNotes, riskAssessment (array of {factor, level, notes} with level one of low/moderate/high/severe), followUpItems (array).
Do not include any text outside the JSON object.`,
}

func schemaTag(reportType string) string {
	return reportType + "_report"
}

// buildMessages assembles the system+user prompt pair from the client
// profile and recent session history.
func buildMessages(reportType string, cl *client.Client, sessions []*session.Session) []ai.Message {
	var b strings.Builder

	fmt.Fprintf(&b, "Client: %s (status: %s)\n", cl.FullName(), cl.Status)
	if cl.Pronouns != "" {
		fmt.Fprintf(&b, "Pronouns: %s\n", cl.Pronouns)
	}
	if cl.ReferralSource != "" {
		fmt.Fprintf(&b, "Referral source: %s\n", cl.ReferralSource)
	}
	if cl.IntakeNotes != "" {
		fmt.Fprintf(&b, "Intake notes: %s\n", cl.IntakeNotes)
	}

	if len(sessions) == 0 {
		b.WriteString("\nNo recent sessions on record.\n")
	} else {
		fmt.Fprintf(&b, "\nRecent sessions (%d):\n", len(sessions))
		for _, s := range sessions {
			fmt.Fprintf(&b, "- %s, %s, %d min", s.ScheduledAt.Format("2006-01-02"), s.Status, s.DurationMinutes)
			if s.MoodRating != nil {
				fmt.Fprintf(&b, ", mood %d/10", *s.MoodRating)
			}
			if s.Notes != "" {
				fmt.Fprintf(&b, ", notes: %s", s.Notes)
			}
			b.WriteByte('\n')
		}
	}

	fmt.Fprintf(&b, "\nProduce the %s report JSON now.", reportType)

	return []ai.Message{
		{Role: "system", Content: systemPrompts[reportType]},
		{Role: "user", Content: b.String()},
	}
}
