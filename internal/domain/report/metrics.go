package report

import (
	"sort"

	"github.com/counsel/counsel/internal/domain/aireport"
	"github.com/counsel/counsel/internal/domain/session"
)

// Effectiveness thresholds on the 0-1 scale. The key-interventions bound is
// inclusive, the low-effectiveness bound is strict.
const (
	keyInterventionThreshold  = 0.70
	lowEffectivenessThreshold = 0.30
)

// AverageMood returns the arithmetic mean of the recorded mood ratings
// across the given sessions, or nil when no session carries a rating. The
// nil return is deliberate: callers serialize it as null rather than NaN.
func AverageMood(sessions []*session.Session) *float64 {
	var sum float64
	var n int
	for _, s := range sessions {
		if s.MoodRating == nil {
			continue
		}
		sum += float64(*s.MoodRating)
		n++
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

// InterventionEffectiveness computes, per intervention name, the mean
// effectiveness across every progress report that references it.
func InterventionEffectiveness(contents []*aireport.ProgressContent) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, c := range contents {
		if c.TreatmentProgress == nil {
			continue
		}
		for _, ie := range c.TreatmentProgress.InterventionEffectiveness {
			sums[ie.Intervention] += ie.Effectiveness
			counts[ie.Intervention]++
		}
	}
	means := make(map[string]float64, len(sums))
	for name, sum := range sums {
		means[name] = sum / float64(counts[name])
	}
	return means
}

// KeyInterventions returns the names whose mean effectiveness is at or
// above the key-intervention threshold, sorted for stable output.
func KeyInterventions(means map[string]float64) []string {
	key := make([]string, 0)
	for name, mean := range means {
		if mean >= keyInterventionThreshold {
			key = append(key, name)
		}
	}
	sort.Strings(key)
	return key
}

// criticalRiskLevel reports whether a risk entry's level makes it a
// critical event.
func criticalRiskLevel(level string) bool {
	return level == "high" || level == "severe"
}
