// Package prediction decides when community reports are sent to the AI for
// crop suitability predictions and falls back to a local heuristic when the
// AI is unavailable.
package prediction

const (
	// MinReports is the report count required before the first analysis.
	MinReports = 5
	// Step is how many new reports re-trigger analysis after a run.
	Step = 5
)

// ShouldTrigger applies the trigger rule to the current counts: the first
// run needs MinReports reports with nothing persisted and nothing processed;
// later runs need Step reports beyond the last processed count.
func ShouldTrigger(reports, persisted, processed int) bool {
	if reports >= MinReports && persisted == 0 && processed == 0 {
		return true
	}
	return processed > 0 && reports >= processed+Step
}

// NextTrigger is the next multiple of Step strictly above processed.
func NextTrigger(processed int) int {
	return (processed + Step + Step - 1) / Step * Step
}
