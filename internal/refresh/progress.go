package refresh

// Phase describes the current refresh phase.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseFetching    Phase = "fetching"
	PhaseNormalizing Phase = "normalizing"
	PhaseDone        Phase = "done"
)

// Progress reports refresh progress to listeners.
type Progress struct {
	Phase   Phase  `json:"phase"`
	Source  string `json:"source"`
	Rows    int    `json:"rows"`
	Kept    int    `json:"kept"`
	Dropped int    `json:"dropped"`
}

// Percent returns the share of fetched rows that survived
// normalization (0–100).
func (p Progress) Percent() float64 {
	if p.Rows == 0 {
		return 0
	}
	return float64(p.Kept) / float64(p.Rows) * 100
}

// ProgressFunc is called with progress updates during a refresh.
type ProgressFunc func(Progress)
