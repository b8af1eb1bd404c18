package domain

// Classification is the outcome class assigned to one injected iteration,
// used to split a finished campaign's report by outcome class.
type Classification string

const (
	ClassCrash  Classification = "CRASH"
	ClassHang   Classification = "HANG"
	ClassSDC    Classification = "SDC"
	ClassBenign Classification = "BENIGN"
)

// Kind splits a classified iteration by whether it was a register or memory
// fault, for the summary's RegisterCounts/MemoryCounts breakdown.
type Kind string

const (
	KindRegister Kind = "register"
	KindMemory   Kind = "memory"
)

// IterationOutcome is one row of the final campaign report.
type IterationOutcome struct {
	Iteration      int            `json:"iteration"`
	Classification Classification `json:"classification"`
	Kind           Kind           `json:"kind"`
	DurationMS     float64        `json:"duration_ms"`
	DiffPixels     int            `json:"diff_pixels,omitempty"`
	DiffFiles      []string       `json:"diff_files,omitempty"`
}

// CampaignSummary is the classified result table for a whole campaign.
type CampaignSummary struct {
	Label          string             `json:"label"`
	BaselineRuns   int                `json:"baseline_runs"`
	BaselineOK     int                `json:"baseline_success"`
	MaxDelayMS     int                `json:"max_delay_ms"`
	Requested      int                `json:"injection_requested"`
	Completed      int                `json:"injection_completed"`
	MeanMS         float64            `json:"mean_ms"`
	StdDevMS       float64            `json:"stddev_ms"`
	Outcomes       []IterationOutcome `json:"outcomes"`
	Counts         map[Classification]int `json:"counts"`
	RegisterCounts map[Classification]int `json:"register_counts"`
	MemoryCounts   map[Classification]int `json:"memory_counts"`
}

// NewCampaignSummary returns a summary with its count maps initialized to
// zero for every classification, so the CSV's breakdown is a total function
// over {CRASH, HANG, SDC, BENIGN} even when a class saw no iterations.
func NewCampaignSummary(label string) *CampaignSummary {
	zero := func() map[Classification]int {
		return map[Classification]int{
			ClassCrash:  0,
			ClassHang:   0,
			ClassSDC:    0,
			ClassBenign: 0,
		}
	}
	return &CampaignSummary{
		Label:          label,
		Counts:         zero(),
		RegisterCounts: zero(),
		MemoryCounts:   zero(),
	}
}

// Add records one outcome into the summary's running totals.
func (s *CampaignSummary) Add(o IterationOutcome) {
	s.Outcomes = append(s.Outcomes, o)
	s.Counts[o.Classification]++
	switch o.Kind {
	case KindRegister:
		s.RegisterCounts[o.Classification]++
	case KindMemory:
		s.MemoryCounts[o.Classification]++
	}
}
