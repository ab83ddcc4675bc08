package model

// Improvement trend values.
const (
	TrendImproving = "improving"
	TrendStable    = "stable"
	TrendDeclining = "declining"
)

// AdaptiveCache is the read-optimized snapshot every caller consumes. Its
// exported content is a pure function of the stored records and the active
// calibration.
type AdaptiveCache struct {
	// Version is the engine write counter the snapshot was built at. It is
	// local to the process and only used to detect staleness.
	Version                   uint64               `json:"-"`
	TotalObservations         uint32               `json:"totalObservations"`
	ConfidenceLabel           string               `json:"confidenceLabel"`
	GPCurve                   GPCurve              `json:"gpCurve"`
	PersonalizedRecoveryHours map[MuscleID]float64 `json:"personalizedRecoveryHours"`
	MuscleObservations        map[MuscleID]int     `json:"muscleObservations"`
	Banister                  *BanisterResult      `json:"banister,omitempty"`
	SelfImprovement           SelfImprovement      `json:"selfImprovement"`
	Calibration               CalibrationDelta     `json:"calibration"`
}

// GPCurve is the expected post-session fatigue trajectory.
type GPCurve struct {
	Hours                 []float64 `json:"hours"`
	MeanFatigue           []float64 `json:"mean_fatigue"`
	UpperBound            []float64 `json:"upper_bound"`
	LowerBound            []float64 `json:"lower_bound"`
	PeakFatigueHour       float64   `json:"peak_fatigue_hour"`
	FullRecoveryHour      *float64  `json:"full_recovery_hour,omitempty"`
	SupercompensationHour *float64  `json:"supercompensation_hour,omitempty"`
	DataPoints            int       `json:"data_points"`
}

// BanisterParams are the impulse-response constants of one system. Time
// constants are in hours.
type BanisterParams struct {
	P0   float64 `json:"p0"`
	K1   float64 `json:"k1"`
	K2   float64 `json:"k2"`
	Tau1 float64 `json:"tau1_hours"`
	Tau2 float64 `json:"tau2_hours"`
}

// BanisterSeries is the fitted fitness/fatigue/performance of one system.
type BanisterSeries struct {
	Params                       BanisterParams `json:"params"`
	Impulses                     int            `json:"impulses"`
	TimelineHours                []float64      `json:"timeline_hours"`
	Fitness                      []float64      `json:"fitness"`
	Fatigue                      []float64      `json:"fatigue"`
	Performance                  []float64      `json:"performance"`
	NextOptimalSessionHour       *float64       `json:"next_optimal_session_hour,omitempty"`
	PredictedPeakPerformanceHour *float64       `json:"predicted_peak_performance_hour,omitempty"`
}

// BanisterResult groups every modeled system plus the combined curve.
// TimelineHours are relative to the most recent impulse.
type BanisterResult struct {
	Systems                map[SystemTag]BanisterSeries `json:"systems"`
	TimelineHours          []float64                    `json:"timeline_hours"`
	CombinedPerformance    []float64                    `json:"combined_performance"`
	OptimalNextSessionHour *float64                     `json:"optimal_next_session_hour,omitempty"`
	Verdict                string                       `json:"verdict"`
}

// SystemAccuracy is the scored accuracy of one system.
type SystemAccuracy struct {
	System     SystemTag `json:"system"`
	RSquared   float64   `json:"r_squared"`
	MAE        float64   `json:"mae"`
	RMSE       float64   `json:"rmse"`
	Bias       float64   `json:"bias"`
	SampleSize int       `json:"sample_size"`
	Slope      *float64  `json:"slope,omitempty"`
	Intercept  *float64  `json:"intercept,omitempty"`
}

// SelfImprovement summarizes how well the engine predicts reported outcomes.
type SelfImprovement struct {
	OverallPredictionScore float64               `json:"overall_prediction_score"`
	ImprovementTrend       string                `json:"improvement_trend"`
	Recommendations        []string              `json:"recommendations"`
	AccuracyBySystem       []SystemAccuracy      `json:"accuracy_by_system"`
	SuggestedAdjustments   map[SystemTag]float64 `json:"suggested_adjustments,omitempty"`
	MatchedPairs           int                   `json:"matched_pairs"`
	PendingPredictions     int                   `json:"pending_predictions"`
	UnmatchedOutcomes      int                   `json:"unmatched_outcomes"`
}

// Accuracy returns the entry for s, if it was reported.
func (s SelfImprovement) Accuracy(sys SystemTag) (SystemAccuracy, bool) {
	for _, a := range s.AccuracyBySystem {
		if a.System == sys {
			return a, true
		}
	}
	return SystemAccuracy{}, false
}
