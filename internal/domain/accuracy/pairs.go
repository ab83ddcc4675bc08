package accuracy

import (
	"sort"
	"time"

	"github.com/okian/auge/internal/domain/model"
)

// Pair is one scored prediction.
type Pair struct {
	System    model.SystemTag
	Muscle    model.MuscleID
	Predicted float64
	Actual    float64
	At        time.Time
	Seq       uint64
}

// Error returns predicted minus actual.
func (p Pair) Error() float64 { return p.Predicted - p.Actual }

// Matching is the outcome of joining predictions with outcomes.
type Matching struct {
	Pairs     []Pair
	Pending   int
	Unmatched int
}

// Match joins predictions and outcomes by prediction id. The outcome with
// the highest sequence number wins. Recovery observations are added as
// muscular pairs. Pairs come back in chronological order.
func Match(predictions []model.PredictionRecord, outcomes []model.OutcomeRecord, recovery []model.RecoveryObservation) Matching {
	latest := make(map[string]model.OutcomeRecord, len(outcomes))
	for _, o := range outcomes {
		if cur, ok := latest[o.PredictionID]; !ok || o.Seq >= cur.Seq {
			latest[o.PredictionID] = o
		}
	}

	var m Matching
	known := make(map[string]struct{}, len(predictions))
	for _, p := range predictions {
		known[p.PredictionID] = struct{}{}
		o, ok := latest[p.PredictionID]
		if !ok {
			m.Pending++
			continue
		}
		m.Pairs = append(m.Pairs, Pair{
			System:    p.System,
			Muscle:    p.Muscle,
			Predicted: p.PredictedValue,
			Actual:    o.ActualValue,
			At:        o.Timestamp,
			Seq:       o.Seq,
		})
	}
	for _, o := range outcomes {
		if _, ok := known[o.PredictionID]; !ok {
			m.Unmatched++
		}
	}
	for _, r := range recovery {
		at := r.Timestamp
		if at.IsZero() {
			at = r.RecordedAt
		}
		m.Pairs = append(m.Pairs, Pair{
			System:    model.SystemMuscular,
			Muscle:    r.Muscle,
			Predicted: r.PredictedBattery,
			Actual:    r.ActualBattery,
			At:        at,
			Seq:       r.Seq,
		})
	}
	sort.SliceStable(m.Pairs, func(i, j int) bool {
		a, b := m.Pairs[i], m.Pairs[j]
		if !a.At.Equal(b.At) {
			return a.At.Before(b.At)
		}
		return a.Seq < b.Seq
	})
	return m
}

// Within keeps the pairs no older than retention before the newest pair.
func Within(pairs []Pair, retention time.Duration) []Pair {
	if len(pairs) == 0 || retention <= 0 {
		return pairs
	}
	cutoff := pairs[len(pairs)-1].At.Add(-retention)
	i := sort.Search(len(pairs), func(i int) bool { return !pairs[i].At.Before(cutoff) })
	return pairs[i:]
}
