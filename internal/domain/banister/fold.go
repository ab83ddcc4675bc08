package banister

import (
	"math"
	"sort"
)

// checkpoint is the state right after an impulse was absorbed.
type checkpoint struct {
	t       float64
	w       float64
	fitness float64
	fatigue float64
}

// fold keeps fitness and fatigue at each impulse so any later time can be
// evaluated from the nearest earlier checkpoint. Appends in time order
// extend the fold; an earlier timestamp refolds from its insertion point.
type fold struct {
	tau1, tau2  float64
	checkpoints []checkpoint
}

func newFold(tau1, tau2 float64) *fold {
	return &fold{tau1: tau1, tau2: tau2}
}

func (f *fold) add(t, w float64) {
	// Insert after every checkpoint with the same time so ties keep arrival order.
	i := sort.Search(len(f.checkpoints), func(i int) bool { return f.checkpoints[i].t > t })
	f.checkpoints = append(f.checkpoints, checkpoint{})
	copy(f.checkpoints[i+1:], f.checkpoints[i:])
	f.checkpoints[i] = checkpoint{t: t, w: w}
	f.refold(i)
}

func (f *fold) refold(from int) {
	for i := from; i < len(f.checkpoints); i++ {
		cp := &f.checkpoints[i]
		var fit, fat float64
		if i > 0 {
			prev := f.checkpoints[i-1]
			dt := cp.t - prev.t
			fit = prev.fitness * math.Exp(-dt/f.tau1)
			fat = prev.fatigue * math.Exp(-dt/f.tau2)
		}
		cp.fitness = fit + cp.w
		cp.fatigue = fat + cp.w
	}
}

// at returns fitness and fatigue at time t.
func (f *fold) at(t float64) (fitness, fatigue float64) {
	i := sort.Search(len(f.checkpoints), func(i int) bool { return f.checkpoints[i].t > t }) - 1
	if i < 0 {
		return 0, 0
	}
	cp := f.checkpoints[i]
	dt := t - cp.t
	return cp.fitness * math.Exp(-dt/f.tau1), cp.fatigue * math.Exp(-dt/f.tau2)
}

func (f *fold) len() int { return len(f.checkpoints) }

func (f *fold) last() float64 {
	if len(f.checkpoints) == 0 {
		return 0
	}
	return f.checkpoints[len(f.checkpoints)-1].t
}
