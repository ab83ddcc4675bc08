package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/auge/internal/domain/dedupe"
	"github.com/okian/auge/internal/domain/model"
)

// MergeReport counts merged and skipped records per kind.
type MergeReport struct {
	Merged  Counts `json:"merged"`
	Skipped Counts `json:"skipped"`
}

// Merge unions src into dst. Records whose identity is already in dst are
// skipped, so merging the same source twice is a no-op. Kinds are merged in
// storage order and each kind in src insertion order.
func Merge(ctx context.Context, dst, src Store) (MergeReport, error) {
	rep := MergeReport{Merged: Counts{}, Skipped: Counts{}}
	seen := dedupe.NewInMemoryDeduper()
	for _, kind := range model.Kinds {
		ids, err := dst.IDs(ctx, kind)
		if err != nil {
			return rep, fmt.Errorf("merge: read %s ids: %w", kind, err)
		}
		for i := range ids {
			ids[i] = key(kind, ids[i])
		}
		seen.Seed(ctx, ids...)
	}

	m := merger{ctx: ctx, seen: seen, rep: &rep}
	impulses, err := src.Impulses(ctx, Filter{})
	if err != nil {
		return rep, fmt.Errorf("merge: %w", err)
	}
	for _, r := range impulses {
		if err := m.one(model.KindImpulse, r.Meta, func() error { _, err := dst.AppendImpulse(ctx, r); return err }); err != nil {
			return rep, err
		}
	}
	fatigue, err := src.FatiguePoints(ctx, Filter{})
	if err != nil {
		return rep, fmt.Errorf("merge: %w", err)
	}
	for _, r := range fatigue {
		if err := m.one(model.KindFatigue, r.Meta, func() error { _, err := dst.AppendFatigue(ctx, r); return err }); err != nil {
			return rep, err
		}
	}
	recovery, err := src.RecoveryObservations(ctx, Filter{})
	if err != nil {
		return rep, fmt.Errorf("merge: %w", err)
	}
	for _, r := range recovery {
		if err := m.one(model.KindRecovery, r.Meta, func() error { _, err := dst.AppendRecovery(ctx, r); return err }); err != nil {
			return rep, err
		}
	}
	predictions, err := src.Predictions(ctx, Filter{})
	if err != nil {
		return rep, fmt.Errorf("merge: %w", err)
	}
	for _, r := range predictions {
		if err := m.one(model.KindPrediction, r.Meta, func() error { _, err := dst.AppendPrediction(ctx, r); return err }); err != nil {
			return rep, err
		}
	}
	outcomes, err := src.Outcomes(ctx, Filter{})
	if err != nil {
		return rep, fmt.Errorf("merge: %w", err)
	}
	for _, r := range outcomes {
		if err := m.one(model.KindOutcome, r.Meta, func() error { _, _, err := dst.AppendOutcome(ctx, r); return err }); err != nil {
			return rep, err
		}
	}
	return rep, nil
}

func key(kind model.Kind, id string) string {
	return string(kind) + ":" + id
}

type merger struct {
	ctx  context.Context
	seen dedupe.Deduper
	rep  *MergeReport
}

// one appends a single record unless its identity is already known. The
// sequence number is reassigned by the destination.
func (m merger) one(kind model.Kind, meta model.Meta, write func() error) error {
	k := key(kind, meta.ID)
	if m.seen.SeenAndRecord(m.ctx, k) {
		m.rep.Skipped[kind]++
		return nil
	}
	err := write()
	switch {
	case err == nil:
		m.rep.Merged[kind]++
		return nil
	case errors.Is(err, ErrDuplicateRecord), errors.Is(err, ErrDuplicatePrediction):
		m.rep.Skipped[kind]++
		return nil
	default:
		m.seen.Unrecord(m.ctx, k)
		return fmt.Errorf("merge %s %s: %w", kind, meta.ID, err)
	}
}
