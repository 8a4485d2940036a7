package pipeline

import (
	"context"
	"fmt"

	"github.com/jonathan/velvet-rope/internal/ranking"
	"github.com/jonathan/velvet-rope/internal/store"
	"github.com/jonathan/velvet-rope/internal/types"
)

// BuildGuestList ranks everyone by yesness, admits the top capacity and
// advances to the guest list. A negative capacity means the default share.
func (o *Orchestrator) BuildGuestList(ctx context.Context, capacity int) (types.PipelineState, error) {
	release, err := o.acquire("build guest list")
	if err != nil {
		return o.store.State(), err
	}
	defer release()

	state, err := o.enter(types.StageGuestList)
	if err != nil {
		return state, err
	}
	if capacity < 0 {
		capacity = ranking.DefaultCapacity(len(state.EnrichedProfiles))
	}

	if err := o.cut(ctx, ranking.BuildGuestList(state.EnrichedProfiles, state.BiometricResults, capacity), capacity); err != nil {
		return o.store.State(), err
	}
	current := o.store.State()
	return o.advance(ctx, types.StageGuestList, current.AdmittedCount())
}

// SetCapacity changes how many of the ranked guests are admitted without re-ranking.
func (o *Orchestrator) SetCapacity(ctx context.Context, capacity int) (types.PipelineState, error) {
	release, err := o.acquire("set capacity")
	if err != nil {
		return o.store.State(), err
	}
	defer release()

	state, err := o.require("set capacity", types.StageGuestList)
	if err != nil {
		return state, err
	}
	if err := o.cut(ctx, ranking.Recut(state.GuestList, capacity), capacity); err != nil {
		return o.store.State(), err
	}
	return o.store.State(), nil
}

func (o *Orchestrator) cut(ctx context.Context, list []types.GuestListEntry, capacity int) error {
	capacity = ranking.ClampCapacity(capacity, len(list))
	if _, err := o.store.Apply(ctx, store.SetGuestList{Entries: list, Capacity: capacity}); err != nil {
		return err
	}
	admitted := types.AdmittedProfiles(list)
	o.opts.Metrics.Admitted(len(admitted))
	o.emit(types.StageGuestList, CategoryAttendee, fmt.Sprintf("%d of %d admitted", len(admitted), len(list)), len(admitted))
	return nil
}
