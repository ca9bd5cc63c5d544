package domain

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// SwapOrder reconciles a drag-and-drop by exchanging the order values of the
// dragged and target tasks. Dropping a task onto itself is a no-op. The swap
// is two partial updates; when the second one fails the first is reverted on
// a best effort basis and the error is surfaced, so callers must treat any
// optimistic view as provisional until SwapOrder returns.
//
// This is deliberately a pairwise swap, not a list reindex: dragging across
// several positions only trades places with the drop target.
func SwapOrder(ctx context.Context, store TaskStore, draggedID, targetID int) error {
	if draggedID == targetID {
		return nil
	}
	dragged, err := store.GetByID(ctx, draggedID)
	if err != nil {
		return fmt.Errorf("reorder task %d: %w", draggedID, err)
	}
	target, err := store.GetByID(ctx, targetID)
	if err != nil {
		return fmt.Errorf("reorder task %d: %w", targetID, err)
	}

	if _, err := store.Update(ctx, draggedID, TaskUpdate{Order: &target.Order}); err != nil {
		return fmt.Errorf("reorder task %d: %w", draggedID, err)
	}
	if _, err := store.Update(ctx, targetID, TaskUpdate{Order: &dragged.Order}); err != nil {
		if _, revertErr := store.Update(ctx, draggedID, TaskUpdate{Order: &dragged.Order}); revertErr != nil {
			log.WithFields(log.Fields{"task": draggedID, "order": dragged.Order}).
				WithError(revertErr).Error("reorder revert failed, order values may be inconsistent")
		}
		return fmt.Errorf("reorder task %d: %w", targetID, err)
	}
	return nil
}
