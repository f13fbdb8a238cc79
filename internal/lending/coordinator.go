package lending

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/erazemk/borrow/internal/model"
	"github.com/erazemk/borrow/internal/store"
)

// Approve accepts a pending request for an item owned by actorID. Under
// AutoLock the item is marked borrowed under this request in the same
// transaction, and approval fails with model.ErrItemUnavailable if the item
// is already out.
func (s *Service) Approve(ctx context.Context, actorID, id string) (*model.BorrowRequest, error) {
	var r *model.BorrowRequest
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		current, err := ownedRequest(ctx, tx, actorID, id)
		if err != nil {
			return err
		}
		if current.Status != model.RequestStatusPending {
			return model.ErrNotPending
		}

		approved, err := store.ApproveRequest(ctx, tx, id)
		if err != nil {
			return err
		}
		if !approved {
			return model.ErrNotPending
		}

		if s.policy.AutoLock {
			locked, err := store.LockItem(ctx, tx, current.ItemID, current.RequesterID, current.ID)
			if err != nil {
				return err
			}
			if !locked {
				return model.ErrItemUnavailable
			}
			if err := store.IncrementItemsBorrowed(ctx, tx, current.RequesterID); err != nil {
				return err
			}
		}

		r, err = getRequest(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRequestTransition(model.RequestStatusApproved)
	slog.Info("borrow request approved", "owner", r.OwnerEmail, "item", r.ItemName,
		"requester", r.RequesterEmail, "auto_lock", s.policy.AutoLock)
	return r, nil
}

// Reject closes a pending or approved request for an item owned by actorID.
// Rejecting an approved request ends its loan, so an item it locked comes
// back as available. The record is kept in the item's history but leaves
// the ledger.
func (s *Service) Reject(ctx context.Context, actorID, id string) error {
	var r *model.BorrowRequest
	var returned bool
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		r, err = ownedRequest(ctx, tx, actorID, id)
		if err != nil {
			return err
		}
		if r.Status == model.RequestStatusCompleted {
			return model.ErrAlreadyCompleted
		}

		rejected, err := store.RejectRequest(ctx, tx, id)
		if err != nil {
			return err
		}
		if !rejected {
			return model.ErrAlreadyCompleted
		}

		if r.Status == model.RequestStatusApproved {
			returned, err = store.ReleaseLoan(ctx, tx, r.ItemID, r.ID)
		}
		return err
	})
	if err != nil {
		return err
	}

	s.metrics.RecordRequestTransition(model.RequestStatusRejected)
	slog.Info("borrow request rejected", "owner", r.OwnerEmail, "item", r.ItemName,
		"requester", r.RequesterEmail, "item_returned", returned)
	return nil
}

// Complete marks a pending or approved request completed. If the request
// holds the item's loan the item comes back as available. Completing an
// already completed request returns it unchanged.
func (s *Service) Complete(ctx context.Context, actorID, id string) (*model.BorrowRequest, error) {
	var r *model.BorrowRequest
	var returned, repeated bool
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		current, err := ownedRequest(ctx, tx, actorID, id)
		if err != nil {
			return err
		}
		if current.Status == model.RequestStatusCompleted {
			r, repeated = current, true
			return nil
		}

		completed, err := store.CompleteRequest(ctx, tx, id)
		if err != nil {
			return err
		}
		if !completed {
			return model.ErrAlreadyCompleted
		}

		if current.Status == model.RequestStatusApproved {
			returned, err = store.ReleaseLoan(ctx, tx, current.ItemID, current.ID)
			if err != nil {
				return err
			}
		}

		r, err = getRequest(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if repeated {
		return r, nil
	}

	s.metrics.RecordRequestTransition(model.RequestStatusCompleted)
	slog.Info("borrow request completed", "owner", r.OwnerEmail, "item", r.ItemName,
		"requester", r.RequesterEmail, "item_returned", returned)
	return r, nil
}

// DeleteItem removes an item owned by actorID. It is refused with
// model.ErrItemOnLoan while an approved request is still open; otherwise
// pending requests are cancelled and the item and its history are removed.
func (s *Service) DeleteItem(ctx context.Context, actorID, id string) error {
	var item *model.Item
	var cancelled int64
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		item, err = ownedItem(ctx, tx, actorID, id)
		if err != nil {
			return err
		}

		onLoan, err := store.HasOpenLoan(ctx, tx, id)
		if err != nil {
			return err
		}
		if onLoan {
			return model.ErrItemOnLoan
		}

		cancelled, err = store.CancelPendingForItem(ctx, tx, id)
		if err != nil {
			return err
		}
		deleted, err := store.DeleteItem(ctx, tx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return model.ErrItemNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.RecordItemDeleted()
	for i := int64(0); i < cancelled; i++ {
		s.metrics.RecordRequestTransition(model.RequestStatusCancelled)
	}
	slog.Info("item deleted", "owner", item.OwnerEmail, "item", item.Name, "cancelled_requests", cancelled)
	return nil
}
