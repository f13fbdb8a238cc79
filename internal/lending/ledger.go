package lending

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/erazemk/borrow/internal/model"
	"github.com/erazemk/borrow/internal/store"
)

// ListAllRequests returns every live request.
func (s *Service) ListAllRequests(ctx context.Context) ([]model.BorrowRequest, error) {
	return store.ListRequests(ctx, s.db, store.RequestFilter{})
}

// IncomingRequests returns live requests for items owned by ownerID.
func (s *Service) IncomingRequests(ctx context.Context, ownerID string) ([]model.BorrowRequest, error) {
	return store.ListRequests(ctx, s.db, store.RequestFilter{OwnerID: ownerID})
}

// OutgoingRequests returns live requests made by requesterID.
func (s *Service) OutgoingRequests(ctx context.Context, requesterID string) ([]model.BorrowRequest, error) {
	return store.ListRequests(ctx, s.db, store.RequestFilter{RequesterID: requesterID})
}

// PendingCount returns how many requests await ownerID's decision.
func (s *Service) PendingCount(ctx context.Context, ownerID string) (int, error) {
	return store.CountPendingForOwner(ctx, s.db, ownerID)
}

// GetRequest returns a live request visible to actorID, who must be its
// owner or requester.
func (s *Service) GetRequest(ctx context.Context, actorID, id string) (*model.BorrowRequest, error) {
	r, err := getRequest(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if r.OwnerID != actorID && r.RequesterID != actorID {
		return nil, model.ErrForbidden
	}
	return r, nil
}

// CreateRequest records requesterID's wish to borrow an item. An urgency of
// zero means the default.
func (s *Service) CreateRequest(ctx context.Context, requesterID, itemID string, urgency int) (*model.BorrowRequest, error) {
	urgency, err := model.ValidateUrgency(urgency)
	if err != nil {
		return nil, err
	}

	var r *model.BorrowRequest
	err = store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		item, err := getItem(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if item.OwnerID == requesterID {
			return model.ErrOwnItem
		}
		if item.Status != model.ItemStatusAvailable {
			return model.ErrItemUnavailable
		}

		r, err = store.CreateRequest(ctx, tx, store.RequestDraft{
			ItemID:      item.ID,
			RequesterID: requesterID,
			OwnerID:     item.OwnerID,
			Rating:      urgency,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRequestCreated()
	slog.Info("borrow request created", "requester", r.RequesterEmail, "item", r.ItemName, "owner", r.OwnerEmail)
	return r, nil
}

// Cancel withdraws a pending request. Only its requester may cancel it.
func (s *Service) Cancel(ctx context.Context, actorID, id string) error {
	var r *model.BorrowRequest
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		r, err = getRequest(ctx, tx, id)
		if err != nil {
			return err
		}
		if r.RequesterID != actorID {
			return model.ErrForbidden
		}
		if r.Status != model.RequestStatusPending {
			return model.ErrNotPending
		}
		cancelled, err := store.CancelRequest(ctx, tx, id)
		if err != nil {
			return err
		}
		if !cancelled {
			return model.ErrNotPending
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.RecordRequestTransition(model.RequestStatusCancelled)
	slog.Info("borrow request cancelled", "requester", r.RequesterEmail, "item", r.ItemName)
	return nil
}

func getRequest(ctx context.Context, db store.DBTX, id string) (*model.BorrowRequest, error) {
	r, err := store.GetRequest(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, model.ErrRequestNotFound
	}
	return r, nil
}

// ownedRequest returns the request if actorID owns its item.
func ownedRequest(ctx context.Context, db store.DBTX, actorID, id string) (*model.BorrowRequest, error) {
	r, err := getRequest(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if r.OwnerID != actorID {
		return nil, model.ErrForbidden
	}
	return r, nil
}
