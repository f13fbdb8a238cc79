package lending

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/erazemk/borrow/internal/model"
	"github.com/erazemk/borrow/internal/store"
)

// ItemFilter narrows ListItems.
type ItemFilter = store.ItemFilter

// ListItems returns every item matching filter.
func (s *Service) ListItems(ctx context.Context, filter ItemFilter) ([]model.Item, error) {
	return store.ListItems(ctx, s.db, filter)
}

// ListItemsByOwner returns the items listed by ownerID.
func (s *Service) ListItemsByOwner(ctx context.Context, ownerID string) ([]model.Item, error) {
	return store.ListItemsByOwner(ctx, s.db, ownerID)
}

// SearchItems matches query against item names and descriptions within a
// category. Empty query and the "all" category match everything.
func (s *Service) SearchItems(ctx context.Context, query, category string) ([]model.Item, error) {
	return store.SearchItems(ctx, s.db, query, category)
}

// GetItem returns an item or model.ErrItemNotFound.
func (s *Service) GetItem(ctx context.Context, id string) (*model.Item, error) {
	return getItem(ctx, s.db, id)
}

// CreateItem lists a new available item for ownerID and bumps the owner's
// shared count.
func (s *Service) CreateItem(ctx context.Context, ownerID string, draft model.ItemDraft) (*model.Item, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	var item *model.Item
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		owner, err := store.GetUser(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		if owner == nil {
			return model.ErrUserNotFound
		}

		if draft.Location == "" {
			draft.Location = owner.Location
		}

		item, err = store.CreateItem(ctx, tx, ownerID, draft)
		if err != nil {
			return err
		}
		return store.IncrementItemsShared(ctx, tx, ownerID)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordItemCreated()
	slog.Info("item created", "owner", item.OwnerEmail, "item", item.Name, "id", item.ID)
	return item, nil
}

// UpdateItem applies patch to an item owned by actorID.
func (s *Service) UpdateItem(ctx context.Context, actorID, id string, patch model.ItemPatch) (*model.Item, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var item *model.Item
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := ownedItem(ctx, tx, actorID, id); err != nil {
			return err
		}
		var err error
		item, err = store.UpdateItem(ctx, tx, id, patch)
		if err != nil {
			return err
		}
		if item == nil {
			return model.ErrItemNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("item updated", "owner", item.OwnerEmail, "item", item.Name)
	return item, nil
}

// ToggleStatus flips an owned item between available and borrowed. An item
// on an approved, uncompleted loan cannot be made available this way; the
// request has to be completed instead.
func (s *Service) ToggleStatus(ctx context.Context, actorID, id string) (*model.Item, error) {
	var item *model.Item
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		current, err := ownedItem(ctx, tx, actorID, id)
		if err != nil {
			return err
		}

		if current.Status == model.ItemStatusBorrowed {
			onLoan, err := store.HasOpenLoan(ctx, tx, id)
			if err != nil {
				return err
			}
			if onLoan {
				return model.ErrItemOnLoan
			}
		}

		item, err = store.ToggleItemStatus(ctx, tx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return model.ErrItemNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("item status toggled", "owner", item.OwnerEmail, "item", item.Name, "status", item.Status)
	return item, nil
}

// ItemHistory returns every request ever made for an item, closed ones
// included. Only the owner may read it.
func (s *Service) ItemHistory(ctx context.Context, actorID, id string) ([]model.BorrowRequest, error) {
	if _, err := ownedItem(ctx, s.db, actorID, id); err != nil {
		return nil, err
	}
	return store.ListRequestHistory(ctx, s.db, id)
}

func getItem(ctx context.Context, db store.DBTX, id string) (*model.Item, error) {
	item, err := store.GetItem(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, model.ErrItemNotFound
	}
	return item, nil
}

// ownedItem returns the item if actorID owns it.
func ownedItem(ctx context.Context, db store.DBTX, actorID, id string) (*model.Item, error) {
	item, err := getItem(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != actorID {
		return nil, model.ErrForbidden
	}
	return item, nil
}
