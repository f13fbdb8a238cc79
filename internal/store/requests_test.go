package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/erazemk/borrow/internal/db"
	"github.com/erazemk/borrow/internal/model"
)

func TestCreateRequestAndList(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, database, "Alice", "alice@example.com")
	bob := createTestUser(t, database, "Bob", "bob@example.com")
	drill := createTestItem(t, database, alice.ID, "Drill", "Tools")

	req, err := CreateRequest(ctx, database, RequestDraft{
		ItemID: drill.ID, RequesterID: bob.ID, OwnerID: alice.ID, Rating: 4,
	})
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if req.Status != model.RequestStatusPending {
		t.Errorf("expected pending, got %q", req.Status)
	}
	if req.ItemName != "Drill" || req.RequesterName != "Bob" || req.OwnerName != "Alice" {
		t.Errorf("unexpected joined fields: %+v", req)
	}

	incoming, _ := ListRequests(ctx, database, RequestFilter{OwnerID: alice.ID})
	if len(incoming) != 1 {
		t.Errorf("expected 1 incoming request, got %d", len(incoming))
	}
	outgoing, _ := ListRequests(ctx, database, RequestFilter{RequesterID: bob.ID})
	if len(outgoing) != 1 {
		t.Errorf("expected 1 outgoing request, got %d", len(outgoing))
	}
	count, _ := CountPendingForOwner(ctx, database, alice.ID)
	if count != 1 {
		t.Errorf("expected 1 pending, got %d", count)
	}
}

func TestCreateRequestDuplicatePending(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, database, "Alice", "alice@example.com")
	bob := createTestUser(t, database, "Bob", "bob@example.com")
	drill := createTestItem(t, database, alice.ID, "Drill", "Tools")
	draft := RequestDraft{ItemID: drill.ID, RequesterID: bob.ID, OwnerID: alice.ID, Rating: 3}

	first, _ := CreateRequest(ctx, database, draft)
	if _, err := CreateRequest(ctx, database, draft); !errors.Is(err, model.ErrDuplicatePending) {
		t.Fatalf("expected ErrDuplicatePending, got %v", err)
	}

	// Once the first request is no longer pending a new one is allowed.
	RejectRequest(ctx, database, first.ID)
	if _, err := CreateRequest(ctx, database, draft); err != nil {
		t.Errorf("expected new request after rejection, got %v", err)
	}
}

func TestRequestTransitions(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, database, "Alice", "alice@example.com")
	bob := createTestUser(t, database, "Bob", "bob@example.com")
	drill := createTestItem(t, database, alice.ID, "Drill", "Tools")

	req, _ := CreateRequest(ctx, database, RequestDraft{
		ItemID: drill.ID, RequesterID: bob.ID, OwnerID: alice.ID, Rating: 3,
	})

	moved, err := ApproveRequest(ctx, database, req.ID)
	if err != nil {
		t.Fatalf("ApproveRequest: %v", err)
	}
	if !moved {
		t.Fatal("expected pending request to be approved")
	}
	got, _ := GetRequest(ctx, database, req.ID)
	if got.Status != model.RequestStatusApproved || got.ApprovedAt == nil {
		t.Errorf("expected approved with timestamp, got %+v", got)
	}

	// Approval leaves the item alone.
	item, _ := GetItem(ctx, database, drill.ID)
	if item.Status != model.ItemStatusAvailable {
		t.Errorf("expected item still available, got %q", item.Status)
	}

	if moved, _ := ApproveRequest(ctx, database, req.ID); moved {
		t.Error("expected re-approve to be a no-op")
	}

	if moved, _ := CompleteRequest(ctx, database, req.ID); !moved {
		t.Fatal("expected approved request to complete")
	}
	got, _ = GetRequest(ctx, database, req.ID)
	if got.Status != model.RequestStatusCompleted || got.CompletedAt == nil {
		t.Errorf("expected completed with timestamp, got %+v", got)
	}

	// Completed is final.
	for name, op := range map[string]func(context.Context, DBTX, string) (bool, error){
		"complete": CompleteRequest,
		"reject":   RejectRequest,
		"cancel":   CancelRequest,
		"approve":  ApproveRequest,
	} {
		if moved, _ := op(ctx, database, req.ID); moved {
			t.Errorf("%s: expected completed request to stay completed", name)
		}
	}

	if moved, _ := ApproveRequest(ctx, database, "missing"); moved {
		t.Error("expected no-op for missing request")
	}
}

func TestClosedRequestsLeaveLedger(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, database, "Alice", "alice@example.com")
	bob := createTestUser(t, database, "Bob", "bob@example.com")
	drill := createTestItem(t, database, alice.ID, "Drill", "Tools")
	draft := RequestDraft{ItemID: drill.ID, RequesterID: bob.ID, OwnerID: alice.ID, Rating: 3}

	rejected, _ := CreateRequest(ctx, database, draft)
	if _, err := RejectRequest(ctx, database, rejected.ID); err != nil {
		t.Fatalf("RejectRequest: %v", err)
	}
	cancelled, _ := CreateRequest(ctx, database, draft)
	if _, err := CancelRequest(ctx, database, cancelled.ID); err != nil {
		t.Fatalf("CancelRequest: %v", err)
	}

	if got, _ := GetRequest(ctx, database, rejected.ID); got != nil {
		t.Error("expected rejected request to be invisible")
	}
	incoming, _ := ListRequests(ctx, database, RequestFilter{OwnerID: alice.ID})
	if len(incoming) != 0 {
		t.Errorf("expected no live requests, got %d", len(incoming))
	}

	for _, op := range []func(context.Context, DBTX, string) (bool, error){ApproveRequest, RejectRequest, CompleteRequest, CancelRequest} {
		if moved, err := op(ctx, database, rejected.ID); err != nil || moved {
			t.Errorf("expected closed request to stay closed, got moved=%v err=%v", moved, err)
		}
	}

	history, err := ListRequestHistory(ctx, database, drill.ID)
	if err != nil {
		t.Fatalf("ListRequestHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}
	if history[0].Status != model.RequestStatusRejected || history[1].Status != model.RequestStatusCancelled {
		t.Errorf("unexpected history order: %q, %q", history[0].Status, history[1].Status)
	}
}

func TestHasOpenLoanAndCancelPending(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, database, "Alice", "alice@example.com")
	bob := createTestUser(t, database, "Bob", "bob@example.com")
	carol := createTestUser(t, database, "Carol", "carol@example.com")
	drill := createTestItem(t, database, alice.ID, "Drill", "Tools")

	bobs, _ := CreateRequest(ctx, database, RequestDraft{ItemID: drill.ID, RequesterID: bob.ID, OwnerID: alice.ID, Rating: 3})
	CreateRequest(ctx, database, RequestDraft{ItemID: drill.ID, RequesterID: carol.ID, OwnerID: alice.ID, Rating: 3})

	if open, _ := HasOpenLoan(ctx, database, drill.ID); open {
		t.Error("expected no open loan before approval")
	}
	ApproveRequest(ctx, database, bobs.ID)
	if open, _ := HasOpenLoan(ctx, database, drill.ID); !open {
		t.Error("expected open loan after approval")
	}

	n, err := CancelPendingForItem(ctx, database, drill.ID)
	if err != nil {
		t.Fatalf("CancelPendingForItem: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 cancelled request, got %d", n)
	}
}

func TestDeleteItemCascadesRequests(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, database, "Alice", "alice@example.com")
	bob := createTestUser(t, database, "Bob", "bob@example.com")
	drill := createTestItem(t, database, alice.ID, "Drill", "Tools")

	req, _ := CreateRequest(ctx, database, RequestDraft{ItemID: drill.ID, RequesterID: bob.ID, OwnerID: alice.ID, Rating: 3})
	if _, err := DeleteItem(ctx, database, drill.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	var count int
	database.QueryRowContext(ctx, `SELECT COUNT(*) FROM requests WHERE id = ?`, req.ID).Scan(&count)
	if count != 0 {
		t.Errorf("expected request rows to cascade, got %d", count)
	}
}

func TestWithTxRollsBack(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, database, "Alice", "alice@example.com")

	boom := errors.New("boom")
	err := WithTx(ctx, database, func(tx *sql.Tx) error {
		if _, err := CreateItem(ctx, tx, alice.ID, model.ItemDraft{Name: "Drill", Category: "Tools", Condition: model.ConditionGood}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	items, _ := ListItems(ctx, database, ItemFilter{})
	if len(items) != 0 {
		t.Errorf("expected rollback to discard item, got %d", len(items))
	}
}
