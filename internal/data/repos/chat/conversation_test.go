package chat

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/sejmwatch/sejmwatch-backend/internal/domain"
	"github.com/sejmwatch/sejmwatch-backend/internal/data/repos/testutil"
	"github.com/sejmwatch/sejmwatch-backend/internal/pkg/dbctx"
)

func TestConversationRepo_CRUD(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewConversationRepo(db, log)
	userID := uuid.New()

	created, err := repo.Create(dbc, []*types.Conversation{
		{UserID: userID, Title: "Pierwsza"},
		{UserID: userID, Title: "Druga"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(created) != 2 || created[0].ID == uuid.Nil {
		t.Fatalf("created = %+v", created)
	}

	got, err := repo.GetByID(dbc, created[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Title != "Pierwsza" {
		t.Fatalf("got = %+v", got)
	}

	if got, err := repo.GetByID(dbc, uuid.New()); err != nil || got != nil {
		t.Fatalf("unknown id: got %+v, err %v", got, err)
	}

	if err := repo.UpdateTitle(dbc, created[0].ID, "Budżet"); err != nil {
		t.Fatalf("update title: %v", err)
	}
	got, err = repo.GetByID(dbc, created[0].ID)
	if err != nil || got.Title != "Budżet" {
		t.Fatalf("after rename: %+v, err %v", got, err)
	}

	// Touching bumps updated_at, which drives the listing order.
	if err := repo.Touch(dbc, created[1].ID, time.Now().UTC().Add(time.Hour)); err != nil {
		t.Fatalf("touch: %v", err)
	}
	list, err := repo.ListByUser(dbc, userID, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != created[1].ID {
		t.Fatalf("listing order wrong: %+v", list)
	}

	if err := repo.Delete(dbc, created[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err = repo.GetByID(dbc, created[0].ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Fatalf("soft-deleted conversation still visible: %+v", got)
	}
}
