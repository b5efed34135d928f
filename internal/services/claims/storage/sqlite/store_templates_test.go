package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/louisbranch/reimburse/internal/services/claims/storage"
)

func TestTemplateLifecycle(t *testing.T) {
	store := openTempStore(t)
	putUser(t, store, "user-1", "E001")
	putUser(t, store, "user-2", "E002")
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	for i, name := range []string{"Monthly Delhi", "Quarterly Mumbai"} {
		err := store.CreateTemplate(ctx, storage.Template{
			ID:        "tpl-" + name,
			UserID:    "user-1",
			Name:      name,
			FormData:  `{"purposeOfTravel":"Audit"}`,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("create template %s: %v", name, err)
		}
	}

	list, err := store.ListTemplates(ctx, "user-1")
	if err != nil {
		t.Fatalf("list templates: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Quarterly Mumbai" || list[1].Name != "Monthly Delhi" {
		t.Fatalf("unexpected templates: %+v", list)
	}
	if list[0].ReceiptsData != "[]" {
		t.Fatalf("receipts data = %q, want []", list[0].ReceiptsData)
	}

	got, err := store.GetTemplate(ctx, "user-1", "tpl-Monthly Delhi")
	if err != nil {
		t.Fatalf("get template: %v", err)
	}
	if got.FormData != `{"purposeOfTravel":"Audit"}` || !got.CreatedAt.Equal(base) {
		t.Fatalf("unexpected template: %+v", got)
	}

	if _, err := store.GetTemplate(ctx, "user-2", "tpl-Monthly Delhi"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found for other user, got %v", err)
	}
	if err := store.DeleteTemplate(ctx, "user-1", "tpl-Monthly Delhi"); err != nil {
		t.Fatalf("delete template: %v", err)
	}
	if err := store.DeleteTemplate(ctx, "user-1", "tpl-Monthly Delhi"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestCreateTemplateValidates(t *testing.T) {
	store := openTempStore(t)
	putUser(t, store, "user-1", "E001")
	for _, tpl := range []storage.Template{
		{UserID: "user-1", Name: "n", FormData: "{}"},
		{ID: "t", Name: "n", FormData: "{}"},
		{ID: "t", UserID: "user-1", FormData: "{}"},
		{ID: "t", UserID: "user-1", Name: "n"},
	} {
		if err := store.CreateTemplate(context.Background(), tpl); err == nil {
			t.Fatalf("expected error for %+v", tpl)
		}
	}
}
