package tabs

import (
	"context"
	"errors"
	"testing"
)

func TestMemDirectoryCreateAndGet(t *testing.T) {
	ctx := context.Background()
	d := NewMemDirectory()

	created, err := d.Create(ctx, "https://a.test")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if created.Locator != "https://a.test" {
		t.Errorf("Locator = %q, want %q", created.Locator, "https://a.test")
	}

	got, err := d.Get(ctx, created.Handle)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Handle != created.Handle {
		t.Errorf("Handle = %q, want %q", got.Handle, created.Handle)
	}

	// Creation focuses the new tab.
	cur, err := d.Current(ctx)
	if err != nil {
		t.Fatalf("Current error: %v", err)
	}
	if cur.Handle != created.Handle {
		t.Errorf("Current = %q, want %q", cur.Handle, created.Handle)
	}
}

func TestMemDirectoryGetMissing(t *testing.T) {
	d := NewMemDirectory()

	if _, err := d.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get error = %v, want ErrNotFound", err)
	}
}

func TestMemDirectoryCloseAndCurrent(t *testing.T) {
	ctx := context.Background()
	d := NewMemDirectory()

	a, _ := d.Create(ctx, "https://a.test")
	b, _ := d.Create(ctx, "https://b.test")

	if err := d.Activate(ctx, a.Handle, a.Container); err != nil {
		t.Fatalf("Activate error: %v", err)
	}
	if err := d.Close(ctx, a.Handle); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	// Closing the focused tab leaves no current target.
	if _, err := d.Current(ctx); !errors.Is(err, ErrNoCurrent) {
		t.Errorf("Current error = %v, want ErrNoCurrent", err)
	}

	list, _ := d.List(ctx)
	if len(list) != 1 || list[0].Handle != b.Handle {
		t.Errorf("List = %v, want only %q", list, b.Handle)
	}

	// Closing an unknown handle is a no-op.
	if err := d.Close(ctx, "gone"); err != nil {
		t.Errorf("Close unknown handle error: %v", err)
	}
}

func TestMemDirectoryReplace(t *testing.T) {
	ctx := context.Background()
	d := NewMemDirectory()
	d.Create(ctx, "https://old.test")

	d.Replace([]Target{
		{Handle: "t1", Container: "w1", Locator: "https://a.test"},
		{Handle: "t2", Container: "w1", Locator: "https://b.test"},
	}, "t2")

	list, _ := d.List(ctx)
	if len(list) != 2 {
		t.Fatalf("len(List) = %d, want 2", len(list))
	}
	cur, err := d.Current(ctx)
	if err != nil {
		t.Fatalf("Current error: %v", err)
	}
	if cur.Handle != "t2" {
		t.Errorf("Current = %q, want t2", cur.Handle)
	}
}
