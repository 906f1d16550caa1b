package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"vibelist-api/domain"
	"vibelist-api/storage"
)

var sess = domain.Session{Email: "ada@example.com", DisplayName: "Ada"}

func newTestStore() (*Store, *storage.Memory) {
	kv := storage.NewMemory()
	logger, _ := test.NewNullLogger()
	s := New(kv, logger)

	var seq int
	s.newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	var tick int64
	s.now = func() time.Time {
		tick++
		return time.UnixMilli(tick)
	}
	s.pickColor = func() int { return 3 }
	return s, kv
}

func str(s string) *string { return &s }

func TestCreateThenLoad(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	created, err := s.Create(ctx, sess, domain.Draft{Text: "  buy milk  ", DueDate: "2024-06-10", Notes: "oat"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Text != "buy milk" {
		t.Fatalf("expected trimmed text, got %q", created.Text)
	}
	if created.ID == "" || created.Done || created.CreatedAt == 0 {
		t.Fatalf("unexpected task: %+v", created)
	}
	if created.Priority != domain.DefaultPriority {
		t.Fatalf("expected default priority, got %q", created.Priority)
	}
	if created.Category != domain.Categories[0] {
		t.Fatalf("expected default category, got %q", created.Category)
	}
	if created.ColorTag != 3 {
		t.Fatalf("unexpected color tag: %d", created.ColorTag)
	}

	loaded, err := s.Load(ctx, sess)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 || !reflect.DeepEqual(loaded[0], created) {
		t.Fatalf("unexpected collection: %#v", loaded)
	}
}

func TestCreatePrependsAndKeepsUniqueIDs(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	first, _ := s.Create(ctx, sess, domain.Draft{Text: "first"})
	second, _ := s.Create(ctx, sess, domain.Draft{Text: "second"})
	if first.ID == second.ID {
		t.Fatalf("ids must be unique, both %q", first.ID)
	}

	loaded, _ := s.Load(ctx, sess)
	if loaded[0].ID != second.ID || loaded[1].ID != first.ID {
		t.Fatalf("expected most-recent-first insertion order, got %#v", loaded)
	}
}

func TestLoadEmptyForNewAccount(t *testing.T) {
	s, _ := newTestStore()

	tasks, err := s.Load(context.Background(), sess)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Fatalf("expected empty non-nil collection, got %#v", tasks)
	}
}

func TestCreateValidation(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	cases := []domain.Draft{
		{Text: "   "},
		{Text: "ok", Priority: "urgent"},
		{Text: "ok", Category: "chores"},
		{Text: "ok", DueDate: "June 10"},
		{Text: "ok", DueDate: "2024-6-1"},
	}
	for _, draft := range cases {
		_, err := s.Create(ctx, sess, draft)
		var verr domain.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("draft %+v: expected ValidationError, got %v", draft, err)
		}
	}
	if tasks, _ := s.Load(ctx, sess); len(tasks) != 0 {
		t.Fatalf("rejected drafts must not be stored, got %d tasks", len(tasks))
	}
}

func TestUpdateMergesPatch(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	created, _ := s.Create(ctx, sess, domain.Draft{Text: "draft", DueDate: "2024-06-10"})

	updated, err := s.Update(ctx, sess, created.ID, domain.Patch{
		Text:    str("final"),
		DueDate: str(""),
		Notes:   str("ship it"),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Text != "final" || updated.DueDate != "" || updated.Notes != "ship it" {
		t.Fatalf("unexpected merge: %+v", updated)
	}
	if updated.ID != created.ID || updated.CreatedAt != created.CreatedAt || updated.ColorTag != created.ColorTag {
		t.Fatal("id, createdAt and colorTag must survive updates")
	}
}

func TestUpdateRejectsEmptyText(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	created, _ := s.Create(ctx, sess, domain.Draft{Text: "keep me"})

	_, err := s.Update(ctx, sess, created.ID, domain.Patch{Text: str("   ")})
	var verr domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	loaded, _ := s.Load(ctx, sess)
	if loaded[0].Text != "keep me" {
		t.Fatalf("stored text must be unchanged, got %q", loaded[0].Text)
	}
}

func TestUpdateUnknownID(t *testing.T) {
	s, _ := newTestStore()
	_, err := s.Update(context.Background(), sess, "ghost", domain.Patch{Text: str("x")})
	if !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestToggleDoneTwiceRestoresState(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	created, _ := s.Create(ctx, sess, domain.Draft{Text: "flip me"})

	once, err := s.ToggleDone(ctx, sess, created.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !once.Done {
		t.Fatal("expected done after first toggle")
	}

	twice, err := s.ToggleDone(ctx, sess, created.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if twice.Done {
		t.Fatal("expected not done after second toggle")
	}

	if tasks, _ := s.Load(ctx, sess); len(tasks) != 1 {
		t.Fatalf("toggling must not change collection size, got %d", len(tasks))
	}
}

func TestDeleteRemovesExactlyOne(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	a, _ := s.Create(ctx, sess, domain.Draft{Text: "a"})
	b, _ := s.Create(ctx, sess, domain.Draft{Text: "b"})

	if err := s.Delete(ctx, sess, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	loaded, _ := s.Load(ctx, sess)
	if len(loaded) != 1 || loaded[0].ID != b.ID {
		t.Fatalf("unexpected remainder: %#v", loaded)
	}

	if err := s.Delete(ctx, sess, a.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("repeat delete: expected ErrTaskNotFound, got %v", err)
	}
	if loaded, _ = s.Load(ctx, sess); len(loaded) != 1 {
		t.Fatal("failed delete must leave the collection unchanged")
	}
}

func TestClearCompleted(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	a, _ := s.Create(ctx, sess, domain.Draft{Text: "active"})
	d1, _ := s.Create(ctx, sess, domain.Draft{Text: "done one"})
	d2, _ := s.Create(ctx, sess, domain.Draft{Text: "done two"})
	_, _ = s.ToggleDone(ctx, sess, d1.ID)
	_, _ = s.ToggleDone(ctx, sess, d2.ID)

	removed, err := s.ClearCompleted(ctx, sess)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}

	loaded, _ := s.Load(ctx, sess)
	if len(loaded) != 1 || loaded[0].ID != a.ID {
		t.Fatalf("unexpected remainder: %#v", loaded)
	}

	again, err := s.ClearCompleted(ctx, sess)
	if err != nil || again != 0 {
		t.Fatalf("expected no-op clear, removed=%d err=%v", again, err)
	}
}

func TestFailedWriteLeavesDurableStateUntouched(t *testing.T) {
	s, kv := newTestStore()
	ctx := context.Background()

	created, _ := s.Create(ctx, sess, domain.Draft{Text: "safe"})

	kv.FailSets = true
	_, err := s.ToggleDone(ctx, sess, created.ID)
	var perr domain.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	kv.FailSets = false

	loaded, err := s.Load(ctx, sess)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded[0].Done {
		t.Fatal("failed write must not leave the toggle applied")
	}
}

func TestAccountsAreIsolated(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()
	other := domain.Session{Email: "bob@example.com", DisplayName: "Bob"}

	mine, _ := s.Create(ctx, sess, domain.Draft{Text: "mine"})

	if tasks, _ := s.Load(ctx, other); len(tasks) != 0 {
		t.Fatalf("expected empty collection for other account, got %#v", tasks)
	}
	if err := s.Delete(ctx, other, mine.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("cross-account delete must miss, got %v", err)
	}
}

func TestConcurrentMutationsDoNotLoseUpdates(t *testing.T) {
	kv := storage.NewMemory()
	logger, _ := test.NewNullLogger()
	s := New(kv, logger)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.Create(ctx, sess, domain.Draft{Text: fmt.Sprintf("task %d", i)}); err != nil {
				t.Errorf("create %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	loaded, err := s.Load(ctx, sess)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != n {
		t.Fatalf("lost updates: expected %d tasks, got %d", n, len(loaded))
	}
}
