package session

import (
	"sync"
	"testing"

	"cvbot_backend/internal/i18n"
)

func TestStoreGetCreatesOnce(t *testing.T) {
	store := NewStore()

	first := store.Get(42)
	second := store.Get(42)
	if first != second {
		t.Fatal("expected the same session on repeated Get")
	}
	if first.UserID != 42 {
		t.Fatalf("expected user id 42, got %d", first.UserID)
	}
}

func TestStoreGetConcurrent(t *testing.T) {
	store := NewStore()

	var wg sync.WaitGroup
	results := make([]*Session, 50)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = store.Get(7)
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Fatal("concurrent Get returned different sessions for one user")
		}
	}
}

func TestResetFlowKeepsLanguage(t *testing.T) {
	store := NewStore()
	sess := store.Get(1)
	sess.Lang = i18n.LangAmharic
	sess.Phase = PhaseSkills
	sess.FieldIdx = 1
	sess.Item = []string{"Go"}
	sess.Draft().FirstName = "Abebe"
	sess.ActiveOrderID = "ord-1"
	sess.Notified = true

	sess.ResetFlow()

	if sess.Lang != i18n.LangAmharic {
		t.Fatal("reset must keep the language choice")
	}
	if sess.Phase != PhaseIdle || sess.FieldIdx != 0 || sess.Item != nil {
		t.Fatal("reset left wizard progress behind")
	}
	if sess.Profile != nil || sess.ActiveOrderID != "" || sess.Notified {
		t.Fatal("reset left order state behind")
	}
}

func TestPeekAndDelete(t *testing.T) {
	store := NewStore()
	if _, ok := store.Peek(9); ok {
		t.Fatal("Peek must not create sessions")
	}

	store.Get(9)
	if _, ok := store.Peek(9); !ok {
		t.Fatal("expected session after Get")
	}

	store.Delete(9)
	if _, ok := store.Peek(9); ok {
		t.Fatal("expected session gone after Delete")
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	store := NewStore()
	store.Get(1)
	store.Get(2)

	snap := store.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(snap))
	}

	store.Get(3)
	if len(snap) != 2 {
		t.Fatal("snapshot must not grow with the store")
	}
}
