package state

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/kv"
	"github.com/mind-engage/mindengage-quiz/internal/notify"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, error) { return nil, errors.New("disk on fire") }
func (failingStore) Put(context.Context, string, []byte) error { return errors.New("disk on fire") }

func TestOpen_CorruptDataDegradesToDefaults(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	_ = store.Put(ctx, KeyLibrary, []byte(`{not json`))
	_ = store.Put(ctx, KeyBranding, []byte(`"???"`))
	_ = store.Put(ctx, KeyNotifications, []byte(`[{"id":1}`))

	r := Open(ctx, store, DefaultBranding())
	if len(r.Library()) != 0 || r.Ledger().Len() != 0 {
		t.Fatalf("expected empty defaults")
	}
	if r.Branding() != DefaultBranding() {
		t.Fatalf("expected default branding, got %+v", r.Branding())
	}
}

func TestOpen_ReadErrorDegrades(t *testing.T) {
	r := Open(context.Background(), failingStore{}, DefaultBranding())
	if len(r.Library()) != 0 {
		t.Fatalf("expected empty library")
	}
	// writes fail silently too
	if err := r.SaveBranding(context.Background(), Branding{AppName: "X"}); err != nil {
		t.Fatalf("write failure must not surface: %v", err)
	}
	if r.Branding().AppName != "X" {
		t.Fatalf("in-memory value should be updated")
	}
}

func TestOpen_DropsInvalidLibraryEntries(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	lib := []quiz.Question{
		{ID: "ok", Text: "?", Options: []string{"a", "b"}, CorrectIndex: 1, Grade: 6, Subject: quiz.SubjectMath},
		{ID: "bad", Text: "?", Options: []string{"a", "b"}, CorrectIndex: 5},
	}
	buf, _ := json.Marshal(lib)
	_ = store.Put(ctx, KeyLibrary, buf)

	r := Open(ctx, store, DefaultBranding())
	got := r.Library()
	if len(got) != 1 || got[0].ID != "ok" {
		t.Fatalf("unexpected library %+v", got)
	}
}

func TestOpen_DropsDuplicateLibraryIDs(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	lib := []quiz.Question{
		{ID: "1", Text: "first", Options: []string{"a", "b"}, CorrectIndex: 0, Grade: 7, Subject: quiz.SubjectMath},
		{ID: "1", Text: "second", Options: []string{"a", "b"}, CorrectIndex: 1, Grade: 7, Subject: quiz.SubjectMath},
		{ID: "2", Text: "third", Options: []string{"a", "b"}, CorrectIndex: 1, Grade: 7, Subject: quiz.SubjectMath},
	}
	buf, _ := json.Marshal(lib)
	_ = store.Put(ctx, KeyLibrary, buf)

	got := Open(ctx, store, DefaultBranding()).Library()
	if len(got) != 2 || got[0].Text != "first" || got[1].ID != "2" {
		t.Fatalf("expected the first copy of each id, got %+v", got)
	}
	if err := quiz.ValidateAll(got); err != nil {
		t.Fatalf("loaded library must be usable as a session: %v", err)
	}
}

func TestWriteThroughAndReload(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	r := Open(ctx, store, DefaultBranding())

	q := quiz.Question{ID: "q1", Text: "?", Options: []string{"a", "b"}, Grade: 7, Subject: quiz.SubjectMath}
	if err := r.UpdateLibrary(ctx, func(lib []quiz.Question) ([]quiz.Question, error) {
		return quiz.Prepend(lib, q), nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := r.UpdateLedger(ctx, func(l *notify.Ledger) error {
		l.Append(notify.New("An", "an", "coLan", quiz.SubjectMath, quiz.GeneralTopic, 3, 5, time.Now()))
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := r.SaveBranding(ctx, Branding{AppName: "Trường A", AppSubtitle: "Ôn tập"}); err != nil {
		t.Fatal(err)
	}

	again := Open(ctx, store, DefaultBranding())
	if len(again.Library()) != 1 || again.Ledger().Len() != 1 || again.Branding().AppName != "Trường A" {
		t.Fatalf("state not persisted: lib=%d ledger=%d branding=%+v", len(again.Library()), again.Ledger().Len(), again.Branding())
	}
}

func TestUpdateLibrary_ErrorLeavesStateAlone(t *testing.T) {
	ctx := context.Background()
	r := Open(ctx, kv.NewMemory(), DefaultBranding())
	boom := errors.New("boom")
	err := r.UpdateLibrary(ctx, func([]quiz.Question) ([]quiz.Question, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestSaveBranding_Validation(t *testing.T) {
	r := Open(context.Background(), kv.NewMemory(), DefaultBranding())
	if err := r.SaveBranding(context.Background(), Branding{}); !errors.Is(err, ErrInvalidBranding) {
		t.Fatalf("expected ErrInvalidBranding, got %v", err)
	}
}
