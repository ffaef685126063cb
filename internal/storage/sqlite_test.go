package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/newsproof/newsproof/internal/classify"
	"github.com/newsproof/newsproof/internal/ingest"
)

func newStore(t *testing.T) *SubmissionStore {
	t.Helper()
	store, err := NewSubmissionStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sample(id, userID string, createdAt time.Time) *ingest.Submission {
	return &ingest.Submission{
		ID:        id,
		UserID:    userID,
		Type:      "text",
		Content:   "sample content for classification",
		CreatedAt: createdAt,
	}
}

func TestCreateAndRecordPrediction(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	sub := sample("sub-1", "user-1", time.Now())
	if err := store.Create(ctx, sub); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.RecordPrediction(ctx, "sub-1", classify.LabelFake, 0.93, 0.045); err != nil {
		t.Fatalf("record prediction: %v", err)
	}

	subs, err := store.ListByUser(ctx, "user-1", 1, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(subs))
	}
	got := subs[0]
	if got.Prediction != classify.LabelFake || got.Confidence != 0.93 {
		t.Fatalf("unexpected stored prediction: %+v", got)
	}
}

func TestRecordPrediction_MissingSubmission(t *testing.T) {
	store := newStore(t)
	if err := store.RecordPrediction(context.Background(), "nope", classify.LabelReal, 0.5, 0); err == nil {
		t.Fatalf("expected error for unknown submission")
	}
}

func TestListByUser_PaginatesNewestFirst(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 5; i++ {
		sub := sample(string(rune('a'+i)), "user-1", base.Add(time.Duration(i)*time.Minute))
		if err := store.Create(ctx, sub); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	if err := store.Create(ctx, sample("z", "someone-else", base)); err != nil {
		t.Fatalf("create other user: %v", err)
	}

	page1, err := store.ListByUser(ctx, "user-1", 1, 2)
	if err != nil {
		t.Fatalf("list page 1: %v", err)
	}
	if len(page1) != 2 || page1[0].ID != "e" || page1[1].ID != "d" {
		t.Fatalf("unexpected page 1: %+v", page1)
	}

	page3, err := store.ListByUser(ctx, "user-1", 3, 2)
	if err != nil {
		t.Fatalf("list page 3: %v", err)
	}
	if len(page3) != 1 || page3[0].ID != "a" {
		t.Fatalf("unexpected page 3: %+v", page3)
	}
}

func TestStats(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	for i, label := range []classify.Label{classify.LabelFake, classify.LabelFake, classify.LabelReal} {
		id := string(rune('a' + i))
		if err := store.Create(ctx, sample(id, "u", time.Now())); err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := store.RecordPrediction(ctx, id, label, 0.8, 0.01); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	// One submission still pending classification.
	if err := store.Create(ctx, sample("pending", "u", time.Now())); err != nil {
		t.Fatalf("create pending: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 4 {
		t.Fatalf("expected total 4, got %d", stats.Total)
	}
	if stats.ByLabel[classify.LabelFake] != 2 || stats.ByLabel[classify.LabelReal] != 1 {
		t.Fatalf("unexpected label counts: %+v", stats.ByLabel)
	}
}
