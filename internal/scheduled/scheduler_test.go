package scheduled

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"docintake-backend/internal/classify"
	"docintake-backend/internal/ingest"
	"docintake-backend/internal/shared/storage/object"
)

type saveRecorder struct {
	saves []string
	fail  bool
}

func (s *saveRecorder) Save(ctx context.Context, fileName string, meta object.Metadata, r io.Reader) (string, int64, error) {
	if s.fail {
		return "", 0, errors.New("store down")
	}
	s.saves = append(s.saves, fileName)
	return uuid.NewString(), 1, nil
}

func (s *saveRecorder) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	return nil, object.ErrNotFound
}

func (s *saveRecorder) Stat(ctx context.Context, id string) (object.ObjectInfo, error) {
	return object.ObjectInfo{}, object.ErrNotFound
}

func (s *saveRecorder) Delete(ctx context.Context, id string) error { return nil }

func (s *saveRecorder) Rename(ctx context.Context, id, newName string) error { return nil }

func (s *saveRecorder) List(ctx context.Context, filter object.Metadata) ([]object.ObjectInfo, error) {
	return nil, nil
}

type textExtractor struct{ err error }

func (t textExtractor) Extract(ctx context.Context, data []byte, fileName string) (string, error) {
	return "invoice amount due", t.err
}

func testPipeline(store *saveRecorder) *ingest.Pipeline {
	return &ingest.Pipeline{
		Store:     store,
		Extractor: textExtractor{},
		Classifier: classify.NewClassifier(classify.NewCorpus([]classify.ReferenceEntry{
			{Category: "billing", Text: "invoice amount due total"},
		})),
	}
}

func upload(name string, due time.Time) PendingUpload {
	return PendingUpload{
		ID:          uuid.NewString(),
		FileName:    name,
		ContentType: "application/pdf",
		Data:        []byte("%PDF-1.4"),
		DueAt:       due,
		CreatedAt:   time.Now().UTC(),
	}
}

func TestMemoryRepoClaimDueIsExclusive(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	now := time.Now().UTC()

	if err := repo.Enqueue(ctx, upload("due.pdf", now.Add(-time.Minute))); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := repo.Enqueue(ctx, upload("later.pdf", now.Add(time.Hour))); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	claimed, err := repo.ClaimDue(ctx, now)
	if err != nil {
		t.Fatalf("ClaimDue: %v", err)
	}
	if len(claimed) != 1 || claimed[0].FileName != "due.pdf" {
		t.Fatalf("expected only the due item, got %+v", claimed)
	}

	// The claimed item left the queue.
	again, err := repo.ClaimDue(ctx, now)
	if err != nil {
		t.Fatalf("ClaimDue second: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("expected no re-claim, got %d items", len(again))
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected the future item to remain, count=%d", count)
	}
}

func TestMemoryRepoClaimDueOrdersByDueAt(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	now := time.Now().UTC()

	repo.Enqueue(ctx, upload("second.pdf", now.Add(-time.Minute)))
	repo.Enqueue(ctx, upload("first.pdf", now.Add(-time.Hour)))

	claimed, err := repo.ClaimDue(ctx, now)
	if err != nil {
		t.Fatalf("ClaimDue: %v", err)
	}
	if len(claimed) != 2 || claimed[0].FileName != "first.pdf" {
		t.Fatalf("expected oldest-due first, got %+v", claimed)
	}
}

func TestRunOnceCommitsDueItems(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	store := &saveRecorder{}
	s := &Scheduler{Repo: repo, Pipeline: testPipeline(store)}

	now := time.Now().UTC()
	repo.Enqueue(ctx, upload("due.pdf", now.Add(-time.Second)))
	repo.Enqueue(ctx, upload("future.pdf", now.Add(time.Hour)))

	s.RunOnce(ctx, now)

	if len(store.saves) != 1 || store.saves[0] != "due.pdf" {
		t.Fatalf("expected due.pdf committed, got %v", store.saves)
	}
	count, _ := repo.Count(ctx)
	if count != 1 {
		t.Fatalf("future item should stay queued, count=%d", count)
	}
}

func TestRunOnceDropsFailedItems(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	store := &saveRecorder{}
	pipeline := testPipeline(store)
	pipeline.Extractor = textExtractor{err: errors.New("corrupt pdf")}
	s := &Scheduler{Repo: repo, Pipeline: pipeline}

	now := time.Now().UTC()
	repo.Enqueue(ctx, upload("bad.pdf", now.Add(-time.Second)))

	s.RunOnce(ctx, now)

	// The failed item must not return to the queue.
	count, _ := repo.Count(ctx)
	if count != 0 {
		t.Fatalf("dropped item must not be requeued, count=%d", count)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{Repo: NewMemoryRepo(), Pipeline: testPipeline(&saveRecorder{}), Interval: time.Millisecond}

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
}
