package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/newsproof/newsproof/internal/classify"
	"github.com/newsproof/newsproof/internal/extract"
)

type memStore struct {
	created   []*Submission
	predicted map[string]classify.Label
	failOn    string
}

func newMemStore() *memStore {
	return &memStore{predicted: make(map[string]classify.Label)}
}

func (m *memStore) Create(_ context.Context, sub *Submission) error {
	if m.failOn == "create" {
		return errors.New("create failed")
	}
	m.created = append(m.created, sub)
	return nil
}

func (m *memStore) RecordPrediction(_ context.Context, id string, label classify.Label, _, _ float64) error {
	if m.failOn == "record" {
		return errors.New("record failed")
	}
	m.predicted[id] = label
	return nil
}

func (m *memStore) ListByUser(_ context.Context, _ string, _, _ int) ([]Submission, error) {
	return nil, nil
}

func (m *memStore) Stats(_ context.Context) (Stats, error) { return Stats{}, nil }

type stubClassifier struct {
	result classify.Result
	gotTyp string
	gotTxt string
}

func (s *stubClassifier) Analyze(_ context.Context, content, contentType string) classify.Result {
	s.gotTxt = content
	s.gotTyp = contentType
	return s.result
}

type stubFetcher struct {
	html       []byte
	err        error
	accessible bool
}

func (s *stubFetcher) Fetch(_ context.Context, _ string) ([]byte, error) { return s.html, s.err }
func (s *stubFetcher) IsAccessible(_ context.Context, _ string) bool     { return s.accessible }

func realResult() classify.Result {
	return classify.Result{Label: classify.LabelReal, Confidence: 0.9, ProcessingTime: 0.012, ModelVersion: "v1.0"}
}

func TestSubmitText(t *testing.T) {
	store := newMemStore()
	cls := &stubClassifier{result: realResult()}
	svc := NewService(nil, cls, store, nil)

	out, err := svc.SubmitText(context.Background(), "user-1", "  this is long enough to analyze  ")
	if err != nil {
		t.Fatalf("submit error: %v", err)
	}
	if out.Prediction != classify.LabelReal || out.Confidence != 0.9 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if cls.gotTyp != "text" {
		t.Fatalf("expected content type text, got %q", cls.gotTyp)
	}
	if cls.gotTxt != "this is long enough to analyze" {
		t.Fatalf("expected trimmed content, got %q", cls.gotTxt)
	}
	if len(store.created) != 1 {
		t.Fatalf("expected 1 stored submission, got %d", len(store.created))
	}
	if store.predicted[out.SubmissionID] != classify.LabelReal {
		t.Fatalf("prediction not recorded for %q", out.SubmissionID)
	}
}

func TestSubmitText_Validation(t *testing.T) {
	svc := NewService(nil, &stubClassifier{}, newMemStore(), nil)
	ctx := context.Background()

	if _, err := svc.SubmitText(ctx, "u", "   "); !errors.Is(err, ErrContentRequired) {
		t.Fatalf("expected ErrContentRequired, got %v", err)
	}
	if _, err := svc.SubmitText(ctx, "u", "short"); !errors.Is(err, ErrContentTooShort) {
		t.Fatalf("expected ErrContentTooShort, got %v", err)
	}
	if _, err := svc.SubmitText(ctx, "u", strings.Repeat("x", maxTextLen+1)); !errors.Is(err, ErrContentTooLong) {
		t.Fatalf("expected ErrContentTooLong, got %v", err)
	}
}

func TestSubmitURL(t *testing.T) {
	store := newMemStore()
	cls := &stubClassifier{result: realResult()}
	fetcher := &stubFetcher{html: []byte("<html></html>"), accessible: true}
	svc := NewService(fetcher, cls, store, nil)
	svc.ExtractArticle = func(_ []byte, sourceURL string) (*extract.Article, error) {
		return &extract.Article{
			Title:     "Extracted Title",
			Body:      "the extracted article body text",
			SourceURL: sourceURL,
			WordCount: 5,
		}, nil
	}

	out, err := svc.SubmitURL(context.Background(), "user-1", "https://example.com/story")
	if err != nil {
		t.Fatalf("submit error: %v", err)
	}
	if out.ExtractedTitle != "Extracted Title" || out.WordCount != 5 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if cls.gotTyp != "url" {
		t.Fatalf("expected content type url, got %q", cls.gotTyp)
	}
	if cls.gotTxt != "the extracted article body text" {
		t.Fatalf("classifier got %q", cls.gotTxt)
	}
	if store.created[0].OriginalURL != "https://example.com/story" {
		t.Fatalf("original url not stored: %+v", store.created[0])
	}
}

func TestSubmitURL_InaccessibleRejected(t *testing.T) {
	svc := NewService(&stubFetcher{accessible: false}, &stubClassifier{}, newMemStore(), nil)
	if _, err := svc.SubmitURL(context.Background(), "u", "https://example.com"); !errors.Is(err, ErrURLNotAccessible) {
		t.Fatalf("expected ErrURLNotAccessible, got %v", err)
	}
}

func TestSubmitURL_FetchAndExtractErrorsPropagate(t *testing.T) {
	fetchErr := errors.New("boom")
	svc := NewService(&stubFetcher{err: fetchErr, accessible: true}, &stubClassifier{}, newMemStore(), nil)
	if _, err := svc.SubmitURL(context.Background(), "u", "https://example.com"); !errors.Is(err, fetchErr) {
		t.Fatalf("expected fetch error, got %v", err)
	}

	svc = NewService(&stubFetcher{html: []byte("x"), accessible: true}, &stubClassifier{}, newMemStore(), nil)
	svc.ExtractArticle = func(_ []byte, _ string) (*extract.Article, error) {
		return nil, extract.ErrInsufficientContent
	}
	if _, err := svc.SubmitURL(context.Background(), "u", "https://example.com"); !errors.Is(err, extract.ErrInsufficientContent) {
		t.Fatalf("expected extraction error, got %v", err)
	}
}

func TestSubmitImageText(t *testing.T) {
	store := newMemStore()
	cls := &stubClassifier{result: realResult()}
	svc := NewService(nil, cls, store, nil)

	if _, err := svc.SubmitImageText(context.Background(), "u", "tiny", "/tmp/img.png"); !errors.Is(err, ErrImageTextTooShort) {
		t.Fatalf("expected ErrImageTextTooShort, got %v", err)
	}

	out, err := svc.SubmitImageText(context.Background(), "u", "plenty of text pulled from the image", "/tmp/img.png")
	if err != nil {
		t.Fatalf("submit error: %v", err)
	}
	if cls.gotTyp != "image" {
		t.Fatalf("expected content type image, got %q", cls.gotTyp)
	}
	if store.predicted[out.SubmissionID] == "" {
		t.Fatalf("prediction not recorded")
	}
}

func TestRateGateBlocksSubmissions(t *testing.T) {
	gate := NewSlidingWindowGate(1, time.Hour)
	svc := NewService(nil, &stubClassifier{result: realResult()}, newMemStore(), gate)
	ctx := context.Background()

	if _, err := svc.SubmitText(ctx, "u", "this is long enough to analyze"); err != nil {
		t.Fatalf("first submission should pass: %v", err)
	}
	if _, err := svc.SubmitText(ctx, "u", "this is long enough to analyze"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	// Other users are unaffected.
	if _, err := svc.SubmitText(ctx, "other", "this is long enough to analyze"); err != nil {
		t.Fatalf("other user should pass: %v", err)
	}
}

func TestSlidingWindowGate_Expiry(t *testing.T) {
	gate := NewSlidingWindowGate(2, time.Hour)
	current := time.Now()
	gate.now = func() time.Time { return current }

	if !gate.Allow("u") || !gate.Allow("u") {
		t.Fatalf("expected first two attempts to pass")
	}
	if gate.Allow("u") {
		t.Fatalf("expected third attempt to be blocked")
	}

	current = current.Add(61 * time.Minute)
	if !gate.Allow("u") {
		t.Fatalf("expected attempt to pass after window expiry")
	}
}
