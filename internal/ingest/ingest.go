// Package ingest ties the submission pipeline together: validate user input,
// fetch and extract URL content, then classify and persist the result.
package ingest

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/newsproof/newsproof/internal/classify"
	"github.com/newsproof/newsproof/internal/extract"
)

// Submission length gates, matching what the web layer promises users.
const (
	minTextLen      = 10
	maxTextLen      = 10000
	minImageTextLen = 10
)

var (
	ErrContentRequired   = errors.New("content is required")
	ErrContentTooShort   = errors.New("content is too short for analysis")
	ErrContentTooLong    = errors.New("content is too long (max 10,000 characters)")
	ErrURLRequired       = errors.New("URL is required")
	ErrURLNotAccessible  = errors.New("URL is not accessible or does not exist")
	ErrImageTextTooShort = errors.New("could not extract sufficient text from the image")
	ErrRateLimited       = errors.New("too many submissions, please wait before submitting again")
)

// Submission is one persisted analysis request with its outcome.
type Submission struct {
	ID             string
	UserID         string
	Type           string // "text", "url" or "image"
	Content        string
	OriginalURL    string
	Title          string
	WordCount      int
	Prediction     classify.Label
	Confidence     float64
	ProcessingTime float64
	CreatedAt      time.Time
}

// Stats aggregates stored submissions by verdict.
type Stats struct {
	Total   int
	ByLabel map[classify.Label]int
}

// Store persists submissions. Implementations must be safe for concurrent
// use by independent web requests.
type Store interface {
	Create(ctx context.Context, sub *Submission) error
	RecordPrediction(ctx context.Context, id string, label classify.Label, confidence, processingTime float64) error
	ListByUser(ctx context.Context, userID string, page, perPage int) ([]Submission, error)
	Stats(ctx context.Context) (Stats, error)
}

// Classifier is the slice of the classify client the service needs.
type Classifier interface {
	Analyze(ctx context.Context, content, contentType string) classify.Result
}

// PageFetcher retrieves article pages for URL submissions.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	IsAccessible(ctx context.Context, url string) bool
}

// Gate decides whether a user may submit right now. Allow also records the
// attempt against the caller's budget.
type Gate interface {
	Allow(userID string) bool
}

// Outcome is what the web layer shows the user after a submission.
type Outcome struct {
	SubmissionID   string
	Prediction     classify.Label
	Confidence     float64
	ProcessingTime float64

	// URL submissions only.
	ExtractedTitle string
	WordCount      int
}

// Service orchestrates one submission end to end. All calls are synchronous;
// concurrent submissions from different users need no coordination here
// beyond the Gate and Store.
type Service struct {
	Fetcher    PageFetcher
	Classifier Classifier
	Store      Store
	Gate       Gate

	// ExtractArticle is swappable for tests; nil means extract.Extract.
	ExtractArticle func(html []byte, sourceURL string) (*extract.Article, error)
}

// NewService wires a Service from its collaborators.
func NewService(fetcher PageFetcher, classifier Classifier, store Store, gate Gate) *Service {
	return &Service{
		Fetcher:        fetcher,
		Classifier:     classifier,
		Store:          store,
		Gate:           gate,
		ExtractArticle: extract.Extract,
	}
}

// SubmitText analyzes raw text pasted by the user.
func (s *Service) SubmitText(ctx context.Context, userID, content string) (*Outcome, error) {
	if !s.allow(userID) {
		return nil, ErrRateLimited
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrContentRequired
	}
	if len(content) < minTextLen {
		return nil, ErrContentTooShort
	}
	if len(content) > maxTextLen {
		return nil, ErrContentTooLong
	}

	sub := &Submission{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      "text",
		Content:   content,
		CreatedAt: time.Now(),
	}
	return s.classifyAndRecord(ctx, sub, content)
}

// SubmitURL fetches the page, extracts the article and analyzes its body.
func (s *Service) SubmitURL(ctx context.Context, userID, rawURL string) (*Outcome, error) {
	if !s.allow(userID) {
		return nil, ErrRateLimited
	}

	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ErrURLRequired
	}
	if !s.Fetcher.IsAccessible(ctx, rawURL) {
		return nil, ErrURLNotAccessible
	}

	html, err := s.Fetcher.Fetch(ctx, rawURL)
	if err != nil {
		log.Error().Err(err).Str("url", rawURL).Msg("URL fetch failed")
		return nil, err
	}

	extractFn := s.ExtractArticle
	if extractFn == nil {
		extractFn = extract.Extract
	}
	article, err := extractFn(html, rawURL)
	if err != nil {
		log.Error().Err(err).Str("url", rawURL).Msg("content extraction failed")
		return nil, err
	}

	sub := &Submission{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        "url",
		Content:     article.Body,
		OriginalURL: rawURL,
		Title:       article.Title,
		WordCount:   article.WordCount,
		CreatedAt:   time.Now(),
	}
	outcome, err := s.classifyAndRecord(ctx, sub, article.Body)
	if err != nil {
		return nil, err
	}
	outcome.ExtractedTitle = article.Title
	outcome.WordCount = article.WordCount
	return outcome, nil
}

// SubmitImageText analyzes text already pulled out of an uploaded image. OCR
// itself happens upstream; this only sees its output.
func (s *Service) SubmitImageText(ctx context.Context, userID, ocrText, imagePath string) (*Outcome, error) {
	if !s.allow(userID) {
		return nil, ErrRateLimited
	}

	ocrText = strings.TrimSpace(ocrText)
	if len(ocrText) < minImageTextLen {
		return nil, ErrImageTextTooShort
	}

	sub := &Submission{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        "image",
		Content:     ocrText,
		OriginalURL: imagePath,
		CreatedAt:   time.Now(),
	}
	return s.classifyAndRecord(ctx, sub, ocrText)
}

func (s *Service) allow(userID string) bool {
	if s.Gate == nil {
		return true
	}
	return s.Gate.Allow(userID)
}

func (s *Service) classifyAndRecord(ctx context.Context, sub *Submission, content string) (*Outcome, error) {
	if err := s.Store.Create(ctx, sub); err != nil {
		return nil, err
	}

	result := s.Classifier.Analyze(ctx, content, sub.Type)
	if err := s.Store.RecordPrediction(ctx, sub.ID, result.Label, result.Confidence, result.ProcessingTime); err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", sub.UserID).
		Str("submission_id", sub.ID).
		Str("prediction", string(result.Label)).
		Msg("news submission processed")

	return &Outcome{
		SubmissionID:   sub.ID,
		Prediction:     result.Label,
		Confidence:     result.Confidence,
		ProcessingTime: result.ProcessingTime,
	}, nil
}
