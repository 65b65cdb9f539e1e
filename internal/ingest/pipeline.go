// Package ingest wires the ingestion pipeline: fingerprint gate, budget
// context, model extraction, ledger append, dedup marking. Steps run
// strictly in order; each remote call happens only after everything
// before it succeeded.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/ysaito/kakeibo/internal/budget"
	"github.com/ysaito/kakeibo/internal/expense"
	"github.com/ysaito/kakeibo/internal/extract"
	"github.com/ysaito/kakeibo/internal/ledger"
	"github.com/ysaito/kakeibo/internal/session"
)

// ErrDuplicateSubmission is returned when the submitted blob matches the
// fingerprint of the last successful ingestion in this session.
var ErrDuplicateSubmission = errors.New("duplicate submission")

// ErrNoExpenses is returned when the model answered with valid JSON that
// contains no expense at all. The dedup marker is not updated, so the
// user can retry with the same recording.
var ErrNoExpenses = errors.New("no expenses recognized")

// Extractor is the oracle boundary; satisfied by *extract.Client.
type Extractor interface {
	Extract(ctx context.Context, media extract.Media, promptContext string) ([]expense.Record, error)
}

// Archiver is the optional media archive boundary.
type Archiver interface {
	Save(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Ingestor owns the pipeline dependencies for one deployment.
type Ingestor struct {
	extractor     Extractor
	store         ledger.Store
	archiver      Archiver
	monthlyBudget float64
	now           func() time.Time
	log           zerolog.Logger
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithArchiver enables best-effort media archiving.
func WithArchiver(a Archiver) Option {
	return func(i *Ingestor) { i.archiver = a }
}

// WithClock overrides the ingestion clock.
func WithClock(now func() time.Time) Option {
	return func(i *Ingestor) { i.now = now }
}

// WithLogger sets the pipeline logger.
func WithLogger(log zerolog.Logger) Option {
	return func(i *Ingestor) { i.log = log }
}

// New creates an Ingestor with the given oracle, store and monthly budget.
func New(extractor Extractor, store ledger.Store, monthlyBudget float64, opts ...Option) *Ingestor {
	i := &Ingestor{
		extractor:     extractor,
		store:         store,
		monthlyBudget: monthlyBudget,
		now:           time.Now,
		log:           zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// State carries the shared data across pipeline steps for one submission.
type State struct {
	Session       *session.State
	Media         extract.Media
	PromptContext string
	Records       []expense.Record
	ArchiveURI    string
}

// Step is a single stage of the ingestion pipeline.
type Step interface {
	Execute(ctx context.Context, st *State) error
}

// GateStep rejects a blob whose fingerprint matches the last successful
// ingestion, before any remote call is made.
type GateStep struct{ ing *Ingestor }

func (s *GateStep) Execute(ctx context.Context, st *State) error {
	if !st.Session.ShouldProcess(st.Media.Data) {
		return ErrDuplicateSubmission
	}
	return nil
}

// ContextStep reads the ledger and renders the budget digest injected
// into the extraction prompt. A read failure degrades to an empty
// context instead of aborting: situational comments are advisory.
type ContextStep struct{ ing *Ingestor }

func (s *ContextStep) Execute(ctx context.Context, st *State) error {
	records, err := s.ing.store.ReadAll(ctx)
	if err != nil {
		s.ing.log.Warn().Err(err).Msg("ledger read failed, extracting without budget context")
		st.PromptContext = ""
		return nil
	}
	period := budget.PeriodOf(s.ing.now())
	snapshot := budget.Summarize(records, period, s.ing.monthlyBudget)
	st.PromptContext = budget.Digest(snapshot, s.ing.monthlyBudget)
	return nil
}

// ExtractStep calls the oracle. Any failure here aborts ingestion with
// the ledger untouched and the dedup marker unchanged.
type ExtractStep struct{ ing *Ingestor }

func (s *ExtractStep) Execute(ctx context.Context, st *State) error {
	records, err := s.ing.extractor.Extract(ctx, st.Media, st.PromptContext)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	if len(records) == 0 {
		return ErrNoExpenses
	}
	st.Records = records
	return nil
}

// AppendStep writes the extracted records to the ledger in one batch.
// Records are stamped with the ingestion date here so callers see the
// same dates the store writes.
type AppendStep struct{ ing *Ingestor }

func (s *AppendStep) Execute(ctx context.Context, st *State) error {
	ingested := civil.DateOf(s.ing.now())
	for idx := range st.Records {
		st.Records[idx].Date = ingested
	}
	if err := s.ing.store.Append(ctx, st.Records); err != nil {
		return fmt.Errorf("ledger append failed: %w", err)
	}
	return nil
}

// MarkProcessedStep updates the session fingerprint. It runs only after
// the append succeeded, so a failed attempt stays retryable.
type MarkProcessedStep struct{ ing *Ingestor }

func (s *MarkProcessedStep) Execute(ctx context.Context, st *State) error {
	st.Session.MarkProcessed(st.Media.Data)
	return nil
}

// ArchiveStep stores a copy of the blob for auditing. Best effort: a
// failure is logged and ingestion still counts as successful.
type ArchiveStep struct{ ing *Ingestor }

func (s *ArchiveStep) Execute(ctx context.Context, st *State) error {
	if s.ing.archiver == nil {
		return nil
	}
	uri, err := s.ing.archiver.Save(ctx, st.Media.Data, st.Media.MIMEType)
	if err != nil {
		s.ing.log.Warn().Err(err).Msg("media archive failed")
		return nil
	}
	st.ArchiveURI = uri
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []Step
}

// NewPipeline creates a pipeline with the given steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially, stopping on the first error.
func (p *Pipeline) Execute(ctx context.Context, st *State) error {
	for _, step := range p.steps {
		if err := step.Execute(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

// Ingest runs one submission through the full pipeline and returns the
// appended records.
func (i *Ingestor) Ingest(ctx context.Context, sess *session.State, media extract.Media) ([]expense.Record, error) {
	st := &State{Session: sess, Media: media}

	p := NewPipeline(
		&GateStep{i},
		&ContextStep{i},
		&ExtractStep{i},
		&AppendStep{i},
		&MarkProcessedStep{i},
		&ArchiveStep{i},
	)
	if err := p.Execute(ctx, st); err != nil {
		return nil, err
	}

	i.log.Info().
		Str("session_id", sess.ID).
		Int("records", len(st.Records)).
		Str("archive_uri", st.ArchiveURI).
		Msg("submission ingested")

	return st.Records, nil
}

// Summary recomputes the current period's budget snapshot from the full
// ledger. Never cached.
func (i *Ingestor) Summary(ctx context.Context) (budget.Snapshot, error) {
	records, err := i.store.ReadAll(ctx)
	if err != nil {
		return budget.Snapshot{}, err
	}
	return budget.Summarize(records, budget.PeriodOf(i.now()), i.monthlyBudget), nil
}

// Context renders the current budget digest text.
func (i *Ingestor) Context(ctx context.Context) (string, error) {
	snapshot, err := i.Summary(ctx)
	if err != nil {
		return "", err
	}
	return budget.Digest(snapshot, i.monthlyBudget), nil
}
