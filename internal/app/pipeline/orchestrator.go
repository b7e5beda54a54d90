// Package pipeline runs a reel request through transcription,
// classification, summarization, validation, persistence and notification,
// keeping at most one effective run per request identity.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"reel-digest/internal/app/api"
	"reel-digest/internal/app/common"
	apperrors "reel-digest/internal/app/errors"
	"reel-digest/internal/app/model"
	"reel-digest/internal/app/notify"
	"reel-digest/internal/app/repository"
	"reel-digest/internal/app/retry"
	"reel-digest/internal/app/schema"
	"reel-digest/internal/app/storage/archive"
	"reel-digest/internal/app/summary"
)

// Classifier assigns a category to a transcript.
type Classifier interface {
	Classify(ctx context.Context, transcript string) (model.Category, error)
}

// MediaResolver finds the downloaded media of a reel.
type MediaResolver interface {
	Find(code string) (string, error)
}

// CaptionSource fetches the caption of a reel page.
type CaptionSource interface {
	Caption(ctx context.Context, pageURL string) (string, error)
}

// Submission is what a transport hands to the orchestrator. Transcript and
// Caption are optional; when Transcript is empty the media file is
// transcribed.
type Submission struct {
	Identity   model.Identity
	Recipient  string
	SourceURL  string
	Transcript string
	Caption    string
	MediaPath  string
}

// Outcome describes how a call to Handle ended.
type Outcome struct {
	Key       string                   `json:"key"`
	Status    model.Status             `json:"status,omitempty"`
	Category  model.Category           `json:"category,omitempty"`
	Summary   *model.StructuredSummary `json:"summary,omitempty"`
	Duplicate bool                     `json:"duplicate"`
	Notified  bool                     `json:"notified"`
}

// Options tune the orchestrator.
type Options struct {
	// InvocationTimeout bounds one Handle call. Zero disables it.
	InvocationTimeout time.Duration
	// MaxResumes is the number of processing attempts after which a
	// transiently failed request is given up.
	MaxResumes int
	// FailureWriteTimeout bounds status writes made after the invocation
	// context is done.
	FailureWriteTimeout time.Duration
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		InvocationTimeout:   5 * time.Minute,
		MaxResumes:          3,
		FailureWriteTimeout: 10 * time.Second,
	}
}

// Dependencies are the collaborators of an Orchestrator. Transcriber, Media,
// Captions and Archiver are optional.
type Dependencies struct {
	Store       repository.ResultStore
	Classifier  Classifier
	Summarizers summary.Set
	Notifier    notify.Notifier
	Retrier     *retry.Retrier
	Transcriber api.Transcriber
	Media       MediaResolver
	Captions    CaptionSource
	Archiver    archive.Archiver
	Metrics     *Metrics
	Logger      *zap.Logger
}

// Orchestrator drives requests through the pipeline.
type Orchestrator struct {
	deps Dependencies
	opts Options
	now  func() time.Time
}

// New validates deps and creates an Orchestrator.
func New(deps Dependencies, opts Options) (*Orchestrator, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.New("pipeline: result store is required")
	case deps.Classifier == nil:
		return nil, errors.New("pipeline: classifier is required")
	case deps.Notifier == nil:
		return nil, errors.New("pipeline: notifier is required")
	case deps.Retrier == nil:
		return nil, errors.New("pipeline: retrier is required")
	}
	for _, c := range model.Categories {
		if _, err := deps.Summarizers.For(c); err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics(nil)
	}
	if opts.MaxResumes < 1 {
		opts.MaxResumes = 1
	}
	if opts.FailureWriteTimeout <= 0 {
		opts.FailureWriteTimeout = 10 * time.Second
	}
	return &Orchestrator{
		deps: deps,
		opts: opts,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// run is the per-invocation state.
type run struct {
	sub     Submission
	key     string
	traceID string
	log     *zap.Logger
	state   State
}

// Handle processes one submission. It returns a nil error for duplicates,
// which have no side effects. Transient failures and store outages are
// returned so the transport redelivers; permanent failures are returned after
// the requester has been told.
func (o *Orchestrator) Handle(ctx context.Context, sub Submission) (Outcome, error) {
	if !sub.Identity.Valid() || sub.Recipient == "" {
		return Outcome{}, apperrors.ErrInvalidIdentity
	}

	if o.opts.InvocationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.InvocationTimeout)
		defer cancel()
	}

	r := &run{
		sub:     sub,
		key:     sub.Identity.Key(),
		traceID: uuid.NewString(),
		state:   StateReceived,
	}
	r.log = o.deps.Logger.With(common.RequestFields(r.key, r.traceID)...)
	r.log.Info("request received", zap.String("recipient", sub.Recipient))

	out, err := o.handle(ctx, r)
	out.Key = r.key

	label := string(out.Status)
	if out.Duplicate {
		label = "duplicate"
	} else if label == "" {
		label = string(apperrors.KindOf(err))
	}
	o.deps.Metrics.Requests.WithLabelValues(label).Inc()
	return out, err
}

func (o *Orchestrator) handle(ctx context.Context, r *run) (Outcome, error) {
	rec, decision, err := o.admit(ctx, r)
	if err != nil {
		r.log.Error("dedup gate failed", zap.Error(err))
		return Outcome{}, err
	}

	switch decision {
	case decisionDuplicate:
		r.log.Info("duplicate request",
			zap.String("kind", string(apperrors.KindDuplicateRequest)),
			zap.String("status", string(rec.Status)),
		)
		return Outcome{Status: rec.Status, Category: rec.Category, Summary: rec.Summary, Duplicate: true}, nil
	case decisionReplay:
		r.log.Info("replaying notification")
		return o.deliver(ctx, r, rec)
	case decisionEscalate:
		return o.escalate(ctx, r, rec)
	default:
		return o.process(ctx, r, rec)
	}
}

type decision int

const (
	decisionRun decision = iota
	decisionDuplicate
	decisionReplay
	decisionEscalate
)

// admit is the dedup gate. It runs before any provider work and claims the
// identity by inserting a pending record, or decides what an existing record
// allows.
func (o *Orchestrator) admit(ctx context.Context, r *run) (*model.Record, decision, error) {
	for i := 0; i < 3; i++ {
		var rec *model.Record
		err := o.deps.Retrier.Do(ctx, "store_get", func(ctx context.Context) error {
			var err error
			rec, err = o.deps.Store.Get(ctx, r.key)
			return err
		})
		if err != nil {
			return nil, 0, err
		}

		if rec == nil {
			claim := model.NewPendingRecord(r.sub.Identity, r.sub.Recipient, r.sub.SourceURL, o.now())
			// A retried insert must not mistake an earlier attempt's write
			// for someone else's claim.
			var inserted bool
			err := o.deps.Retrier.Do(ctx, "store_insert", func(ctx context.Context) error {
				ok, err := o.deps.Store.InsertIfAbsent(ctx, claim)
				inserted = inserted || ok
				return err
			})
			if inserted {
				if err != nil {
					r.log.Warn("claim written but insert reported an error", zap.Error(err))
				}
				return claim, decisionRun, nil
			}
			if err != nil {
				return nil, 0, err
			}
			continue
		}

		switch rec.Status {
		case model.StatusSucceededNotNotified:
			return rec, decisionReplay, nil
		case model.StatusFailedTransient:
			if rec.Attempts >= o.opts.MaxResumes {
				return rec, decisionEscalate, nil
			}
			swapped, err := o.deps.Store.CompareAndSwapStatus(ctx, r.key, model.StatusFailedTransient, model.StatusPending)
			if err != nil {
				return nil, 0, err
			}
			if swapped {
				rec.Status = model.StatusPending
				rec.Attempts++
				r.log.Info("resuming request", zap.Int("attempt", rec.Attempts))
				return rec, decisionRun, nil
			}
			continue
		default:
			// succeeded, succeeded-empty, failed-permanent, pending, notifying
			return rec, decisionDuplicate, nil
		}
	}
	return nil, 0, apperrors.New(apperrors.KindStoreUnavailable, "dedup gate did not settle")
}

// process runs the stages for a claimed record.
func (o *Orchestrator) process(ctx context.Context, r *run, rec *model.Record) (Outcome, error) {
	req, err := o.prepare(ctx, r, rec)
	if err != nil {
		return o.fail(ctx, r, err)
	}

	var category model.Category
	err = o.stage(r, StateClassifying, func() error {
		var err error
		category, err = o.deps.Classifier.Classify(ctx, req.Transcript)
		return err
	})
	if err != nil {
		return o.fail(ctx, r, err)
	}
	o.deps.Metrics.Classifications.WithLabelValues(string(category)).Inc()
	r.log.Info("classified", zap.String("category", string(category)))

	result, err := o.summarize(ctx, r, req, category)
	if err != nil {
		return o.fail(ctx, r, err)
	}

	if result.IsEmpty() {
		return o.finishEmpty(ctx, r, category)
	}

	err = o.stage(r, StatePersisting, func() error {
		if o.deps.Archiver != nil {
			err := o.deps.Retrier.Do(ctx, "archive_summary", func(ctx context.Context) error {
				_, err := o.deps.Archiver.PutSummary(ctx, req.Identity, result)
				return err
			})
			if err != nil {
				return err
			}
		}
		return o.deps.Retrier.Do(ctx, "store_save_summary", func(ctx context.Context) error {
			return o.deps.Store.SaveSummary(ctx, r.key, category, result, model.StatusSucceededNotNotified)
		})
	})
	if err != nil {
		return o.fail(ctx, r, err)
	}

	rec.Category = category
	rec.Summary = result
	rec.Status = model.StatusSucceededNotNotified
	return o.deliver(ctx, r, rec)
}

// prepare builds the immutable Request, transcribing only when neither the
// submission nor a previous attempt supplied a transcript.
func (o *Orchestrator) prepare(ctx context.Context, r *run, rec *model.Record) (model.Request, error) {
	req := model.Request{
		Identity:   r.sub.Identity,
		Recipient:  r.sub.Recipient,
		SourceURL:  r.sub.SourceURL,
		Transcript: r.sub.Transcript,
		Caption:    r.sub.Caption,
		ReceivedAt: o.now(),
	}
	if req.Transcript == "" && rec.Transcript != "" {
		req.Transcript = rec.Transcript
		if req.Caption == "" {
			req.Caption = rec.Caption
		}
		r.log.Info("reusing stored transcript")
		return req, nil
	}

	if req.Transcript == "" {
		err := o.stage(r, StateTranscribing, func() error {
			text, err := o.transcribe(ctx, r)
			req.Transcript = text
			return err
		})
		if err != nil {
			return req, err
		}
	}

	if req.Caption == "" && o.deps.Captions != nil && req.SourceURL != "" {
		caption, err := o.deps.Captions.Caption(ctx, req.SourceURL)
		if err != nil {
			r.log.Warn("caption unavailable", zap.Error(err))
		}
		req.Caption = caption
	}

	err := o.deps.Retrier.Do(ctx, "store_save_transcript", func(ctx context.Context) error {
		return o.deps.Store.SaveTranscript(ctx, r.key, req.Transcript, req.Caption)
	})
	if err != nil {
		return req, err
	}
	if o.deps.Archiver != nil {
		if _, err := o.deps.Archiver.PutTranscript(ctx, req.Identity, req.Transcript, req.Caption); err != nil {
			r.log.Warn("transcript archive failed", zap.Error(err))
		}
	}
	return req, nil
}

func (o *Orchestrator) transcribe(ctx context.Context, r *run) (string, error) {
	if o.deps.Transcriber == nil {
		return "", apperrors.New(apperrors.KindPermanentProvider, "no transcript supplied and no transcriber configured")
	}
	path := r.sub.MediaPath
	if path == "" {
		if o.deps.Media == nil {
			return "", apperrors.New(apperrors.KindPermanentProvider, "no transcript or media supplied")
		}
		found, err := o.deps.Media.Find(r.sub.Identity.ContentID)
		if err != nil {
			return "", err
		}
		path = found
	}

	var text string
	err := o.deps.Retrier.Do(ctx, "transcribe", func(ctx context.Context) error {
		var err error
		text, err = o.deps.Transcriber.Transcript(ctx, path)
		return err
	})
	return text, err
}

// summarize requests the category summary and validates it. A schema
// violation earns exactly one reformulated request.
func (o *Orchestrator) summarize(ctx context.Context, r *run, req model.Request, category model.Category) (*model.StructuredSummary, error) {
	summarizer, err := o.deps.Summarizers.For(category)
	if err != nil {
		return nil, err
	}
	in := summary.Input{Transcript: req.Transcript, Caption: req.Caption}

	var result *model.StructuredSummary
	for attempt := 0; attempt < 2; attempt++ {
		var raw string
		err := o.stage(r, StateSummarizing, func() error {
			var err error
			raw, err = summarizer.Summarize(ctx, in)
			return err
		})
		if err != nil {
			return nil, err
		}

		err = o.stage(r, StateValidating, func() error {
			var err error
			result, err = schema.Validate(raw, category)
			return err
		})
		if err == nil {
			return result, nil
		}
		if !apperrors.IsKind(err, apperrors.KindSchemaViolation) || attempt == 1 {
			return nil, err
		}
		r.log.Warn("schema violation, requesting reformulation", zap.Error(err))
		o.deps.Metrics.Reformulations.Inc()
		in.Violation = err
	}
	return nil, apperrors.New(apperrors.KindInternal, "unreachable")
}

// finishEmpty records the empty company result and acknowledges it.
func (o *Orchestrator) finishEmpty(ctx context.Context, r *run, category model.Category) (Outcome, error) {
	err := o.stage(r, StatePersisting, func() error {
		return o.deps.Retrier.Do(ctx, "store_save_summary", func(ctx context.Context) error {
			return o.deps.Store.SaveSummary(ctx, r.key, category, nil, model.StatusSucceededEmpty)
		})
	})
	if err != nil {
		return o.fail(ctx, r, err)
	}

	out := Outcome{Status: model.StatusSucceededEmpty, Category: category}
	err = o.stage(r, StateNotifying, func() error {
		return o.send(ctx, r.sub.Recipient, notify.EmptyResultMessage, "empty")
	})
	if err != nil {
		r.log.Warn("empty result acknowledgment failed", zap.Error(err))
	} else {
		out.Notified = true
	}
	r.state = StateDone
	r.log.Info("request finished with no companies")
	return out, nil
}

// deliver sends the persisted summary. Only the worker that moves the record
// to notifying may send; a failed send puts it back for a later replay.
func (o *Orchestrator) deliver(ctx context.Context, r *run, rec *model.Record) (Outcome, error) {
	out := Outcome{Status: rec.Status, Category: rec.Category, Summary: rec.Summary}
	if rec.Summary == nil {
		return o.fail(ctx, r, apperrors.New(apperrors.KindInternal, "persisted record has no summary"))
	}

	swapped, err := o.deps.Store.CompareAndSwapStatus(ctx, r.key, model.StatusSucceededNotNotified, model.StatusNotifying)
	if err != nil {
		return out, err
	}
	if !swapped {
		out.Duplicate = true
		return out, nil
	}

	err = o.stage(r, StateNotifying, func() error {
		return o.send(ctx, rec.Recipient, notify.FormatSummary(rec.Summary), "summary")
	})
	if err != nil {
		wctx, cancel := o.detached(ctx)
		defer cancel()
		if serr := o.deps.Store.SetStatus(wctx, r.key, model.StatusSucceededNotNotified, err.Error()); serr != nil {
			r.log.Error("failed to release notification claim", zap.Error(serr))
		}
		out.Status = model.StatusSucceededNotNotified
		return out, err
	}

	wctx, cancel := o.detached(ctx)
	defer cancel()
	if err := o.deps.Store.SetStatus(wctx, r.key, model.StatusSucceeded, ""); err != nil {
		r.log.Error("notification sent but status not recorded", zap.Error(err))
		return out, err
	}
	r.state = StateDone
	out.Status = model.StatusSucceeded
	out.Notified = true
	r.log.Info("request finished", zap.String("category", string(rec.Category)))
	return out, nil
}

// escalate gives up on a request that failed transiently too many times.
func (o *Orchestrator) escalate(ctx context.Context, r *run, rec *model.Record) (Outcome, error) {
	out := Outcome{Status: rec.Status, Category: rec.Category}
	swapped, err := o.deps.Store.CompareAndSwapStatus(ctx, r.key, model.StatusFailedTransient, model.StatusFailedPermanent)
	if err != nil {
		return out, err
	}
	if !swapped {
		out.Duplicate = true
		return out, nil
	}
	r.log.Warn("resume limit reached, giving up",
		zap.Int("attempts", rec.Attempts),
		zap.String("last_error", rec.LastError),
	)
	out.Status = model.StatusFailedPermanent
	if err := o.send(ctx, rec.Recipient, notify.FailureMessage, "failure"); err != nil {
		r.log.Warn("failure notification not delivered", zap.Error(err))
	} else {
		out.Notified = true
	}
	return out, apperrors.Wrapf(errors.New(rec.LastError), apperrors.KindPermanentProvider, "gave up after %d attempts", rec.Attempts)
}

// fail records err against the request. Permanent failures are terminal and
// the requester is told once; transient failures and store outages leave the
// record resumable and are returned for redelivery.
func (o *Orchestrator) fail(ctx context.Context, r *run, err error) (Outcome, error) {
	failedIn := r.state
	r.state = StateFailed

	kind := apperrors.KindOf(err)
	if ctx.Err() != nil && !apperrors.IsRetriable(err) {
		err = apperrors.Transient(err, "invocation timed out")
		kind = apperrors.KindTransientProvider
	}
	o.deps.Metrics.StageFailures.WithLabelValues(string(failedIn), string(kind)).Inc()

	wctx, cancel := o.detached(ctx)
	defer cancel()

	if apperrors.IsRetriable(err) {
		r.log.Warn("request failed transiently",
			zap.String("stage", string(failedIn)),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		if serr := o.deps.Store.SetStatus(wctx, r.key, model.StatusFailedTransient, err.Error()); serr != nil {
			r.log.Error("failed to record transient failure", zap.Error(serr))
		}
		return Outcome{Status: model.StatusFailedTransient}, err
	}

	r.log.Error("request failed permanently",
		zap.String("stage", string(failedIn)),
		zap.String("kind", string(kind)),
		zap.Error(err),
	)
	if serr := o.deps.Store.SetStatus(wctx, r.key, model.StatusFailedPermanent, err.Error()); serr != nil {
		r.log.Error("failed to record permanent failure", zap.Error(serr))
		return Outcome{}, apperrors.StoreUnavailable(serr, "record failure")
	}

	out := Outcome{Status: model.StatusFailedPermanent}
	if serr := o.send(wctx, r.sub.Recipient, notify.FailureMessage, "failure"); serr != nil {
		r.log.Warn("failure notification not delivered", zap.Error(serr))
	} else {
		out.Notified = true
	}
	return out, err
}

func (o *Orchestrator) send(ctx context.Context, recipient, text, kind string) error {
	err := o.deps.Retrier.Do(ctx, "notify", func(ctx context.Context) error {
		return o.deps.Notifier.Send(ctx, recipient, text)
	})
	if err == nil {
		o.deps.Metrics.Notifications.WithLabelValues(kind).Inc()
	}
	return err
}

// stage runs fn as the named state, timing it.
func (o *Orchestrator) stage(r *run, state State, fn func() error) error {
	r.state = state
	start := time.Now()
	err := fn()
	o.deps.Metrics.StageDuration.WithLabelValues(string(state)).Observe(time.Since(start).Seconds())
	if err == nil {
		r.log.Debug("stage complete", zap.String("stage", string(state)))
	}
	return err
}

// detached returns a short context that survives cancellation of ctx, for
// the status writes that must land after a timeout.
func (o *Orchestrator) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), o.opts.FailureWriteTimeout)
}
