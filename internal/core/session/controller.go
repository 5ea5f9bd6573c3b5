// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package session

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"k8s.io/utils/clock"

	"github.com/jaycherian/gcp-go-cineprompt/internal/core/model"
)

// DefaultCopyReset is how long a segment stays marked as copied.
const DefaultCopyReset = 2 * time.Second

// Analyzer turns an encoded clip into a validated analysis.
type Analyzer interface {
	Analyze(ctx context.Context, payload model.VideoPayload, target model.TargetModel) (*model.AnalysisResponse, error)
}

// Clipboard receives copied prompt text when the controller is embedded
// somewhere that owns a clipboard. The HTTP server leaves it unset: the page
// writes the text returned by CopySegmentPrompt itself. Write failures are
// logged and never fail the copy.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// Source is an uploaded file as seen before it is read.
type Source interface {
	Name() string
	MIMEType() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// BytesSource is a Source backed by memory.
type BytesSource struct {
	FileName string
	Type     string
	Data     []byte
}

func (b BytesSource) Name() string     { return b.FileName }
func (b BytesSource) MIMEType() string { return b.Type }
func (b BytesSource) Size() int64      { return int64(len(b.Data)) }

// Open returns a reader over the data.
func (b BytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.Data)), nil
}

// Observer is told about every applied event, in order, while the controller
// lock is held. It must not call back into the controller.
type Observer func(prev, next State, e Event)

// Options configure a Controller. Zero values select the defaults.
type Options struct {
	Clock     clock.WithDelayedExecution // Drives the copy marker timer; the real clock by default.
	CopyReset time.Duration              // DefaultCopyReset when zero.
	Clipboard Clipboard                  // Optional sink for copied text; nil behind the HTTP server.
	Observer  Observer                   // Optional transition hook.
	Logger    *slog.Logger               // slog.Default() when nil.
}

// Controller owns the State of one session and performs the side effects
// that drive it. It is safe for concurrent use.
type Controller struct {
	id        string
	analyzer  Analyzer
	clock     clock.WithDelayedExecution
	copyReset time.Duration
	clipboard Clipboard
	observer  Observer
	logger    *slog.Logger

	lastActive atomic.Int64 // Unix nanoseconds of the latest operation.

	// timerMu serializes copy timer management and is always taken before mu.
	timerMu   sync.Mutex
	copyTimer clock.Timer
	closed    bool

	mu      sync.Mutex
	state   State
	copyGen uint64 // Bumped whenever a pending copy expiry becomes obsolete.
}

// NewController returns a controller in the initial state.
func NewController(id string, analyzer Analyzer, opts Options) *Controller {
	c := &Controller{
		id:        id,
		analyzer:  analyzer,
		clock:     opts.Clock,
		copyReset: opts.CopyReset,
		clipboard: opts.Clipboard,
		observer:  opts.Observer,
		logger:    opts.Logger,
		state:     NewState(),
	}
	if c.clock == nil {
		c.clock = clock.RealClock{}
	}
	if c.copyReset <= 0 {
		c.copyReset = DefaultCopyReset
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("session", id)
	c.touch()
	return c
}

// ID returns the session id the controller was created with.
func (c *Controller) ID() string {
	return c.id
}

// LastActive returns the time of the latest operation on the controller.
func (c *Controller) LastActive() time.Time {
	return time.Unix(0, c.lastActive.Load())
}

func (c *Controller) touch() {
	c.lastActive.Store(c.clock.Now().UnixNano())
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Busy reports whether an attempt is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Busy()
}

// applyLocked runs Transition and commits the result. c.mu must be held.
func (c *Controller) applyLocked(e Event) error {
	prev := c.state
	next, err := Transition(prev, e)
	if err != nil {
		return err
	}
	c.state = next
	switch e.(type) {
	case ResetRequested, UploadStarted:
		c.copyGen++
	}
	if prev.Status != next.Status {
		c.logger.Info("session status changed", "event", EventName(e), "from", prev.Status, "to", next.Status, "attempt", next.Attempt)
	}
	if c.observer != nil {
		c.observer(prev, next, e)
	}
	return nil
}

func (c *Controller) apply(e Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyLocked(e)
}

// SelectModel sets the target model for the next attempt. An attempt in
// flight keeps the model it started with.
func (c *Controller) SelectModel(target model.TargetModel) error {
	c.touch()
	return c.apply(ModelSelected{Model: target})
}

// RejectUpload records an upload refused before its content reached the
// controller, such as a request body over the size limit.
func (c *Controller) RejectUpload(err error) error {
	c.touch()
	c.logger.Warn("upload rejected", "error", err)
	return c.apply(UploadRejected{Err: err})
}

// Start validates src and begins a new attempt. While an attempt is in
// flight it returns model.ErrBusy and changes nothing. An oversized file or
// a non-video MIME type moves the session to ERROR without reading the file.
func (c *Controller) Start(src Source) (*Attempt, error) {
	c.touch()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Busy() {
		return nil, model.ErrBusy
	}
	var rejected error
	switch {
	case src.Size() > model.MaxUploadBytes:
		rejected = fmt.Errorf("%w: %d bytes", model.ErrFileTooLarge, src.Size())
	case !model.IsVideoMIMEType(src.MIMEType()):
		rejected = fmt.Errorf("%w: %q", model.ErrUnsupportedMedia, src.MIMEType())
	}
	if rejected != nil {
		c.logger.Warn("upload rejected", "file", src.Name(), "size", src.Size(), "mime_type", src.MIMEType(), "error", rejected)
		if err := c.applyLocked(UploadRejected{Err: rejected}); err != nil {
			return nil, err
		}
		return nil, rejected
	}

	token := c.state.Attempt + 1
	err := c.applyLocked(UploadStarted{
		Attempt: token,
		Preview: &model.VideoFile{Name: src.Name(), MIMEType: src.MIMEType()},
	})
	if err != nil {
		return nil, err
	}
	return &Attempt{c: c, token: token, target: c.state.AttemptModel, source: src}, nil
}

// Upload starts an attempt for src and runs it to completion.
func (c *Controller) Upload(ctx context.Context, src Source) error {
	attempt, err := c.Start(src)
	if err != nil {
		return err
	}
	return attempt.Run(ctx)
}

// CopyPrompt hands text to the clipboard sink and marks the segment at
// index as copied. The marker clears after the copy reset delay; a later
// copy restarts the delay instead of stacking another clear.
func (c *Controller) CopyPrompt(ctx context.Context, text string, index int) error {
	c.touch()
	c.timerMu.Lock()
	defer c.timerMu.Unlock()

	c.mu.Lock()
	err := c.applyLocked(PromptCopied{Index: index})
	if err == nil {
		c.copyGen++
	}
	gen := c.copyGen
	c.mu.Unlock()
	if err != nil {
		return err
	}

	if c.clipboard != nil {
		if werr := c.clipboard.WriteText(ctx, text); werr != nil {
			c.logger.Warn("clipboard write failed", "segment", index, "error", werr)
		}
	}

	if c.copyTimer != nil {
		c.copyTimer.Stop()
		c.copyTimer = nil
	}
	if c.closed {
		return nil
	}
	c.copyTimer = c.clock.AfterFunc(c.copyReset, func() { c.expireCopy(gen) })
	return nil
}

// CopySegmentPrompt copies the replication prompt of the segment at index
// from the current result and returns it.
func (c *Controller) CopySegmentPrompt(ctx context.Context, index int) (string, error) {
	c.mu.Lock()
	result := c.state.Result
	c.mu.Unlock()
	if result == nil || index < 0 || index >= len(result.Segments) {
		return "", fmt.Errorf("%w: %d", model.ErrSegmentOutOfRange, index)
	}
	text := result.Segments[index].AIPrompt
	if err := c.CopyPrompt(ctx, text, index); err != nil {
		return "", err
	}
	return text, nil
}

func (c *Controller) expireCopy(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.copyGen {
		return
	}
	_ = c.applyLocked(CopyMarkerExpired{})
}

// Seek parses timecode and moves the preview player there, starting
// playback. It returns the offset in seconds.
func (c *Controller) Seek(timecode string) (float64, error) {
	c.touch()
	seconds, err := ParseTimecode(timecode)
	if err != nil {
		return 0, err
	}
	if err := c.apply(Seeked{Seconds: seconds}); err != nil {
		return 0, err
	}
	return seconds, nil
}

// Reset returns the session to IDLE and clears the result, the error, the
// preview, the copy marker and the playback position. It fails with
// model.ErrBusy while an attempt is in flight.
func (c *Controller) Reset() error {
	c.touch()
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	if err := c.apply(ResetRequested{}); err != nil {
		return err
	}
	if c.copyTimer != nil {
		c.copyTimer.Stop()
		c.copyTimer = nil
	}
	return nil
}

// Close stops the copy marker timer. The controller stays readable.
func (c *Controller) Close() {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	c.closed = true
	if c.copyTimer != nil {
		c.copyTimer.Stop()
		c.copyTimer = nil
	}
}

// Attempt is one accepted upload. Its completions are applied only while it
// is still the session's current attempt.
type Attempt struct {
	c      *Controller
	token  uint64
	target model.TargetModel
	source Source
}

// Token returns the attempt token.
func (a *Attempt) Token() uint64 {
	return a.token
}

// Target returns the target model captured when the attempt started.
func (a *Attempt) Target() model.TargetModel {
	return a.target
}

// fail moves the attempt to ERROR and returns err.
func (a *Attempt) fail(err error) error {
	if aerr := a.c.apply(AttemptFailed{Attempt: a.token, Err: err}); aerr != nil {
		if errors.Is(aerr, ErrStaleAttempt) {
			a.c.logger.Debug("dropping stale failure", "attempt", a.token, "error", err)
		}
		return errors.Join(err, aerr)
	}
	return err
}

// Encode reads the clip, keeps it as the preview and returns the base64
// payload. The session moves to ANALYZING. A read failure moves it to ERROR
// with model.ErrStreamInterrupted.
func (a *Attempt) Encode() (model.VideoPayload, error) {
	data, err := a.read()
	if err != nil {
		a.c.logger.Error("failed to read upload", "attempt", a.token, "file", a.source.Name(), "error", err)
		return model.VideoPayload{}, a.fail(err)
	}

	payload := model.VideoPayload{
		Data:     base64.StdEncoding.EncodeToString(data),
		MIMEType: a.source.MIMEType(),
	}

	a.c.mu.Lock()
	preview := &model.VideoFile{Name: a.source.Name(), MIMEType: a.source.MIMEType(), Data: data}
	err = a.c.applyLocked(PayloadEncoded{Attempt: a.token, Preview: preview})
	a.c.mu.Unlock()
	if err != nil {
		return model.VideoPayload{}, err
	}
	return payload, nil
}

func (a *Attempt) read() ([]byte, error) {
	rc, err := a.source.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStreamInterrupted, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, model.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStreamInterrupted, err)
	}
	if int64(len(data)) > model.MaxUploadBytes {
		return nil, fmt.Errorf("%w: more than %d bytes read", model.ErrFileTooLarge, model.MaxUploadBytes)
	}
	return data, nil
}

// Analyze sends payload to the analyzer with the captured target model and
// records the outcome.
func (a *Attempt) Analyze(ctx context.Context, payload model.VideoPayload) error {
	result, err := a.c.analyzer.Analyze(ctx, payload, a.target)
	if err != nil {
		return a.fail(err)
	}
	if err := a.c.apply(AnalysisSucceeded{Attempt: a.token, Result: result}); err != nil {
		if errors.Is(err, ErrStaleAttempt) {
			a.c.logger.Debug("dropping stale result", "attempt", a.token)
			return err
		}
		return a.fail(err)
	}
	return nil
}

// Run encodes the clip and analyzes it.
func (a *Attempt) Run(ctx context.Context) error {
	payload, err := a.Encode()
	if err != nil {
		return err
	}
	return a.Analyze(ctx, payload)
}
