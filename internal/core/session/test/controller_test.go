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

package session_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/jaycherian/gcp-go-cineprompt/internal/core/model"
	"github.com/jaycherian/gcp-go-cineprompt/internal/core/session"
	"github.com/jaycherian/gcp-go-cineprompt/internal/core/workflow"
	test "github.com/jaycherian/gcp-go-cineprompt/internal/testutil"
)

var clip = session.BytesSource{FileName: "clip.mp4", Type: "video/mp4", Data: []byte("\x00\x00\x00\x18ftypmp42")}

// recorder collects applied statuses and events.
type recorder struct {
	mu       sync.Mutex
	statuses []model.AnalysisStatus
	events   []string
}

func (r *recorder) observe(_, next session.State, e session.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := len(r.statuses); n == 0 || r.statuses[n-1] != next.Status {
		r.statuses = append(r.statuses, next.Status)
	}
	r.events = append(r.events, session.EventName(e))
}

func (r *recorder) Statuses() []model.AnalysisStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.AnalysisStatus(nil), r.statuses...)
}

// sizedSource claims a size without holding the bytes.
type sizedSource struct {
	size   int64
	mime   string
	opened bool
}

func (s *sizedSource) Name() string     { return "huge.mov" }
func (s *sizedSource) MIMEType() string { return s.mime }
func (s *sizedSource) Size() int64      { return s.size }
func (s *sizedSource) Open() (io.ReadCloser, error) {
	s.opened = true
	return nil, errors.New("must not be opened")
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, errors.New("disk unplugged") }

type brokenSource struct{ session.BytesSource }

func (brokenSource) Open() (io.ReadCloser, error) { return io.NopCloser(brokenReader{}), nil }

type clipboard struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (c *clipboard) WriteText(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, text)
	return c.err
}

func newController(t *testing.T, analyzer session.Analyzer, opts session.Options) *session.Controller {
	t.Helper()
	c := session.NewController("test-session", analyzer, opts)
	t.Cleanup(c.Close)
	return c
}

func completed(t *testing.T, opts session.Options) *session.Controller {
	t.Helper()
	c := newController(t, &test.FakeAnalyzer{Result: model.GetExampleAnalysis()}, opts)
	require.NoError(t, c.Upload(context.Background(), clip))
	require.Equal(t, model.StatusCompleted, c.Snapshot().Status)
	return c
}

func TestUploadOverLimitNeverReachesAnalyzer(t *testing.T) {
	for _, size := range []int64{model.MaxUploadBytes + 1, 2 * model.MaxUploadBytes, 1 << 40} {
		analyzer := &test.FakeAnalyzer{Result: model.GetExampleAnalysis()}
		c := newController(t, analyzer, session.Options{})
		src := &sizedSource{size: size, mime: "video/mp4"}

		err := c.Upload(context.Background(), src)
		assert.ErrorIs(t, err, model.ErrFileTooLarge)

		s := c.Snapshot()
		assert.Equal(t, model.StatusError, s.Status)
		assert.Equal(t, model.MsgFileTooLarge, s.Error)
		assert.False(t, src.opened)
		assert.Equal(t, 0, analyzer.CallCount())
	}
}

func TestUploadAtLimitIsAccepted(t *testing.T) {
	analyzer := &test.FakeAnalyzer{Result: model.GetExampleAnalysis()}
	c := newController(t, analyzer, session.Options{})
	src := session.BytesSource{FileName: "edge.mp4", Type: "video/mp4", Data: make([]byte, model.MaxUploadBytes)}

	require.NoError(t, c.Upload(context.Background(), src))
	assert.Equal(t, model.StatusCompleted, c.Snapshot().Status)
	assert.Equal(t, 1, analyzer.CallCount())
}

func TestUploadRejectsNonVideo(t *testing.T) {
	analyzer := &test.FakeAnalyzer{}
	c := newController(t, analyzer, session.Options{})

	err := c.Upload(context.Background(), session.BytesSource{FileName: "notes.txt", Type: "text/plain", Data: []byte("hi")})
	assert.ErrorIs(t, err, model.ErrUnsupportedMedia)
	assert.Equal(t, model.StatusError, c.Snapshot().Status)
	assert.Equal(t, model.MsgUnsupportedMedia, c.Snapshot().Error)
	assert.Equal(t, 0, analyzer.CallCount())
}

func TestUploadPassesThroughUploadingThenAnalyzing(t *testing.T) {
	for _, tc := range []struct {
		name     string
		analyzer *test.FakeAnalyzer
		final    model.AnalysisStatus
	}{
		{"success", &test.FakeAnalyzer{Result: model.GetExampleAnalysis()}, model.StatusCompleted},
		{"failure", &test.FakeAnalyzer{Err: errors.New("UNAVAILABLE")}, model.StatusError},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := &recorder{}
			c := newController(t, tc.analyzer, session.Options{Observer: rec.observe})
			_ = c.Upload(context.Background(), clip)

			assert.Equal(t, []model.AnalysisStatus{model.StatusUploading, model.StatusAnalyzing, tc.final}, rec.Statuses())
		})
	}
}

func TestUploadRoundTripsResponse(t *testing.T) {
	result := model.GetExampleAnalysis()
	analyzer := &test.FakeAnalyzer{Result: result}
	c := newController(t, analyzer, session.Options{})
	require.NoError(t, c.SelectModel(model.TargetLumaDreamMachine))

	require.NoError(t, c.Upload(context.Background(), clip))

	s := c.Snapshot()
	assert.Equal(t, model.StatusCompleted, s.Status)
	assert.Same(t, result, s.Result)
	assert.Equal(t, model.GetExampleAnalysis(), s.Result)
	assert.Empty(t, s.Error)
	assert.Equal(t, []model.TargetModel{model.TargetLumaDreamMachine}, analyzer.Targets)
	assert.Equal(t, "video/mp4", analyzer.Payloads[0].MIMEType)
	assert.Equal(t, "AAAAGGZ0eXBtcDQy", analyzer.Payloads[0].Data)
	require.True(t, s.HasPreview())
	assert.Equal(t, clip.Data, s.Preview.Data)
}

func TestUploadInvalidStructureThroughWorkflow(t *testing.T) {
	for _, text := range []string{"{not json", `{"overallStyle":"noir"}`, `{"overallStyle":"noir","segments":[{"startTime":"0:00"}]}`} {
		gen := test.NewFakeGenerator(text)
		w, err := workflow.NewVideoAnalysisWorkflow("", gen, 0)
		require.NoError(t, err)
		c := newController(t, w, session.Options{})

		err = c.Upload(context.Background(), clip)
		assert.ErrorIs(t, err, model.ErrInvalidStructure)
		s := c.Snapshot()
		assert.Equal(t, model.StatusError, s.Status)
		assert.Equal(t, model.MsgInvalidStructure, s.Error)
		assert.Nil(t, s.Result)
	}
}

func TestUploadReadFailure(t *testing.T) {
	analyzer := &test.FakeAnalyzer{Result: model.GetExampleAnalysis()}
	c := newController(t, analyzer, session.Options{})

	err := c.Upload(context.Background(), brokenSource{clip})
	assert.ErrorIs(t, err, model.ErrStreamInterrupted)
	assert.Equal(t, model.StatusError, c.Snapshot().Status)
	assert.Equal(t, model.MsgStreamInterrupted, c.Snapshot().Error)
	assert.Equal(t, 0, analyzer.CallCount())
}

func TestUploadRemoteErrorMessage(t *testing.T) {
	c := newController(t, &test.FakeAnalyzer{Err: errors.New("RESOURCE_EXHAUSTED: quota")}, session.Options{})
	_ = c.Upload(context.Background(), clip)
	assert.Equal(t, "RESOURCE_EXHAUSTED: quota", c.Snapshot().Error)

	c = newController(t, &test.FakeAnalyzer{Err: errors.New("")}, session.Options{})
	_ = c.Upload(context.Background(), clip)
	assert.Equal(t, model.MsgGenericFailure, c.Snapshot().Error)
}

func TestBusyGuard(t *testing.T) {
	analyzer := &test.FakeAnalyzer{Result: model.GetExampleAnalysis(), Gate: make(chan struct{})}
	c := newController(t, analyzer, session.Options{})

	attempt, err := c.Start(clip)
	require.NoError(t, err)
	assert.Equal(t, model.TargetVeo3, attempt.Target())

	done := make(chan error, 1)
	go func() { done <- attempt.Run(context.Background()) }()
	require.Eventually(t, func() bool { return analyzer.CallCount() == 1 }, time.Second, time.Millisecond)
	assert.True(t, c.Busy())

	before := c.Snapshot()
	_, err = c.Start(clip)
	assert.ErrorIs(t, err, model.ErrBusy)
	assert.ErrorIs(t, c.Upload(context.Background(), clip), model.ErrBusy)
	assert.ErrorIs(t, c.Reset(), model.ErrBusy)
	assert.ErrorIs(t, c.RejectUpload(model.ErrFileTooLarge), model.ErrBusy)
	assert.Equal(t, before, c.Snapshot())

	// Selecting a model now only affects the next attempt.
	require.NoError(t, c.SelectModel(model.TargetSora2))

	analyzer.Gate <- struct{}{}
	require.NoError(t, <-done)
	s := c.Snapshot()
	assert.Equal(t, model.StatusCompleted, s.Status)
	assert.Equal(t, model.TargetVeo3, s.AttemptModel)
	assert.Equal(t, model.TargetSora2, s.SelectedModel)
	assert.Equal(t, 1, analyzer.CallCount())
}

func TestCanceledAnalysisEndsInError(t *testing.T) {
	analyzer := &test.FakeAnalyzer{Gate: make(chan struct{})}
	c := newController(t, analyzer, session.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Upload(ctx, clip)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, model.StatusError, c.Snapshot().Status)
}

func TestResetThenFreshAttempt(t *testing.T) {
	for _, first := range []*test.FakeAnalyzer{
		{Err: errors.New("UNAVAILABLE")},
		{Result: model.GetExampleAnalysis()},
	} {
		c := newController(t, first, session.Options{})
		_ = c.Upload(context.Background(), clip)
		require.True(t, c.Snapshot().Status.Terminal())

		require.NoError(t, c.Reset())
		s := c.Snapshot()
		assert.Equal(t, model.StatusIdle, s.Status)
		assert.Nil(t, s.Result)
		assert.Empty(t, s.Error)
		assert.False(t, s.HasPreview())

		// Swap in a fresh outcome for the next attempt.
		second := &model.AnalysisResponse{
			OverallStyle: "Bright pastel daylight comedy.",
			Segments:     []*model.VideoSegment{model.GetExampleSegment()},
		}
		first.Err = nil
		first.Result = second
		require.NoError(t, c.Upload(context.Background(), clip))
		s = c.Snapshot()
		assert.Equal(t, model.StatusCompleted, s.Status)
		assert.Same(t, second, s.Result)
		assert.Empty(t, s.Error)
		assert.Equal(t, uint64(2), s.Attempt)
	}
}

func TestResetFromIdle(t *testing.T) {
	c := newController(t, &test.FakeAnalyzer{}, session.Options{})
	require.NoError(t, c.Reset())
	assert.Equal(t, model.StatusIdle, c.Snapshot().Status)
}

func TestRejectUpload(t *testing.T) {
	c := completed(t, session.Options{})
	require.NoError(t, c.RejectUpload(model.ErrFileTooLarge))
	s := c.Snapshot()
	assert.Equal(t, model.StatusError, s.Status)
	assert.Equal(t, model.MsgFileTooLarge, s.Error)
	assert.Nil(t, s.Result)
}

func TestSeek(t *testing.T) {
	c := newController(t, &test.FakeAnalyzer{}, session.Options{})
	_, err := c.Seek("00:05")
	assert.ErrorIs(t, err, model.ErrNoPreview)

	c = completed(t, session.Options{})
	for in, want := range map[string]float64{"01:02:03": 3723, "02:03": 123, "45": 45} {
		got, err := c.Seek(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, session.Playback{Position: want, Playing: true}, c.Snapshot().Playback)
	}

	before := c.Snapshot().Playback
	_, err = c.Seek("twelve")
	assert.ErrorIs(t, err, model.ErrInvalidTimecode)
	assert.Equal(t, before, c.Snapshot().Playback)
}

func TestCopyMarkerClearsAfterDelay(t *testing.T) {
	fake := testingclock.NewFakeClock(time.Now())
	board := &clipboard{}
	c := completed(t, session.Options{Clock: fake, Clipboard: board})

	text, err := c.CopySegmentPrompt(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, model.GetExampleAnalysis().Segments[1].AIPrompt, text)
	assert.Equal(t, []string{text}, board.texts)
	assert.Equal(t, 1, c.Snapshot().CopiedIndex)

	fake.Step(1999 * time.Millisecond)
	assert.Equal(t, 1, c.Snapshot().CopiedIndex)

	fake.Step(time.Millisecond)
	assert.Eventually(t, func() bool { return c.Snapshot().CopiedIndex == session.NoCopy }, time.Second, time.Millisecond)
}

func TestClipboardFailureStillMarksCopy(t *testing.T) {
	fake := testingclock.NewFakeClock(time.Now())
	board := &clipboard{err: errors.New("clipboard denied")}
	c := completed(t, session.Options{Clock: fake, Clipboard: board})

	text, err := c.CopySegmentPrompt(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, model.GetExampleAnalysis().Segments[0].AIPrompt, text)
	assert.Equal(t, []string{text}, board.texts)
	assert.Equal(t, 0, c.Snapshot().CopiedIndex)
}

func TestCopyWithoutClipboardReturnsText(t *testing.T) {
	fake := testingclock.NewFakeClock(time.Now())
	c := completed(t, session.Options{Clock: fake})

	text, err := c.CopySegmentPrompt(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, model.GetExampleAnalysis().Segments[1].AIPrompt, text)
	assert.Equal(t, 1, c.Snapshot().CopiedIndex)
}

func TestLaterCopyRestartsTimer(t *testing.T) {
	fake := testingclock.NewFakeClock(time.Now())
	rec := &recorder{}
	c := completed(t, session.Options{Clock: fake, Observer: rec.observe})

	require.NoError(t, c.CopyPrompt(context.Background(), "first", 0))
	fake.Step(1500 * time.Millisecond)
	require.NoError(t, c.CopyPrompt(context.Background(), "second", 1))

	// The first copy's deadline passes without clearing the second marker.
	fake.Step(time.Second)
	assert.Equal(t, 1, c.Snapshot().CopiedIndex)

	fake.Step(time.Second)
	assert.Eventually(t, func() bool { return c.Snapshot().CopiedIndex == session.NoCopy }, time.Second, time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	expired := 0
	for _, e := range rec.events {
		if e == "copy-marker-expired" {
			expired++
		}
	}
	assert.Equal(t, 1, expired)
}

func TestCopyOutOfRange(t *testing.T) {
	c := newController(t, &test.FakeAnalyzer{}, session.Options{})
	_, err := c.CopySegmentPrompt(context.Background(), 0)
	assert.ErrorIs(t, err, model.ErrSegmentOutOfRange)

	c = completed(t, session.Options{})
	_, err = c.CopySegmentPrompt(context.Background(), 7)
	assert.ErrorIs(t, err, model.ErrSegmentOutOfRange)
	assert.Equal(t, session.NoCopy, c.Snapshot().CopiedIndex)
}

func TestResetCancelsCopyMarker(t *testing.T) {
	fake := testingclock.NewFakeClock(time.Now())
	c := completed(t, session.Options{Clock: fake})
	require.NoError(t, c.CopyPrompt(context.Background(), "p", 0))
	require.NoError(t, c.Reset())
	assert.Equal(t, session.NoCopy, c.Snapshot().CopiedIndex)
	assert.False(t, fake.HasWaiters())
}

func TestLastActiveFollowsClock(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	fake := testingclock.NewFakeClock(start)
	c := newController(t, &test.FakeAnalyzer{}, session.Options{Clock: fake})
	assert.True(t, c.LastActive().Equal(start))

	fake.Step(time.Minute)
	require.NoError(t, c.SelectModel(model.TargetSora2))
	assert.True(t, c.LastActive().Equal(start.Add(time.Minute)))
	assert.Equal(t, "test-session", c.ID())
}
