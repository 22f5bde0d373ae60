package runner

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/moodworks/autopub/internal/config"
	"github.com/moodworks/autopub/internal/db"
	"github.com/moodworks/autopub/internal/dedup"
	"github.com/moodworks/autopub/internal/feeds"
	"github.com/moodworks/autopub/internal/pipeline"
)

type stubFeeder struct {
	items   map[string][]feeds.Item
	lastMax int
	err     error
}

func (f *stubFeeder) Fetch(_ context.Context, source feeds.Source, max int) ([]feeds.Item, error) {
	f.lastMax = max
	if f.err != nil {
		return nil, f.err
	}
	items := f.items[source.Key]
	if len(items) > max {
		items = items[:max]
	}
	return items, nil
}

type stubPages struct {
	body string
	err  error
}

func (p *stubPages) Get(context.Context, string) ([]byte, string, error) {
	if p.err != nil {
		return nil, "", p.err
	}
	return []byte(p.body), "text/html", nil
}

type stubEvaluator struct {
	decisions map[string]dedup.Decision
}

func (e *stubEvaluator) Evaluate(_ context.Context, c dedup.Candidate, _ dedup.Options) dedup.Decision {
	if d, ok := e.decisions[c.URL]; ok {
		return d
	}
	return dedup.Decision{Action: dedup.ActionCreate, Reason: dedup.ReasonFresh}
}

type stubPlanner struct{ err error }

func (s *stubPlanner) Plan(_ context.Context, item feeds.Item, _ string) (pipeline.Plan, error) {
	return pipeline.Plan{Topic: item.Title}, s.err
}

type stubWriter struct{ err error }

func (s *stubWriter) Write(_ context.Context, item feeds.Item, _ pipeline.Plan, _ string) (pipeline.Draft, error) {
	return pipeline.Draft{SEOTitle: item.Title, BodyHTML: "<p>" + item.Title + "</p>"}, s.err
}

type stubEditor struct{ err error }

func (s *stubEditor) Review(context.Context, pipeline.Draft) (pipeline.Review, error) {
	return pipeline.Review{Approval: true}, s.err
}

type stubTranslator struct {
	calls  int
	result string
	err    error
}

func (s *stubTranslator) Translate(_ context.Context, text string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if s.result != "" {
		return s.result, nil
	}
	return text, nil
}

type stubImages struct {
	err   error
	calls int
}

func (s *stubImages) Pick(_ context.Context, _ []string, _ pipeline.ImageOptions) (pipeline.ResolvedImage, error) {
	s.calls++
	if s.err != nil {
		return pipeline.ResolvedImage{}, s.err
	}
	return pipeline.ResolvedImage{FileName: "hero.jpg", Mime: "image/jpeg", Width: 1600, Height: 900}, nil
}

type stubPublisher struct {
	published []string
	updates   map[int64]string
	pubErr    error
	updateErr error
}

func (s *stubPublisher) Publish(_ context.Context, item feeds.Item, _ pipeline.Plan, _ pipeline.Draft,
	_ pipeline.Review, _ *pipeline.ResolvedImage, _ pipeline.PublishOptions) (pipeline.PublishResult, error) {
	if s.pubErr != nil {
		return pipeline.PublishResult{}, s.pubErr
	}
	s.published = append(s.published, item.URL)
	return pipeline.PublishResult{PostID: int64(100 + len(s.published)), Status: "publish"}, nil
}

func (s *stubPublisher) ApplyUpdate(_ context.Context, postID int64, summary string) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if s.updates == nil {
		s.updates = make(map[int64]string)
	}
	s.updates[postID] = summary
	return nil
}

type stubRuns struct {
	started   int
	finished  int
	status    string
	counters  db.RunCounters
	runErr    error
	startFail error
}

func (s *stubRuns) StartRun(_ context.Context, _ string) (int64, string, error) {
	if s.startFail != nil {
		return 0, "", s.startFail
	}
	s.started++
	return 7, "00000000-0000-0000-0000-000000000007", nil
}

func (s *stubRuns) FinishRun(_ context.Context, _ int64, status string, counters db.RunCounters, runErr error) error {
	s.finished++
	s.status = status
	s.counters = counters
	s.runErr = runErr
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Sources:           "europawire",
		MaxPerRun:         2,
		Cadence:           config.CadenceDaily,
		PublishMode:       "publish",
		SiteLanguage:      "sk",
		DedupeFingerprint: true,
		DedupeTitle:       true,
		DedupeEmbeddings:  true,
		ImageMinWidth:     1200,
		ImageMinHeight:    675,
		ImageSkipUnderMin: true,
		ImageForceRatio:   true,
	}
}

func sampleItems(n int) []feeds.Item {
	items := make([]feeds.Item, 0, n)
	for i := 1; i <= n; i++ {
		url := fmt.Sprintf("https://news.europawire.eu/story-%d", i)
		items = append(items, feeds.Item{
			Source:      "europawire",
			URL:         url,
			Title:       fmt.Sprintf("Collection launch number %d", i),
			Summary:     "A short summary.",
			Fingerprint: feeds.Fingerprint("europawire", url),
		})
	}
	return items
}

func newTestRunner(cfg *config.Config, feeder Feeder, pages PageFetcher, eval Evaluator,
	pub *stubPublisher, runs RunLogStore, images *stubImages, tr *stubTranslator) *Runner {
	if images == nil {
		images = &stubImages{}
	}
	if tr == nil {
		tr = &stubTranslator{}
	}
	stages := Stages{
		Planner:    &stubPlanner{},
		Writer:     &stubWriter{},
		Editor:     &stubEditor{},
		Translator: tr,
		Images:     images,
		Publisher:  pub,
	}
	return New(cfg, feeder, pages, eval, stages, runs, zerolog.Nop())
}

func TestRunBatchStopsAtLimit(t *testing.T) {
	t.Parallel()

	feeder := &stubFeeder{items: map[string][]feeds.Item{"europawire": sampleItems(5)}}
	pub := &stubPublisher{}
	runs := &stubRuns{}
	r := newTestRunner(testConfig(), feeder, &stubPages{body: "<article><p>Body text.</p></article>"},
		&stubEvaluator{}, pub, runs, nil, nil)

	result, err := r.RunBatch(context.Background(), RunContext{Trigger: "manual"})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if result.Published != 2 {
		t.Fatalf("expected 2 published, got %d", result.Published)
	}
	if len(pub.published) != 2 {
		t.Fatalf("publisher called %d times, want 2", len(pub.published))
	}
	if feeder.lastMax != 4 {
		t.Fatalf("expected over-fetch of limit*2=4, got %d", feeder.lastMax)
	}
	if runs.finished != 1 || runs.status != "completed" {
		t.Fatalf("run log not closed properly: finished=%d status=%q", runs.finished, runs.status)
	}
	if runs.counters.Published != 2 {
		t.Fatalf("run log counters published=%d, want 2", runs.counters.Published)
	}
}

func TestRunBatchLimitOverride(t *testing.T) {
	t.Parallel()

	feeder := &stubFeeder{items: map[string][]feeds.Item{"europawire": sampleItems(5)}}
	pub := &stubPublisher{}
	r := newTestRunner(testConfig(), feeder, &stubPages{body: "<p>Body.</p>"},
		&stubEvaluator{}, pub, &stubRuns{}, nil, nil)

	result, err := r.RunBatch(context.Background(), RunContext{Limit: 1})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if result.Published != 1 {
		t.Fatalf("expected 1 published with override, got %d", result.Published)
	}
}

func TestRunBatchCountsSkipsAndFailures(t *testing.T) {
	t.Parallel()

	items := sampleItems(3)
	eval := &stubEvaluator{decisions: map[string]dedup.Decision{
		items[0].URL: {Action: dedup.ActionSkip, Reason: dedup.ReasonBlocklist},
	}}
	feeder := &stubFeeder{items: map[string][]feeds.Item{"europawire": items}}
	pub := &stubPublisher{}
	runs := &stubRuns{}
	// Page fetches fail, so every create attempt fails.
	r := newTestRunner(testConfig(), feeder, &stubPages{err: fmt.Errorf("connection refused")},
		eval, pub, runs, nil, nil)

	result, err := r.RunBatch(context.Background(), RunContext{})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if result.Skipped != 1 {
		t.Fatalf("expected 1 skipped, got %d", result.Skipped)
	}
	if result.Failed != 2 {
		t.Fatalf("expected 2 failed, got %d", result.Failed)
	}
	if result.Published != 0 || len(pub.published) != 0 {
		t.Fatalf("nothing should have been published, got %d", result.Published)
	}
	if runs.counters.Failed != 2 {
		t.Fatalf("run log counters failed=%d, want 2", runs.counters.Failed)
	}
}

func TestRunBatchUpdateFlowTranslatesSummary(t *testing.T) {
	t.Parallel()

	item := feeds.Item{
		Source:      "europawire",
		URL:         "https://news.europawire.eu/story-1",
		Title:       "Collection launch",
		Summary:     "The house announced that the new collection arrives in stores across Europe next month.",
		Fingerprint: feeds.Fingerprint("europawire", "https://news.europawire.eu/story-1"),
	}
	eval := &stubEvaluator{decisions: map[string]dedup.Decision{
		item.URL: {Action: dedup.ActionUpdate, PostID: 55, Reason: dedup.ReasonUpdateRecent},
	}}
	feeder := &stubFeeder{items: map[string][]feeds.Item{"europawire": {item}}}
	pub := &stubPublisher{}
	tr := &stubTranslator{result: "Dom oznámil, že nová kolekcia príde do obchodov budúci mesiac."}
	r := newTestRunner(testConfig(), feeder, &stubPages{}, eval, pub, &stubRuns{}, nil, tr)

	result, err := r.RunBatch(context.Background(), RunContext{})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if result.Updated != 1 {
		t.Fatalf("expected 1 updated, got %d", result.Updated)
	}
	if tr.calls != 1 {
		t.Fatalf("translator called %d times, want 1", tr.calls)
	}
	got := pub.updates[55]
	if !strings.Contains(got, "kolekcia") {
		t.Fatalf("update summary was not translated: %q", got)
	}
}

func TestRunBatchUpdatesCountTowardLimit(t *testing.T) {
	t.Parallel()

	items := sampleItems(4)
	eval := &stubEvaluator{decisions: map[string]dedup.Decision{
		items[0].URL: {Action: dedup.ActionUpdate, PostID: 61, Reason: dedup.ReasonUpdateRecent},
		items[1].URL: {Action: dedup.ActionUpdate, PostID: 62, Reason: dedup.ReasonUpdateRecent},
	}}
	feeder := &stubFeeder{items: map[string][]feeds.Item{"europawire": items}}
	pub := &stubPublisher{}
	r := newTestRunner(testConfig(), feeder, &stubPages{body: "<p>Body.</p>"},
		eval, pub, &stubRuns{}, nil, nil)

	result, err := r.RunBatch(context.Background(), RunContext{})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if result.Updated != 2 {
		t.Fatalf("expected 2 updated, got %d", result.Updated)
	}
	if result.Published != 0 {
		t.Fatalf("updates fill the run limit, yet %d items were published", result.Published)
	}
}

func TestRunBatchNoSourcesEnabled(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Sources = ""
	runs := &stubRuns{}
	r := newTestRunner(cfg, &stubFeeder{}, &stubPages{}, &stubEvaluator{}, &stubPublisher{}, runs, nil, nil)

	result, err := r.RunBatch(context.Background(), RunContext{})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if result.Published != 0 || result.Fetched != 0 {
		t.Fatalf("empty run expected, got %+v", result)
	}
	if runs.finished != 1 {
		t.Fatal("run log must still be closed when no sources are enabled")
	}
	if runs.runErr == nil {
		t.Fatal("run log should record why the run did nothing")
	}
}

func TestRunBatchSourceFilterRejectsOthers(t *testing.T) {
	t.Parallel()

	feeder := &stubFeeder{items: map[string][]feeds.Item{"europawire": sampleItems(2)}}
	runs := &stubRuns{}
	r := newTestRunner(testConfig(), feeder, &stubPages{body: "<p>Body.</p>"},
		&stubEvaluator{}, &stubPublisher{}, runs, nil, nil)

	// The filter names a source that is not enabled in configuration.
	result, err := r.RunBatch(context.Background(), RunContext{Source: "fashionpost"})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if result.Fetched != 0 {
		t.Fatalf("filtered run should fetch nothing, got %d", result.Fetched)
	}
}

func TestRunBatchSkipsItemWithoutUsableImage(t *testing.T) {
	t.Parallel()

	feeder := &stubFeeder{items: map[string][]feeds.Item{"europawire": sampleItems(1)}}
	pub := &stubPublisher{}
	images := &stubImages{err: pipeline.ErrNoImage}
	r := newTestRunner(testConfig(), feeder, &stubPages{body: "<p>Body.</p>"},
		&stubEvaluator{}, pub, &stubRuns{}, images, nil)

	result, err := r.RunBatch(context.Background(), RunContext{})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if result.Failed != 1 || result.Published != 0 {
		t.Fatalf("item without image must fail under skip-under-min, got %+v", result)
	}
	if len(pub.published) != 0 {
		t.Fatal("publisher must not run for an item without a usable image")
	}
}

func TestRunBatchPublishesWithoutImageWhenSkipDisabled(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.ImageSkipUnderMin = false
	feeder := &stubFeeder{items: map[string][]feeds.Item{"europawire": sampleItems(1)}}
	pub := &stubPublisher{}
	images := &stubImages{err: pipeline.ErrNoImage}
	r := newTestRunner(cfg, feeder, &stubPages{body: "<p>Body.</p>"},
		&stubEvaluator{}, pub, &stubRuns{}, images, nil)

	result, err := r.RunBatch(context.Background(), RunContext{})
	if err != nil {
		t.Fatalf("RunBatch: %v", err)
	}
	if result.Published != 1 {
		t.Fatalf("expected 1 published without image, got %+v", result)
	}
}

func TestCadenceInterval(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		config.CadenceHourly:     "1h0m0s",
		config.CadenceTwiceDaily: "12h0m0s",
		config.CadenceDaily:      "24h0m0s",
		"bogus":                  "24h0m0s",
	}
	for cadence, want := range cases {
		if got := CadenceInterval(cadence).String(); got != want {
			t.Fatalf("CadenceInterval(%q) = %s, want %s", cadence, got, want)
		}
	}
}
