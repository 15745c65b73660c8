package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jdotsteets/fantasy-report-sub002/app/classify"
	"github.com/jdotsteets/fantasy-report-sub002/app/database"
	"github.com/jdotsteets/fantasy-report-sub002/app/feed"
	"github.com/jdotsteets/fantasy-report-sub002/app/fetch"
	"github.com/jdotsteets/fantasy-report-sub002/app/filter"
	"github.com/jdotsteets/fantasy-report-sub002/app/normalize"
)

type fakeSourceRepo struct {
	mu      sync.Mutex
	sources []database.Source
	healed  map[int64]string
}

func (r *fakeSourceRepo) GetAllowedSources() ([]database.Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]database.Source, len(r.sources))
	copy(out, r.sources)
	return out, nil
}

func (r *fakeSourceRepo) GetSource(id int64) (*database.Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sources {
		if s.ID == id {
			copied := s
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeSourceRepo) UpdateFeedURL(id int64, feedURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.healed == nil {
		r.healed = make(map[int64]string)
	}
	r.healed[id] = feedURL
	return nil
}

type fakeArticleRepo struct {
	mu           sync.Mutex
	byCanonical  map[string]database.Article
	fingerprints map[string]bool
	blocked      map[string]bool
}

func newFakeArticleRepo() *fakeArticleRepo {
	return &fakeArticleRepo{
		byCanonical:  make(map[string]database.Article),
		fingerprints: make(map[string]bool),
		blocked:      make(map[string]bool),
	}
}

func (r *fakeArticleRepo) UpsertArticle(article database.Article) (database.UpsertResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byCanonical[article.CanonicalURL]; ok {
		return database.UpsertSkippedDuplicate, nil
	}
	if r.fingerprints[article.Fingerprint] {
		return database.UpsertSkippedDuplicate, nil
	}
	r.byCanonical[article.CanonicalURL] = article
	r.fingerprints[article.Fingerprint] = true
	return database.UpsertInserted, nil
}

func (r *fakeArticleRepo) IsBlocked(canonicalURL string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blocked[canonicalURL], nil
}

func (r *fakeArticleRepo) CountArticles() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byCanonical), nil
}

type fakeLogRepo struct {
	mu      sync.Mutex
	entries []database.IngestLog
}

func (r *fakeLogRepo) Append(entry database.IngestLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeLogRepo) reasons() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int)
	for _, e := range r.entries {
		counts[e.Reason]++
	}
	return counts
}

func newTestOrchestrator(t *testing.T, sources *fakeSourceRepo,
	articles *fakeArticleRepo, logs *fakeLogRepo) *Orchestrator {
	t.Helper()

	client := fetch.NewClient("test-agent", 2*time.Second, 0)
	engine, err := filter.NewEngine(filter.DefaultRuleSet())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	return NewOrchestrator(client, fetch.NewResolver(client), feed.NewParser(),
		engine, normalize.NewNormalizer(), classify.MustDefault(),
		sources, articles, logs, 2)
}

// End to end: the stored feed URL 404s, the homepage advertises a working
// feed, one item flows through admission, normalization, classification
// and the store, and the registry is healed.
func TestRunRecoversViaDiscoveryAndIngests(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			fmt.Fprint(w, `<html><head>
				<link rel="alternate" type="application/rss+xml" href="/feed2"/>
			</head><body></body></html>`)
		case "/feed2":
			fmt.Fprintf(w, `<?xml version="1.0"?>
<rss version="2.0"><channel><title>t</title>
<item>
  <title>Week 5 Waiver Wire Pickups at RB</title>
  <link>%s/articles/week-5-waivers/?utm_source=rss</link>
  <description>Top adds for the week.</description>
</item>
</channel></rss>`, server.URL)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	sources := &fakeSourceRepo{sources: []database.Source{{
		ID:          1,
		Name:        "Test Source",
		FeedURL:     server.URL + "/deadfeed.xml",
		HomepageURL: server.URL + "/",
		FetchMethod: "feed",
		Allowed:     true,
	}}}
	articles := newFakeArticleRepo()
	logs := &fakeLogRepo{}

	o := newTestOrchestrator(t, sources, articles, logs)
	report, err := o.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Inserted != 1 {
		t.Fatalf("Expected 1 insert, got %d (sources: %+v)", report.Inserted, report.Sources)
	}

	canonical := server.URL + "/articles/week-5-waivers"
	stored, ok := articles.byCanonical[canonical]
	if !ok {
		t.Fatalf("Article not stored under canonical URL %q; have %v", canonical, keys(articles.byCanonical))
	}
	if stored.CleanTitle != "Week 5 Waiver Wire Pickups at RB" {
		t.Errorf("Unexpected clean title: %q", stored.CleanTitle)
	}
	if stored.PrimaryTopic != "waiver-wire" {
		t.Errorf("Expected waiver-wire primary, got %q", stored.PrimaryTopic)
	}
	if stored.Week == nil || *stored.Week != 5 {
		t.Errorf("Expected week 5, got %v", stored.Week)
	}
	if !hasTopic(stored.Topics, "week:5") {
		t.Errorf("Topics missing week:5: %v", stored.Topics)
	}

	if healed := sources.healed[1]; healed != server.URL+"/feed2" {
		t.Errorf("Expected feed URL self-heal to %q, got %q", server.URL+"/feed2", healed)
	}

	if logs.reasons()[database.ReasonUpsertInserted] != 1 {
		t.Errorf("Expected one upsert_inserted log entry, got %v", logs.reasons())
	}
}

// Running the same batch twice must not duplicate rows.
func TestRunIdempotent(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0"?>
<rss version="2.0"><channel><title>t</title>
<item>
  <title>Week 3 Start/Sit Calls</title>
  <link>%s/articles/start-sit</link>
</item>
</channel></rss>`, server.URL)
	}))
	defer server.Close()

	sources := &fakeSourceRepo{sources: []database.Source{{
		ID: 1, Name: "S", FeedURL: server.URL + "/feed.xml", FetchMethod: "feed", Allowed: true,
	}}}
	articles := newFakeArticleRepo()
	logs := &fakeLogRepo{}

	o := newTestOrchestrator(t, sources, articles, logs)

	first, err := o.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	second, err := o.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}

	if first.Inserted != 1 {
		t.Errorf("First run: expected 1 insert, got %d", first.Inserted)
	}
	if second.Inserted != 0 {
		t.Errorf("Second run: expected 0 inserts, got %d", second.Inserted)
	}
	if count, _ := articles.CountArticles(); count != 1 {
		t.Errorf("Expected 1 stored article, got %d", count)
	}
	if logs.reasons()[database.ReasonUpsertSkipped] != 1 {
		t.Errorf("Expected one upsert_skipped entry, got %v", logs.reasons())
	}
}

// A failing source must not take down the batch.
func TestRunIsolatesSourceFailure(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/good.xml" {
			fmt.Fprintf(w, `<?xml version="1.0"?>
<rss version="2.0"><channel><title>t</title>
<item><title>Week 2 Rankings Update</title><link>%s/articles/rankings</link></item>
</channel></rss>`, server.URL)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	sources := &fakeSourceRepo{sources: []database.Source{
		{ID: 1, Name: "Broken", FeedURL: server.URL + "/missing.xml", FetchMethod: "feed", Allowed: true},
		{ID: 2, Name: "Working", FeedURL: server.URL + "/good.xml", FetchMethod: "feed", Allowed: true},
	}}
	articles := newFakeArticleRepo()
	logs := &fakeLogRepo{}

	o := newTestOrchestrator(t, sources, articles, logs)
	report, err := o.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Inserted != 1 {
		t.Errorf("Working source should still insert, got %d", report.Inserted)
	}
	if report.Errors == 0 {
		t.Error("Broken source should count as an error")
	}

	states := make(map[int64]SourceState)
	for _, rep := range report.Sources {
		states[rep.SourceID] = rep.State
	}
	if states[1] != StateFetchFailed {
		t.Errorf("Expected broken source FETCH_FAILED, got %q", states[1])
	}
	if states[2] != StateDone {
		t.Errorf("Expected working source DONE, got %q", states[2])
	}
	if logs.reasons()[database.ReasonFetchError] == 0 {
		t.Errorf("Expected fetch_error log entry, got %v", logs.reasons())
	}
}

func TestRunFiltersAndBlocklist(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0"?>
<rss version="2.0"><channel><title>t</title>
<item><title>Sportsbook promo code inside</title><link>%s/articles/promo</link></item>
<item><title>NBA trade deadline tracker</title><link>%s/articles/nba</link></item>
<item><title>Week 6 Waiver Wire Gems</title><link>%s/articles/blocked-gems</link></item>
<item><title>Week 6 Injury Report</title><link>%s/articles/injuries</link></item>
</channel></rss>`, server.URL, server.URL, server.URL, server.URL)
	}))
	defer server.Close()

	sources := &fakeSourceRepo{sources: []database.Source{{
		ID: 1, Name: "S", FeedURL: server.URL + "/feed.xml", FetchMethod: "feed", Allowed: true,
	}}}
	articles := newFakeArticleRepo()
	articles.blocked[server.URL+"/articles/blocked-gems"] = true
	logs := &fakeLogRepo{}

	o := newTestOrchestrator(t, sources, articles, logs)
	report, err := o.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Inserted != 1 {
		t.Fatalf("Expected only the injury item inserted, got %d", report.Inserted)
	}
	if _, ok := articles.byCanonical[server.URL+"/articles/injuries"]; !ok {
		t.Errorf("Injury article missing; have %v", keys(articles.byCanonical))
	}

	reasons := logs.reasons()
	if reasons[database.ReasonBlockedByFilter] != 2 {
		t.Errorf("Expected 2 blocked_by_filter (promo + blocklist), got %v", reasons)
	}
	if reasons[database.ReasonNonNFLLeague] != 1 {
		t.Errorf("Expected 1 non_nfl_league, got %v", reasons)
	}
}

func TestRunScrapeFallbackOnHTMLFeed(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The "feed" URL serves HTML: parsing fails, scraping recovers.
		fmt.Fprint(w, `<html><body>
			<a href="/articles/week-7-waiver-wire">Week 7 Waiver Wire Pickups to Target</a>
		</body></html>`)
	}))
	defer server.Close()

	sources := &fakeSourceRepo{sources: []database.Source{{
		ID: 1, Name: "S", FeedURL: server.URL + "/feed.xml", FetchMethod: "feed", Allowed: true,
	}}}
	articles := newFakeArticleRepo()
	logs := &fakeLogRepo{}

	o := newTestOrchestrator(t, sources, articles, logs)
	report, err := o.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Inserted != 1 {
		t.Fatalf("Expected scraped item inserted, got %d (%+v)", report.Inserted, report.Sources)
	}
	if logs.reasons()[database.ReasonParseError] == 0 {
		t.Errorf("Expected parse_error logged before fallback, got %v", logs.reasons())
	}
}

func TestRunItemCap(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0"?><rss version="2.0"><channel><title>t</title>`)
		for i := 0; i < 10; i++ {
			fmt.Fprintf(w, `<item><title>Week 1 Waiver Wire Part %d</title><link>%s/articles/part-%d</link></item>`,
				i, server.URL, i)
		}
		fmt.Fprint(w, `</channel></rss>`)
	}))
	defer server.Close()

	sources := &fakeSourceRepo{sources: []database.Source{{
		ID: 1, Name: "S", FeedURL: server.URL + "/feed.xml", FetchMethod: "feed", Allowed: true,
	}}}
	articles := newFakeArticleRepo()

	o := newTestOrchestrator(t, sources, articles, &fakeLogRepo{})
	report, err := o.Run(context.Background(), Options{ItemCap: 3})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Discovered != 3 {
		t.Errorf("Expected item cap of 3, got %d seen", report.Discovered)
	}
}

func TestRunSingleSource(t *testing.T) {
	sources := &fakeSourceRepo{sources: []database.Source{
		{ID: 1, Name: "A", FeedURL: "http://127.0.0.1:1/feed.xml", FetchMethod: "feed", Allowed: true},
	}}

	o := newTestOrchestrator(t, sources, newFakeArticleRepo(), &fakeLogRepo{})

	if _, err := o.Run(context.Background(), Options{SourceID: 99}); err == nil {
		t.Error("Expected error for unknown source id")
	}
}

func TestRunRejectsConcurrentBatches(t *testing.T) {
	release := make(chan struct{})
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	sources := &fakeSourceRepo{sources: []database.Source{{
		ID: 1, Name: "S", FeedURL: server.URL + "/feed.xml", FetchMethod: "feed", Allowed: true,
	}}}

	o := newTestOrchestrator(t, sources, newFakeArticleRepo(), &fakeLogRepo{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		o.Run(context.Background(), Options{})
	}()

	// Wait until the first run holds the guard.
	deadline := time.After(2 * time.Second)
	for o.running.Load() == false {
		select {
		case <-deadline:
			t.Fatal("First run never started")
		case <-time.After(time.Millisecond):
		}
	}

	if _, err := o.Run(context.Background(), Options{}); err != ErrRunInProgress {
		t.Errorf("Expected ErrRunInProgress, got %v", err)
	}

	close(release)
	<-done
}

func hasTopic(topics []string, want string) bool {
	for _, topic := range topics {
		if topic == want {
			return true
		}
	}
	return false
}

func keys(m map[string]database.Article) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
