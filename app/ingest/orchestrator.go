package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jdotsteets/fantasy-report-sub002/app/classify"
	"github.com/jdotsteets/fantasy-report-sub002/app/database"
	"github.com/jdotsteets/fantasy-report-sub002/app/feed"
	"github.com/jdotsteets/fantasy-report-sub002/app/fetch"
	"github.com/jdotsteets/fantasy-report-sub002/app/filter"
	"github.com/jdotsteets/fantasy-report-sub002/app/normalize"
)

const DefaultItemCap = 150

// ErrRunInProgress is returned when a batch is already running; batches
// never overlap.
var ErrRunInProgress = errors.New("ingest run already in progress")

// Options controls one batch.
type Options struct {
	SourceID int64 // 0 = all allowed sources
	ItemCap  int   // 0 = DefaultItemCap
	Verbose  bool
}

// Per-source pipeline states.
type SourceState string

const (
	StatePending     SourceState = "PENDING"
	StateFetching    SourceState = "FETCHING"
	StateParsed      SourceState = "PARSED"
	StateFetchFailed SourceState = "FETCH_FAILED"
	StateFiltering   SourceState = "FILTERING"
	StateDone        SourceState = "DONE"
)

// SourceReport carries per-source diagnostics for one batch.
type SourceReport struct {
	SourceID        int64       `json:"source_id"`
	SourceName      string      `json:"source_name"`
	State           SourceState `json:"state"`
	ResolvedURL     string      `json:"resolved_url,omitempty"`
	DiscoveredURL   string      `json:"discovered_url,omitempty"`
	CandidatesTried []string    `json:"candidates_tried,omitempty"`
	ItemsSeen       int         `json:"items_seen"`
	ItemsAdded      int         `json:"items_added"`
	ItemsFiltered   int         `json:"items_filtered"`
	ItemsDuplicate  int         `json:"items_duplicate"`
	ItemsInvalid    int         `json:"items_invalid"`
	StoreErrors     int         `json:"store_errors,omitempty"`
	Error           string      `json:"error,omitempty"`
}

// Report aggregates one batch.
type Report struct {
	Discovered int            `json:"discovered"`
	Inserted   int            `json:"inserted"`
	Updated    int            `json:"updated"`
	Errors     int            `json:"errors"`
	Duration   time.Duration  `json:"duration"`
	Sources    []SourceReport `json:"sources,omitempty"`
}

// Orchestrator drives one ingest batch across all admitted sources with a
// bounded worker pool. A source's failure is isolated: it is logged and the
// batch continues. Only an unreachable datastore aborts the run.
type Orchestrator struct {
	client     *fetch.Client
	resolver   *fetch.Resolver
	parser     *feed.Parser
	engine     *filter.Engine
	normalizer *normalize.Normalizer
	classifier *classify.Classifier

	sources  database.SourceRepository
	articles database.ArticleRepository
	logs     database.IngestLogRepository

	workerCount int
	running     atomic.Bool
}

func NewOrchestrator(client *fetch.Client, resolver *fetch.Resolver, parser *feed.Parser,
	engine *filter.Engine, normalizer *normalize.Normalizer, classifier *classify.Classifier,
	sources database.SourceRepository, articles database.ArticleRepository,
	logs database.IngestLogRepository, workerCount int) *Orchestrator {

	if workerCount < 1 {
		workerCount = 1
	}

	return &Orchestrator{
		client:      client,
		resolver:    resolver,
		parser:      parser,
		engine:      engine,
		normalizer:  normalizer,
		classifier:  classifier,
		sources:     sources,
		articles:    articles,
		logs:        logs,
		workerCount: workerCount,
	}
}

// Run executes one batch and returns aggregate counters plus per-source
// diagnostics.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Report, error) {
	if !o.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer o.running.Store(false)

	started := time.Now()

	sources, err := o.loadSources(opts.SourceID)
	if err != nil {
		return nil, err
	}

	itemCap := opts.ItemCap
	if itemCap <= 0 {
		itemCap = DefaultItemCap
	}

	slog.Info("Ingest batch started", "sources", len(sources), "workers", o.workerCount, "item_cap", itemCap)

	reports := make([]SourceReport, len(sources))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < o.workerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				reports[i] = o.processSource(ctx, sources[i], itemCap)
			}
		}()
	}

feeding:
	for i := range sources {
		select {
		case <-ctx.Done():
			break feeding
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	report := &Report{Sources: reports, Duration: time.Since(started)}
	for _, rep := range reports {
		report.Discovered += rep.ItemsSeen
		report.Inserted += rep.ItemsAdded
		report.Errors += rep.StoreErrors
		if rep.State == StateFetchFailed {
			report.Errors++
		}
	}

	slog.Info("Ingest batch finished",
		"discovered", report.Discovered,
		"inserted", report.Inserted,
		"errors", report.Errors,
		"duration", report.Duration.String())

	return report, nil
}

func (o *Orchestrator) loadSources(sourceID int64) ([]database.Source, error) {
	if sourceID != 0 {
		src, err := o.sources.GetSource(sourceID)
		if err != nil {
			return nil, fmt.Errorf("failed to load source %d: %w", sourceID, err)
		}
		if src == nil {
			return nil, fmt.Errorf("source %d not found", sourceID)
		}
		return []database.Source{*src}, nil
	}

	sources, err := o.sources.GetAllowedSources()
	if err != nil {
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}
	return sources, nil
}

func (o *Orchestrator) processSource(ctx context.Context, src database.Source, itemCap int) SourceReport {
	rep := SourceReport{SourceID: src.ID, SourceName: src.Name, State: StatePending}

	rep.State = StateFetching
	items, ok := o.listItems(ctx, src, &rep)
	if !ok {
		rep.State = StateFetchFailed
		return rep
	}
	rep.State = StateParsed

	rep.State = StateFiltering
	for _, item := range items {
		if rep.ItemsSeen >= itemCap {
			slog.Debug("Item cap reached", "source", src.Name, "cap", itemCap)
			break
		}
		rep.ItemsSeen++
		o.processItem(item, src, &rep)
	}
	rep.State = StateDone

	slog.Info("Source processed",
		"source", src.Name,
		"seen", rep.ItemsSeen,
		"added", rep.ItemsAdded,
		"filtered", rep.ItemsFiltered,
		"duplicates", rep.ItemsDuplicate)

	return rep
}

// listItems dispatches on the source's fetch-method tag: feed resolution
// with a scrape fallback, or a direct homepage scrape.
func (o *Orchestrator) listItems(ctx context.Context, src database.Source, rep *SourceReport) ([]feed.RawItem, bool) {
	switch src.FetchMethod {
	case "scrape":
		return o.listScraped(ctx, src, rep)
	default:
		return o.listFromFeed(ctx, src, rep)
	}
}

func (o *Orchestrator) listFromFeed(ctx context.Context, src database.Source, rep *SourceReport) ([]feed.RawItem, bool) {
	res, err := o.resolver.Resolve(ctx, src.FeedURL, src.HomepageURL)
	if err != nil {
		var resolveErr *fetch.ResolveError
		if errors.As(err, &resolveErr) {
			rep.CandidatesTried = resolveErr.Attempted
		}
		rep.Error = err.Error()
		o.logEvent(src.ID, src.FeedURL, "", database.ReasonFetchError, err.Error())
		slog.Warn("Source fetch failed", "source", src.Name, "error", err)
		return nil, false
	}

	rep.ResolvedURL = res.FinalURL
	rep.DiscoveredURL = res.DiscoveredURL
	o.selfHeal(src, res.DiscoveredURL)

	items, err := o.parser.Parse(string(res.Body))
	if err == nil {
		return items, true
	}

	if errors.Is(err, feed.ErrUnrecognizedFormat) {
		// The sniff accepts any markup starting with '<'; an HTML page
		// that slipped through still carries article links.
		o.logEvent(src.ID, res.FinalURL, "", database.ReasonParseError, err.Error())
		items, serr := feed.ScrapeLinks(res.Body, res.FinalURL, src.ScrapeSelector)
		if serr != nil {
			rep.Error = serr.Error()
			o.logEvent(src.ID, res.FinalURL, "", database.ReasonScrapeNoMatches, serr.Error())
			slog.Warn("Fallback scrape found nothing", "source", src.Name, "error", serr)
			return nil, false
		}
		return items, true
	}

	rep.Error = err.Error()
	o.logEvent(src.ID, res.FinalURL, "", database.ReasonParseError, err.Error())
	slog.Warn("Source parse failed", "source", src.Name, "error", err)
	return nil, false
}

func (o *Orchestrator) listScraped(ctx context.Context, src database.Source, rep *SourceReport) ([]feed.RawItem, bool) {
	page, _, err := o.client.Fetch(ctx, src.HomepageURL)
	if err != nil {
		rep.Error = err.Error()
		o.logEvent(src.ID, src.HomepageURL, "", database.ReasonFetchError, err.Error())
		slog.Warn("Homepage fetch failed", "source", src.Name, "error", err)
		return nil, false
	}
	rep.ResolvedURL = src.HomepageURL

	items, err := feed.ScrapeLinks(page, src.HomepageURL, src.ScrapeSelector)
	if err != nil {
		rep.Error = err.Error()
		o.logEvent(src.ID, src.HomepageURL, "", database.ReasonScrapeNoMatches, err.Error())
		return nil, false
	}
	return items, true
}

func (o *Orchestrator) processItem(item feed.RawItem, src database.Source, rep *SourceReport) {
	decision := o.engine.Admit(item, domainOf(item.Link), src.ID)
	if !decision.Allowed {
		rep.ItemsFiltered++
		o.logEvent(src.ID, item.Link, item.Title, decision.Reason, decision.Detail)
		return
	}

	candidate, err := o.normalizer.Normalize(item, src.ID, src.Name)
	if err != nil {
		rep.ItemsInvalid++
		o.logEvent(src.ID, item.Link, item.Title, database.ReasonInvalidItem, err.Error())
		return
	}

	blocked, err := o.articles.IsBlocked(candidate.CanonicalURL)
	if err != nil {
		slog.Warn("Blocklist check failed", "url", candidate.CanonicalURL, "error", err)
	} else if blocked {
		rep.ItemsFiltered++
		o.logEvent(src.ID, candidate.CanonicalURL, candidate.CleanTitle,
			database.ReasonBlockedByFilter, "url on operator blocklist")
		return
	}

	result := o.classifier.Classify(classify.Input{
		Title:      candidate.CleanTitle,
		Summary:    item.Description,
		URL:        candidate.CanonicalURL,
		SourceName: src.Name,
		Week:       candidate.Week,
	})

	article := buildArticle(candidate, result, decision)
	outcome, err := o.articles.UpsertArticle(article)
	if err != nil {
		rep.StoreErrors++
		slog.Error("Article upsert failed", "url", candidate.CanonicalURL, "error", err)
		return
	}

	switch outcome {
	case database.UpsertInserted:
		rep.ItemsAdded++
		o.logEvent(src.ID, candidate.CanonicalURL, candidate.CleanTitle, database.ReasonUpsertInserted, "")
	case database.UpsertSkippedDuplicate:
		rep.ItemsDuplicate++
		o.logEvent(src.ID, candidate.CanonicalURL, candidate.CleanTitle,
			database.ReasonUpsertSkipped, "duplicate canonical url or fingerprint")
	}
}

func buildArticle(c *normalize.Candidate, r classify.Result, d filter.Decision) database.Article {
	article := database.Article{
		SourceID:       c.SourceID,
		URL:            c.URL,
		CanonicalURL:   c.CanonicalURL,
		Domain:         c.Domain,
		Title:          c.Title,
		CleanTitle:     c.CleanTitle,
		Slug:           c.Slug,
		Fingerprint:    c.Fingerprint,
		Topics:         r.Topics,
		PrimaryTopic:   r.Primary,
		SecondaryTopic: r.Secondary,
		Category:       d.Category,
		Confidence:     r.Confidence,
		Week:           r.Week,
	}
	if !c.PublishedAt.IsZero() {
		published := c.PublishedAt
		article.PublishedAt = &published
	}
	return article
}

// selfHeal persists a discovered feed URL back onto the source. Best
// effort: failure never blocks item inserts.
func (o *Orchestrator) selfHeal(src database.Source, discoveredURL string) {
	if discoveredURL == "" || discoveredURL == src.FeedURL {
		return
	}
	if err := o.sources.UpdateFeedURL(src.ID, discoveredURL); err != nil {
		slog.Warn("Feed URL self-heal failed", "source", src.Name, "url", discoveredURL, "error", err)
		return
	}
	slog.Info("Feed URL healed", "source", src.Name, "url", discoveredURL)
}

// logEvent appends a diagnostic entry. A logging failure must never drop
// or retry the underlying item, so it only warns.
func (o *Orchestrator) logEvent(sourceID int64, url, title, reason, detail string) {
	entry := database.IngestLog{
		SourceID: sourceID,
		URL:      url,
		Title:    title,
		Reason:   reason,
		Detail:   detail,
	}
	if err := o.logs.Append(entry); err != nil {
		slog.Warn("Ingest log write failed", "reason", reason, "error", err)
	}
}

func domainOf(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
