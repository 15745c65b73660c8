package database

// UpsertResult reports what an article upsert actually did. A conflicting
// insert is a successful no-op, never an error.
type UpsertResult int

const (
	UpsertInserted UpsertResult = iota
	UpsertSkippedDuplicate
)

type SourceRepository interface {
	GetAllowedSources() ([]Source, error)
	GetSource(id int64) (*Source, error)

	// UpdateFeedURL is the self-heal write: a narrow, single-field update
	// applied when the resolver discovers a working feed endpoint.
	UpdateFeedURL(id int64, feedURL string) error
}

type ArticleRepository interface {
	UpsertArticle(article Article) (UpsertResult, error)
	IsBlocked(canonicalURL string) (bool, error)
	CountArticles() (int, error)
}

type IngestLogRepository interface {
	Append(entry IngestLog) error
}
