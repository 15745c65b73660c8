package cfg

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Application configuration
	Port         string
	APIAccessKey string
	RulesFile    string
	WorkerCount  int
	FetchTimeout int // seconds, per HTTP attempt
	FetchRetries int // extra attempts after the first
	ItemCap      int // per-source item limit
	Oneshot      bool

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string
}
