package initializers

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the configuration values for the application.
type Config struct {
	DatabaseURL string
	DebugSQL    bool

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	UserIndexID       string
	RegulationIndexID string
	SessionTTL        time.Duration
	MaxSearchResults  int
	WaitForIndexing   bool

	ElasticsearchURL     string
	AnalysisArchiveIndex string

	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string

	CronSecret string
	Port       string
}

// MustLoad reads the environment variables and returns a Config. It panics
// when a required variable is missing.
func MustLoad() Config {
	ttlHours, _ := strconv.Atoi(get("SESSION_DOCUMENT_TTL_HOURS", "24"))
	maxResults, _ := strconv.Atoi(get("MAX_SEARCH_RESULTS", "8"))
	return Config{
		DatabaseURL: get("DIRECT_URL", ""),
		DebugSQL:    get("DEBUG_SQL", "") == "true",

		OpenAIAPIKey:  must("OPENAI_API_KEY"),
		OpenAIBaseURL: get("OPENAI_BASE_URL", ""),
		OpenAIModel:   get("OPENAI_MODEL", "gpt-4.1-mini"),

		UserIndexID:       must("USER_INDEX_ID"),
		RegulationIndexID: must("REGULATION_INDEX_ID"),
		SessionTTL:        time.Duration(ttlHours) * time.Hour,
		MaxSearchResults:  maxResults,
		WaitForIndexing:   get("WAIT_FOR_INDEXING", "") == "true",

		ElasticsearchURL:     get("ELASTICSEARCH_URL", ""),
		AnalysisArchiveIndex: get("ANALYSIS_ARCHIVE_INDEX", "analyses"),

		S3Region:    get("S3_REGION", ""),
		S3Endpoint:  get("S3_ENDPOINT", ""),
		S3AccessKey: get("S3_ACCESS_KEY", ""),
		S3SecretKey: get("S3_SECRET_KEY", ""),
		S3Bucket:    get("S3_BUCKET", ""),

		CronSecret: get("CRON_SECRET", ""),
		Port:       get("PORT", "8080"),
	}
}

// S3Enabled reports whether every S3 setting is present.
func (c Config) S3Enabled() bool {
	return c.S3Region != "" && c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != "" && c.S3Bucket != ""
}

// get returns the value of the environment variable k or def if not set.
func get(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// must returns the value of the environment variable k or panics if not set.
func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic(fmt.Errorf("missing env %s", k))
	}
	return v
}
