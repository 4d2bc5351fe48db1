// Package config loads the core's environment-driven configuration per
// the external interfaces contract: every setting arrives as an
// environment variable, never a file, because every worker here runs as
// a container with its env populated by the deployment platform.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AWSConfig carries the region and resource identifiers every AWS client
// in the core needs to build itself.
type AWSConfig struct {
	Region string
}

// DatabaseConfig is the RDS Data API triplet: a resource ARN, a secret
// ARN holding credentials, and the logical database name. There is no
// host/port/DSN because the store talks to Postgres over the Data API,
// not a TCP connection.
type DatabaseConfig struct {
	ResourceARN string
	SecretARN   string
	Name        string
}

// StorageConfig names the S3 buckets used for raw ingestion snapshots,
// social-channel CSV drops, and CSV export artifacts.
type StorageConfig struct {
	RawBucketName    string
	SocialBucketName string
	ExportBucketName string
}

// QueuesConfig names the SQS queues each worker consumes or publishes.
type QueuesConfig struct {
	IngestionQueueURL      string
	ClassificationQueueURL string
	ReportQueueURL         string
	ExportQueueURL         string
	SocialQueueURL         string
}

// SocialConfig controls the social-ingestion worker's incident-raising
// threshold, per spec §4.3.1 step 5.
type SocialConfig struct {
	IncidentSentimentThreshold float64
	IncidentMinPosts           int
}

// MetricsConfig controls the Prometheus metrics HTTP server every
// worker binary exposes alongside its main loop.
type MetricsConfig struct {
	Port string
}

// ExportConfig controls pre-signed export URL behavior.
type ExportConfig struct {
	SignedURLSeconds int
}

// HTTPConfig controls the cmd/api trigger-endpoint server of spec
// §4.8. JWT verification happens upstream (out of scope per spec §1,
// e.g. an ALB OIDC action or API Gateway authorizer); this server only
// decodes the already-validated token's claims.
type HTTPConfig struct {
	Port               string
	CORSAllowedOrigins []string
}

// ReportConfig controls report-worker confidence scoring and recipients.
type ReportConfig struct {
	ConfidenceThreshold float64
	DefaultTimezone     string
	EmailSender         string
}

// ClassificationConfig controls the classification scheduler/worker.
// ModelBackend selects which of pkg/llm's two Classifier
// implementations cmd/classification-worker builds: "anthropic" (the
// default, direct Anthropic API) or "bedrock" (Bedrock-hosted Claude).
type ClassificationConfig struct {
	PromptVersion            string
	WindowDays               int
	SchedulerLimit           int
	ModelBackend             string
	AnthropicModelID         string
	AnthropicAPIKeySecretARN string
	BedrockModelID           string
}

// ProvidersConfig names the Secrets Manager ARN holding each news
// adapter's API key. An empty ARN still registers the adapter (per
// pkg/providers.NewRegistry's doc comment), it just fetches no key.
type ProvidersConfig struct {
	NewsAPIKeySecretARN    string
	BingNewsKeySecretARN   string
	MediastackKeySecretARN string
	NewsdataKeySecretARN   string
	GNewsKeySecretARN      string
}

// IngestionConfig controls the ingestion worker's target resolution and
// per-target article caps.
type IngestionConfig struct {
	DefaultTerms       []string
	MaxArticlesPerTerm int
	ClaimStaleMinutes  int
	MaxFallbackQueries int
}

// AlertConfig controls the incident evaluator's cooldown and signal
// versioning.
type AlertConfig struct {
	CooldownMinutes int
	SignalVersion   string
}

// SlackConfig controls the report worker's optional operational Slack
// notification, off unless both the bot token and channel are set.
type SlackConfig struct {
	BotToken string
	Channel  string
}

// Enabled reports whether enough configuration is present to post.
func (s SlackConfig) Enabled() bool {
	return s.BotToken != "" && s.Channel != ""
}

// Config is the fully resolved, validated configuration for the core.
type Config struct {
	AWS            AWSConfig
	Database       DatabaseConfig
	Storage        StorageConfig
	Queues         QueuesConfig
	Export         ExportConfig
	Report         ReportConfig
	Classification ClassificationConfig
	Ingestion      IngestionConfig
	Providers      ProvidersConfig
	Alert          AlertConfig
	Slack          SlackConfig
	Social         SocialConfig
	Metrics        MetricsConfig
	HTTP           HTTPConfig
}

// Load reads every setting from the process environment, applies
// defaults, and validates the result. It never reads a file: there is
// no config.yaml in this deployment model.
func Load() (*Config, error) {
	cfg := &Config{
		Export: ExportConfig{SignedURLSeconds: 900},
		Report: ReportConfig{
			ConfidenceThreshold: 0.65,
			DefaultTimezone:     "America/Bogota",
		},
		Classification: ClassificationConfig{
			PromptVersion:    "classification-v1",
			WindowDays:       7,
			SchedulerLimit:   120,
			ModelBackend:     "anthropic",
			AnthropicModelID: "claude-3-5-sonnet-20241022",
		},
		Ingestion: IngestionConfig{
			MaxArticlesPerTerm: 2,
			ClaimStaleMinutes:  10,
			MaxFallbackQueries: 50,
		},
		Alert: AlertConfig{
			CooldownMinutes: 60,
			SignalVersion:   "alert-v1-weighted",
		},
		Social: SocialConfig{
			IncidentSentimentThreshold: 0.6,
			IncidentMinPosts:           20,
		},
		Metrics: MetricsConfig{Port: "9090"},
		HTTP:    HTTPConfig{Port: "8080"},
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	return cfg, nil
}

func loadFromEnv(cfg *Config) error {
	cfg.AWS.Region = envOr("AWS_REGION", cfg.AWS.Region)

	cfg.Database.ResourceARN = envOr("DB_RESOURCE_ARN", cfg.Database.ResourceARN)
	cfg.Database.SecretARN = envOr("DB_SECRET_ARN", cfg.Database.SecretARN)
	cfg.Database.Name = envOr("DB_NAME", cfg.Database.Name)

	cfg.Storage.RawBucketName = envOr("RAW_BUCKET_NAME", cfg.Storage.RawBucketName)
	cfg.Storage.SocialBucketName = envOr("SOCIAL_BUCKET_NAME", cfg.Storage.SocialBucketName)
	cfg.Storage.ExportBucketName = envOr("EXPORT_BUCKET_NAME", cfg.Storage.ExportBucketName)

	cfg.Queues.IngestionQueueURL = envOr("INGESTION_QUEUE_URL", cfg.Queues.IngestionQueueURL)
	cfg.Queues.ClassificationQueueURL = envOr("CLASSIFICATION_QUEUE_URL", cfg.Queues.ClassificationQueueURL)
	cfg.Queues.ReportQueueURL = envOr("REPORT_QUEUE_URL", cfg.Queues.ReportQueueURL)
	cfg.Queues.ExportQueueURL = envOr("EXPORT_QUEUE_URL", cfg.Queues.ExportQueueURL)
	cfg.Queues.SocialQueueURL = envOr("SOCIAL_QUEUE_URL", cfg.Queues.SocialQueueURL)

	if v, ok := os.LookupEnv("EXPORT_SIGNED_URL_SECONDS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("EXPORT_SIGNED_URL_SECONDS must be an integer: %w", err)
		}
		cfg.Export.SignedURLSeconds = n
	}

	if v, ok := os.LookupEnv("REPORT_CONFIDENCE_THRESHOLD"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("REPORT_CONFIDENCE_THRESHOLD must be a float: %w", err)
		}
		cfg.Report.ConfidenceThreshold = f
	}
	cfg.Report.DefaultTimezone = envOr("REPORT_DEFAULT_TIMEZONE", cfg.Report.DefaultTimezone)
	cfg.Report.EmailSender = envOr("REPORT_EMAIL_SENDER", cfg.Report.EmailSender)

	cfg.Classification.PromptVersion = envOr("CLASSIFICATION_PROMPT_VERSION", cfg.Classification.PromptVersion)
	if v, ok := os.LookupEnv("CLASSIFICATION_WINDOW_DAYS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CLASSIFICATION_WINDOW_DAYS must be an integer: %w", err)
		}
		cfg.Classification.WindowDays = n
	}
	if v, ok := os.LookupEnv("CLASSIFICATION_SCHEDULER_LIMIT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CLASSIFICATION_SCHEDULER_LIMIT must be an integer: %w", err)
		}
		cfg.Classification.SchedulerLimit = n
	}
	cfg.Classification.BedrockModelID = envOr("BEDROCK_MODEL_ID", cfg.Classification.BedrockModelID)
	cfg.Classification.ModelBackend = strings.ToLower(envOr("CLASSIFICATION_MODEL_BACKEND", cfg.Classification.ModelBackend))
	cfg.Classification.AnthropicModelID = envOr("ANTHROPIC_MODEL_ID", cfg.Classification.AnthropicModelID)
	cfg.Classification.AnthropicAPIKeySecretARN = envOr("ANTHROPIC_API_KEY_SECRET_ARN", cfg.Classification.AnthropicAPIKeySecretARN)

	if v, ok := os.LookupEnv("ALERT_COOLDOWN_MINUTES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ALERT_COOLDOWN_MINUTES must be an integer: %w", err)
		}
		cfg.Alert.CooldownMinutes = n
	}
	cfg.Alert.SignalVersion = envOr("ALERT_SIGNAL_VERSION", cfg.Alert.SignalVersion)

	if v, ok := os.LookupEnv("INGESTION_DEFAULT_TERMS"); ok {
		cfg.Ingestion.DefaultTerms = splitAndTrim(v)
	}

	cfg.Providers.NewsAPIKeySecretARN = envOr("NEWSAPI_KEY_SECRET_ARN", cfg.Providers.NewsAPIKeySecretARN)
	cfg.Providers.BingNewsKeySecretARN = envOr("BINGNEWS_KEY_SECRET_ARN", cfg.Providers.BingNewsKeySecretARN)
	cfg.Providers.MediastackKeySecretARN = envOr("MEDIASTACK_KEY_SECRET_ARN", cfg.Providers.MediastackKeySecretARN)
	cfg.Providers.NewsdataKeySecretARN = envOr("NEWSDATA_KEY_SECRET_ARN", cfg.Providers.NewsdataKeySecretARN)
	cfg.Providers.GNewsKeySecretARN = envOr("GNEWS_KEY_SECRET_ARN", cfg.Providers.GNewsKeySecretARN)

	cfg.Slack.BotToken = envOr("SLACK_BOT_TOKEN", cfg.Slack.BotToken)
	cfg.Slack.Channel = envOr("SLACK_REPORT_CHANNEL", cfg.Slack.Channel)

	if v, ok := os.LookupEnv("SOCIAL_INCIDENT_SENTIMENT_THRESHOLD"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SOCIAL_INCIDENT_SENTIMENT_THRESHOLD must be a float: %w", err)
		}
		cfg.Social.IncidentSentimentThreshold = f
	}
	if v, ok := os.LookupEnv("SOCIAL_INCIDENT_MIN_POSTS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SOCIAL_INCIDENT_MIN_POSTS must be an integer: %w", err)
		}
		cfg.Social.IncidentMinPosts = n
	}

	cfg.Metrics.Port = envOr("METRICS_PORT", cfg.Metrics.Port)

	cfg.HTTP.Port = envOr("HTTP_PORT", cfg.HTTP.Port)
	if v, ok := os.LookupEnv("HTTP_CORS_ALLOWED_ORIGINS"); ok {
		cfg.HTTP.CORSAllowedOrigins = splitAndTrim(v)
	}

	return nil
}

func splitAndTrim(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

// ParseBool implements the spec's boolean grammar: {1,true,yes,on},
// case-insensitive. Anything else is false.
func ParseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func validate(cfg *Config) error {
	var missing []string

	if cfg.AWS.Region == "" {
		missing = append(missing, "AWS_REGION")
	}
	if cfg.Database.ResourceARN == "" {
		missing = append(missing, "DB_RESOURCE_ARN")
	}
	if cfg.Database.SecretARN == "" {
		missing = append(missing, "DB_SECRET_ARN")
	}
	if cfg.Database.Name == "" {
		missing = append(missing, "DB_NAME")
	}
	if cfg.Storage.RawBucketName == "" {
		missing = append(missing, "RAW_BUCKET_NAME")
	}
	if cfg.Storage.ExportBucketName == "" {
		missing = append(missing, "EXPORT_BUCKET_NAME")
	}
	if cfg.Storage.SocialBucketName == "" {
		missing = append(missing, "SOCIAL_BUCKET_NAME")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if cfg.Export.SignedURLSeconds <= 0 {
		return fmt.Errorf("EXPORT_SIGNED_URL_SECONDS must be greater than 0")
	}
	if cfg.Report.ConfidenceThreshold < 0 || cfg.Report.ConfidenceThreshold > 1 {
		return fmt.Errorf("REPORT_CONFIDENCE_THRESHOLD must be between 0.0 and 1.0")
	}
	if _, err := time.LoadLocation(cfg.Report.DefaultTimezone); err != nil {
		return fmt.Errorf("REPORT_DEFAULT_TIMEZONE is not a valid IANA timezone: %s", cfg.Report.DefaultTimezone)
	}
	if cfg.Classification.WindowDays <= 0 {
		return fmt.Errorf("CLASSIFICATION_WINDOW_DAYS must be greater than 0")
	}
	if cfg.Classification.SchedulerLimit <= 0 {
		return fmt.Errorf("CLASSIFICATION_SCHEDULER_LIMIT must be greater than 0")
	}
	if cfg.Classification.ModelBackend != "anthropic" && cfg.Classification.ModelBackend != "bedrock" {
		return fmt.Errorf("CLASSIFICATION_MODEL_BACKEND must be one of anthropic, bedrock")
	}
	if cfg.Alert.CooldownMinutes <= 0 {
		return fmt.Errorf("ALERT_COOLDOWN_MINUTES must be greater than 0")
	}
	if cfg.Social.IncidentSentimentThreshold < 0 || cfg.Social.IncidentSentimentThreshold > 1 {
		return fmt.Errorf("SOCIAL_INCIDENT_SENTIMENT_THRESHOLD must be between 0.0 and 1.0")
	}
	if cfg.Social.IncidentMinPosts <= 0 {
		return fmt.Errorf("SOCIAL_INCIDENT_MIN_POSTS must be greater than 0")
	}

	return nil
}
