package config

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func clearConfigEnv() {
	for _, k := range []string{
		"AWS_REGION", "DB_RESOURCE_ARN", "DB_SECRET_ARN", "DB_NAME",
		"RAW_BUCKET_NAME", "EXPORT_BUCKET_NAME", "SOCIAL_BUCKET_NAME",
		"INGESTION_QUEUE_URL", "CLASSIFICATION_QUEUE_URL", "REPORT_QUEUE_URL", "EXPORT_QUEUE_URL", "SOCIAL_QUEUE_URL",
		"EXPORT_SIGNED_URL_SECONDS", "REPORT_CONFIDENCE_THRESHOLD", "REPORT_DEFAULT_TIMEZONE", "REPORT_EMAIL_SENDER",
		"CLASSIFICATION_PROMPT_VERSION", "CLASSIFICATION_WINDOW_DAYS", "CLASSIFICATION_SCHEDULER_LIMIT", "BEDROCK_MODEL_ID",
		"CLASSIFICATION_MODEL_BACKEND", "ANTHROPIC_MODEL_ID", "ANTHROPIC_API_KEY_SECRET_ARN",
		"ALERT_COOLDOWN_MINUTES", "ALERT_SIGNAL_VERSION", "INGESTION_DEFAULT_TERMS",
		"SLACK_BOT_TOKEN", "SLACK_REPORT_CHANNEL",
		"SOCIAL_INCIDENT_SENTIMENT_THRESHOLD", "SOCIAL_INCIDENT_MIN_POSTS",
		"METRICS_PORT",
		"NEWSAPI_KEY_SECRET_ARN", "BINGNEWS_KEY_SECRET_ARN", "MEDIASTACK_KEY_SECRET_ARN",
		"NEWSDATA_KEY_SECRET_ARN", "GNEWS_KEY_SECRET_ARN",
		"HTTP_PORT", "HTTP_CORS_ALLOWED_ORIGINS",
	} {
		os.Unsetenv(k)
	}
}

func setRequiredEnv() {
	os.Setenv("AWS_REGION", "us-east-1")
	os.Setenv("DB_RESOURCE_ARN", "arn:aws:rds:us-east-1:123456789012:cluster:media-intel")
	os.Setenv("DB_SECRET_ARN", "arn:aws:secretsmanager:us-east-1:123456789012:secret:media-intel-db")
	os.Setenv("DB_NAME", "media_intel")
	os.Setenv("RAW_BUCKET_NAME", "media-intel-raw")
	os.Setenv("EXPORT_BUCKET_NAME", "media-intel-exports")
	os.Setenv("SOCIAL_BUCKET_NAME", "media-intel-social")
}

var _ = Describe("Config", func() {
	BeforeEach(func() {
		clearConfigEnv()
	})

	AfterEach(func() {
		clearConfigEnv()
	})

	Describe("Load", func() {
		Context("when required environment variables are set", func() {
			BeforeEach(setRequiredEnv)

			It("should load successfully with documented defaults", func() {
				cfg, err := Load()
				Expect(err).NotTo(HaveOccurred())

				Expect(cfg.AWS.Region).To(Equal("us-east-1"))
				Expect(cfg.Database.ResourceARN).To(ContainSubstring("media-intel"))
				Expect(cfg.Export.SignedURLSeconds).To(Equal(900))
				Expect(cfg.Report.ConfidenceThreshold).To(Equal(0.65))
				Expect(cfg.Report.DefaultTimezone).To(Equal("America/Bogota"))
				Expect(cfg.Classification.PromptVersion).To(Equal("classification-v1"))
				Expect(cfg.Classification.WindowDays).To(Equal(7))
				Expect(cfg.Classification.SchedulerLimit).To(Equal(120))
				Expect(cfg.Classification.ModelBackend).To(Equal("anthropic"))
				Expect(cfg.Classification.AnthropicModelID).To(Equal("claude-3-5-sonnet-20241022"))
				Expect(cfg.Alert.CooldownMinutes).To(Equal(60))
				Expect(cfg.Alert.SignalVersion).To(Equal("alert-v1-weighted"))
				Expect(cfg.Ingestion.MaxArticlesPerTerm).To(Equal(2))
				Expect(cfg.Ingestion.ClaimStaleMinutes).To(Equal(10))
				Expect(cfg.Ingestion.DefaultTerms).To(BeEmpty())
				Expect(cfg.Slack.Enabled()).To(BeFalse())
				Expect(cfg.Social.IncidentSentimentThreshold).To(Equal(0.6))
				Expect(cfg.Social.IncidentMinPosts).To(Equal(20))
				Expect(cfg.Metrics.Port).To(Equal("9090"))
				Expect(cfg.HTTP.Port).To(Equal("8080"))
				Expect(cfg.HTTP.CORSAllowedOrigins).To(BeEmpty())
			})

			It("should enable Slack only once both the token and channel are set", func() {
				os.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
				os.Setenv("SLACK_REPORT_CHANNEL", "#media-intel-alerts")

				cfg, err := Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Slack.Enabled()).To(BeTrue())
			})

			It("should parse a comma-separated default-terms list, trimming blanks", func() {
				os.Setenv("INGESTION_DEFAULT_TERMS", "claro, 5g , , fiber")

				cfg, err := Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Ingestion.DefaultTerms).To(Equal([]string{"claro", "5g", "fiber"}))
			})

			It("should honor overrides", func() {
				os.Setenv("REPORT_CONFIDENCE_THRESHOLD", "0.8")
				os.Setenv("CLASSIFICATION_WINDOW_DAYS", "14")
				os.Setenv("ALERT_COOLDOWN_MINUTES", "30")
				os.Setenv("EXPORT_SIGNED_URL_SECONDS", "600")

				cfg, err := Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Report.ConfidenceThreshold).To(Equal(0.8))
				Expect(cfg.Classification.WindowDays).To(Equal(14))
				Expect(cfg.Alert.CooldownMinutes).To(Equal(30))
				Expect(cfg.Export.SignedURLSeconds).To(Equal(600))
			})
		})

		Context("when the DB triplet is missing", func() {
			It("should return a misconfigured error naming the missing variables", func() {
				setRequiredEnv()
				os.Unsetenv("DB_RESOURCE_ARN")
				os.Unsetenv("DB_SECRET_ARN")

				_, err := Load()
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("DB_RESOURCE_ARN"))
				Expect(err.Error()).To(ContainSubstring("DB_SECRET_ARN"))
			})
		})

		Context("when bucket names are missing", func() {
			It("should return an error", func() {
				setRequiredEnv()
				os.Unsetenv("RAW_BUCKET_NAME")

				_, err := Load()
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("RAW_BUCKET_NAME"))
			})

			It("should return an error when the social bucket is missing", func() {
				setRequiredEnv()
				os.Unsetenv("SOCIAL_BUCKET_NAME")

				_, err := Load()
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("SOCIAL_BUCKET_NAME"))
			})
		})

		Context("when a numeric override is malformed", func() {
			It("should return an error", func() {
				setRequiredEnv()
				os.Setenv("CLASSIFICATION_WINDOW_DAYS", "not-a-number")

				_, err := Load()
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("CLASSIFICATION_WINDOW_DAYS"))
			})
		})

		Context("when the timezone override is invalid", func() {
			It("should return an error", func() {
				setRequiredEnv()
				os.Setenv("REPORT_DEFAULT_TIMEZONE", "Not/A_Zone")

				_, err := Load()
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("REPORT_DEFAULT_TIMEZONE"))
			})
		})
	})

	Describe("validate", func() {
		var cfg *Config

		BeforeEach(func() {
			cfg = &Config{
				AWS:      AWSConfig{Region: "us-east-1"},
				Database: DatabaseConfig{ResourceARN: "arn:aws:rds:x", SecretARN: "arn:aws:secretsmanager:x", Name: "media_intel"},
				Storage:  StorageConfig{RawBucketName: "raw", ExportBucketName: "exports", SocialBucketName: "social"},
				Export:   ExportConfig{SignedURLSeconds: 900},
				Report:   ReportConfig{ConfidenceThreshold: 0.65, DefaultTimezone: "America/Bogota"},
				Classification: ClassificationConfig{
					PromptVersion: "classification-v1", WindowDays: 7, SchedulerLimit: 120, ModelBackend: "anthropic",
				},
				Alert:  AlertConfig{CooldownMinutes: 60, SignalVersion: "alert-v1-weighted"},
				Social: SocialConfig{IncidentSentimentThreshold: 0.6, IncidentMinPosts: 20},
			}
		})

		It("should pass for a fully populated config", func() {
			Expect(validate(cfg)).NotTo(HaveOccurred())
		})

		It("should reject a confidence threshold outside [0,1]", func() {
			cfg.Report.ConfidenceThreshold = 1.5
			err := validate(cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("REPORT_CONFIDENCE_THRESHOLD"))
		})

		It("should reject a non-positive scheduler limit", func() {
			cfg.Classification.SchedulerLimit = 0
			err := validate(cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("CLASSIFICATION_SCHEDULER_LIMIT"))
		})

		It("should reject a non-positive cooldown", func() {
			cfg.Alert.CooldownMinutes = -1
			err := validate(cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("ALERT_COOLDOWN_MINUTES"))
		})

		It("should reject a social sentiment threshold outside [0,1]", func() {
			cfg.Social.IncidentSentimentThreshold = 1.5
			err := validate(cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("SOCIAL_INCIDENT_SENTIMENT_THRESHOLD"))
		})

		It("should reject a non-positive social minimum post count", func() {
			cfg.Social.IncidentMinPosts = 0
			err := validate(cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("SOCIAL_INCIDENT_MIN_POSTS"))
		})
	})

	Describe("ParseBool", func() {
		DescribeTable("boolean grammar",
			func(input string, expected bool) {
				Expect(ParseBool(input)).To(Equal(expected))
			},
			Entry("1", "1", true),
			Entry("true", "true", true),
			Entry("TRUE", "TRUE", true),
			Entry("yes", "yes", true),
			Entry("on", "on", true),
			Entry("0", "0", false),
			Entry("false", "false", false),
			Entry("empty", "", false),
			Entry("garbage", "maybe", false),
		)
	})
})
