package constants

import "time"

const (
	AppName            = "moodlit"
	DefaultKeyringUser = "identity-token"
	KeyringDBAccount   = "db-connection"
	DefaultConfigPath  = "~/.config/moodlit/moodlit.db"
	Version            = "v0.3.0"

	// Remote collaborator constants
	RemoteTimeout      = 20 * time.Second
	TextGenTimeout     = 30 * time.Second
	DefaultOpenAIURL   = "https://api.openai.com/v1"
	DefaultOpenAIModel = "gpt-4o-mini"

	// Aggregation constants
	// MinUserWeeksForScore is the number of distinct user-week buckets a category
	// needs before it reports a score instead of pending.
	MinUserWeeksForScore = 3
	TopMoodSlices        = 7
	TopTags              = 20
	OtherSliceLabel      = "Other"

	// Notify constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "moodlit-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.moodlit"

	// Reminder defaults
	DefaultReminderSchedule = "0 17 * * 1-5"
	DefaultReminderText     = "How was your day? Take a minute to check in."

	// Company service defaults
	DefaultServerAddr      = ":8080"
	DefaultTokenTTL        = 90 * 24 * time.Hour
	DefaultRateLimitPerMin = 60
	InsightRedisPrefix     = "moodlit:insight:"
)
