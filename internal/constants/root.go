package constants

import "time"

const (
	AppName            = "pillbox"
	Version            = "v0.3.0"
	DefaultConfigPath  = "~/.config/pillbox/pillbox.db"
	DefaultKeyringUser = "database-connection"

	// DateFormat is the date-key format used for every "day" comparison (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the reminder time format (HH:MM)
	TimeFormat = "15:04"

	// Storage keys for the persisted records
	SupplementsKey  = "supplementTrackerData"
	SettingsKey     = "supplementTrackerSettings"
	ReminderSentKey = "supplementTrackerReminderSent"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "pillbox-"
	BackupFileSuffix = ".db"

	// Notify constants
	NotifierLockfileName   = "pillbox-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.pillbox"
	TrayExecutable         = "pillbox-tray"
	TraySecretHeader       = "X-Pillbox-Secret"
	ReminderTag            = "supplement-reminder"
	ReminderTitle          = "Supplement reminder"
	ReminderBody           = "Time to finish today's vitamins and creatine 💊"

	// Statistics windows
	WeeklyWindowDays = 7
	StreakWindowDays = 14

	// RolloverDelay is how long after midnight the daemon re-arms the reminder
	RolloverDelay = 5 * time.Second
)

// Reminder defaults
const (
	DefaultReminderEnabled = true
	DefaultReminderTime    = "19:00"
)

// Supplement field defaults applied by normalization
const (
	DefaultSupplementName    = "Unknown supplement"
	DefaultDosage            = "1 dose"
	DefaultReminderHour      = 18
	DefaultDraftReminderHour = 9
	MinNameLength            = 2
)
