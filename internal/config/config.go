package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Telegram
	BotToken       string
	AllowedUserIDs []int64

	// Database
	SQLiteDBPath string

	// File destinations
	BackupDir string
	ExportDir string

	// AMQP event publishing (optional, empty URL disables it)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Schedules, local time of day
	ReminderMorning   string
	ReminderEvening   string
	MonthlyReportTime string

	// Logging
	LogLevel string
}

func Load() *Config {
	return &Config{
		BotToken:       getEnv("BOT_TOKEN", ""),
		AllowedUserIDs: parseIDList(getEnv("BOT_ALLOWED_USER_IDS", "")),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/budget.db"),

		BackupDir: getEnv("BACKUP_DIR", "./backup"),
		ExportDir: getEnv("EXPORT_DIR", "./export"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "familybudget"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		ReminderMorning:   getEnv("REMINDER_MORNING", "09:00"),
		ReminderEvening:   getEnv("REMINDER_EVENING", "20:00"),
		MonthlyReportTime: getEnv("MONTHLY_REPORT_TIME", "12:00"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var problems []string

	if c.BotToken == "" {
		problems = append(problems, "BOT_TOKEN cannot be empty")
	}
	if len(c.AllowedUserIDs) == 0 {
		problems = append(problems, "BOT_ALLOWED_USER_IDS must list at least one user id")
	}
	if c.SQLiteDBPath == "" {
		problems = append(problems, "SQLITE_DB_PATH cannot be empty")
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP_EXCHANGE cannot be empty when AMQP_URL is provided")
		}
		if c.AMQPQueue == "" {
			problems = append(problems, "AMQP_QUEUE cannot be empty when AMQP_URL is provided")
		}
	}

	for name, value := range map[string]string{
		"REMINDER_MORNING":    c.ReminderMorning,
		"REMINDER_EVENING":    c.ReminderEvening,
		"MONTHLY_REPORT_TIME": c.MonthlyReportTime,
	} {
		if _, err := time.Parse("15:04", value); err != nil {
			problems = append(problems, fmt.Sprintf("invalid %s '%s': must be HH:MM", name, value))
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("invalid LOG_LEVEL '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Allowed reports whether a user id is on the static allow-list.
func (c *Config) Allowed(userID int64) bool {
	for _, id := range c.AllowedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func parseIDList(s string) []int64 {
	var out []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out
}
