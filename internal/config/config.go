// Package config loads the bot configuration: the shared core settings plus
// the club, check-in, schedule, storage and health sections.
package config

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/anakalachikova-cmd/sterladometr-bot/core/config"
	coredatabase "github.com/anakalachikova-cmd/sterladometr-bot/core/database"
	"github.com/anakalachikova-cmd/sterladometr-bot/internal/storage"
)

// Storage drivers.
const (
	StorageFile     = "file"
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = coredatabase.DriverPostgres
	StorageSQLite   = coredatabase.DriverSQLite
)

// DefaultBotUsername is shown when private delivery fails.
const DefaultBotUsername = "Sterladometr_bot"

// ClubConfig identifies the group and its topics.
type ClubConfig struct {
	GroupChatID int64 `yaml:"group_chat_id" envconfig:"GROUP_CHAT_ID"`
	// InputThreadID is the "how much I wrote" topic; 0 means the general chat.
	InputThreadID int `yaml:"input_thread_id" envconfig:"THREAD_INPUT"`
	// OutputThreadID is the reports topic.
	OutputThreadID int    `yaml:"output_thread_id" envconfig:"THREAD_OUTPUT"`
	BotUsername    string `yaml:"bot_username" envconfig:"BOT_USERNAME"`
}

// CheckinConfig tunes the count wait.
type CheckinConfig struct {
	Timeout       time.Duration `yaml:"timeout" envconfig:"CHECKIN_TIMEOUT"`
	FallbackCount int           `yaml:"fallback_count" envconfig:"CHECKIN_FALLBACK_COUNT"`
}

// ScheduleConfig sets when recurring posts go out.
type ScheduleConfig struct {
	Timezone      string `yaml:"timezone" envconfig:"TIMEZONE"`
	ReminderHour  *int   `yaml:"reminder_hour" envconfig:"REMINDER_HOUR"`
	WeeklyWeekday string `yaml:"weekly_weekday" envconfig:"WEEKLY_WEEKDAY"`
	WeeklyHour    *int   `yaml:"weekly_hour" envconfig:"WEEKLY_REPORT_HOUR"`
	MonthlyHour   *int   `yaml:"monthly_hour" envconfig:"MONTHLY_REPORT_HOUR"`
	Disabled      bool   `yaml:"disabled" envconfig:"SCHEDULE_DISABLED"`

	location *time.Location
	weekday  time.Weekday
}

// RedisConfig addresses the Redis backend.
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
	Key      string `yaml:"key" envconfig:"REDIS_KEY"`
}

// StorageConfig selects and configures the document backend.
type StorageConfig struct {
	Driver string `yaml:"driver" envconfig:"STORAGE_DRIVER"`
	// Path is the JSON file for the file driver.
	Path string `yaml:"path" envconfig:"STORAGE_PATH"`
	// ImportPath is a legacy stats.json copied into an empty redis or SQL backend.
	ImportPath string              `yaml:"import_path" envconfig:"STORAGE_IMPORT_PATH"`
	Redis      RedisConfig         `yaml:"redis"`
	Database   coredatabase.Config `yaml:"database"`
}

// HealthConfig enables the probe server.
type HealthConfig struct {
	Listen string `yaml:"listen" envconfig:"HEALTH_LISTEN"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Club     ClubConfig     `yaml:"club"`
	Checkin  CheckinConfig  `yaml:"checkin"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Storage  StorageConfig  `yaml:"storage"`
	Health   HealthConfig   `yaml:"health"`
}

// CoreConfig exposes the embedded core section.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads path, overlays the environment and normalizes the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if c.Club.GroupChatID == 0 {
		return fmt.Errorf("club.group_chat_id is required")
	}
	if c.Club.InputThreadID < 0 || c.Club.OutputThreadID < 0 {
		return fmt.Errorf("club thread ids must be >= 0")
	}
	c.Club.BotUsername = strings.TrimPrefix(strings.TrimSpace(c.Club.BotUsername), "@")
	if c.Club.BotUsername == "" {
		c.Club.BotUsername = DefaultBotUsername
	}

	if c.Checkin.Timeout < 0 {
		return fmt.Errorf("checkin.timeout must be >= 0")
	}
	if c.Checkin.Timeout == 0 {
		c.Checkin.Timeout = 5 * time.Minute
	}
	if c.Checkin.FallbackCount < 0 {
		return fmt.Errorf("checkin.fallback_count must be >= 0")
	}
	if c.Checkin.FallbackCount == 0 {
		c.Checkin.FallbackCount = 100
	}

	if err := c.Schedule.normalize(); err != nil {
		return err
	}
	return c.Storage.normalize()
}

func (s *ScheduleConfig) normalize() error {
	if strings.TrimSpace(s.Timezone) == "" {
		s.Timezone = "Europe/Moscow"
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return fmt.Errorf("schedule.timezone %q: %w", s.Timezone, err)
	}
	s.location = loc

	if s.ReminderHour, err = hourOrDefault("schedule.reminder_hour", s.ReminderHour, 20); err != nil {
		return err
	}
	if s.WeeklyHour, err = hourOrDefault("schedule.weekly_hour", s.WeeklyHour, 10); err != nil {
		return err
	}
	if s.MonthlyHour, err = hourOrDefault("schedule.monthly_hour", s.MonthlyHour, 10); err != nil {
		return err
	}

	if strings.TrimSpace(s.WeeklyWeekday) == "" {
		s.WeeklyWeekday = "tuesday"
	}
	wd, err := ParseWeekday(s.WeeklyWeekday)
	if err != nil {
		return err
	}
	s.weekday = wd
	return nil
}

func hourOrDefault(name string, v *int, def int) (*int, error) {
	if v == nil {
		return &def, nil
	}
	if *v < 0 || *v > 23 {
		return nil, fmt.Errorf("%s must be within 0..23, got %d", name, *v)
	}
	return v, nil
}

// Location is the zone every calendar day and schedule is computed in.
func (s ScheduleConfig) Location() *time.Location {
	if s.location == nil {
		return time.UTC
	}
	return s.location
}

// Weekday is the day the weekly digest goes out.
func (s ScheduleConfig) Weekday() time.Weekday { return s.weekday }

// Hours returns reminder, weekly and monthly hours.
func (s ScheduleConfig) Hours() (reminder, weekly, monthly int) {
	return deref(s.ReminderHour), deref(s.WeeklyHour), deref(s.MonthlyHour)
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday, "0": time.Sunday, "7": time.Sunday,
	"monday": time.Monday, "mon": time.Monday, "1": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "2": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday, "3": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "4": time.Thursday,
	"friday": time.Friday, "fri": time.Friday, "5": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday, "6": time.Saturday,
}

// ParseWeekday accepts English names, three-letter abbreviations and cron
// numbers (0 or 7 for Sunday).
func ParseWeekday(s string) (time.Weekday, error) {
	wd, ok := weekdays[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("invalid schedule.weekly_weekday %q", s)
	}
	return wd, nil
}

func (s *StorageConfig) normalize() error {
	s.Driver = strings.ToLower(strings.TrimSpace(s.Driver))
	if s.Driver == "" {
		s.Driver = StorageFile
	}
	switch s.Driver {
	case StorageFile:
		if strings.TrimSpace(s.Path) == "" {
			s.Path = storage.DefaultPath
		}
	case StorageMemory:
	case StorageRedis:
		if strings.TrimSpace(s.Redis.Addr) == "" {
			return fmt.Errorf("storage.redis.addr is required for the redis driver")
		}
		if s.Redis.Key == "" {
			s.Redis.Key = storage.DefaultRedisKey
		}
	case StoragePostgres, StorageSQLite:
		s.Database.Driver = s.Driver
		if err := s.Database.Normalize(); err != nil {
			return err
		}
		if s.Driver == StoragePostgres && (s.Database.Host == "" || s.Database.Name == "") {
			return fmt.Errorf("storage.database.host and name are required for postgres")
		}
	default:
		return fmt.Errorf("invalid storage.driver %q; allowed: file, memory, redis, postgres, sqlite", s.Driver)
	}
	return nil
}

// UsesDatabase reports whether the backend needs an SQL connection.
func (s StorageConfig) UsesDatabase() bool {
	return s.Driver == StoragePostgres || s.Driver == StorageSQLite
}
