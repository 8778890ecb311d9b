package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	BaseURL        string   `mapstructure:"base_url"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	Timezone       string   `mapstructure:"timezone"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SQLitePath      string `mapstructure:"sqlite_path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

// IsSQLite reports whether the configured driver is sqlite.
func (d *DatabaseConfig) IsSQLite() bool {
	return d.Driver == "sqlite"
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type JWTConfig struct {
	Secret           string `mapstructure:"secret"`
	AccessExpMinutes int    `mapstructure:"access_exp_minutes"`
}

type AuthConfig struct {
	JWT JWTConfig `mapstructure:"jwt"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// RegistrationConfig controls the lifetime of registration wizard drafts.
type RegistrationConfig struct {
	SessionTTLHours            int `mapstructure:"session_ttl_hours"`
	ExpirySweepIntervalMinutes int `mapstructure:"expiry_sweep_interval_minutes"`
	ExpirySweepBatchSize       int `mapstructure:"expiry_sweep_batch_size"`
	ParcelLockTTLSeconds       int `mapstructure:"parcel_lock_ttl_seconds"`
	ParcelLockWaitMilliseconds int `mapstructure:"parcel_lock_wait_ms"`
}

func (r *RegistrationConfig) SessionTTL() time.Duration {
	if r.SessionTTLHours <= 0 {
		return 72 * time.Hour
	}
	return time.Duration(r.SessionTTLHours) * time.Hour
}

func (r *RegistrationConfig) SweepInterval() time.Duration {
	if r.ExpirySweepIntervalMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(r.ExpirySweepIntervalMinutes) * time.Minute
}

func (r *RegistrationConfig) LockTTL() time.Duration {
	if r.ParcelLockTTLSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(r.ParcelLockTTLSeconds) * time.Second
}

func (r *RegistrationConfig) LockWait() time.Duration {
	if r.ParcelLockWaitMilliseconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(r.ParcelLockWaitMilliseconds) * time.Millisecond
}

// ApprovalConfig configures the maker-checker policy store.
type ApprovalConfig struct {
	SeedDefaultPolicy bool   `mapstructure:"seed_default_policy"`
	EventsChannel     string `mapstructure:"events_channel"`
}

// DocumentsConfig configures the document attachment gateway.
type DocumentsConfig struct {
	StorageDir   string   `mapstructure:"storage_dir"`
	BaseURL      string   `mapstructure:"base_url"`
	MaxUploadMB  int      `mapstructure:"max_upload_mb"`
	AllowedTypes []string `mapstructure:"allowed_types"`
}

func (d *DocumentsConfig) MaxUploadBytes() int64 {
	if d.MaxUploadMB <= 0 {
		return 10 << 20
	}
	return int64(d.MaxUploadMB) << 20
}
