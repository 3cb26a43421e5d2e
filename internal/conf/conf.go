package conf

import (
	"encoding/json"
	"fmt"
	"time"
)

// Bootstrap is the root of configs/config.yaml.
type Bootstrap struct {
	Server  *Server  `json:"server"`
	Data    *Data    `json:"data"`
	Auth    *Auth    `json:"auth"`
	Limiter *Limiter `json:"limiter"`
	Log     *Log     `json:"log"`
}

type Server struct {
	Http *Server_HTTP `json:"http"`
	Grpc *Server_GRPC `json:"grpc"`
}

type Server_HTTP struct {
	Network string    `json:"network"`
	Addr    string    `json:"addr"`
	Timeout *Duration `json:"timeout"`
	// CorsOrigins defaults to allow-all when empty.
	CorsOrigins []string `json:"cors_origins"`
}

type Server_GRPC struct {
	Network string    `json:"network"`
	Addr    string    `json:"addr"`
	Timeout *Duration `json:"timeout"`
}

type Data struct {
	Database *Data_Database `json:"database"`
	Redis    *Data_Redis    `json:"redis"`
	Seed     *Data_Seed     `json:"seed"`
}

type Data_Database struct {
	// Driver is "postgres" or "sqlite".
	Driver          string    `json:"driver"`
	Source          string    `json:"source"`
	MaxIdleConns    int       `json:"max_idle_conns"`
	MaxOpenConns    int       `json:"max_open_conns"`
	ConnMaxLifetime *Duration `json:"conn_max_lifetime"`
	SlowThreshold   *Duration `json:"slow_threshold"`
	AutoMigrate     bool      `json:"auto_migrate"`
}

type Data_Redis struct {
	// Addr empty disables the cache.
	Addr         string    `json:"addr"`
	Password     string    `json:"password"`
	DB           int       `json:"db"`
	ReadTimeout  *Duration `json:"read_timeout"`
	WriteTimeout *Duration `json:"write_timeout"`
	Ttl          *Duration `json:"ttl"`
}

type Data_Seed struct {
	Dir string `json:"dir"`
}

type Auth struct {
	// Token guards write operations; empty disables the check.
	Token string `json:"token"`
}

type Limiter struct {
	Enabled bool    `json:"enabled"`
	Rps     float64 `json:"rps"`
	Burst   int     `json:"burst"`
}

type Log struct {
	Level string `json:"level"`
}

// Duration reads "1.5s" style strings as well as integer nanoseconds.
type Duration struct {
	time.Duration
}

func NewDuration(d time.Duration) *Duration {
	return &Duration{Duration: d}
}

// AsDuration returns zero for a nil receiver.
func (d *Duration) AsDuration() time.Duration {
	if d == nil {
		return 0
	}
	return d.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("invalid duration: %s", string(b))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (x *Server_HTTP) GetCorsOrigins() []string {
	if x == nil {
		return nil
	}
	return x.CorsOrigins
}

func (x *Auth) GetToken() string {
	if x == nil {
		return ""
	}
	return x.Token
}

func (x *Limiter) GetEnabled() bool {
	if x == nil {
		return false
	}
	return x.Enabled
}

func (x *Log) GetLevel() string {
	if x == nil {
		return ""
	}
	return x.Level
}
