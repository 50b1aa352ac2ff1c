package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// #region app

// App holds daemon runtime settings (file + env overrides). Dimming behavior
// itself lives in Snapshot and is persisted separately.
type App struct {
	Server struct {
		Addr     string `mapstructure:"addr"`
		LogLevel string `mapstructure:"log_level"`
	} `mapstructure:"server"`

	Store struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"store"`

	View struct {
		Hostname string `mapstructure:"hostname"`
	} `mapstructure:"view"`

	Loop struct {
		SampleIntervalMs int `mapstructure:"sample_interval_ms"`
		ScrollDebounceMs int `mapstructure:"scroll_debounce_ms"`
	} `mapstructure:"loop"`
}

// #endregion app

// #region load

// LoadApp reads configs/dimmerd.yaml if present; env vars with the AUTODIM
// prefix can fully configure the daemon on their own.
func LoadApp() App {
	v := viper.New()
	v.SetConfigName("dimmerd")
	v.SetConfigType("yaml")
	v.AddConfigPath("configs")
	_ = v.ReadInConfig() // optional; env can fully configure

	v.SetEnvPrefix("AUTODIM")
	v.AutomaticEnv()

	var app App
	if err := v.Unmarshal(&app); err != nil {
		panic(fmt.Errorf("unable to decode config: %w", err))
	}
	validate(&app)
	return app
}

func validate(a *App) {
	if a.Server.Addr == "" {
		a.Server.Addr = ":8080"
	}
	if a.Store.Path == "" {
		a.Store.Path = "autodim.db"
	}
	if a.View.Hostname == "" {
		a.View.Hostname = "localhost"
	}
	if a.Loop.SampleIntervalMs <= 0 {
		a.Loop.SampleIntervalMs = 3000
	}
	if a.Loop.ScrollDebounceMs <= 0 {
		a.Loop.ScrollDebounceMs = 500
	}
}

// #endregion load

// #region durations

// SampleInterval returns the period between control-loop cycles.
func (a App) SampleInterval() time.Duration {
	return time.Duration(a.Loop.SampleIntervalMs) * time.Millisecond
}

// ScrollDebounce returns the quiet period after the last scroll event
// before a re-check runs.
func (a App) ScrollDebounce() time.Duration {
	return time.Duration(a.Loop.ScrollDebounceMs) * time.Millisecond
}

// #endregion durations
