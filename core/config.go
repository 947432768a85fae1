package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug           bool
		TestMode        bool
		Env             string
		Build           string
		AppName         string
		SecretKey       string
		FrontendBaseURL string

		DefaultFromEmailAddr string
		SendgridApiKey       string
		RollbarToken         string

		Server    ServerConfig
		Database  DatabaseConfig
		Display   DisplayConfig
		Scheduler SchedulerConfig
	}

	ServerConfig struct {
		Host                      string
		Addr                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		Host          string
		Port          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	// DisplayConfig holds settings for the live classroom display connections.
	DisplayConfig struct {
		// Token is the shared bearer token a display presents in the
		// connection URI. Connections without it are closed before any
		// subscription state is created.
		Token           string
		HeartbeatPeriod time.Duration
		WriteWait       time.Duration
		SendBuffer      int
	}

	SchedulerConfig struct {
		PollPeriod  time.Duration
		PurgePeriod time.Duration
		PickupTTL   time.Duration
		// MergeClearAt is the local wall-clock time ("HH:MM") at which all
		// active class merges are cleared, once per calendar day.
		MergeClearAt string
	}
)

func (c DatabaseConfig) Address() string {
	return c.Host + ":" + c.Port
}

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.DefaultFromEmailAddr}
}

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("build", "dev")
	conf.SetDefault("appName", "PickupLive")
	conf.SetDefault("secretKey", "y2x&3s!vip#5y9)b8sm2e@+$u=c4+ayb9q^dp(kr$!jw&_u5mh")
	conf.SetDefault("frontendBaseUrl", "http://localhost:3000")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("rollbarToken", "")

	conf.SetDefault("serverHost", "localhost")
	conf.SetDefault("serverAddr", ":8000")
	conf.SetDefault("serverDebugHost", "localhost:4000")
	conf.SetDefault("serverShutdownTimeout", 5*time.Second)
	conf.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)

	conf.SetDefault("databaseEngine", "postgres")
	conf.SetDefault("databaseName", "pickuplive")
	conf.SetDefault("databaseHost", "localhost")
	conf.SetDefault("databasePort", "5432")
	conf.SetDefault("databaseUser", "")
	conf.SetDefault("databasePassword", "")
	conf.SetDefault("databaseAdminUser", "")
	conf.SetDefault("databaseAdminPassword", "")
	conf.SetDefault("databaseDisableTls", true)

	conf.SetDefault("displayToken", "")
	conf.SetDefault("displayHeartbeatPeriod", 30*time.Second)
	conf.SetDefault("displayWriteWait", 10*time.Second)
	conf.SetDefault("displaySendBuffer", 64)

	conf.SetDefault("schedulerPollPeriod", time.Minute)
	conf.SetDefault("schedulerPurgePeriod", 24*time.Hour)
	conf.SetDefault("schedulerPickupTtl", 24*time.Hour)
	conf.SetDefault("schedulerMergeClearAt", "18:00")

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Debug:                conf.GetBool("debug"),
		TestMode:             conf.GetBool("testMode"),
		Env:                  env,
		Build:                conf.GetString("build"),
		AppName:              conf.GetString("appName"),
		SecretKey:            conf.GetString("secretKey"),
		FrontendBaseURL:      conf.GetString("frontendBaseUrl"),
		DefaultFromEmailAddr: conf.GetString("defaultFromEmail"),
		SendgridApiKey:       conf.GetString("sendgridApiKey"),
		RollbarToken:         conf.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:                      conf.GetString("serverHost"),
			Addr:                      conf.GetString("serverAddr"),
			DebugHost:                 conf.GetString("serverDebugHost"),
			ShutdownTimeout:           conf.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta:        conf.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("databaseEngine"),
			Name:          conf.GetString("databaseName"),
			Host:          conf.GetString("databaseHost"),
			Port:          conf.GetString("databasePort"),
			User:          conf.GetString("databaseUser"),
			Password:      conf.GetString("databasePassword"),
			AdminUser:     conf.GetString("databaseAdminUser"),
			AdminPassword: conf.GetString("databaseAdminPassword"),
			DisableTLS:    conf.GetBool("databaseDisableTls"),
		},
		Display: DisplayConfig{
			Token:           conf.GetString("displayToken"),
			HeartbeatPeriod: conf.GetDuration("displayHeartbeatPeriod"),
			WriteWait:       conf.GetDuration("displayWriteWait"),
			SendBuffer:      conf.GetInt("displaySendBuffer"),
		},
		Scheduler: SchedulerConfig{
			PollPeriod:   conf.GetDuration("schedulerPollPeriod"),
			PurgePeriod:  conf.GetDuration("schedulerPurgePeriod"),
			PickupTTL:    conf.GetDuration("schedulerPickupTtl"),
			MergeClearAt: conf.GetString("schedulerMergeClearAt"),
		},
	}
}
