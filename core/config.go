package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug            bool
		TestMode         bool
		Env              string // DEV (default) | TEST | QA | PROD
		Build            string
		AppName          string
		SecretKey        string
		DefaultFromEmail string
		FrontendBaseURL  string
		RollbarToken     string
		SendgridApiKey   string

		Server    ServerConfig
		Database  DatabaseConfig
		Analytics AnalyticsConfig
	}

	ServerConfig struct {
		Host                      string
		Addr                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		PasswordResetTimeoutDelta time.Duration
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

	// AnalyticsConfig bounds the dashboard rollup queries. Injected explicitly;
	// the engine never reads ambient globals.
	AnalyticsConfig struct {
		QueryTimeout      time.Duration
		GrowthMonths      int
		TrendWeeks        int
		CompletionMonths  int
		HeatmapDays       int
		TopAssignments    int
		RecentAssignments int
		TopStudents       int
	}
)

func (conf DatabaseConfig) Address() string {
	return conf.Host + ":" + conf.Port
}

func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Darasa")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "w#5qp)o0m$+62=kx&vyzh7(b!d)#*g9(#ur4t^$olm3nsq")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")

	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverAddr", ":8000")
	v.SetDefault("serverDebugHost", "localhost:4000")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("databaseEngine", "postgres")
	v.SetDefault("databaseName", "darasa")
	v.SetDefault("databaseHost", "localhost")
	v.SetDefault("databasePort", "5432")
	v.SetDefault("databaseUser", "darasa")
	v.SetDefault("databasePassword", "")
	v.SetDefault("databaseAdminUser", "")
	v.SetDefault("databaseAdminPassword", "")
	v.SetDefault("databaseDisableTLS", true)

	v.SetDefault("analyticsQueryTimeout", 10*time.Second)
	v.SetDefault("analyticsGrowthMonths", 6)
	v.SetDefault("analyticsTrendWeeks", 8)
	v.SetDefault("analyticsCompletionMonths", 6)
	v.SetDefault("analyticsHeatmapDays", 42)
	v.SetDefault("analyticsTopAssignments", 8)
	v.SetDefault("analyticsRecentAssignments", 5)
	v.SetDefault("analyticsTopStudents", 5)

	env := os.Getenv("ENV")
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Debug:            v.GetBool("debug"),
		TestMode:         env == "TEST",
		Env:              env,
		Build:            v.GetString("build"),
		AppName:          v.GetString("appName"),
		SecretKey:        v.GetString("secretKey"),
		DefaultFromEmail: v.GetString("defaultFromEmail"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		Server: ServerConfig{
			Host:                      v.GetString("serverHost"),
			Addr:                      v.GetString("serverAddr"),
			DebugHost:                 v.GetString("serverDebugHost"),
			ShutdownTimeout:           v.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
			PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("databaseEngine"),
			Name:          v.GetString("databaseName"),
			Host:          v.GetString("databaseHost"),
			Port:          v.GetString("databasePort"),
			User:          v.GetString("databaseUser"),
			Password:      v.GetString("databasePassword"),
			AdminUser:     v.GetString("databaseAdminUser"),
			AdminPassword: v.GetString("databaseAdminPassword"),
			DisableTLS:    v.GetBool("databaseDisableTLS"),
		},
		Analytics: AnalyticsConfig{
			QueryTimeout:      v.GetDuration("analyticsQueryTimeout"),
			GrowthMonths:      v.GetInt("analyticsGrowthMonths"),
			TrendWeeks:        v.GetInt("analyticsTrendWeeks"),
			CompletionMonths:  v.GetInt("analyticsCompletionMonths"),
			HeatmapDays:       v.GetInt("analyticsHeatmapDays"),
			TopAssignments:    v.GetInt("analyticsTopAssignments"),
			RecentAssignments: v.GetInt("analyticsRecentAssignments"),
			TopStudents:       v.GetInt("analyticsTopStudents"),
		},
	}
}
