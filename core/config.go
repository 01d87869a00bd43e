package core

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Debug    bool
	TestMode bool
	Env      string // DEV (default), TEST, QA, PROD
	Build    string
	AppName  string

	SecretKey string

	Server struct {
		Host            string
		Address         string
		DebugAddress    string
		ShutdownTimeout time.Duration

		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	Database struct {
		Engine        string
		Name          string
		Host          string
		Port          int
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	Fingerprint struct {
		// BaseSlot is the first slot id the sensor exposes; MaxSlots is the
		// number of slots available from BaseSlot upwards.
		BaseSlot          int
		MaxSlots          int
		MaxAssignAttempts int
	}

	Attendance struct {
		DefaultMarks int
	}

	RollbarToken string
}

// Address returns the database server address in "host:port" form.
func (c *Config) DatabaseAddress() string {
	return fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port)
}

// NewConfig loads the app configuration from the environment,
// falling back to sane DEV defaults.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Mahudhurio")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "w#05v9wm-bp08=_71z&-&@ygl1^2!fn3p9kq7merd4&7tr=xh)")
	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverAddress", ":8000")
	v.SetDefault("serverDebugAddress", ":4000")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("databaseEngine", "postgres")
	v.SetDefault("databaseName", "mahudhurio")
	v.SetDefault("databaseHost", "localhost")
	v.SetDefault("databasePort", 5432)
	v.SetDefault("databaseUser", "mahudhurio")
	v.SetDefault("databasePassword", "")
	v.SetDefault("databaseAdminUser", "")
	v.SetDefault("databaseAdminPassword", "")
	v.SetDefault("databaseDisableTLS", true)
	v.SetDefault("fingerprintBaseSlot", 1)
	v.SetDefault("fingerprintMaxSlots", 1000)
	v.SetDefault("fingerprintMaxAssignAttempts", 5)
	v.SetDefault("attendanceDefaultMarks", 1)
	v.SetDefault("rollbarToken", "")

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Debug:        v.GetBool("debug"),
		TestMode:     env == "TEST",
		Env:          env,
		Build:        v.GetString("build"),
		AppName:      v.GetString("appName"),
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
	}
	conf.Server.Host = v.GetString("serverHost")
	conf.Server.Address = v.GetString("serverAddress")
	conf.Server.DebugAddress = v.GetString("serverDebugAddress")
	conf.Server.ShutdownTimeout = v.GetDuration("serverShutdownTimeout")
	conf.Server.JWTExpirationDelta = v.GetDuration("jwtExpirationDelta")
	conf.Server.JWTRefreshExpirationDelta = v.GetDuration("jwtRefreshExpirationDelta")
	conf.Database.Engine = v.GetString("databaseEngine")
	conf.Database.Name = v.GetString("databaseName")
	conf.Database.Host = v.GetString("databaseHost")
	conf.Database.Port = v.GetInt("databasePort")
	conf.Database.User = v.GetString("databaseUser")
	conf.Database.Password = v.GetString("databasePassword")
	conf.Database.AdminUser = v.GetString("databaseAdminUser")
	conf.Database.AdminPassword = v.GetString("databaseAdminPassword")
	conf.Database.DisableTLS = v.GetBool("databaseDisableTLS")
	conf.Fingerprint.BaseSlot = v.GetInt("fingerprintBaseSlot")
	conf.Fingerprint.MaxSlots = v.GetInt("fingerprintMaxSlots")
	conf.Fingerprint.MaxAssignAttempts = v.GetInt("fingerprintMaxAssignAttempts")
	conf.Attendance.DefaultMarks = v.GetInt("attendanceDefaultMarks")
	return conf
}

// NewTestConfig returns a Config suitable for unit tests: small slot range,
// no external services.
func NewTestConfig() *Config {
	conf := &Config{
		TestMode: true,
		Env:      "TEST",
		Build:    "test",
		AppName:  "Mahudhurio",
	}
	conf.SecretKey = "secret"
	conf.Server.JWTExpirationDelta = 10 * time.Minute
	conf.Server.JWTRefreshExpirationDelta = 4 * time.Hour
	conf.Fingerprint.BaseSlot = 1
	conf.Fingerprint.MaxSlots = 128
	conf.Fingerprint.MaxAssignAttempts = 5
	conf.Attendance.DefaultMarks = 1
	return conf
}
