package core

import (
	"log"
	"net"
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
		AppName          string
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		Debug            bool
		TestMode         bool
		SecretKey        string
		RollbarToken     string
		SendgridApiKey   string
		defaultFromEmail string

		Server   ServerConfig
		Database DatabaseConfig
		Tracking TrackingConfig
	}

	ServerConfig struct {
		Host               string
		Address            string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string // postgres | memory
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		RosterFile    string // memory engine only: JSON classes to enroll at startup
	}

	TrackingConfig struct {
		DefaultRadius    float64 // meters; used when a class has no radius configured
		RegistryCacheTTL time.Duration
		StaffEmails      []string
	}
)

func (c *DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c *DatabaseConfig) InMemory() bool {
	return c.Engine == "memory"
}

// DefaultFromEmail parses the configured sender; falls back to noreply@localhost.
func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: "noreply@localhost"}
	}
	if addr.Name == "" {
		addr.Name = c.AppName
	}
	return *addr
}

// StaffRecipients returns the configured staff emails as mail addresses, skipping invalid entries.
func (c *Config) StaffRecipients() []mail.Address {
	addrs := make([]mail.Address, 0, len(c.Tracking.StaffEmails))
	for _, email := range c.Tracking.StaffEmails {
		if addr, err := mail.ParseAddress(CleanString(email)); err == nil {
			addrs = append(addrs, *addr)
		}
	}
	return addrs
}

// NewConfig loads the configuration from defaults, `config/.env.<env>` and the environment.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Classfence")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "k7#t2m!x9q$w4e@r6y^u8i&o0p*a1s(d3f)g5h")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("defaultFromEmail", "noreply@localhost")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "classfence")
	v.SetDefault("database.user", "classfence")
	v.SetDefault("database.password", "classfence")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.rosterFile", "")

	v.SetDefault("tracking.defaultRadius", 50.0)
	v.SetDefault("tracking.registryCacheTTL", 30*time.Second)
	v.SetDefault("tracking.staffEmails", []string{})

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(configDir(), ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		AppName:          v.GetString("appName"),
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		SecretKey:        v.GetString("secretKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		defaultFromEmail: v.GetString("defaultFromEmail"),
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			Address:            v.GetString("server.address"),
			DebugHost:          v.GetString("server.debugHost"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        strings.ToLower(v.GetString("database.engine")),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
			RosterFile:    v.GetString("database.rosterFile"),
		},
		Tracking: TrackingConfig{
			DefaultRadius:    v.GetFloat64("tracking.defaultRadius"),
			RegistryCacheTTL: v.GetDuration("tracking.registryCacheTTL"),
			StaffEmails:      v.GetStringSlice("tracking.staffEmails"),
		},
	}
}

// configDir is `$CONFIG_DIR` or `./config`.
func configDir() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	return "config"
}
