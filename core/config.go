package core

import (
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host            string        `mapstructure:"host"`
		Address         string        `mapstructure:"address"`
		DebugHost       string        `mapstructure:"debugHost"`
		ReadTimeout     time.Duration `mapstructure:"readTimeout"`
		WriteTimeout    time.Duration `mapstructure:"writeTimeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
	}

	AuthConfig struct {
		SessionTTL      time.Duration `mapstructure:"sessionTTL"`
		CookieName      string        `mapstructure:"cookieName"`
		AdminNames      []string      `mapstructure:"adminNames"`
		EveryoneIsAdmin bool          `mapstructure:"everyoneIsAdmin"`
		LoginRPS        float64       `mapstructure:"loginRPS"`
		LoginBurst      int           `mapstructure:"loginBurst"`
	}

	S3Config struct {
		Bucket    string `mapstructure:"bucket"`
		Prefix    string `mapstructure:"prefix"`
		Region    string `mapstructure:"region"`
		Endpoint  string `mapstructure:"endpoint"`
		AccessKey string `mapstructure:"accessKey"`
		SecretKey string `mapstructure:"secretKey"`
	}

	StorageConfig struct {
		// Backend is one of: file, memory, sqlite, postgres, s3.
		Backend  string        `mapstructure:"backend"`
		DataDir  string        `mapstructure:"dataDir"`
		CacheTTL time.Duration `mapstructure:"cacheTTL"`
		// DSN is the sqlite file path or the postgres connection URL.
		DSN string   `mapstructure:"dsn"`
		S3  S3Config `mapstructure:"s3"`
	}

	DinnerConfig struct {
		Timezone    string `mapstructure:"timezone"`
		DefaultTime string `mapstructure:"defaultTime"`
		CutoffHour  int    `mapstructure:"cutoffHour"`
		ArchiveHour int    `mapstructure:"archiveHour"`
		AutoArchive bool   `mapstructure:"autoArchive"`
	}

	MailConfig struct {
		DefaultFromEmail string   `mapstructure:"defaultFromEmail"`
		Organizers       []string `mapstructure:"organizers"`
		SendgridAPIKey   string   `mapstructure:"sendgridApiKey"`
	}

	TelegramConfig struct {
		Token  string `mapstructure:"token"`
		ChatID int64  `mapstructure:"chatID"`
	}

	Config struct {
		Env          string         `mapstructure:"env"`
		Debug        bool           `mapstructure:"debug"`
		TestMode     bool           `mapstructure:"testMode"`
		AppName      string         `mapstructure:"appName"`
		Build        string         `mapstructure:"build"`
		SecretKey    string         `mapstructure:"secretKey"`
		FrontendURL  string         `mapstructure:"frontendURL"`
		RollbarToken string         `mapstructure:"rollbarToken"`
		LogLevel     string         `mapstructure:"logLevel"`
		Server       ServerConfig   `mapstructure:"server"`
		Auth         AuthConfig     `mapstructure:"auth"`
		Storage      StorageConfig  `mapstructure:"storage"`
		Dinner       DinnerConfig   `mapstructure:"dinner"`
		Mail         MailConfig     `mapstructure:"mail"`
		Telegram     TelegramConfig `mapstructure:"telegram"`
	}
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Potluck")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "tq8-vhm)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("frontendURL", "http://localhost:3000")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("logLevel", "info")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.readTimeout", 5*time.Second)
	v.SetDefault("server.writeTimeout", 5*time.Second)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)

	v.SetDefault("auth.sessionTTL", 30*24*time.Hour)
	v.SetDefault("auth.cookieName", "session")
	v.SetDefault("auth.adminNames", []string{})
	v.SetDefault("auth.everyoneIsAdmin", false)
	v.SetDefault("auth.loginRPS", 1.0)
	v.SetDefault("auth.loginBurst", 5)

	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.dataDir", "data")
	v.SetDefault("storage.cacheTTL", 2*time.Second)
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.prefix", "potluck/")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.accessKey", "")
	v.SetDefault("storage.s3.secretKey", "")

	v.SetDefault("dinner.timezone", "America/Chicago")
	v.SetDefault("dinner.defaultTime", "18:00")
	v.SetDefault("dinner.cutoffHour", 18)
	v.SetDefault("dinner.archiveHour", 20)
	v.SetDefault("dinner.autoArchive", true)

	v.SetDefault("mail.defaultFromEmail", "Potluck <noreply@localhost>")
	v.SetDefault("mail.organizers", []string{})
	v.SetDefault("mail.sendgridApiKey", "")

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chatID", 0)
}

// NewConfig loads the configuration for the environment named by $ENV (DEV by default).
// Values are resolved from, in order of precedence: environment variables prefixed with the
// environment name (e.g. DEV_STORAGE_BACKEND), the optional $CONFIG_FILE, then defaults.
// config/.env.<env> is loaded into the process environment when present.
func NewConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	case "PROD":
		v.SetDefault("debug", false)
	}
	v.Set("env", env)

	// load .env if it exists (ignore if it does not)
	confDir := os.Getenv("CONFIG_DIR")
	if confDir == "" {
		confDir = "config"
	}
	dotEnvPath := filepath.Join(confDir, ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}

	if confFile := os.Getenv("CONFIG_FILE"); confFile != "" {
		v.SetConfigFile(confFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading %s", confFile)
		}
	}

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return conf, nil
}

// Validate rejects settings the dinner schedule cannot honor.
// The scheduled archive must not run before the RSVP cutoff of the dinner day.
func (c *Config) Validate() error {
	d := c.Dinner
	if d.CutoffHour < 0 || d.CutoffHour > 23 {
		return errors.Errorf("dinner.cutoffHour %d is not an hour of the day", d.CutoffHour)
	}
	if d.ArchiveHour < 0 || d.ArchiveHour > 23 {
		return errors.Errorf("dinner.archiveHour %d is not an hour of the day", d.ArchiveHour)
	}
	if d.ArchiveHour < d.CutoffHour {
		return errors.Errorf("dinner.archiveHour (%d) is before dinner.cutoffHour (%d)", d.ArchiveHour, d.CutoffHour)
	}
	return nil
}

// Location returns the dinner time zone, falling back to UTC when it is unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Dinner.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.Mail.DefaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: "noreply@localhost"}
	}
	return *addr
}

// OrganizerAddresses parses Mail.Organizers, skipping invalid entries.
func (c *Config) OrganizerAddresses() []mail.Address {
	addrs := make([]mail.Address, 0, len(c.Mail.Organizers))
	for _, o := range c.Mail.Organizers {
		if addr, err := mail.ParseAddress(o); err == nil {
			addrs = append(addrs, *addr)
		}
	}
	return addrs
}

// NewTestConfig returns the configuration used by tests: TEST mode defaults, in-memory storage.
func NewTestConfig() *Config {
	v := viper.New()
	setDefaults(v)
	v.Set("env", "TEST")
	v.Set("testMode", true)
	v.Set("storage.backend", "memory")
	v.Set("dinner.timezone", "UTC")
	v.Set("dinner.autoArchive", false)

	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		panic(err)
	}
	return conf
}
