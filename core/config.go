package core

import (
	"fmt"
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
		Host               string
		Port               int
		JWTExpirationDelta time.Duration
	}

	DatabaseConfig struct {
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

	// ScoringConfig drives the engagement scorer. Weights must sum to 1.
	ScoringConfig struct {
		ConsistencyWeight float64
		QualityWeight     float64
		EngagementWeight  float64
		StreakWeight      float64

		// normalization targets: full marks at N distinct days / sessions / streak days
		TargetActiveDays   int
		TargetSessionCount int
		TargetStreakDays   int

		// ReflectionKeywords is the substantive-study keyword list used by the
		// reflection quality sub-score. Configurable, not hardcoded logic.
		ReflectionKeywords []string

		LeaderboardTopN int
	}

	Config struct {
		AppName          string
		Env              string // DEV (default), TEST, QA, PROD
		Debug            bool
		TestMode         bool
		Build            string
		SecretKey        string
		FrontendBaseURL  string
		DefaultFromName  string
		DefaultFromAddr  string
		SendgridApiKey   string
		RollbarToken     string

		Server   ServerConfig
		Database DatabaseConfig
		Scoring  ScoringConfig
	}
)

// DefaultReflectionKeywords seeds ScoringConfig.ReflectionKeywords; the app is
// bilingual so both Korean and English study terms are recognized.
var DefaultReflectionKeywords = []string{
	"학습", "공부", "이해", "문제", "복습", "정리", "개념", "오답",
	"study", "understanding", "problem", "review", "concept",
}

func (c DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.DefaultFromName, Address: c.DefaultFromAddr}
}

// NewConfig loads the app configuration: viper defaults, then an optional
// config/.env.<env> file, then environment variables (highest precedence).
func NewConfig(workDir string) (*Config, error) {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("appName", "Gongbu")
	v.SetDefault("debug", true)
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "y3j#ds&1u!%ml4-kp0e(h^$c2gm9emy@x7qz+w5rv8t_bn6af")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromName", "Gongbu")
	v.SetDefault("defaultFromAddr", "noreply@localhost")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.name", "gongbu")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "gongbu")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("scoring.consistencyWeight", 0.40)
	v.SetDefault("scoring.qualityWeight", 0.35)
	v.SetDefault("scoring.engagementWeight", 0.15)
	v.SetDefault("scoring.streakWeight", 0.10)
	v.SetDefault("scoring.targetActiveDays", 30)
	v.SetDefault("scoring.targetSessionCount", 30)
	v.SetDefault("scoring.targetStreakDays", 7)
	v.SetDefault("scoring.reflectionKeywords", DefaultReflectionKeywords)
	v.SetDefault("scoring.leaderboardTopN", 5)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	v.SetDefault("env", env)
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		return nil, errors.Wrap(err, "unmarshalling config")
	}
	return conf, nil
}
