package config

import (
	"log"
	"os"
	"strconv"

	"aptitude-service/internal/adaptive"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	GinMode string

	MongoURI      string
	MongoDatabase string

	RabbitMQURI      string
	RabbitMQExchange string

	RedisAddr          string
	RedisPassword      string
	RateLimitPerMinute int

	JWTSecret string

	ConsulAddress  string
	ServiceName    string
	ServiceID      string
	ServiceAddress string

	GeneratorServiceName string
	GeneratorBaseURL     string
}

// Load reads .env when present and builds the config from the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[Config] No .env file found, using system env")
	}

	return &Config{
		Port:    getEnvOrDefault("PORT", "6670"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),

		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: getEnvOrDefault("MONGO_DATABASE", "aptitude_service"),

		RabbitMQURI:      os.Getenv("RABBITMQ_URI"),
		RabbitMQExchange: getEnvOrDefault("RABBITMQ_EXCHANGE", "aptitude.events"),

		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		JWTSecret: getEnvOrDefault("JWT_SECRET", "dev-secret"),

		ConsulAddress:  os.Getenv("CONSUL_ADDRESS"),
		ServiceName:    getEnvOrDefault("SERVICE_NAME", "aptitude-service"),
		ServiceID:      getEnvOrDefault("SERVICE_ID", "aptitude-service-1"),
		ServiceAddress: getEnvOrDefault("SERVICE_ADDRESS", "localhost"),

		GeneratorServiceName: getEnvOrDefault("GENERATOR_SERVICE_NAME", "llm-service"),
		GeneratorBaseURL:     os.Getenv("GENERATOR_BASE_URL"),
	}
}

// AdaptiveConfig exposes every numeric rule of the engine as an env knob,
// starting from the shipped defaults.
func AdaptiveConfig() *adaptive.Config {
	cfg := adaptive.DefaultConfig()

	cfg.DiagnosticQuestions = getEnvInt("DIAGNOSTIC_QUESTIONS", cfg.DiagnosticQuestions)
	cfg.AdaptiveQuestions = getEnvInt("ADAPTIVE_QUESTIONS", cfg.AdaptiveQuestions)
	cfg.StabilityQuestions = getEnvInt("STABILITY_QUESTIONS", cfg.StabilityQuestions)

	cfg.MinDifficulty = getEnvInt("MIN_DIFFICULTY", cfg.MinDifficulty)
	cfg.MaxDifficulty = getEnvInt("MAX_DIFFICULTY", cfg.MaxDifficulty)
	cfg.StartingDifficulty = getEnvInt("STARTING_DIFFICULTY", cfg.StartingDifficulty)
	cfg.StepUp = getEnvInt("STEP_UP", cfg.StepUp)
	cfg.StepDown = getEnvInt("STEP_DOWN", cfg.StepDown)

	cfg.ProvisionalWindow = getEnvInt("PROVISIONAL_WINDOW", cfg.ProvisionalWindow)
	cfg.StabilizedWindow = getEnvInt("STABILIZED_WINDOW", cfg.StabilizedWindow)
	cfg.PlateauWindow = getEnvInt("PLATEAU_WINDOW", cfg.PlateauWindow)
	cfg.PlateauHighAccuracy = getEnvFloat("PLATEAU_HIGH_ACCURACY", cfg.PlateauHighAccuracy)
	cfg.PlateauLowAccuracy = getEnvFloat("PLATEAU_LOW_ACCURACY", cfg.PlateauLowAccuracy)

	cfg.ConfidenceWindow = getEnvInt("CONFIDENCE_WINDOW", cfg.ConfidenceWindow)
	cfg.HighVarianceMax = getEnvFloat("HIGH_VARIANCE_MAX", cfg.HighVarianceMax)
	cfg.ModerateVarianceMax = getEnvFloat("MODERATE_VARIANCE_MAX", cfg.ModerateVarianceMax)
	cfg.TimeSpreadMax = getEnvFloat("TIME_SPREAD_MAX", cfg.TimeSpreadMax)
	cfg.StableVarianceMax = getEnvFloat("STABLE_VARIANCE_MAX", cfg.StableVarianceMax)

	cfg.TierMediumMinCorrect = getEnvInt("TIER_MEDIUM_MIN_CORRECT", cfg.TierMediumMinCorrect)
	cfg.TierHighMinCorrect = getEnvInt("TIER_HIGH_MIN_CORRECT", cfg.TierHighMinCorrect)
	cfg.TierLowStart = getEnvInt("TIER_LOW_START", cfg.TierLowStart)
	cfg.TierMediumStart = getEnvInt("TIER_MEDIUM_START", cfg.TierMediumStart)
	cfg.TierHighStart = getEnvInt("TIER_HIGH_START", cfg.TierHighStart)
	cfg.FastPerfectMeanMs = getEnvInt("FAST_PERFECT_MEAN_MS", cfg.FastPerfectMeanMs)

	return cfg
}

func getEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("[Config] Invalid int for %s: %q, using %d", key, value, fallback)
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("[Config] Invalid float for %s: %q, using %g", key, value, fallback)
		return fallback
	}
	return parsed
}
