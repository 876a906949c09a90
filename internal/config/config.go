package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/Harshitk-cp/fabricator/internal/domain"
	"github.com/joho/godotenv"
)

// Load reads the .env file specified by FABRICATOR_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("FABRICATOR_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// DefaultStrategy returns the forking strategy new belief systems start
// with. Defaults to coexist.
func DefaultStrategy() domain.ForkingStrategy {
	s, err := domain.ParseStrategy(os.Getenv("DEFAULT_STRATEGY"))
	if err != nil {
		return domain.StrategyCoexist
	}
	return s
}

// TensionHopLimit bounds context-rule expansion during tension detection.
// Defaults to 1 hop to keep the check decidable.
func TensionHopLimit() int {
	n, err := strconv.Atoi(os.Getenv("TENSION_HOP_LIMIT"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 50
	}
	return rps
}

func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 100
	}
	return burst
}
