package env

import (
	"os"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
)

var Env map[string]string

// GetEnv looks the key up in the loaded .env map first and then in the
// process environment.
func GetEnv(key, def string) string {
	if val, ok := Env[key]; ok {
		return val
	}
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// GetBool treats "1", "true" and "yes" (any case) as true.
func GetBool(key string, def bool) bool {
	raw := strings.ToLower(strings.TrimSpace(GetEnv(key, "")))
	if raw == "" {
		return def
	}
	switch raw {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

// SetupEnvFile loads the first .env file it can find. Running without one is
// allowed: containers usually inject plain environment variables.
func SetupEnvFile() {
	envFiles := []string{
		".env",          // Current directory
		"../../.env",    // From cmd/creditfox to project root
		"../../../.env", // Fallback for deeper nesting
	}

	var err error
	for _, envFile := range envFiles {
		Env, err = godotenv.Read(envFile)
		if err == nil {
			log.Infof("[Env] Loaded %s", envFile)
			return
		}
	}

	Env = map[string]string{}
	log.Warn("[Env] No .env file found, falling back to process environment")
}

func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}
