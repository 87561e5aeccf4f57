package envutil

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/meetingdesk-backend/internal/platform/logger"
)

func String(key, def string, log *logger.Logger) string {
	val, ok := os.LookupEnv(key)
	val = strings.TrimSpace(val)
	if !ok || val == "" {
		if log != nil {
			log.Debug("Environment variable not found, using default", "env_var", key, "default", def)
		}
		return def
	}
	return val
}

func Int(key string, def int, log *logger.Logger) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		if log != nil {
			log.Warn("Environment variable could not be parsed as int, using default", "env_var", key, "provided", raw, "default", def, "error", err)
		}
		return def
	}
	return i
}

func Bool(key string, def bool, log *logger.Logger) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch raw {
	case "":
		return def
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		if log != nil {
			log.Warn("Environment variable could not be parsed as bool, using default", "env_var", key, "provided", raw, "default", def)
		}
		return def
	}
}

// Millis reads an integer number of milliseconds.
func Millis(key string, def time.Duration, log *logger.Logger) time.Duration {
	ms := Int(key, int(def/time.Millisecond), log)
	if ms < 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

// Seconds reads an integer number of seconds.
func Seconds(key string, def time.Duration, log *logger.Logger) time.Duration {
	s := Int(key, int(def/time.Second), log)
	if s < 0 {
		return def
	}
	return time.Duration(s) * time.Second
}

func Float(key string, def float64, log *logger.Logger) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		if log != nil {
			log.Warn("Environment variable could not be parsed as float, using default", "env_var", key, "provided", raw, "default", def, "error", err)
		}
		return def
	}
	return f
}
