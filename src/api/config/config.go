package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	MySQLDSN    string
	RedisURL    string
	JWTSecret   string
	JWTTTLHours int
	Port        string
	CORSOrigins string
}

func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTTTLHours) * time.Hour
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		if def == "" {
			log.Fatalf("missing env %s", key)
		}
		return def
	}
	return v
}

func Load() Config {
	ttl, _ := strconv.Atoi(getenv("JWT_TTL_HOURS", "168"))
	return Config{
		MySQLDSN:    getenv("MYSQL_DSN", "dupelab:dev@tcp(localhost:3306)/dupelab?parseTime=true"),
		RedisURL:    getenv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:   getenv("JWT_SECRET", ""),
		JWTTTLHours: ttl,
		Port:        getenv("PORT", "8080"),
		CORSOrigins: getenv("CORS_ORIGIN", "http://localhost:3000"),
	}
}
