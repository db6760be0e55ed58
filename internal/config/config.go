package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	StoreDriver   string // sqlite|postgres|redis|fs|memory
	DBDSN         string
	DataDir       string // fs driver
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AuthSecret      string
	AdminUser       string
	AdminPassHash   string // bcrypt
	DefaultPassword string // for sheet rows without one
	UsersCSVURL     string
	UsersCSVPath    string

	GeminiAPIKey      string
	GeminiModel       string
	GeminiBaseURL     string // empty means the public endpoint
	GenerationTimeout time.Duration

	AMQPURL      string
	AMQPExchange string

	CORSOrigins []string

	AppName     string
	AppSubtitle string
}

// Load reads the given dotenv files (default ".env") into the process
// environment without overriding variables already set, then calls FromEnv.
// Missing files are not an error.
func Load(files ...string) Config {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("config: dotenv: %v", err)
	}
	return FromEnv()
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	defOrigins := "http://localhost:3000,http://localhost:5173"
	if mode == ModeOnline {
		defOrigins = "https://quiz.mindengage.ai"
	}
	return Config{
		Mode:     mode,
		HTTPAddr: envOr("HTTP_ADDR", ":8080"),

		StoreDriver:   envOr("STORE_DRIVER", "sqlite"),
		DBDSN:         envOr("DB_DSN", ""),
		DataDir:       envOr("DATA_DIR", "./data"),
		RedisAddr:     envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		AuthSecret:      envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		AdminUser:       envOr("ADMIN_USER", "admin"),
		AdminPassHash:   envOr("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),
		DefaultPassword: envOr("DEFAULT_TEACHER_PASSWORD", "123456"),
		UsersCSVURL:     os.Getenv("USERS_CSV_URL"),
		UsersCSVPath:    envOr("USERS_CSV_PATH", "./data/users.csv"),

		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       envOr("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL:     os.Getenv("GEMINI_BASE_URL"),
		GenerationTimeout: envDuration("GENERATION_TIMEOUT", 90*time.Second),

		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: envOr("AMQP_EXCHANGE", "quiz.results"),

		CORSOrigins: csvOr("CORS_ORIGINS", defOrigins),

		AppName:     envOr("APP_NAME", "THCS TTGL"),
		AppSubtitle: envOr("APP_SUBTITLE", "Luyện tập"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	n, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	return n
}

func envDuration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
