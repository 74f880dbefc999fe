// Пакет config собирает настройки сервера и клиента из
// переменных окружения (и файла .env, если он есть).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

// переменные окружения.
const (
	MongoURIEnv   = "MONGO_URI"
	PortEnv       = "PORT"
	CollectionEnv = "MONGO_COLLECTION"
	LogLevelEnv   = "LOG_LEVEL"
	DevModeEnv    = "DEV_MODE"
	MetricsEnv    = "METRICS_ENABLED"
	CORSOriginEnv = "CORS_ORIGIN"
	APIURLEnv     = "ITEMS_API_URL"
	LogFileEnv    = "ITEMCTL_LOG_FILE"
)

const (
	defaultMongoURI   = "mongodb://localhost:27017/my_app_db"
	defaultDatabase   = "my_app_db"
	defaultCollection = "items"
	defaultPort       = "5000"
	defaultCORSOrigin = "*"
	defaultAPIURL     = "http://localhost:5000/api/items"
)

// Server настройки REST сервера.
type Server struct {
	MongoURI       string
	Database       string
	Collection     string
	Port           string
	LogLevel       string
	DevMode        bool
	MetricsEnabled bool
	CORSOrigin     string
}

// Addr адрес для http.Server.
func (s Server) Addr() string { return ":" + s.Port }

// Client настройки консольного клиента.
type Client struct {
	APIURL   string
	LogFile  string
	LogLevel string
}

// LoadDotEnv загружает .env из текущего каталога, отсутствие файла не ошибка.
func LoadDotEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// LoadServer читает настройки сервера.
func LoadServer() (Server, error) {
	cfg := Server{
		MongoURI:       envOrDefault(MongoURIEnv, defaultMongoURI),
		Collection:     envOrDefault(CollectionEnv, defaultCollection),
		Port:           envOrDefault(PortEnv, defaultPort),
		LogLevel:       strings.ToLower(envOrDefault(LogLevelEnv, "info")),
		DevMode:        envBool(DevModeEnv, false),
		MetricsEnabled: envBool(MetricsEnv, true),
		CORSOrigin:     envOrDefault(CORSOriginEnv, defaultCORSOrigin),
	}

	cs, err := connstring.ParseAndValidate(cfg.MongoURI)
	if err != nil {
		return Server{}, fmt.Errorf("%s: %w", MongoURIEnv, err)
	}
	cfg.Database = cs.Database
	if cfg.Database == "" {
		cfg.Database = defaultDatabase
	}

	if _, err := strconv.ParseUint(cfg.Port, 10, 16); err != nil {
		return Server{}, fmt.Errorf("%s must be a valid port number, got %q", PortEnv, cfg.Port)
	}

	return cfg, nil
}

// LoadClient читает настройки клиента.
func LoadClient() Client {
	return Client{
		APIURL:   strings.TrimRight(envOrDefault(APIURLEnv, defaultAPIURL), "/"),
		LogFile:  os.Getenv(LogFileEnv),
		LogLevel: strings.ToLower(envOrDefault(LogLevelEnv, "info")),
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		switch strings.ToLower(v) {
		case "yes", "on":
			return true
		case "no", "off":
			return false
		default:
			return defaultVal
		}
	}
	return b
}
