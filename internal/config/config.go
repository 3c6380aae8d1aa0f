package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort string

	// dataset de entrada y artefacto persistido
	CatalogPath string
	StorePath   string

	// parámetros del índice de similitud
	TopK        int
	BatchSize   int
	Parallelism int
	MaxFeatures int

	MongoURI  string
	MongoDB   string
	RedisAddr string
	RedisPass string

	JWTSecret         string
	AdminUser         string
	AdminPasswordHash string

	// nodos de similitud remotos (vacío = cálculo local)
	SimNodeAddrs []string

	// orígenes permitidos para el front y límite de requests por IP/minuto
	CORSOrigins  []string
	RateLimitRPM int

	LogLevel  string
	LogFormat string
}

// DefaultJWTSecret valor de JWT_SECRET cuando no está seteado; solo sirve
// para desarrollo.
const DefaultJWTSecret = "super-secret"

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		CatalogPath:       getEnv("CATALOG_PATH", "data/final_movies.csv"),
		StorePath:         getEnv("STORE_PATH", "data/similarity.idx"),
		TopK:              getEnvInt("INDEX_TOP_K", 50),
		BatchSize:         getEnvInt("INDEX_BATCH_SIZE", 1000),
		Parallelism:       getEnvInt("INDEX_PARALLELISM", 4),
		MaxFeatures:       getEnvInt("INDEX_MAX_FEATURES", 0),
		MongoURI:          getEnv("MONGO_URI", ""),
		MongoDB:           getEnv("MONGO_DB", "cinerec"),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPass:         getEnv("REDIS_PASSWORD", ""),
		JWTSecret:         getEnv("JWT_SECRET", DefaultJWTSecret),
		AdminUser:         getEnv("ADMIN_USER", "admin"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		SimNodeAddrs:      splitList(getEnv("SIM_NODE_ADDRS", "")),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPM:      getEnvInt("RATE_LIMIT_RPM", 120),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "console"),
	}
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Printf("[config] %s no está seteado, usando valor por defecto\n", key)
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		log.Printf("[config] %s no está seteado, usando valor por defecto\n", key)
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		log.Printf("[config] %s=%q no es entero, usando %d\n", key, v, def)
		return def
	}
	return n
}

// splitList separa una lista "a,b, c" ignorando vacíos.
func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
