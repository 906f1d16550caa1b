package main

import (
	"crypto/tls"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"vibelist-api/api"
	"vibelist-api/directory"
	"vibelist-api/storage"
	"vibelist-api/store"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}

	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		log.Fatal("missing session config")
	}
	sessionTTL := time.Duration(0)
	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			log.Fatalf("invalid SESSION_TTL: %v", err)
		}
		sessionTTL = d
	}

	var kv storage.KV
	switch mode := os.Getenv("STORAGE_MODE"); mode {
	case "", "redis":
		redisConn := os.Getenv("REDIS_CONNECTION_STRING")
		if redisConn == "" {
			log.Fatal("missing redis config")
		}
		kv = storage.NewRedis(redis.NewClient(redisOptions(redisConn)))
	case "memory":
		log.Warn("using in-memory storage; data will not survive restarts")
		kv = storage.NewMemory()
	default:
		log.Fatalf("invalid STORAGE_MODE: %q", mode)
	}

	logger := log.New()
	sessions := api.NewSessions([]byte(secret), sessionTTL)
	dir := directory.New(kv, logger)
	tasks := store.New(kv, logger)

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echoprometheus.NewMiddleware("vibelist"))
	e.GET("/metrics", echoprometheus.NewHandler())

	api.Register(e, tasks, dir, sessions, logger)

	listenAddr := ":8080"
	if val, ok := os.LookupEnv("FUNCTIONS_CUSTOMHANDLER_PORT"); ok {
		listenAddr = ":" + val
	}

	e.Logger.Fatal(e.Start(listenAddr))
}

// redisOptions parses a redis URL, falling back to the
// comma-separated "host:port,password=...,ssl=true" connection string
// form.
func redisOptions(conn string) *redis.Options {
	opts, err := redis.ParseURL(conn)
	if err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts = &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(kv[0]) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.ToLower(kv[1]) == "true" {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}
