// Package service runs the company aggregation service and enrolls users.
package service

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julianstephens/moodlit/internal/cli"
	"github.com/julianstephens/moodlit/internal/constants"
	"github.com/julianstephens/moodlit/internal/insights"
	"github.com/julianstephens/moodlit/internal/keyring"
	"github.com/julianstephens/moodlit/internal/logger"
	"github.com/julianstephens/moodlit/internal/server"
)

// SecretAccount is the keyring account holding the token signing key when
// MOODLIT_JWT_SECRET is unset.
const SecretAccount = "jwt-secret"

// Secret is embedded by commands that sign or verify identity tokens.
type Secret struct {
	JWTSecret string        `name:"jwt-secret" env:"MOODLIT_JWT_SECRET" help:"HS256 signing key (16+ bytes). Falls back to the OS keyring."`
	TokenTTL  time.Duration `name:"token-ttl" env:"MOODLIT_TOKEN_TTL" help:"Identity token lifetime."`
}

func (s Secret) issuer() (*server.Issuer, error) {
	secret := s.JWTSecret
	if secret == "" {
		v, err := keyring.Account(SecretAccount).Get()
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, errors.New("no signing key: set MOODLIT_JWT_SECRET")
		}
		if err != nil {
			return nil, err
		}
		secret = v
	}
	return server.NewIssuer(secret, s.TokenTTL)
}

type ServeCmd struct {
	Secret

	Addr           string        `env:"MOODLIT_ADDR" default:":8080" help:"Listen address."`
	AllowedOrigins []string      `env:"MOODLIT_ALLOWED_ORIGINS" help:"CORS origins allowed to call the API."`
	RateLimit      int           `env:"MOODLIT_RATE_LIMIT" default:"60" help:"Requests per minute per client IP."`
	MinUserWeeks   int           `env:"MOODLIT_MIN_USER_WEEKS" help:"User-weeks a category needs before it is scored. Defaults to the min_user_weeks setting."`
	RedisAddr      string        `env:"MOODLIT_REDIS_ADDR" help:"Redis address for the shared insight cache. Empty uses the database."`
	RedisPassword  string        `env:"MOODLIT_REDIS_PASSWORD" help:"Redis password."`
	RedisDB        int           `env:"MOODLIT_REDIS_DB" help:"Redis database number."`
	InsightTTL     time.Duration `env:"MOODLIT_INSIGHT_TTL" default:"720h" help:"Lifetime of cached company insights in Redis."`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	issuer, err := c.issuer()
	if err != nil {
		return err
	}
	minWeeks := c.MinUserWeeks
	if minWeeks <= 0 {
		st, err := ctx.Session(context.Background())
		if err != nil {
			return err
		}
		minWeeks = st.MinUserWeeks
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cache insights.Cache = insights.NewStoreCache(ctx.Store)
	if c.RedisAddr != "" {
		client, err := insights.DialRedis(sigCtx, c.RedisAddr, c.RedisPassword, c.RedisDB)
		if err != nil {
			return err
		}
		defer client.Close()
		cache = insights.NewRedisCache(client, c.InsightTTL)
		logger.Info("Using Redis insight cache", "addr", c.RedisAddr)
	}

	srv, err := server.New(ctx.Store, cache, issuer, ctx.Taxonomy, server.Config{
		Addr:               c.Addr,
		AllowedOrigins:     c.AllowedOrigins,
		RateLimitPerMinute: c.RateLimit,
		MinUserWeeks:       minWeeks,
	})
	if err != nil {
		return err
	}
	ctx.Printf("Company service listening on %s\n", c.Addr)
	return srv.Run(sigCtx)
}

type TokenCmd struct {
	Issue TokenIssueCmd `cmd:"" help:"Enroll a user and print their identity token."`
}

type TokenIssueCmd struct {
	Secret

	Company string `required:"" help:"Company the user belongs to."`
	User    string `help:"Opaque user key. A random one is generated when empty."`
}

func (c *TokenIssueCmd) Run(ctx *cli.Context) error {
	issuer, err := c.issuer()
	if err != nil {
		return err
	}
	token, key, err := server.Enroll(context.Background(), ctx.Store, issuer, c.Company, c.User)
	if err != nil {
		return err
	}
	ctx.Printf("User key: %s\n", key)
	ctx.Printf("Token:    %s\n", token)
	ctx.Println()
	ctx.Println("Give the token to the user; they join with:")
	ctx.Printf("  %s company login --company %q --token <token>\n", constants.AppName, c.Company)
	return nil
}
