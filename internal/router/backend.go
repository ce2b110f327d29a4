package router

import (
	"golang.org/x/time/rate"

	"github.com/jwalitptl/healthplus/config"
	"github.com/jwalitptl/healthplus/internal/handler/auth"
	"github.com/jwalitptl/healthplus/internal/handler/document"
	"github.com/jwalitptl/healthplus/internal/handler/family"
	"github.com/jwalitptl/healthplus/internal/handler/health"
	"github.com/jwalitptl/healthplus/internal/handler/healthdata"
	"github.com/jwalitptl/healthplus/internal/handler/medication"
	"github.com/jwalitptl/healthplus/internal/handler/notification"
	"github.com/jwalitptl/healthplus/internal/handler/profile"
	"github.com/jwalitptl/healthplus/internal/handler/prometheus"
	"github.com/jwalitptl/healthplus/internal/identity"
	"github.com/jwalitptl/healthplus/internal/middleware"
	"github.com/jwalitptl/healthplus/internal/model"
	"github.com/jwalitptl/healthplus/internal/repository/kvstore"
	jwtauth "github.com/jwalitptl/healthplus/pkg/auth"
	"github.com/jwalitptl/healthplus/pkg/kv"
	"github.com/jwalitptl/healthplus/pkg/logger"
	"github.com/jwalitptl/healthplus/pkg/security"
	"github.com/jwalitptl/healthplus/pkg/validator"
)

const tokenIssuer = "healthplus"

// Options tune NewBackend beyond the config file.
type Options struct {
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// NewBackend wires every backend route over one key-value table.
func NewBackend(store kv.PrefixStore, cfg *config.Config, log *logger.Logger, opts Options) *Router {
	if log == nil {
		log = logger.Nop()
	}
	v := validator.New()

	provider := identity.NewProvider(identity.Config{
		AnonKey: cfg.Server.AnonKey,
		Users:   kvstore.NewUserRepository(store),
		Tokens:  kvstore.NewTokenRepository(store),
		JWT:     jwtauth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry(), tokenIssuer),
		Hasher:  security.NewBcryptHasher(opts.BcryptCost),
		Logger:  log,
	})
	authMiddleware := middleware.NewAuthMiddleware(provider)

	public := []Handler{
		health.NewHandler(),
		auth.NewHandler(provider, authMiddleware, v),
	}
	protected := []Handler{
		profile.NewHandler(provider, v),
		medication.NewHandler(
			kvstore.NewOwned[model.Medication](store, kvstore.PrefixMedication),
			kvstore.NewOwned[model.DoseEvent](store, kvstore.PrefixAdherence),
			v,
			log,
		),
		healthdata.NewHandler(kvstore.NewOwned[model.HealthRecord](store, kvstore.PrefixHealth), v),
		notification.NewHandler(kvstore.NewOwned[model.Notification](store, kvstore.PrefixNotification), v),
		document.NewHandler(kvstore.NewOwned[model.Document](store, kvstore.PrefixDocument), v),
		family.NewHandler(kvstore.NewOwned[model.FamilyLink](store, kvstore.PrefixFamily), v),
	}

	r := NewRouter(authMiddleware, prometheus.New("healthplus"), public, protected, RouterConfig{
		BasePath:         cfg.Server.BasePath,
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:        cfg.RateLimit.Burst,
		CORSConfig:       middleware.DefaultCORSConfig(cfg.Security.AllowedOrigins...),
		SizeLimit:        middleware.DefaultSizeLimitConfig(),
		Logger:           log,
	})
	r.Setup()
	return r
}
