package router

import (
	"database/sql"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "rasd-api/docs"
	"rasd-api/internal/adapters/abr"
	idp "rasd-api/internal/adapters/identity/cognito"
	lognotify "rasd-api/internal/adapters/notify/log"
	mem "rasd-api/internal/adapters/storage/memory"
	pg "rasd-api/internal/adapters/storage/postgres"
	"rasd-api/internal/domain/accessrequests"
	"rasd-api/internal/domain/metadata"
	"rasd-api/internal/domain/notify"
	"rasd-api/internal/domain/organisations"
	"rasd-api/internal/domain/registrations"
	"rasd-api/internal/middleware"
	"rasd-api/internal/platform/logger"
	"rasd-api/internal/ports/auth"
)

type Options struct {
	Verifier auth.TokenVerifier // nil enables the X-Debug-* dev headers

	// Optional: with a DB the repositories run on Postgres, otherwise
	// in-memory.
	DB *sql.DB

	Logger logger.Logger
	// Notifier, Provisioner and ABN fall back to the dev implementations
	// (log notifier, static provisioner, accept-all checker) when nil.
	Notifier    notify.Notifier
	Provisioner registrations.Provisioner
	ABN         registrations.ABNChecker

	// AdminInbox receives registration and completion notices.
	AdminInbox string
	// CreatePasswordURL is linked from registration approval emails.
	CreatePasswordURL string
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.NewFromEnv()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics())
	r.Use(middleware.AuthContext(opts.Verifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler())

	var (
		orgRepo organisations.Repository
		metRepo metadata.Repository
		reqRepo accessrequests.Repository
		regRepo registrations.Repository
	)

	// Without an explicit DB, try the environment (dev/handoff).
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			} else {
				log.Warn("postgres unavailable, using in-memory storage", map[string]any{"error": err.Error()})
			}
		}
	}

	if db != nil {
		if err := pg.Migrate(db); err != nil {
			log.Error("applying migrations", map[string]any{"error": err.Error()})
		}
		orgRepo = pg.NewOrganisationsRepo(db)
		metRepo = pg.NewMetadataRepo(db)
		reqRepo = pg.NewRequestsRepo(db)
		regRepo = pg.NewRegistrationsRepo(db)
	} else {
		orgRepo = mem.NewOrganisationStore()
		metRepo = mem.NewMetadataStore()
		reqRepo = mem.NewRequestStore()
		regRepo = mem.NewRegistrationStore()
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = lognotify.New(log)
	}
	provisioner := opts.Provisioner
	if provisioner == nil {
		provisioner = idp.StaticProvisioner{}
	}
	abnChecker := opts.ABN
	if abnChecker == nil {
		abnChecker = abr.StaticChecker{}
	}

	orgSvc := organisations.NewService(orgRepo)
	metSvc := metadata.NewService(metRepo)
	reqSvc := accessrequests.NewService(accessrequests.Config{
		Repo:       reqRepo,
		Orgs:       orgSvc,
		Catalog:    metSvc,
		Notifier:   notifier,
		Logger:     log,
		AdminInbox: opts.AdminInbox,
	})
	regSvc := registrations.NewService(registrations.Config{
		Repo:              regRepo,
		Orgs:              orgSvc,
		Provisioner:       provisioner,
		ABN:               abnChecker,
		Notifier:          notifier,
		Logger:            log,
		AdminInbox:        opts.AdminInbox,
		CreatePasswordURL: opts.CreatePasswordURL,
	})

	r.Route("/api/v1", func(api chi.Router) {
		organisations.RegisterRoutes(api, orgSvc)
		metadata.RegisterRoutes(api, metSvc)
		accessrequests.RegisterRoutes(api, reqSvc)
		registrations.RegisterRoutes(api, regSvc)
	})

	return r
}
