package main

import (
	"context"
	"net/http"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"rasd-api/internal/adapters/abr"
	authcognito "rasd-api/internal/adapters/auth/cognito"
	idp "rasd-api/internal/adapters/identity/cognito"
	"rasd-api/internal/adapters/notify/ses"
	"rasd-api/internal/platform/logger"
	"rasd-api/internal/router"
)

func main() {
	log := logger.NewFromEnv()
	ctx := context.Background()

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	opts := router.Options{
		Logger:            log,
		AdminInbox:        os.Getenv("EMAIL_ADMIN_INBOX"),
		CreatePasswordURL: os.Getenv("CREATE_PASSWORD_URL"),
	}

	// Token verification is enabled by pointing at a Cognito user pool;
	// without it the router runs in dev mode with the X-Debug-* headers.
	if issuer := os.Getenv("COGNITO_ISSUER"); issuer != "" {
		verifier, err := authcognito.New(ctx, issuer)
		if err != nil {
			log.Error("configuring token verifier", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		opts.Verifier = verifier
	}

	// AWS-backed adapters are all optional; each falls back to its dev
	// counterpart inside the router.
	needsAWS := os.Getenv("EMAIL_FROM") != "" || os.Getenv("COGNITO_USER_POOL_ID") != ""
	if needsAWS {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			log.Error("loading aws configuration", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		if from := os.Getenv("EMAIL_FROM"); from != "" {
			opts.Notifier = ses.New(cfg, from)
		}
		if poolID := os.Getenv("COGNITO_USER_POOL_ID"); poolID != "" {
			opts.Provisioner = idp.New(cfg, poolID)
		}
	}

	if lookupURL := os.Getenv("ABN_LOOKUP_URL"); lookupURL != "" {
		opts.ABN = abr.New(lookupURL, os.Getenv("ABN_LOOKUP_GUID"))
	}

	r := router.NewRouter(opts)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Info("starting server", map[string]any{"addr": addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
