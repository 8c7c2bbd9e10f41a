package handler

import (
	"context"
	"net/http"
	"os"

	"github.com/wadjakorntonsri/triptree/pkg/app"
	"github.com/wadjakorntonsri/triptree/pkg/config"
	"github.com/wadjakorntonsri/triptree/pkg/logging"
)

var mux http.Handler

func init() {
	cfg := config.Load()
	log := logging.New(os.Stdout, cfg.AppEnv, cfg.LogLevel)

	// On Vercel a local sqlite file is ephemeral; point DATABASE_URL at Turso or Postgres.
	a, err := app.New(context.Background(), cfg, log)
	if err != nil {
		panic(err)
	}
	mux = a.Handler()
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
