// Package server assembles all HTTP handlers and starts the server.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/formforge/formforge/internal/eventbus"
	"github.com/formforge/formforge/internal/field"
	"github.com/formforge/formforge/internal/handler"
	"github.com/formforge/formforge/internal/live"
	"github.com/formforge/formforge/internal/perm"
	"github.com/formforge/formforge/internal/publish"
	"github.com/formforge/formforge/internal/store"
)

// Config holds server configuration.
type Config struct {
	Port           int
	Store          store.Store
	AllowedClasses []string
	Editors        []string
}

// Run starts the HTTP server with all routes registered. It blocks until
// ctx is cancelled or the listener fails.
func Run(ctx context.Context, cfg Config) error {
	bus := eventbus.New(256)
	bus.Subscribe("log", eventbus.NewLogConsumer())

	broadcaster := live.NewBroadcaster(cfg.Store)
	bus.Subscribe("live", broadcaster)

	// The bus gets its own cancellation so buffered events drain even when
	// the listener fails before ctx is done.
	busCtx, stopBus := context.WithCancel(ctx)
	defer stopBus()
	bus.Start(busCtx)

	lifecycle := field.NewLifecycle(cfg.Store, cfg.AllowedClasses)
	coordinator := publish.NewCoordinator(cfg.Store)
	policy := perm.NewStaticPolicy(cfg.Editors)
	oracle := perm.NewOracle(policy)

	fh := handler.NewFieldHandler(cfg.Store, lifecycle, coordinator, oracle, bus)
	formh := handler.NewFormHandler(cfg.Store, policy)
	sh := handler.NewSubmissionHandler(cfg.Store, bus)

	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/forms", formh.CreateForm)
		r.Get("/forms", formh.ListForms)
		r.Get("/forms/{id}", formh.GetForm)
		r.Patch("/forms/{id}", formh.UpdateForm)
		r.Delete("/forms/{id}", formh.DeleteForm)
		r.Get("/forms/{id}/rulesets", formh.RuleSets)
		r.Post("/forms/{id}/submissions", sh.CreateSubmission)

		r.Post("/fields", fh.CreateField)
		r.Get("/fields", fh.ListFields)
		r.Get("/fields/{id}", fh.GetField)
		r.Patch("/fields/{id}", fh.UpdateField)
		r.Delete("/fields/{id}", fh.DeleteField)
		r.Get("/fields/{id}/number", fh.FieldNumber)
		r.Post("/fields/{id}/publish", fh.PublishField)
		r.Post("/fields/{id}/unpublish", fh.UnpublishField)
		r.Post("/fields/{id}/rules", fh.CreateRule)
		r.Delete("/rules/{id}", fh.DeleteRule)

		r.Get("/submissions/{id}", sh.GetSubmission)
		r.Get("/submissions/{id}/export", sh.ExportSubmission)
	})

	r.Get("/v1/live", broadcaster.ServeHTTP)

	wrapped := handler.Recovery(handler.Logging(r))

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("starting server on %s", addr)

	srv := &http.Server{
		Addr:    addr,
		Handler: wrapped,
	}

	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Printf("server shutdown: %v", err)
		}
	}()

	err := srv.ListenAndServe()

	stopBus()
	bus.Wait()
	return err
}
