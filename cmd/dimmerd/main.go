package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"autodim/internal/api"
	"autodim/internal/config"
	"autodim/internal/logging"
	"autodim/internal/loop"
	"autodim/internal/overlay"
	"autodim/internal/relay"
	"autodim/internal/sampler"
	"autodim/internal/store"
	"autodim/internal/transition"
)

// #region main

func main() {
	app := config.LoadApp()
	config.SetupLogging(app.Server.LogLevel)

	st, err := store.Open(app.Store.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", app.Store.Path).Msg("open store")
	}
	defer st.Close()

	// The daemon harness drives a single synthetic view. Real embedders
	// register one controller per view over the same bus.
	surface := sampler.NewStaticSurface(1920, 1080, "rgb(255, 255, 255)")
	overlays := overlay.NewMemory()
	bus := relay.NewBus()

	ctrl := loop.New(
		loop.Config{
			SampleInterval: app.SampleInterval(),
			ScrollDebounce: app.ScrollDebounce(),
		},
		loop.Deps{
			Hostname:  app.View.Hostname,
			Sampler:   sampler.New(surface, sampler.DefaultConfig()),
			Engine:    transition.NewEngine(transition.Options{}),
			Overlay:   overlays,
			Config:    st,
			Sites:     st,
			Decisions: logging.NewDecisionLog(st.DB()),
			Logger:    log.With().Str("component", "loop").Logger(),
		},
	)
	if err := ctrl.Start(); err != nil {
		log.Fatal().Err(err).Msg("start controller")
	}
	defer ctrl.Stop()

	bus.Register("default", ctrl)
	defer bus.Unregister("default")

	srv := &http.Server{
		Addr:    app.Server.Addr,
		Handler: api.Router(api.NewHandler(bus, st)),
	}

	go func() {
		log.Info().Str("addr", app.Server.Addr).Str("hostname", app.View.Hostname).Msg("dimmerd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("serve")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

// #endregion main
