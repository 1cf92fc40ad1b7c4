package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/nlowe/goveemqtt/bridge"
	"github.com/nlowe/goveemqtt/config"
	"github.com/nlowe/goveemqtt/entry"
	"github.com/nlowe/goveemqtt/govee"
	"github.com/nlowe/goveemqtt/hass"
	"github.com/nlowe/goveemqtt/httpapi"
	"github.com/nlowe/goveemqtt/light"
	"github.com/nlowe/goveemqtt/log"
	adapter "github.com/nlowe/goveemqtt/mqtt/adapter/autopaho"
	"github.com/nlowe/goveemqtt/poller"
	"github.com/nlowe/goveemqtt/service"
	"github.com/nlowe/goveemqtt/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.ForComponent("main").With(log.Failure(err)...).Error("Exiting")
		os.Exit(1)
	}
}

func run() error {
	v, err := config.New()
	if err != nil {
		return err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	log.To(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: log.ParseLevel(cfg.LogLevel)}))
	l := log.ForComponent("main")
	l.With(slog.Any("config", cfg)).Info("Starting up")

	if err = cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client, err := govee.NewClient(cfg.APIKey, govee.WithBaseURL(cfg.APIURL))
	if err != nil {
		return err
	}

	devices, err := loadDevices(ctx, client)
	if err != nil {
		return err
	}

	var (
		store    *storage.Store
		settings settingsStore
	)
	if cfg.DBPath != "" {
		if store, err = storage.Open(ctx, cfg.DBPath); err != nil {
			return err
		}
		settings = store
		defer func() {
			if err := store.Close(); err != nil {
				l.With(log.Failure(err)...).Error("Failed to close database")
			}
		}()
	}

	e := entry.New(cfg.EntryID, client, devices)
	if err = restore(ctx, e, settings, cfg.ScanInterval); err != nil {
		return err
	}

	entries := &entry.Registry{}
	entries.Add(e)

	broker, err := cfg.BrokerURL()
	if err != nil {
		return err
	}

	opts := bridge.Options{TopicPrefix: cfg.MQTT.TopicPrefix, DiscoveryPrefix: cfg.MQTT.DiscoveryPrefix}
	w, s, disconnect, err := adapter.DialMQTT(ctx, adapter.Options{
		Broker:   broker,
		ClientID: cfg.MQTT.ClientID,
		Username: cfg.MQTT.Username,
		Password: cfg.MQTT.Password,
		Will: &adapter.Will{
			Topic:   opts.AvailabilityTopic(),
			Payload: []byte(hass.Unavailable),
		},
	})
	if err != nil {
		return err
	}

	b := bridge.New(w, s, opts)
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := b.Shutdown(shutdownCtx); err != nil {
			l.With(log.Failure(err)...).Error("Failed to shut down bridge")
		}

		l.Info("Disconnecting from mqtt")
		if err := disconnect(shutdownCtx); err != nil {
			l.With(log.Failure(err)...).Error("Failed to disconnect from mqtt")
		}
	}()

	lights, err := light.Setup(ctx, e, b.NotifyFunc(ctx))
	if err != nil {
		return err
	}

	if err = b.AddEntry(ctx, e, lights); err != nil {
		return err
	}

	if err = b.WatchHomeAssistant(ctx); err != nil {
		return err
	}

	if err = b.Rediscover(ctx); err != nil {
		return err
	}

	pollerOpts := []poller.Option{poller.WithUpdateFunc(b.DeviceUpdated(ctx))}
	var intervals service.IntervalStore = &intervalPublisher{bridge: b}
	if store != nil {
		pollerOpts = append(pollerOpts, poller.WithPersister(store))
		intervals = &intervalPublisher{store: store, bridge: b}
	}
	p := poller.New(e, client, pollerOpts...)

	services := &service.Registry{}
	service.SetupServices(services, entries, intervals, b)

	follower := &scanIntervalFollower{entry: e, intervals: intervals, configured: cfg.ScanInterval}
	config.Watch(v, func(c config.Config) {
		follower.apply(ctx, c.ScanInterval)
	})

	var wg sync.WaitGroup
	wg.Go(func() {
		p.Run(ctx)
	})

	var serveErr error
	if cfg.HTTP.Addr != "" {
		wg.Go(func() {
			serveErr = httpapi.Serve(ctx, cfg.HTTP.Addr, httpapi.NewRouter(httpapi.New(services, b, p)))
			if serveErr != nil {
				cancel()
			}
		})
	}

	l.With(slog.Int("lights", len(lights)), slog.Int("devices", len(devices))).Info("Bridge running")
	<-ctx.Done()
	wg.Wait()

	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		return serveErr
	}

	l.Info("Goodbye!")
	return nil
}
