package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nlowe/goveemqtt/entry"
	"github.com/nlowe/goveemqtt/govee"
	"github.com/nlowe/goveemqtt/log"
	"github.com/nlowe/goveemqtt/service"
	"github.com/nlowe/goveemqtt/state"
)

type deviceLister interface {
	Devices(ctx context.Context) ([]govee.Device, error)
	FillScenes(ctx context.Context, d govee.Device) (govee.Device, error)
}

// loadDevices lists the account's devices and fetches scene lists the device list left out. A device whose scenes
// cannot be fetched keeps whatever the device list reported.
func loadDevices(ctx context.Context, c deviceLister) ([]govee.Device, error) {
	devices, err := c.Devices(ctx)
	if err != nil {
		return nil, err
	}

	l := log.ForComponent("main")
	for i, d := range devices {
		filled, err := c.FillScenes(ctx, d)
		if err != nil {
			l.With(log.Device(d.ID)).With(log.Failure(err)...).Warn("Failed to fetch scenes")
		}

		devices[i] = filled
	}

	l.With(slog.Int("count", len(devices))).Info("Loaded devices")
	return devices, nil
}

type settingsStore interface {
	ScanInterval(ctx context.Context, entryID string) (time.Duration, bool, error)
	LoadState(ctx context.Context, entryID string) ([]state.Entry, error)
}

// restore applies the persisted scan interval and cached state to e. A persisted interval was set through
// set_poll_interval and takes precedence over the configured one.
func restore(ctx context.Context, e *entry.Entry, store settingsStore, configured time.Duration) error {
	interval := configured

	if store != nil {
		saved, ok, err := store.ScanInterval(ctx, e.ID)
		if err != nil {
			return err
		}
		if ok {
			interval = saved
		}

		entries, err := store.LoadState(ctx, e.ID)
		if err != nil {
			return err
		}

		loaded := e.State.Load(entries)
		log.ForComponent("main").With(log.Entry(e.ID), slog.Int("values", loaded)).Debug("Restored cached state")
	}

	return e.SetScanInterval(interval)
}

// intervalPublisher persists a new poll interval and republishes the entry's poll interval sensor.
type intervalPublisher struct {
	// store is optional
	store  service.IntervalStore
	bridge interface {
		PublishPollInterval(ctx context.Context, entryID string) error
	}
}

func (p *intervalPublisher) SaveScanInterval(ctx context.Context, entryID string, interval time.Duration) error {
	var errs []error
	if p.store != nil {
		errs = append(errs, p.store.SaveScanInterval(ctx, entryID, interval))
	}

	errs = append(errs, p.bridge.PublishPollInterval(ctx, entryID))
	return errors.Join(errs...)
}

// scanIntervalFollower applies scan_interval edits from the config file. A reload that leaves scan_interval as it was
// keeps the running interval, which may have been changed through set_poll_interval since.
type scanIntervalFollower struct {
	entry      *entry.Entry
	intervals  service.IntervalStore
	configured time.Duration
}

func (f *scanIntervalFollower) apply(ctx context.Context, interval time.Duration) {
	if interval == f.configured {
		return
	}
	f.configured = interval

	l := log.ForComponent("main").With(log.Entry(f.entry.ID), slog.Duration("scan_interval", interval))
	if err := f.entry.SetScanInterval(interval); err != nil {
		l.With(log.Failure(err)...).Error("Ignoring scan_interval from config")
		return
	}

	if err := f.intervals.SaveScanInterval(ctx, f.entry.ID, interval); err != nil {
		l.With(log.Failure(err)...).Error("Failed to save scan_interval")
	}

	l.Info("Applied scan_interval from config")
}
