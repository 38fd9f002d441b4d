package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/quranlake/internal/adhan"
	"github.com/smokyabdulrahman/quranlake/internal/api"
	"github.com/smokyabdulrahman/quranlake/internal/cache"
	"github.com/smokyabdulrahman/quranlake/internal/clock"
	"github.com/smokyabdulrahman/quranlake/internal/config"
	"github.com/smokyabdulrahman/quranlake/internal/controller"
	"github.com/smokyabdulrahman/quranlake/internal/geo"
	"github.com/smokyabdulrahman/quranlake/internal/netstate"
	"github.com/smokyabdulrahman/quranlake/internal/quran"
)

// app is the wired object graph shared by the commands.
type app struct {
	cfg config.Config
	log zerolog.Logger

	storage   cache.Storage
	store     *cache.Store
	monitor   *netstate.Monitor
	ctrl      *controller.Controller
	catalogue *quran.Client

	closers []io.Closer
}

func newApp(ctx context.Context, cfg config.Config, log zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	storage, err := a.openStorage(ctx)
	if err != nil {
		return nil, err
	}
	a.storage = storage

	a.monitor = netstate.NewMonitor(cfg.ProbeURL, 0, log)
	a.store = cache.New(storage, clock.Real{}, a.monitor, log)

	client := api.NewClient(log)
	if cfg.APIURL != "" {
		client.BaseURL = strings.TrimRight(cfg.APIURL, "/")
	}
	client.Method = cfg.MethodOrDefault(api.DefaultMethod)
	client.School = cfg.SchoolOrDefault(api.DefaultSchool)

	locator, err := a.locator()
	if err != nil {
		a.Close()
		return nil, err
	}
	resolver := geo.NewResolver(locator, geo.NewReverseGeocoder(log), log)

	a.ctrl = controller.New(controller.Deps{
		Resolver:     resolver,
		Fetcher:      client,
		Cache:        a.store,
		Connectivity: a.monitor,
		Logger:       log,
	})
	a.catalogue = quran.NewClient(storage, log)
	return a, nil
}

func (a *app) openStorage(ctx context.Context) (cache.Storage, error) {
	switch a.cfg.CacheBackend {
	case "memory":
		return cache.NewMemoryStorage(), nil
	case "redis":
		client, err := cache.DialRedis(ctx, a.cfg.RedisAddr, "", 0)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client)
		return cache.NewRedisStorage(client, ""), nil
	default:
		fs, err := cache.NewFileStorage(a.cfg.CacheDir)
		if err != nil {
			a.log.Warn().Err(err).Msg("file cache unavailable, using memory")
			return cache.NewMemoryStorage(), nil
		}
		return fs, nil
	}
}

func (a *app) locator() (geo.Locator, error) {
	switch {
	case a.cfg.Locate == "off":
		return geo.DeniedLocator{}, nil
	case a.cfg.HasCoordinates():
		return geo.StaticLocator{
			Latitude:  a.cfg.Latitude,
			Longitude: a.cfg.Longitude,
			City:      a.cfg.City,
			Country:   a.cfg.Country,
		}, nil
	case a.cfg.Locate == "static":
		return nil, errors.New("locate is static but latitude and longitude are not set")
	default:
		return geo.NewIPLocator(), nil
	}
}

// load serves today's cached snapshot when there is one, unless fresh is
// set. Otherwise it probes connectivity once and runs the initial load. The
// returned view is usable whenever it carries prayer times, even alongside
// an error.
func (a *app) load(ctx context.Context, fresh bool) (controller.View, error) {
	if !fresh && a.ctrl.Restore(ctx) {
		return a.ctrl.Snapshot(ctx), nil
	}
	a.monitor.Probe(ctx)
	err := a.ctrl.Start(ctx)
	view := a.ctrl.Snapshot(ctx)
	if view.PrayerTimes != nil {
		return view, nil
	}
	if view.Error != "" {
		return view, errors.New(view.Error)
	}
	if err != nil {
		return view, err
	}
	return view, controller.ErrOffline
}

// newTrigger builds the adhan trigger with the configured player and
// notifiers. The notifiers are closed with the app.
func (a *app) newTrigger() (*adhan.Trigger, error) {
	var player adhan.Player = adhan.NopPlayer{}
	if fields := strings.Fields(a.cfg.AdhanCommand); len(fields) > 0 {
		player = adhan.NewExecPlayer(fields[0], fields[1:], a.log)
	}

	var notifiers adhan.MultiNotifier
	for _, kind := range a.cfg.Notifiers() {
		switch kind {
		case "log":
			notifiers = append(notifiers, adhan.NewLogNotifier(a.log))
		case "mqtt":
			n, err := adhan.NewMQTTNotifier(a.cfg.MQTTBroker, a.cfg.MQTTTopic, mqttClientID(), a.log)
			if err != nil {
				return nil, err
			}
			a.closers = append(a.closers, n)
			notifiers = append(notifiers, n)
		case "kafka":
			n := adhan.NewKafkaNotifier(a.cfg.Brokers(), a.cfg.KafkaTopic)
			a.closers = append(a.closers, n)
			notifiers = append(notifiers, n)
		default:
			return nil, fmt.Errorf("unknown notifier %q", kind)
		}
	}

	cfg := adhan.DefaultConfig()
	if audio := a.cfg.AudioSources(); audio != nil {
		cfg.Audio = audio
	}
	t := adhan.NewTrigger(cfg, a.ctrl.PrayerTimes, player, notifiers, clock.Real{}, a.log)
	t.SetMuted(a.cfg.Muted())
	return t, nil
}

// rollover reloads once the cached day is no longer today.
func (a *app) rollover(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if a.store.HasValidCacheForToday(ctx) {
				continue
			}
			if err := a.ctrl.Load(ctx); err != nil && !errors.Is(err, controller.ErrSuperseded) {
				a.log.Warn().Err(err).Msg("daily reload failed")
			}
		}
	}
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.Warn().Err(err).Msg("close failed")
		}
	}
	a.closers = nil
}

func mqttClientID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "quranlake"
	}
	return host + "-" + uuid.NewString()[:8]
}
