// Package gazeinject предоставляет запуск движка инъекции ошибок взгляда для встраивания в Beat.
package gazeinject

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/shiwa/gaze-error-injector/internal/api"
	"github.com/shiwa/gaze-error-injector/internal/bridge"
	"github.com/shiwa/gaze-error-injector/internal/config"
	"github.com/shiwa/gaze-error-injector/internal/engine"
	"github.com/shiwa/gaze-error-injector/internal/gaze"
	"github.com/shiwa/gaze-error-injector/internal/hostclock"
	"github.com/shiwa/gaze-error-injector/internal/injector"
	"github.com/shiwa/gaze-error-injector/internal/logger"
	"github.com/shiwa/gaze-error-injector/internal/pipeline"
	"github.com/shiwa/gaze-error-injector/internal/quality"
	"github.com/shiwa/gaze-error-injector/internal/recorder"
	"github.com/shiwa/gaze-error-injector/internal/tracker"
	"github.com/shiwa/gaze-error-injector/internal/tracker/election"
	pkgconfig "github.com/shiwa/gaze-error-injector/pkg/config"
)

// Frame — кадр с ошибкой, публикуемый на каждом тике.
type Frame = gaze.GazeErrorFrame

// ChannelState — состояние одного канала кадра (сырое и искажённое направление).
type ChannelState = gaze.ChannelErrorState

// reinitInterval — период повторной инициализации недоступных трекеров
const reinitInterval = 5 * time.Second

type options struct {
	onFrame []func(Frame)
}

// Option настраивает RunDaemon
type Option func(*options)

// WithFrameHandler подписывает fn на каждый опубликованный кадр (вызывается синхронно из тика).
func WithFrameHandler(fn func(Frame)) Option {
	return func(o *options) {
		o.onFrame = append(o.onFrame, fn)
	}
}

// RunDaemon запускает цикл инъекции (выбор трекера + движок) до отмены ctx.
// Тик — 1/sample_rate; тики без данных пропускаются. Используется из Beat (libbeat).
func RunDaemon(ctx context.Context, cfg *pkgconfig.Config, quiet bool, opts ...Option) error {
	if cfg == nil {
		return nil
	}
	logger.Quiet = quiet
	var o options
	for _, fn := range opts {
		fn(&o)
	}

	internalCfg, err := toInternalConfig(cfg)
	if err != nil {
		return err
	}
	if err := internalCfg.Validate(); err != nil {
		return err
	}
	settings, err := internalCfg.EngineSettings()
	if err != nil {
		return err
	}

	// Мосты вендорских SDK для трекеров со start_bridge: true
	stopBridges := bridge.Start(internalCfg.Trackers.BridgeJobs(), quiet)
	defer stopBridges()

	primary := buildTrackers("primary", internalCfg.Trackers.Primary)
	secondary := buildTrackers("secondary", internalCfg.Trackers.Secondary)
	if len(primary) == 0 && len(secondary) == 0 {
		logger.Info("no trackers configured, nothing to do")
		return nil
	}
	sel := election.New(primary, secondary)
	defer sel.Close()

	var activeName atomic.Value
	activeName.Store("")
	sel.OnSwitch(func(from, to tracker.Tracker) {
		if to == nil {
			logger.Info("tracker: no tracker available")
			activeName.Store("")
			return
		}
		logger.Info("tracker: active %s (%s)", to.Name(), to.Status())
		activeName.Store(to.Name())
	})
	n := sel.Initialize()

	store, err := engine.NewSettingsStore(settings)
	if err != nil {
		return err
	}
	eng := engine.New(pipeline.New(injector.NewSource(internalCfg.Seed)), store)

	monitor := quality.New()
	if err := eng.Subscribe(monitor); err != nil {
		return err
	}

	var rec *recorder.Recorder
	if internalCfg.Record.Path != "" {
		name := ""
		if len(primary) > 0 {
			name = primary[0].Name()
		}
		rec, err = recorder.Open(internalCfg.Record.Path, name, settings)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := rec.Close(); cerr != nil {
				logger.Error("recorder close: %v", cerr)
			}
			logger.Info("recorder: session %s, %d frames written, %d dropped", rec.SessionID(), rec.Written(), rec.Dropped())
		}()
		if err := eng.Subscribe(rec); err != nil {
			return err
		}
	}
	for _, fn := range o.onFrame {
		if err := eng.Subscribe(engine.ObserverFunc(fn)); err != nil {
			return err
		}
	}

	if internalCfg.HTTP.Listen != "" {
		apiOpts := []api.Option{
			api.WithQuality(monitor),
			api.WithTracker(func() string { return activeName.Load().(string) }),
		}
		if rec != nil {
			apiOpts = append(apiOpts, api.WithSessions(rec))
		}
		srv := api.New(eng, apiOpts...)
		go func() {
			if err := srv.ListenAndServe(ctx, internalCfg.HTTP.Listen); err != nil {
				logger.Error("api: %v", err)
			}
		}()
	}

	interval := internalCfg.Interval()
	logger.Info("gazeinject: primary=%d secondary=%d initialized=%d rate=%dHz mode=%s clock_res=%v",
		len(primary), len(secondary), n, internalCfg.SampleRate, settings.Mode, hostclock.Resolution())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	reinit := time.NewTicker(reinitInterval)
	defer reinit.Stop()
	var qualityC <-chan time.Time
	if d := parseInterval(internalCfg.Quality.LogInterval); d > 0 {
		qt := time.NewTicker(d)
		defer qt.Stop()
		qualityC = qt.C
	}

	for {
		select {
		case <-ctx.Done():
			st := eng.Stats()
			logger.Info("gazeinject: stopped: ticks=%d frames=%d no_data=%d degenerate=%d",
				st.Ticks, st.Frames, st.NoData, st.Degenerate)
			return ctx.Err()
		case <-reinit.C:
			sel.Initialize()
			continue
		case <-qualityC:
			logQuality(monitor.Report())
			continue
		case <-ticker.C:
		}
		eng.Tick(sel)
	}
}

func buildTrackers(role string, list []config.Tracker) []tracker.Tracker {
	var out []tracker.Tracker
	for _, c := range list {
		t, err := tracker.NewFromConfig(c)
		if err != nil {
			if !errors.Is(err, tracker.ErrDisabled) {
				logger.Info("%s %s: %v", role, c.Kind, err)
			}
			continue
		}
		out = append(out, t)
	}
	return out
}

func logQuality(r quality.Report) {
	for _, c := range []struct {
		name string
		s    quality.ChannelStats
	}{{"gaze", r.Gaze}, {"left", r.Left}, {"right", r.Right}} {
		if c.s.Samples == 0 {
			continue
		}
		logger.Info("quality %s: accuracy=%.3f° precision_rms=%.3f° loss=%.1f%% (n=%d)",
			c.name, c.s.AccuracyDeg, c.s.PrecisionRMSDeg, 100*c.s.DataLossRatio, c.s.Samples)
	}
}

func parseInterval(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// ToPkgConfig преобразует internal config в pkg config (для вызова RunDaemon из cmd/gaze-inject).
func ToPkgConfig(c *config.Config) *pkgconfig.Config {
	if c == nil {
		return nil
	}
	out := &pkgconfig.Config{
		SampleRate: c.SampleRate,
		Mode:       c.Mode,
		Seed:       c.Seed,
		Gaze:       fromInternalChannel(c.Gaze),
		LeftEye:    fromInternalChannel(c.LeftEye),
		RightEye:   fromInternalChannel(c.RightEye),
		HTTP:       pkgconfig.HTTPConfig(c.HTTP),
		Record:     pkgconfig.RecordConfig(c.Record),
		Quality:    pkgconfig.QualityConfig(c.Quality),
		Trackers: pkgconfig.TrackersConfig{
			Primary:   make([]pkgconfig.Tracker, len(c.Trackers.Primary)),
			Secondary: make([]pkgconfig.Tracker, len(c.Trackers.Secondary)),
		},
	}
	for i := range c.Trackers.Primary {
		out.Trackers.Primary[i] = pkgconfig.Tracker(c.Trackers.Primary[i])
	}
	for i := range c.Trackers.Secondary {
		out.Trackers.Secondary[i] = pkgconfig.Tracker(c.Trackers.Secondary[i])
	}
	return out
}

func fromInternalChannel(s gaze.ChannelErrorSettings) pkgconfig.ChannelConfig {
	return pkgconfig.ChannelConfig{
		AccuracyDirectionDeg:  s.AccuracyDirectionDeg,
		AccuracyMagnitudeDeg:  s.AccuracyMagnitudeDeg,
		PrecisionMode:         s.PrecisionMode.String(),
		PrecisionMagnitudeDeg: s.PrecisionMagnitudeDeg,
		DataLossProbability:   s.DataLossProbability,
	}
}

func toInternalConfig(c *pkgconfig.Config) (*config.Config, error) {
	out := &config.Config{
		SampleRate: c.SampleRate,
		Mode:       c.Mode,
		Seed:       c.Seed,
		HTTP:       config.HTTPConfig(c.HTTP),
		Record:     config.RecordConfig(c.Record),
		Quality:    config.QualityConfig(c.Quality),
		Trackers: config.TrackersConfig{
			Primary:   make([]config.Tracker, len(c.Trackers.Primary)),
			Secondary: make([]config.Tracker, len(c.Trackers.Secondary)),
		},
	}
	var err error
	if out.Gaze, err = toInternalChannel(c.Gaze); err != nil {
		return nil, err
	}
	if out.LeftEye, err = toInternalChannel(c.LeftEye); err != nil {
		return nil, err
	}
	if out.RightEye, err = toInternalChannel(c.RightEye); err != nil {
		return nil, err
	}
	for i := range c.Trackers.Primary {
		out.Trackers.Primary[i] = config.Tracker(c.Trackers.Primary[i])
	}
	for i := range c.Trackers.Secondary {
		out.Trackers.Secondary[i] = config.Tracker(c.Trackers.Secondary[i])
	}
	if out.SampleRate == 0 {
		out.SampleRate = config.Default().SampleRate
	}
	if out.Mode == "" {
		out.Mode = config.Default().Mode
	}
	return out, nil
}

func toInternalChannel(c pkgconfig.ChannelConfig) (gaze.ChannelErrorSettings, error) {
	mode, err := gaze.ParsePrecisionMode(c.PrecisionMode)
	if err != nil {
		return gaze.ChannelErrorSettings{}, err
	}
	return gaze.ChannelErrorSettings{
		AccuracyDirectionDeg:  c.AccuracyDirectionDeg,
		AccuracyMagnitudeDeg:  c.AccuracyMagnitudeDeg,
		PrecisionMode:         mode,
		PrecisionMagnitudeDeg: c.PrecisionMagnitudeDeg,
		DataLossProbability:   c.DataLossProbability,
	}, nil
}
