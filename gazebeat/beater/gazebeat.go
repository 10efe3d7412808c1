// Package beater реализует интерфейс Beater для Gazebeat (libbeat v7).
package beater

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/elastic/beats/v7/libbeat/beat"
	"github.com/elastic/beats/v7/libbeat/common"
	"github.com/elastic/beats/v7/libbeat/logp"
	pkgconfig "github.com/shiwa/gaze-error-injector/pkg/config"
	"github.com/shiwa/gaze-error-injector/pkg/gazeinject"
)

// Gazebeat реализует beat.Beater.
type Gazebeat struct {
	done   chan struct{}
	config *pkgconfig.Config
	client beat.Client
	every  int
}

// New создаёт Beater из конфигурации Beat.
func New(b *beat.Beat, cfg *common.Config) (beat.Beater, error) {
	sub, err := cfg.Child("gazebeat", -1)
	if err != nil || sub == nil {
		return nil, fmt.Errorf("конфиг gazebeat не найден: %v", err)
	}
	config := defaultConfig()
	if err := sub.Unpack(&config); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфига gazebeat: %w", err)
	}
	// publish_every: публиковать каждый N-й кадр, при 120 Гц полный поток избыточен
	every := 1
	if sub.HasField("publish_every") {
		if n, err := sub.Int("publish_every", -1); err == nil && n > 0 {
			every = int(n)
		}
	}
	bt := &Gazebeat{
		done:   make(chan struct{}),
		config: &config,
		every:  every,
	}
	return bt, nil
}

// Run запускает движок инъекции (gaze-inject) до Stop() и публикует кадры как события.
func (bt *Gazebeat) Run(b *beat.Beat) error {
	logp.Info("gazebeat запущен (mode=%s, sample_rate=%d, publish_every=%d)",
		bt.config.Mode, bt.config.SampleRate, bt.every)
	client, err := b.Publisher.Connect()
	if err != nil {
		return fmt.Errorf("подключение к publisher: %w", err)
	}
	bt.client = client

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-bt.done
		cancel()
	}()

	err = gazeinject.RunDaemon(ctx, bt.config, true, gazeinject.WithFrameHandler(bt.publish))
	if err != nil && !errors.Is(err, context.Canceled) {
		logp.Warnf("gaze-inject завершён: %v", err)
	}
	return nil
}

// Stop останавливает Run.
func (bt *Gazebeat) Stop() {
	if bt.client != nil {
		bt.client.Close()
	}
	close(bt.done)
}

func (bt *Gazebeat) publish(f gazeinject.Frame) {
	if bt.client == nil || f.Seq%uint64(bt.every) != 0 {
		return
	}
	bt.client.Publish(beat.Event{
		Timestamp: time.Now(),
		Fields:    frameFields(f),
	})
}

func frameFields(f gazeinject.Frame) common.MapStr {
	return common.MapStr{
		"type": "gazebeat",
		"gaze": common.MapStr{
			"seq":   f.Seq,
			"mode":  f.Mode.String(),
			"gaze":  channelFields(f.Gaze),
			"left":  channelFields(f.Left),
			"right": channelFields(f.Right),
		},
	}
}

func channelFields(c gazeinject.ChannelState) common.MapStr {
	return common.MapStr{
		"timestamp":       c.Timestamp,
		"origin":          vec(c.Origin.X, c.Origin.Y, c.Origin.Z),
		"raw_direction":   vec(c.RawDirection.X, c.RawDirection.Y, c.RawDirection.Z),
		"raw_valid":       c.RawValid,
		"error_direction": vec(c.ErrorDirection.X, c.ErrorDirection.Y, c.ErrorDirection.Z),
		"error_valid":     c.ErrorValid,
		"accuracy_deg":    c.Settings.AccuracyMagnitudeDeg,
		"precision_deg":   c.Settings.PrecisionMagnitudeDeg,
		"data_loss":       c.Settings.DataLossProbability,
	}
}

func vec(x, y, z float64) common.MapStr {
	return common.MapStr{"x": x, "y": y, "z": z}
}

func defaultConfig() pkgconfig.Config {
	return pkgconfig.Config{
		SampleRate: 120,
		Mode:       "none",
		Trackers: pkgconfig.TrackersConfig{
			Primary: []pkgconfig.Tracker{{Kind: "camera"}},
		},
		Quality: pkgconfig.QualityConfig{LogInterval: "10s"},
	}
}
