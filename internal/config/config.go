package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/shiwa/gaze-error-injector/internal/bridge"
	"github.com/shiwa/gaze-error-injector/internal/engine"
	"github.com/shiwa/gaze-error-injector/internal/gaze"
)

// Config — конфигурация gaze-inject
type Config struct {
	SampleRate int    `yaml:"sample_rate"` // тиков в секунду
	Mode       string `yaml:"mode"`        // none, independent, dependent
	Seed       uint64 `yaml:"seed"`        // 0 — засев от времени

	Gaze     gaze.ChannelErrorSettings `yaml:"gaze"`
	LeftEye  gaze.ChannelErrorSettings `yaml:"left_eye"`
	RightEye gaze.ChannelErrorSettings `yaml:"right_eye"`

	Trackers TrackersConfig `yaml:"trackers"`
	HTTP     HTTPConfig     `yaml:"http"`
	Record   RecordConfig   `yaml:"record"`
	Quality  QualityConfig  `yaml:"quality"`
}

// TrackersConfig — primary/secondary трекеры (выбор: сначала primary, затем secondary)
type TrackersConfig struct {
	Primary   []Tracker `yaml:"primary"`
	Secondary []Tracker `yaml:"secondary"`
}

// Tracker — один трекер (kind: none, camera, serial, replay, sranipal, varjo, hololens2, questpro)
type Tracker struct {
	Kind    string `yaml:"kind"`
	Disable bool   `yaml:"disable"`

	// serial и вендорские трекеры (пакеты gzp)
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
	// replay
	File string `yaml:"file"`
	Loop bool   `yaml:"loop"`
	// camera: амплитуда синусоидального качания взгляда, градусы
	SweepDeg float64 `yaml:"sweep_deg"`
	// Запуск моста вендорского SDK внутри gaze-inject
	StartBridge bool     `yaml:"start_bridge"`
	BridgePath  string   `yaml:"bridge_path"`
	BridgeArgs  []string `yaml:"bridge_args"`
}

// HTTPConfig — JSON API; пустой listen отключает сервер
type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

// RecordConfig — запись кадров в SQLite; пустой path отключает запись
type RecordConfig struct {
	Path string `yaml:"path"`
}

// QualityConfig — периодический вывод метрик качества потока
type QualityConfig struct {
	LogInterval string `yaml:"log_interval"`
}

// envOverrides — переменные окружения поверх YAML
type envOverrides struct {
	SampleRate int    `env:"GAZE_SAMPLE_RATE"`
	Mode       string `env:"GAZE_MODE"`
	Seed       uint64 `env:"GAZE_SEED"`
	Tracker    string `env:"GAZE_TRACKER"`
	HTTPListen string `env:"GAZE_HTTP_LISTEN"`
	RecordPath string `env:"GAZE_RECORD_PATH"`
}

// MaxSampleRate — верхний предел sample_rate, Гц
const MaxSampleRate = 10000

// Default возвращает конфиг по умолчанию: 120 Гц, без ошибки, синтетическая камера.
func Default() *Config {
	return &Config{
		SampleRate: 120,
		Mode:       gaze.ModeNone.String(),
		Trackers: TrackersConfig{
			Primary: []Tracker{{Kind: "camera"}},
		},
		Quality: QualityConfig{
			LogInterval: "10s",
		},
	}
}

// Load читает конфиг из YAML
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&c)
	return &c, nil
}

// ApplyEnv переопределяет поля из переменных окружения GAZE_*. Пустые переменные не трогают конфиг.
func ApplyEnv(c *Config) error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if o.SampleRate != 0 {
		c.SampleRate = o.SampleRate
	}
	if o.Mode != "" {
		c.Mode = o.Mode
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.Tracker != "" {
		c.SetTracker(o.Tracker)
	}
	if o.HTTPListen != "" {
		c.HTTP.Listen = o.HTTPListen
	}
	if o.RecordPath != "" {
		c.Record.Path = o.RecordPath
	}
	return nil
}

// SetTracker заменяет список primary одним трекером kind; настройки устройства
// берутся из первого primary, если он того же вида.
func (c *Config) SetTracker(kind string) {
	t := Tracker{Kind: kind}
	if len(c.Trackers.Primary) > 0 && c.Trackers.Primary[0].Kind == kind {
		t = c.Trackers.Primary[0]
	}
	c.Trackers.Primary = []Tracker{t}
}

// EngineSettings собирает и проверяет настройки движка (режим + три канала).
func (c *Config) EngineSettings() (engine.Settings, error) {
	mode, err := gaze.ParseErrorMode(c.Mode)
	if err != nil {
		return engine.Settings{}, err
	}
	s := engine.Settings{
		Mode:  mode,
		Gaze:  c.Gaze,
		Left:  c.LeftEye,
		Right: c.RightEye,
	}.Normalize()
	if err := s.Validate(); err != nil {
		return engine.Settings{}, err
	}
	return s, nil
}

// Validate проверяет конфиг целиком (частота, режим, настройки каналов).
func (c *Config) Validate() error {
	if c.SampleRate <= 0 || c.SampleRate > MaxSampleRate {
		return fmt.Errorf("sample_rate must be in (0, %d], got %d", MaxSampleRate, c.SampleRate)
	}
	if _, err := c.EngineSettings(); err != nil {
		return err
	}
	if c.Quality.LogInterval != "" {
		if _, err := time.ParseDuration(c.Quality.LogInterval); err != nil {
			return fmt.Errorf("quality.log_interval: %w", err)
		}
	}
	return nil
}

// Interval возвращает период тика 1/sample_rate.
func (c *Config) Interval() time.Duration {
	switch {
	case c.SampleRate <= 0:
		return time.Second / 120
	case c.SampleRate > MaxSampleRate:
		return time.Second / MaxSampleRate
	}
	return time.Second / time.Duration(c.SampleRate)
}

// BridgeJobs возвращает список запусков мостов для трекеров со start_bridge: true.
func (c *TrackersConfig) BridgeJobs() []bridge.Job {
	if c == nil {
		return nil
	}
	var jobs []bridge.Job
	for _, list := range [][]Tracker{c.Primary, c.Secondary} {
		for _, t := range list {
			if t.StartBridge && !t.Disable && t.Device != "" {
				jobs = append(jobs, bridge.Job{Kind: t.Kind, Device: t.Device, Path: t.BridgePath, Args: t.BridgeArgs})
			}
		}
	}
	return jobs
}

func applyDefaults(c *Config) {
	d := Default()
	if c.SampleRate == 0 {
		c.SampleRate = d.SampleRate
	}
	if c.Mode == "" {
		c.Mode = d.Mode
	}
	if len(c.Trackers.Primary) == 0 && len(c.Trackers.Secondary) == 0 {
		c.Trackers.Primary = d.Trackers.Primary
	}
	if c.Quality.LogInterval == "" {
		c.Quality.LogInterval = d.Quality.LogInterval
	}
	for _, list := range [][]Tracker{c.Trackers.Primary, c.Trackers.Secondary} {
		for i := range list {
			t := &list[i]
			if t.Device != "" && t.Baud == 0 {
				t.Baud = 115200
			}
		}
	}
}
