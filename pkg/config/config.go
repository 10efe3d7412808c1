// Package config предоставляет конфигурацию gaze-inject для использования из Beat и других модулей.
// Формат совпадает с gaze-inject.yml; неизвестные ключи игнорируются.
package config

// Config — конфигурация движка инъекции ошибок взгляда.
type Config struct {
	SampleRate int            `yaml:"sample_rate" config:"sample_rate"`
	Mode       string         `yaml:"mode" config:"mode"`
	Seed       uint64         `yaml:"seed" config:"seed"`
	Gaze       ChannelConfig  `yaml:"gaze" config:"gaze"`
	LeftEye    ChannelConfig  `yaml:"left_eye" config:"left_eye"`
	RightEye   ChannelConfig  `yaml:"right_eye" config:"right_eye"`
	Trackers   TrackersConfig `yaml:"trackers" config:"trackers"`
	HTTP       HTTPConfig     `yaml:"http" config:"http"`
	Record     RecordConfig   `yaml:"record" config:"record"`
	Quality    QualityConfig  `yaml:"quality" config:"quality"`
}

// ChannelConfig — настройки ошибки одного канала (углы в градусах).
type ChannelConfig struct {
	AccuracyDirectionDeg  float64 `yaml:"accuracy_direction_deg" config:"accuracy_direction_deg"`
	AccuracyMagnitudeDeg  float64 `yaml:"accuracy_magnitude_deg" config:"accuracy_magnitude_deg"`
	PrecisionMode         string  `yaml:"precision_mode" config:"precision_mode"` // uniform, gaussian
	PrecisionMagnitudeDeg float64 `yaml:"precision_magnitude_deg" config:"precision_magnitude_deg"`
	DataLossProbability   float64 `yaml:"data_loss_probability" config:"data_loss_probability"`
}

// TrackersConfig — primary и secondary трекеры.
type TrackersConfig struct {
	Primary   []Tracker `yaml:"primary" config:"primary"`
	Secondary []Tracker `yaml:"secondary" config:"secondary"`
}

// Tracker — один трекер (поля как в gaze-inject.yml).
type Tracker struct {
	Kind        string   `yaml:"kind" config:"kind"`
	Disable     bool     `yaml:"disable" config:"disable"`
	Device      string   `yaml:"device" config:"device"`
	Baud        int      `yaml:"baud" config:"baud"`
	File        string   `yaml:"file" config:"file"`
	Loop        bool     `yaml:"loop" config:"loop"`
	SweepDeg    float64  `yaml:"sweep_deg" config:"sweep_deg"`
	StartBridge bool     `yaml:"start_bridge" config:"start_bridge"`
	BridgePath  string   `yaml:"bridge_path" config:"bridge_path"`
	BridgeArgs  []string `yaml:"bridge_args" config:"bridge_args"`
}

// HTTPConfig — адрес JSON API.
type HTTPConfig struct {
	Listen string `yaml:"listen" config:"listen"`
}

// RecordConfig — путь к базе SQLite для записи кадров.
type RecordConfig struct {
	Path string `yaml:"path" config:"path"`
}

// QualityConfig — период вывода метрик качества.
type QualityConfig struct {
	LogInterval string `yaml:"log_interval" config:"log_interval"`
}
