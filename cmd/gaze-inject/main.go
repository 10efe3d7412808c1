// gaze-inject — движок инъекции ошибок взгляда: берёт сырые кадры айтрекера и с частотой
// sample_rate публикует кадры с добавленной ошибкой точности, шумом и потерями данных.
//
//   - Конфиг YAML (gaze-inject.yml), переменные окружения GAZE_*, флаги поверх
//   - Трекеры: camera (синтетический), serial, replay, sranipal/varjo/hololens2/questpro (через мост)
//   - Выбор трекера (primary → secondary), режимы none / independent / dependent
//   - HTTP JSON API, запись кадров в SQLite, метрики качества потока
//
// Использование:
//
//	gaze-inject -run -config gaze-inject.yml        — запуск daemon
//	gaze-inject -emit session.gzp -frames 1200      — записать синтетические кадры для replay
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/shiwa/gaze-error-injector/internal/config"
	"github.com/shiwa/gaze-error-injector/internal/logger"
	"github.com/shiwa/gaze-error-injector/internal/tracker"
	"github.com/shiwa/gaze-error-injector/pkg/gazeinject"
)

func main() {
	run := flag.Bool("run", false, "запуск daemon: выбор трекера + инъекция ошибок")
	configPath := flag.String("config", "", "путь к YAML конфигу (по умолчанию gaze-inject.yml)")
	trackerKind := flag.String("tracker", "", "вид трекера primary: "+tracker.KindNames()+" (переопределяет config)")
	mode := flag.String("mode", "", "режим: none, independent, dependent (переопределяет config)")
	rate := flag.Int("rate", 0, "частота тиков, Гц (переопределяет config)")
	seed := flag.Uint64("seed", 0, "seed генератора (0 — от времени)")
	listen := flag.String("http", "", "адрес HTTP API, например :8088")
	record := flag.String("record", "", "путь к базе SQLite для записи кадров")
	emit := flag.String("emit", "", "записать синтетические кадры камеры в файл и выйти")
	frames := flag.Int("frames", 1200, "число кадров для -emit")
	sweep := flag.Float64("sweep", 5, "амплитуда качания взгляда для -emit, градусы")
	quiet := flag.Bool("quiet", false, "меньше вывода")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if err := config.ApplyEnv(cfg); err != nil {
		log.Fatalf("config: %v", err)
	}

	if *trackerKind != "" {
		cfg.SetTracker(*trackerKind)
	}
	if *mode != "" {
		cfg.Mode = *mode
	}
	if *rate > 0 {
		cfg.SampleRate = *rate
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *listen != "" {
		cfg.HTTP.Listen = *listen
	}
	if *record != "" {
		cfg.Record.Path = *record
	}

	if *emit != "" {
		runEmit(*emit, *frames, cfg.SampleRate, *sweep, *quiet)
		return
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	if *run {
		logger.Quiet = *quiet
		runDaemonWithShutdown(cfg, *quiet)
		return
	}

	if !*quiet {
		fmt.Println("gaze-inject: для daemon используйте -run (и -config), для записи кадров -emit <file>.")
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = "gaze-inject.yml"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	return config.Load(path)
}

func runEmit(path string, frames, rate int, sweep float64, quiet bool) {
	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("создание %s: %v", path, err)
	}
	if err := tracker.WriteSynthetic(f, frames, rate, sweep); err != nil {
		f.Close()
		log.Fatalf("запись кадров: %v", err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("закрытие %s: %v", path, err)
	}
	if !quiet {
		fmt.Printf("Записано %d кадров (%d Гц, качание %.1f°) в %s\n", frames, rate, sweep, path)
	}
}

// runDaemonWithShutdown запускает цикл через gazeinject.RunDaemon с контекстом;
// по SIGINT/SIGTERM контекст отменяется, мосты и трекеры корректно останавливаются.
func runDaemonWithShutdown(cfg *config.Config, quiet bool) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("получен сигнал %v, завершение...", sig)
		cancel()
	}()

	pkgCfg := gazeinject.ToPkgConfig(cfg)
	if err := gazeinject.RunDaemon(ctx, pkgCfg, quiet); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("%v", err)
	}
}
