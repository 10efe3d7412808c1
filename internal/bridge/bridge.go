// Package bridge запускает процессы-мосты вендорских SDK трекеров (SRanipal, Varjo, HoloLens 2,
// Quest Pro) как дочерние процессы и останавливает их при выходе. Мост пишет пакеты gzp в
// последовательный порт (или pty), который читает трекер serial.
package bridge

import (
	"log"
	"os/exec"
	"sync"

	"github.com/shiwa/gaze-error-injector/internal/logger"
)

// Job — один запуск моста (одно устройство).
type Job struct {
	Kind   string   // вендор: sranipal, varjo, hololens2, questpro
	Device string   // --device /dev/ttyGZ0
	Path   string   // путь к мосту (по умолчанию "gaze-bridge-<kind>")
	Args   []string // доп. аргументы
}

// Command возвращает путь и аргументы процесса для job.
func (j Job) Command() (string, []string) {
	path := j.Path
	if path == "" {
		path = "gaze-bridge-" + j.Kind
	}
	args := make([]string, 0, 2+len(j.Args))
	args = append(args, "--device", j.Device)
	args = append(args, j.Args...)
	return path, args
}

// Start запускает мост для каждого job. Одно устройство — один процесс (дубликаты по device отбрасываются).
// Возвращает функцию stop(), которую нужно вызвать при выходе (останавливает все процессы).
func Start(jobs []Job, quiet bool) (stop func()) {
	if len(jobs) == 0 {
		return func() {}
	}
	var cmds []*exec.Cmd
	for _, j := range Dedup(jobs) {
		path, args := j.Command()
		cmd := exec.Command(path, args...)
		if !quiet {
			cmd.Stdout = log.Writer()
			cmd.Stderr = log.Writer()
		}
		if err := cmd.Start(); err != nil {
			logger.Error("bridge start %s %s: %v", j.Kind, j.Device, err)
			continue
		}
		cmds = append(cmds, cmd)
		logger.Info("bridge started: %s --device %s", path, j.Device)
	}
	var once sync.Once
	stop = func() {
		once.Do(func() {
			for _, cmd := range cmds {
				if cmd.Process != nil {
					_ = cmd.Process.Kill()
					_ = cmd.Wait()
				}
			}
		})
	}
	return stop
}

// Dedup оставляет первый job на каждое устройство, сохраняя порядок; job без устройства отбрасывается.
func Dedup(jobs []Job) []Job {
	seen := make(map[string]bool)
	var out []Job
	for _, j := range jobs {
		if j.Device == "" || seen[j.Device] {
			continue
		}
		seen[j.Device] = true
		out = append(out, j)
	}
	return out
}
