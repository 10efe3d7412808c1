// Gazebeat — Beat на базе Elastic Beats v7 (libbeat), публикующий кадры с инъекцией ошибок взгляда.
// Использует gaze-inject: выбор трекера, режимы none / independent / dependent, запись и метрики качества.
package main

import (
	"os"

	"github.com/elastic/beats/v7/libbeat/cmd"
	"github.com/elastic/beats/v7/libbeat/cmd/instance"
	"github.com/shiwa/gaze-error-injector/gazebeat/beater"
)

func main() {
	rootCmd := cmd.GenRootCmdWithSettings(beater.New, instance.Settings{
		Name: "gazebeat",
	})
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
