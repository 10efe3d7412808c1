// Package logger — единый вывод логов gaze-inject с префиксом и учётом quiet.
package logger

import "log"

// Quiet при true отключает информационные сообщения (Info); Error выводится всегда.
var Quiet bool

// Info выводит сообщение с префиксом "gaze-inject: ", если Quiet == false.
func Info(format string, args ...interface{}) {
	if Quiet {
		return
	}
	log.Printf("gaze-inject: "+format, args...)
}

// Error выводит сообщение об ошибке с префиксом "gaze-inject: " всегда.
func Error(format string, args ...interface{}) {
	log.Printf("gaze-inject: "+format, args...)
}
