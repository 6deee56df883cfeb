package logger

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	Log      *logrus.Logger
	fallback sync.Once
)

// Init инициализирует структурированный логгер.
func Init(level string) {
	Log = logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	// Используем JSON формат для production, text для development
	Log.SetFormatter(&logrus.JSONFormatter{})
}

// SetTextFormatter устанавливает текстовый формат логов (для development).
func SetTextFormatter() {
	if Log != nil {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}

// AddFileOutput дублирует логи в файл с ротацией.
func AddFileOutput(path string) {
	if Log == nil || path == "" {
		return
	}

	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    128, // MB
		MaxAge:     30,
		MaxBackups: 30,
		Compress:   true,
	}
	Log.SetOutput(io.MultiWriter(os.Stdout, rotator))
}

// L возвращает логгер, создавая дефолтный при необходимости (удобно в тестах).
func L() *logrus.Logger {
	fallback.Do(func() {
		if Log == nil {
			Init("info")
		}
	})
	return Log
}
