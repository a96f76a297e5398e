package logger

import (
	"github.com/sirupsen/logrus"
)

var Log *logrus.Logger

// Init инициализирует структурированный логгер.
func Init(level string) {
	Log = logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	// JSON формат для production, text для development
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

// Integrity логирует нарушение инварианта балансов. Такие события означают
// расхождение данных и должны попадать в алертинг, поэтому всегда уровень Error.
func Integrity(fields logrus.Fields, msg string) {
	if Log == nil {
		Init("error")
	}
	fields["alert"] = "data_integrity"
	Log.WithFields(fields).Error(msg)
}
