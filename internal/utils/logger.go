package utils

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// init configures the global logger when the package is imported.
func init() {
	log.SetFormatter(&log.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
}

// SetLogLevel applies a level name such as "debug" or "warn".  Unknown
// names leave the current level in place and are reported.
func SetLogLevel(name string) {
	lvl, err := log.ParseLevel(name)
	if err != nil {
		log.WithField("level", name).Warn("unknown log level, keeping current")
		return
	}
	log.SetLevel(lvl)
}
