package config

import (
	"PTalk/logger"
	"PTalk/tools/errs"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch re-reads the file at path whenever it changes and hands every valid
// result to onChange. An edit that fails to decode or validate is logged and
// skipped. Most settings are bound at startup; callers apply only what can
// change live.
func Watch(path string, onChange func(*AppConfig)) error {
	if path == "" {
		return errs.ErrValidation.WrapMsg("nothing to watch: no config file")
	}
	v, err := newViper(path)
	if err != nil {
		return err
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		c, err := decode(v)
		if err != nil {
			logger.Warn("[Config] reload rejected", zap.String("file", e.Name), zap.Error(err))
			return
		}
		logger.Info("[Config] reloaded", zap.String("file", e.Name), zap.String("op", e.Op.String()))
		onChange(c)
	})
	v.WatchConfig()
	return nil
}
