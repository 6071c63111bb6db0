package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("config",
	fx.Provide(NewViper),
	fx.Provide(Load),
)

// WatchChanges logs edits to the config file. Running components keep the
// values they were built with; a restart is needed to apply them.
func WatchChanges(v *viper.Viper, log *zap.Logger) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Warn("config file changed, restart to apply",
			zap.String("file", e.Name),
			zap.String("op", e.Op.String()))
	})
	v.WatchConfig()
}
