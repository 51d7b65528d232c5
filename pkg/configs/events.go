package configs

import "github.com/spf13/viper"

// EventsConfig 控制事件发布的开关（全局与分主题）。
type EventsConfig struct {
	Enabled bool              `mapstructure:"enabled"` // 总开关
	Photo   PhotoEventsConfig `mapstructure:"photo"`
	Share   ShareEventsConfig `mapstructure:"share"`
}

// PhotoEventsConfig 针对照片对象领域的事件开关。
type PhotoEventsConfig struct {
	Stored     bool `mapstructure:"stored"`
	Deleted    bool `mapstructure:"deleted"`
	Downloaded bool `mapstructure:"downloaded"`
}

// ShareEventsConfig 针对分享链接领域的事件开关。
type ShareEventsConfig struct {
	Created bool `mapstructure:"created"`
	Deleted bool `mapstructure:"deleted"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	// 总开关：默认启用事件系统
	v.SetDefault("events.enabled", true)

	// 照片领域：默认开启最小必要集
	v.SetDefault("events.photo.stored", true)
	v.SetDefault("events.photo.deleted", true)
	// 下载事件用于配额统计与分析，默认开启
	v.SetDefault("events.photo.downloaded", true)

	// 分享领域
	v.SetDefault("events.share.created", true)
	v.SetDefault("events.share.deleted", true)
}
