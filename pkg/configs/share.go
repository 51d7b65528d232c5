package configs

import "github.com/spf13/viper"

const (
	// DefaultDownloadURLTTL 下载直链有效期（秒）。按页面渲染即时签发，窗口给短，
	// 降低 URL 泄露后的重放价值.
	DefaultDownloadURLTTL = 60
	// DefaultUploadURLTTL 上传直链有效期（秒）。大文件直传需要更长的窗口.
	DefaultUploadURLTTL = 600
	// DefaultTokenBytes 分享 token 的随机字节数（base64url 编码后约 12 字符）.
	DefaultTokenBytes = 9
	// DefaultArchivePrefetch 打包下载生产者预取的对象条目数上限.
	DefaultArchivePrefetch = 2
)

// ShareConfig 分享链接与签名 URL 相关配置.
type ShareConfig struct {
	// DownloadURLTTLSeconds 单张照片下载直链的有效期（秒）
	DownloadURLTTLSeconds int `mapstructure:"download_url_ttl_seconds" rule:"min=10,max=600"`
	// UploadURLTTLSeconds 上传直链的有效期（秒）
	UploadURLTTLSeconds int `mapstructure:"upload_url_ttl_seconds" rule:"min=60,max=3600"`
	// TokenBytes 分享 token 的随机字节数
	TokenBytes int `mapstructure:"token_bytes" rule:"min=8,max=32"`
	// ArchivePrefetch 打包下载时生产者最多领先消费者的条目数
	ArchivePrefetch int `mapstructure:"archive_prefetch" rule:"min=1,max=16"`
}

func (c *ShareConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("share.download_url_ttl_seconds", DefaultDownloadURLTTL)
	v.SetDefault("share.upload_url_ttl_seconds", DefaultUploadURLTTL)
	v.SetDefault("share.token_bytes", DefaultTokenBytes)
	v.SetDefault("share.archive_prefetch", DefaultArchivePrefetch)
}
