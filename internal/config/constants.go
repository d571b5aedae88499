// internal/config/constants.go
package config

// アプリケーション情報
const (
	AppName    = "course-keep"
	AppVersion = "1.0.0"
)

// デフォルト設定値
const (
	DefaultServerPort       = ":8080"
	DefaultLogLevel         = "info"
	DefaultJWTExpiryMinutes = 60
)
