package config

// Default locations. ConfigPath is tried first; FallbackConfigPath is relative
// to the working directory.
const (
	ConfigPath         = "/usr/local/etc/fika/config.yaml"
	FallbackConfigPath = "config.yaml"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/fika/data/db/fika.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/fika/data/indices/records"
	}
	if cfg.Storage.ImageDir == "" {
		cfg.Storage.ImageDir = "/usr/local/var/fika/data/images"
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = ProviderGemini
	}
	if cfg.AI.APIKeyEnv == "" {
		cfg.AI.APIKeyEnv = "GEMINI_API_KEY"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "gemini-1.5-flash"
	}
	if cfg.AI.VisionModel == "" {
		cfg.AI.VisionModel = cfg.AI.Model
	}
	if cfg.AI.Temperature == 0 {
		cfg.AI.Temperature = 0.4
	}
	if cfg.AI.MaxOutputTokens == 0 {
		cfg.AI.MaxOutputTokens = 2048
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 60
	}
	if cfg.Summary.Timezone == "" {
		cfg.Summary.Timezone = "Local"
	}
	if cfg.Summary.MaxPeriodDays == 0 {
		cfg.Summary.MaxPeriodDays = 366
	}
	if cfg.Render.CacheSize == 0 {
		cfg.Render.CacheSize = 64
	}
	if cfg.Render.DefaultStyle == "" {
		cfg.Render.DefaultStyle = "simple"
	}
	if cfg.Inbox.Directory == "" {
		cfg.Inbox.Directory = "/usr/local/var/fika/inbox"
	}
	if cfg.Inbox.Extensions == nil {
		cfg.Inbox.Extensions = []string{".jpg", ".jpeg", ".png", ".webp"}
	}
}
