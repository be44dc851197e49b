package config

import "os"

// envPrefix is the prefix of every dxr environment variable.
const envPrefix = "DXR_"

// ApplyEnv overrides settings from DXR_WWWDIR, DXR_VIRTROOT, DXR_HOSTURL and
// DXR_TEMPLATES. Empty variables are ignored.
func ApplyEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	overrides := []struct {
		name  string
		field *string
	}{
		{"WWWDIR", &cfg.WWWDir},
		{"VIRTROOT", &cfg.VirtRoot},
		{"HOSTURL", &cfg.HostURL},
		{"TEMPLATES", &cfg.Templates},
	}
	for _, o := range overrides {
		if value := os.Getenv(envPrefix + o.name); value != "" {
			*o.field = value
		}
	}
}
