package config

// Version is the wifimap binary version.
// Set at build time via: -ldflags "-X github.com/persistorai/wifimap/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"
