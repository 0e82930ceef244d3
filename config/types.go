package config

// Storage tunes the LevelDB backend.
type Storage struct {
	CacheMB int `toml:"CacheMB"`
	Handles int `toml:"Handles"`
}

// Multisig captures the approval policy written at initialisation.
// ValidityPeriod is a Go duration string; "0s" disables expiry.
type Multisig struct {
	ApprovalThreshold uint32 `toml:"ApprovalThreshold"`
	ValidityPeriod    string `toml:"ValidityPeriod"`
}

// Logging controls the structured logger and its optional rotating file.
type Logging struct {
	Level      string `toml:"Level"`
	Env        string `toml:"Env"`
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
	Compress   bool   `toml:"Compress"`
}

// Telemetry configures the OTLP exporters.
type Telemetry struct {
	Endpoint string `toml:"Endpoint"`
	Insecure bool   `toml:"Insecure"`
	Headers  string `toml:"Headers"`
	Metrics  bool   `toml:"Metrics"`
	Traces   bool   `toml:"Traces"`
}

// Audit selects the event store. An empty DSN disables it; "sqlite://<path>"
// and "postgres://..." select the driver.
type Audit struct {
	DSN string `toml:"DSN"`
}

// Keystore locates operator keys.
type Keystore struct {
	Dir           string `toml:"Dir"`
	PassphraseEnv string `toml:"PassphraseEnv"`
}

// Webhook forwards committed events to an HTTP endpoint. An empty URL
// disables delivery. The HMAC secret is read from SecretEnv. RatePerSecond
// throttles delivery attempts; zero leaves them unthrottled.
type Webhook struct {
	URL           string  `toml:"URL"`
	SecretEnv     string  `toml:"SecretEnv"`
	MaxAttempts   int     `toml:"MaxAttempts"`
	RatePerSecond float64 `toml:"RatePerSecond"`
	Burst         int     `toml:"Burst"`
}
