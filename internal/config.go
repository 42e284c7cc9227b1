package internal

// Config carries the engine knobs shared by the binaries. Values come from
// the environment first, an optional config file fills the gaps.
type Config struct {
	DataDir          string `env:"DATA_DIR"`
	LogLevel         string `env:"LOG_LEVEL,default=INFO"`
	MessageRetention int    `env:"MESSAGE_RETENTION,default=200"`
}
