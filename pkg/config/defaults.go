package config

const (
	EnvConfigPath     = "CONFIG_PATH"
	DefaultConfigPath = "./.env"

	StoreMongo    = "mongo"
	StorePostgres = "postgres"

	DefaultTemplateSeparator = " | "
)
