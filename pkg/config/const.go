package config

const (
	// EnvPrefix is passed to envconfig; variables are addressed by their
	// explicit envconfig tags, so the prefix stays empty.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "ZAIKO_DB_DSN"
	EnvDBHost = "ZAIKO_DB_HOST"
	EnvDBUser = "ZAIKO_DB_USER"
	EnvDBName = "ZAIKO_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
