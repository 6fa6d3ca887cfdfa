package config

const (
	// EnvPrefix namespaces every Traderow environment variable.
	EnvPrefix = "TRADEROW"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "TRADEROW_DB_DSN"
	EnvDBHost = "TRADEROW_DB_HOST"
	EnvDBUser = "TRADEROW_DB_USER"
	EnvDBName = "TRADEROW_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
