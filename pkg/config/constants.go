package config

const (
	// EnvPrefix is intentionally empty; every field carries a fully
	// qualified ZAPKART_ tag so the mapping stays greppable.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "ZAPKART_DB_DSN"
	EnvDBHost = "ZAPKART_DB_HOST"
	EnvDBUser = "ZAPKART_DB_USER"
	EnvDBName = "ZAPKART_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

const (
	// DocstoreBackendFirestore selects the managed Firestore backend.
	DocstoreBackendFirestore = "firestore"
	// DocstoreBackendMemory selects the in-process backend for dev and tests.
	DocstoreBackendMemory = "memory"
)
