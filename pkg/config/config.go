package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Pricing      PricingConfig
	Docstore     DocstoreConfig
	Cache        CacheConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	GoogleMaps   GoogleMapsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ZAPKART_APP_ENV" required:"true"`
	Port         string `envconfig:"ZAPKART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ZAPKART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ZAPKART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ZAPKART_DB_DSN"`
	Driver string `envconfig:"ZAPKART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ZAPKART_DB_HOST"`
	LegacyPort     int    `envconfig:"ZAPKART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ZAPKART_DB_USER"`
	LegacyPassword string `envconfig:"ZAPKART_DB_PASSWORD"`
	LegacyName     string `envconfig:"ZAPKART_DB_NAME"`
	LegacySSLMode  string `envconfig:"ZAPKART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ZAPKART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ZAPKART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ZAPKART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ZAPKART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ZAPKART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ZAPKART_REDIS_ADDR"`
	Password     string        `envconfig:"ZAPKART_REDIS_PASSWORD"`
	DB           int           `envconfig:"ZAPKART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ZAPKART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ZAPKART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ZAPKART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ZAPKART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ZAPKART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig describes how tokens minted by the external identity service are
// verified. This service never issues tokens itself.
type JWTConfig struct {
	Secret string `envconfig:"ZAPKART_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"ZAPKART_JWT_ISSUER" required:"true"`
}

// PricingConfig carries the storefront pricing constants. Rates and amounts are
// decimals so the calculator never touches binary floats.
type PricingConfig struct {
	TaxRate               decimal.Decimal `envconfig:"ZAPKART_PRICING_TAX_RATE" default:"0.08"`
	FreeShippingThreshold decimal.Decimal `envconfig:"ZAPKART_PRICING_FREE_SHIPPING_THRESHOLD" default:"500"`
	FlatShippingFee       decimal.Decimal `envconfig:"ZAPKART_PRICING_FLAT_SHIPPING_FEE" default:"50"`
}

type DocstoreConfig struct {
	Backend            string `envconfig:"ZAPKART_DOCSTORE_BACKEND" default:"firestore"`
	CartCollection     string `envconfig:"ZAPKART_DOCSTORE_CART_COLLECTION" default:"carts"`
	WishlistCollection string `envconfig:"ZAPKART_DOCSTORE_WISHLIST_COLLECTION" default:"wishlists"`
	AddressCollection  string `envconfig:"ZAPKART_DOCSTORE_ADDRESS_COLLECTION" default:"addresses"`
}

type CacheConfig struct {
	SnapshotTTL time.Duration `envconfig:"ZAPKART_CACHE_SNAPSHOT_TTL" default:"72h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ZAPKART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ZAPKART_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ZAPKART_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"ZAPKART_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"ZAPKART_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"ZAPKART_PUBSUB_ORDERS_TOPIC" default:"zk-order-events"`
	OrdersSubscription string `envconfig:"ZAPKART_PUBSUB_ORDERS_SUBSCRIPTION"`
}

type GoogleMapsConfig struct {
	APIKey     string `envconfig:"ZAPKART_GOOGLE_MAPS_API_KEY"`
	RegionCode string `envconfig:"ZAPKART_GOOGLE_MAPS_REGION" default:"IN"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
