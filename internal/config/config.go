package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations and costs.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time‑to‑live in minutes
	RefreshTTLDays int    // refresh token time‑to‑live in days
	BcryptCost     int    // bcrypt cost for password hashing

	// Ownership policy knobs.
	MaxUserOwnershipPct float64 // per-user ownership cap, percent of a song
	PriceSlope          float64 // price bump factor applied per confirmed purchase

	// Payment provider.
	PaymentBaseURL string // base URL of the payment provider API
	PaymentAPIKey  string // bearer key for the payment provider

	// Message broker.
	RabbitURL string // AMQP connection string (optional, has a local default)

	// Solana minting.  All three must be set together; when SolanaRPC is
	// empty the mint worker is not started.
	SolanaRPC      string // RPC endpoint
	SolanaFeePayer string // base58 private key of the fee payer / mint authority
	SolanaMint     string // SPL mint for ownership proofs
	SolanaCustody  string // custody token account receiving minted proofs
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),  // environment (dev/test/prod)
		Port:           must("APP_PORT"), // port to bind the HTTP server
		DBUser:         must("DB_USER"),  // database user
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		MaxUserOwnershipPct: envFloat("MAX_USER_OWNERSHIP_PCT", 25),
		PriceSlope:          envFloat("PRICE_SLOPE", 0.05),

		PaymentBaseURL: must("PAYMENT_BASE_URL"),
		PaymentAPIKey:  must("PAYMENT_API_KEY"),

		RabbitURL: os.Getenv("RABBITMQ_URL"),

		SolanaRPC:      os.Getenv("SOLANA_RPC_URL"),
		SolanaFeePayer: os.Getenv("SOLANA_FEE_PAYER_KEY"),
		SolanaMint:     os.Getenv("SOLANA_SHARE_MINT"),
		SolanaCustody:  os.Getenv("SOLANA_CUSTODY_ACCOUNT"),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// envFloat reads an optional float variable with a default.
func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Fatalf("invalid float for %s: %q", key, v)
	}
	return f
}
