package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"4242"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// NCBI E-Utilities. Email und Tool sind laut Usage-Policy Pflicht.
	EntrezBaseURL string `envconfig:"ENTREZ_BASE_URL" default:"https://eutils.ncbi.nlm.nih.gov/entrez/eutils"`
	EntrezAPIKey  string `envconfig:"ENTREZ_API_KEY"`
	EntrezEmail   string `envconfig:"ENTREZ_EMAIL" required:"true"`
	EntrezTool    string `envconfig:"ENTREZ_TOOL" default:"pubtrack"`
	EntrezRetMax  int    `envconfig:"ENTREZ_RETMAX" default:"200"`

	// NIH RePORTER für Funding Awards.
	ReporterBaseURL string `envconfig:"REPORTER_BASE_URL" default:"https://api.reporter.nih.gov"`
	GrantsEnabled   bool   `envconfig:"GRANTS_ENABLED" default:"true"`

	// Retry-Verhalten des gemeinsamen HTTP-Clients.
	HTTPTimeout    time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	RetryAttempts  int           `envconfig:"RETRY_ATTEMPTS" default:"7"`
	RetryBaseDelay time.Duration `envconfig:"RETRY_BASE_DELAY" default:"500ms"`

	// Pause zwischen Provider-Anfragen (Politeness).
	RequestPause time.Duration `envconfig:"REQUEST_PAUSE" default:"400ms"`

	// Matching-Politik.
	DefaultInstitution       string `envconfig:"DEFAULT_INSTITUTION" default:"university of minnesota"`
	ValidateAffiliations     bool   `envconfig:"VALIDATE_AFFILIATIONS" default:"true"`
	MatchInitials            bool   `envconfig:"MATCH_INITIALS" default:"false"`
	AcceptUnknownAffiliation bool   `envconfig:"ACCEPT_UNKNOWN_AFFILIATION" default:"true"`

	// Explizite Fenstergrenzen. Leerer Start fällt auf das Tenure-Datum
	// des jeweiligen Researchers zurück, leeres Ende auf "jetzt".
	WindowStart string `envconfig:"WINDOW_START"` // YYYY-MM-DD
	WindowEnd   string `envconfig:"WINDOW_END"`   // YYYY-MM-DD

	RosterPath     string `envconfig:"ROSTER_PATH" default:"data/roster.csv"`
	LegacySeedPath string `envconfig:"LEGACY_SEED_PATH" default:"data/curation_seed.json"`
	OutputPath     string `envconfig:"OUTPUT_PATH" default:"data/publications.json"`

	TopN int `envconfig:"SIGNALS_TOP_N" default:"10"`

	CronSchedule string `envconfig:"CRON_SCHEDULE" default:"0 4 * * *"`
	RunOnStart   bool   `envconfig:"RUN_ON_START" default:"false"`

	// Optionaler S3-Upload des fertigen Datasets.
	S3Enabled bool   `envconfig:"S3_ENABLED" default:"false"`
	S3Key     string `envconfig:"S3_KEY"`
	S3Secret  string `envconfig:"S3_SECRET"`
	S3URL     string `envconfig:"S3_URL"`
	S3Region  string `envconfig:"S3_REGION"`
	S3Bucket  string `envconfig:"S3_BUCKET"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
