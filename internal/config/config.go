// Package config loads litfetch settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/henrybloomingdale/litfetch/internal/eutils"
)

// Prefix is prepended to every variable name. Only the API key is also
// read unprefixed, as NCBI_API_KEY.
const Prefix = "LITFETCH"

// APIKeyEnv is the unprefixed API key variable shared with other NCBI tools.
const APIKeyEnv = "NCBI_API_KEY"

// Config holds every setting the CLI reads from the environment. Field
// names map to LITFETCH_<SPLIT_WORDS>; nothing but the API key falls back
// to an unprefixed name.
type Config struct {
	APIKey string `ignored:"true"`

	EutilsURL    string `split_words:"true" default:"https://eutils.ncbi.nlm.nih.gov/entrez/eutils"`
	PubmedWebURL string `split_words:"true" default:"https://pubmed.ncbi.nlm.nih.gov/"`
	EpmcURL      string `split_words:"true" default:"https://www.ebi.ac.uk/europepmc/webservices/rest/search"`

	Tool  string
	Email string

	Database   string `default:"pubmed"`
	OpenAccess bool   `split_words:"true" default:"false"`

	LogLevel string `split_words:"true" default:"info"`
	LogJSON  bool   `split_words:"true" default:"false"`
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the process environment only.
func FromEnv() (*Config, error) {
	var c Config
	if err := envconfig.Process(Prefix, &c); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	c.APIKey = lookupAPIKey()
	if _, err := eutils.ParseDatabase(c.Database); err != nil {
		return nil, fmt.Errorf("%s_DATABASE: %w", Prefix, err)
	}
	return &c, nil
}

// lookupAPIKey prefers LITFETCH_NCBI_API_KEY and falls back to NCBI_API_KEY.
func lookupAPIKey() string {
	if v, ok := os.LookupEnv(Prefix + "_" + APIKeyEnv); ok {
		return v
	}
	return os.Getenv(APIKeyEnv)
}

// QueryContext converts the settings into an eutils.QueryContext.
func (c *Config) QueryContext() (eutils.QueryContext, error) {
	db, err := eutils.ParseDatabase(c.Database)
	if err != nil {
		return eutils.QueryContext{}, err
	}
	return eutils.QueryContext{
		APIKey:         c.APIKey,
		OpenAccessOnly: c.OpenAccess,
		Database:       db,
	}, nil
}
