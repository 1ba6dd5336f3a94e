package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"
)

type Config struct {
	Port            int
	DatabaseURL     string
	DatabaseType    string
	AuditKeySalt    string
	CatalogDir      string
	WatchCatalog    bool
	EvidenceDir     string
	EvidenceBaseURL string
	Unweighted      bool
}

// ParseFlags validates flags and sets port number
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("rag-audit", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Catalog and evidence storage
	fs.StringVar(&cfg.CatalogDir, "catalog", "", "Directory of checklist template YAML files")
	fs.BoolVar(&cfg.WatchCatalog, "watch", false, "Reload catalog when template files change")
	fs.StringVar(&cfg.EvidenceDir, "evidence", "", "Directory for uploaded evidence photos")
	fs.StringVar(&cfg.EvidenceBaseURL, "evidence-url", "", "Base URL evidence files are served under")
	fs.BoolVar(&cfg.Unweighted, "unweighted", false, "Score every question with weight 1")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AuditKeySalt, "audit-salt", "", "Audit key salt (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}

	if cfg.CatalogDir == "" {
		cfg.CatalogDir = os.Getenv("CATALOG_DIR")
		if cfg.CatalogDir == "" {
			cfg.CatalogDir = "templates"
		}
	}
	if !cfg.WatchCatalog {
		cfg.WatchCatalog = os.Getenv("WATCH_CATALOG") == "true"
	}

	if cfg.EvidenceDir == "" {
		cfg.EvidenceDir = os.Getenv("EVIDENCE_DIR")
		if cfg.EvidenceDir == "" {
			cfg.EvidenceDir = "evidence"
		}
	}
	if cfg.EvidenceBaseURL == "" {
		cfg.EvidenceBaseURL = os.Getenv("EVIDENCE_BASE_URL")
		if cfg.EvidenceBaseURL == "" {
			cfg.EvidenceBaseURL = "/evidence"
		}
	}

	if !cfg.Unweighted {
		cfg.Unweighted = os.Getenv("UNWEIGHTED_SCORING") == "true"
	}

	// Secrets - MUST be provided
	if cfg.AuditKeySalt == "" {
		cfg.AuditKeySalt = os.Getenv("AUDIT_KEY_SALT")
	}
	if cfg.AuditKeySalt == "" {
		return Config{}, errors.New("AUDIT_KEY_SALT required")
	}

	return cfg, nil
}
