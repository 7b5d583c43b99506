// Package config defines the explicit configuration surface (spec §9
// "Configuration"): an explicit struct of recognized keys populated from
// environment variables, with no ambient configuration.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sparsekv/smtkv/pkg/store"
)

// Config holds every recognized setting (spec §9).
type Config struct {
	MongoDBURI           string
	ListenPort           uint16
	DefaultContractID    *store.ContractID
	AllowDefaultContract bool
	EnableCORS           bool
	TestCollectionID     *store.ContractID
}

// Environment variable names (spec §6 "Environment").
const (
	EnvMongoDBURI = "MONGODB_URI"
	EnvPort       = "KVPAIR_PORT"
	EnvServerURL  = "KVPAIR_GRPC_SERVER_URL" // client-side endpoint, not read by the server itself
)

// Defaults (spec §6).
const (
	DefaultMongoDBURI = "mongodb://localhost:27017"
	DefaultPort       = 50051
)

// Load builds a Config from the process environment, applying the spec's
// defaults for anything unset.
func Load() (Config, error) {
	cfg := Config{
		MongoDBURI: DefaultMongoDBURI,
		ListenPort: DefaultPort,
	}

	if v := os.Getenv(EnvMongoDBURI); v != "" {
		cfg.MongoDBURI = v
	}

	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", EnvPort, err)
		}
		cfg.ListenPort = uint16(port)
	}

	if v := os.Getenv("KVPAIR_DEFAULT_CONTRACT_ID"); v != "" {
		id, err := store.ParseContractIDString(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse KVPAIR_DEFAULT_CONTRACT_ID: %w", err)
		}
		cfg.DefaultContractID = &id
	}

	if v := os.Getenv("KVPAIR_ALLOW_DEFAULT_CONTRACT"); v != "" {
		allowed, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse KVPAIR_ALLOW_DEFAULT_CONTRACT: %w", err)
		}
		cfg.AllowDefaultContract = allowed
	}

	if v := os.Getenv("KVPAIR_ENABLE_CORS"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse KVPAIR_ENABLE_CORS: %w", err)
		}
		cfg.EnableCORS = enabled
	}

	if v := os.Getenv("KVPAIR_TEST_COLLECTION_ID"); v != "" {
		id, err := store.ParseContractIDString(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse KVPAIR_TEST_COLLECTION_ID: %w", err)
		}
		cfg.TestCollectionID = &id
	}

	return cfg, nil
}

