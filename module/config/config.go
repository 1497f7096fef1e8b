// Package config loads the forester's configuration record (spec.md §6)
// from environment variables and an optional config file, via viper — kept deliberately thin since config-format parsing itself is out
// of scope for this core; only the resulting Config and its defaults are.
package config

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/foresterd/forester/model/forester"
)

// TreeConfig is one entry of Config.Trees: a hex-encoded Merkle tree/queue
// pair plus its kind.
type TreeConfig struct {
	MerkleTree string `mapstructure:"merkle_tree"`
	Queue      string `mapstructure:"queue"`
	// Type is "state" or "address".
	Type string `mapstructure:"type"`
}

// Decode parses a hex-encoded TreeConfig into a forester.TreeAccounts.
func (t TreeConfig) Decode() (forester.TreeAccounts, error) {
	var out forester.TreeAccounts
	merkleTree, err := decodePubkey(t.MerkleTree)
	if err != nil {
		return out, fmt.Errorf("config: tree.merkle_tree: %w", err)
	}
	queue, err := decodePubkey(t.Queue)
	if err != nil {
		return out, fmt.Errorf("config: tree.queue: %w", err)
	}
	out.MerkleTree = merkleTree
	out.Queue = queue
	switch t.Type {
	case "", "state":
		out.TreeType = forester.TreeTypeState
	case "address":
		out.TreeType = forester.TreeTypeAddress
	default:
		return out, fmt.Errorf("config: tree.type: unknown kind %q", t.Type)
	}
	return out, nil
}

func decodePubkey(s string) (forester.Pubkey, error) {
	var pk forester.Pubkey
	b, err := hex.DecodeString(s)
	if err != nil {
		return pk, err
	}
	if len(b) != len(pk) {
		return pk, fmt.Errorf("expected %d bytes, got %d", len(pk), len(b))
	}
	copy(pk[:], b)
	return pk, nil
}

// Config is the spec.md §6 configuration record, plus the ambient settings
// (log level, bootstrap retry bounds) every long-running service needs.
type Config struct {
	PayerKeypairPath string `mapstructure:"payer_keypair_path"`

	IndexerBatchSize                int   `mapstructure:"indexer_batch_size"`
	IndexerMaxConcurrentBatches     int64 `mapstructure:"indexer_max_concurrent_batches"`
	TransactionBatchSize            int   `mapstructure:"transaction_batch_size"`
	TransactionMaxConcurrentBatches int64 `mapstructure:"transaction_max_concurrent_batches"`

	CULimit    uint32 `mapstructure:"cu_limit"`
	MaxRetries uint64 `mapstructure:"max_retries"`

	RPCEndpoint    string `mapstructure:"rpc_endpoint"`
	PubSubEndpoint string `mapstructure:"pubsub_endpoint"`

	ProgramID       string `mapstructure:"program_id"`
	SystemProgramID string `mapstructure:"system_program_id"`

	// Trees lists every Merkle tree/queue pair this forester manages
	// (spec.md §6: the core is handed a fixed tree set, it never discovers
	// one on its own).
	Trees []TreeConfig `mapstructure:"trees"`

	Protocol forester.ProtocolConfig `mapstructure:"protocol"`

	LogLevel string `mapstructure:"log_level"`

	// BootstrapRetryBase/Max bound the Epoch Manager construction retry
	// (spec.md §5: "retry delay doubles from 1s to 30s cap").
	BootstrapRetryBase time.Duration `mapstructure:"bootstrap_retry_base"`
	BootstrapRetryMax  time.Duration `mapstructure:"bootstrap_retry_max"`
}

// DecodedTrees parses every entry of Trees into a forester.TreeAccounts.
func (c Config) DecodedTrees() ([]forester.TreeAccounts, error) {
	out := make([]forester.TreeAccounts, len(c.Trees))
	for i, t := range c.Trees {
		decoded, err := t.Decode()
		if err != nil {
			return nil, fmt.Errorf("config: trees[%d]: %w", i, err)
		}
		out[i] = decoded
	}
	return out, nil
}

// DecodedProgramID parses ProgramID as a hex-encoded Pubkey.
func (c Config) DecodedProgramID() (forester.Pubkey, error) {
	return decodePubkey(c.ProgramID)
}

// DecodedSystemProgramID parses SystemProgramID as a hex-encoded Pubkey.
func (c Config) DecodedSystemProgramID() (forester.Pubkey, error) {
	return decodePubkey(c.SystemProgramID)
}

// defaults applies this module's fallback values before a config source is
// read, so a minimal deployment file still produces a valid Config.
func defaults(v *viper.Viper) {
	v.SetDefault("indexer_batch_size", 50)
	v.SetDefault("indexer_max_concurrent_batches", 10)
	v.SetDefault("transaction_batch_size", 5)
	v.SetDefault("transaction_max_concurrent_batches", 20)
	v.SetDefault("cu_limit", 1_000_000)
	v.SetDefault("max_retries", 5)
	v.SetDefault("log_level", "info")
	v.SetDefault("bootstrap_retry_base", time.Second)
	v.SetDefault("bootstrap_retry_max", 30*time.Second)
}

// Load reads a Config from configPath (if non-empty) layered under
// environment variables prefixed FORESTER_ (e.g. FORESTER_RPC_ENDPOINT).
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("forester")
	v.AutomaticEnv()
	defaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Protocol.Validate(); err != nil {
		return nil, err
	}
	if cfg.RPCEndpoint == "" {
		return nil, fmt.Errorf("config: rpc_endpoint is required")
	}
	if cfg.PubSubEndpoint == "" {
		return nil, fmt.Errorf("config: pubsub_endpoint is required")
	}
	if cfg.PayerKeypairPath == "" {
		return nil, fmt.Errorf("config: payer_keypair_path is required")
	}
	return &cfg, nil
}
