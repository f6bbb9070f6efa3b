// Package config holds the storage layout and game configuration shared by all rl-loop commands.
//
// Configuration is loaded once at startup (see Load) into an immutable Config value that is
// passed explicitly to the components that need it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// FileEnvVar names the environment variable pointing to an optional YAML configuration file.
// Environment variables take precedence over values in the file.
const FileEnvVar = "RLLOOP_CONFIG"

// Keys of the configuration, as they appear in the environment (upper-cased) or in the YAML file.
const (
	KeyBucket      = "bucket_name"
	KeyBoardSize   = "board_size"
	KeyStorageRoot = "storage_root"
)

// Config is the immutable configuration of the training loop. Use New or Load to create one.
type Config struct {
	// Bucket holding all models, games and training data.
	Bucket string `koanf:"bucket_name"`

	// BoardSize is the size N of the NxN board.
	BoardSize int `koanf:"board_size"`

	// StorageRoot is the local directory under which the bucket lives.
	StorageRoot string `koanf:"storage_root"`
}

// Error is returned for a missing or invalid configuration value.
type Error struct {
	Key    string
	Reason string
}

// Error implements error.
func (e *Error) Error() string {
	return fmt.Sprintf("configuration %s (env %s): %s", e.Key, strings.ToUpper(e.Key), e.Reason)
}

// New creates a validated Config.
func New(bucket string, boardSize int, storageRoot string) (Config, error) {
	c := Config{Bucket: bucket, BoardSize: boardSize, StorageRoot: storageRoot}
	if c.StorageRoot == "" {
		c.StorageRoot = "."
	}
	return c, c.Validate()
}

// Validate checks that all required values are present.
func (c Config) Validate() error {
	if c.Bucket == "" {
		return &Error{Key: KeyBucket, Reason: "required value missing"}
	}
	if strings.ContainsAny(c.Bucket, `/\`) {
		return &Error{Key: KeyBucket, Reason: fmt.Sprintf("invalid bucket name %q", c.Bucket)}
	}
	if c.BoardSize <= 0 {
		return &Error{Key: KeyBoardSize, Reason: fmt.Sprintf("required positive value, got %d", c.BoardSize)}
	}
	return nil
}

// Load configuration from (in increasing order of precedence): defaults, the YAML file
// pointed by $RLLOOP_CONFIG (if set) and the environment variables BUCKET_NAME, BOARD_SIZE
// and STORAGE_ROOT.
func Load() (Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Config{StorageRoot: "."}, "koanf"), nil); err != nil {
		return Config{}, errors.Wrap(err, "failed to load configuration defaults")
	}
	if path := os.Getenv(FileEnvVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, errors.Wrapf(err, "failed to load configuration file %s=%q", FileEnvVar, path)
		}
	}
	if err := k.Load(env.ProviderWithValue("", ".", envTransform), nil); err != nil {
		return Config{}, errors.Wrap(err, "failed to load configuration from environment")
	}

	var c Config
	if err := k.Unmarshal("", &c); err != nil {
		// Typically BOARD_SIZE is not a number.
		return Config{}, &Error{Key: KeyBoardSize, Reason: err.Error()}
	}
	return c, c.Validate()
}

// envTransform maps the environment variables we care about to their configuration keys,
// and discards all others. Empty variables are treated as unset.
func envTransform(name, value string) (string, any) {
	key := strings.ToLower(name)
	if value == "" {
		return "", nil
	}
	switch key {
	case KeyBucket, KeyBoardSize, KeyStorageRoot:
		return key, value
	}
	return "", nil
}

// BaseDir is the root of the bucket, where everything is stored.
func (c Config) BaseDir() string { return filepath.Join(c.StorageRoot, c.Bucket) }

// ModelsDir holds the model artifacts.
func (c Config) ModelsDir() string { return filepath.Join(c.BaseDir(), "models") }

// SelfPlayDir holds the self-play game records, one sub-directory per model.
func (c Config) SelfPlayDir() string { return filepath.Join(c.BaseDir(), "games") }

// SGFDir holds the human-readable game transcripts, one sub-directory per model.
func (c Config) SGFDir() string { return filepath.Join(c.BaseDir(), "sgf") }

// TrainingChunkDir holds the gathered training data.
func (c Config) TrainingChunkDir() string {
	return filepath.Join(c.BaseDir(), "data", "training_chunks")
}

// Flags returns the configuration and the computed paths, as ordered name/value pairs, for display.
func (c Config) Flags() [][2]string {
	return [][2]string{
		{"BUCKET_NAME", c.Bucket},
		{"N", fmt.Sprintf("%d", c.BoardSize)},
		{"BASE_DIR", c.BaseDir()},
		{"MODELS_DIR", c.ModelsDir()},
		{"SELFPLAY_DIR", c.SelfPlayDir()},
		{"SGF_DIR", c.SGFDir()},
		{"TRAINING_CHUNK_DIR", c.TrainingChunkDir()},
	}
}
