package config

import (
	"os"

	"github.com/joho/godotenv"
	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/pkg/errors"
)

const envFilePathVar = "ENV_FILE_PATH"

// Load reads an optional .env file into the process environment and returns the config.
// The path argument wins over ENV_FILE_PATH. Variables already set in the environment are
// not overridden.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(envFilePathVar)
	}
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, errors.Wrapf(autherrors.ErrInvalidConfig, "failed to load env file %s: %v", path, err)
		}
	}
	return New(), nil
}
