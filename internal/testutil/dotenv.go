package testutil

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

var loadOnce sync.Once

// LoadDotEnv loads variables from a ".env" file if present.
// It is intended for tests only. Existing environment variables are not overridden.
//
// The file is searched for starting at the current working directory and
// walking up until it is found or the filesystem root is reached.
func LoadDotEnv() error {
	var errOut error
	loadOnce.Do(func() {
		path, err := findUpwards(".env")
		if err != nil {
			return
		}
		errOut = godotenv.Load(path)
	})
	return errOut
}

func findUpwards(name string) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := wd
	for {
		candidate := filepath.Join(dir, name)
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("not found")
		}
		dir = parent
	}
}
