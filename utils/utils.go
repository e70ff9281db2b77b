package utils

import (
	"encoding/json"
	"os"
	"path"

	"github.com/pkg/errors"
)

func createIfNotExist(name string) error {
	_, err := os.Stat(name)
	if errors.Is(err, os.ErrNotExist) {
		return os.MkdirAll(name, os.ModePerm)
	}
	return err
}

// DumpJSON writes an indented JSON rendering of data under dir.
func DumpJSON(dir string, name string, data interface{}) error {
	if err := createIfNotExist(dir); err != nil {
		return err
	}
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal")
	}
	return os.WriteFile(path.Join(dir, name+".json"), encoded, 0644)
}

// DumpBinary writes raw bytes under dir.
func DumpBinary(dir string, name string, data []byte) error {
	if err := createIfNotExist(dir); err != nil {
		return err
	}
	return os.WriteFile(path.Join(dir, name+".bin"), data, 0644)
}
