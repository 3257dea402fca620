package main

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/ajitpratap0/opendota-datasource/pkg/errors"
)

// dirFiles lists the regular files of an Evidence source directory
type dirFiles string

// List returns the file names relative to the directory, sorted
func (d dirFiles) List(_ context.Context) ([]string, error) {
	var names []string
	err := filepath.WalkDir(string(d), func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.Type().IsRegular() {
			rel, err := filepath.Rel(string(d), path)
			if err != nil {
				return err
			}
			names = append(names, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to list source directory").
			WithDetail("path", string(d))
	}
	sort.Strings(names)
	return names, nil
}

// Read returns the content of one listed file
func (d dirFiles) Read(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(string(d), filepath.FromSlash(name)))
	if err != nil {
		errType := errors.ErrorTypeFile
		if os.IsNotExist(err) {
			errType = errors.ErrorTypeNotFound
		}
		return nil, errors.Wrap(err, errType, "failed to read source file").WithDetail("file", name)
	}
	return data, nil
}
