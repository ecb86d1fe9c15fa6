//go:build !unix

package transport

import "os"

func lstat(path string) (Entry, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return Entry{}, err
	}
	return entryFromInfo(path, info), nil
}
