package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// UnknownKeysError reports keys in the config file that rdu does not
// recognise. The rest of the file is still decoded.
type UnknownKeysError struct {
	Path string
	Keys []toml.Key
}

func (e *UnknownKeysError) Error() string {
	names := make([]string, len(e.Keys))
	for i, k := range e.Keys {
		names[i] = k.String()
	}
	return fmt.Sprintf("%s: unknown keys: %s", e.Path, strings.Join(names, ", "))
}
