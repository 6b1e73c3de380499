package config

import "errors"

// ErrNoConfig is returned when no configuration file exists in the start
// directory or any of its parents
var ErrNoConfig = errors.New("no text2api configuration file found")
