package diacritics

import "errors"

// ErrUpgrade is returned when a candidate version is newer than the current one.
var ErrUpgrade = errors.New("version upgrades are not allowed")
