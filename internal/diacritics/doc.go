// Package diacritics holds the shared settings consumers of the diacritics.io
// API read before building requests: the base URL, the recognised filter names
// and the API major version, which may only ever be lowered.
package diacritics
