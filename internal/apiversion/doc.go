// Package apiversion turns loosely formatted API major versions ("v1", "1.0", 2)
// into integers. Every character other than an ASCII digit or a decimal point is
// dropped and the leading integer of what remains is the version number.
package apiversion
