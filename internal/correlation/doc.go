// Package correlation generates and derives the opaque identifiers that tie
// a logical call and its fan-out legs together across service boundaries.
package correlation
