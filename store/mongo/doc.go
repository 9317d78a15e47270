// Package mongo implements store.Store against MongoDB. See store.go for
// collection layout and index definitions.
package mongo
