// Package db provides the embedded database schema.
package db

import _ "embed"

// Schema contains the DDL for the blobs table backing per-client state.
//
//go:embed migrations/001_schema.sql
var Schema string
