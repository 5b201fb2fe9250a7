package storage

import _ "embed"

// Schema creates the stats table and its indexes. It is safe to apply repeatedly.
//
//go:embed schema.sql
var Schema string
