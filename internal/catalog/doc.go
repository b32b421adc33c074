// Package catalog persists imported image series in SQLite and exposes
// helpers for driving their import lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, and the status transitions a series moves through while the
// importer extracts its frames. Series rows capture the probed study
// metadata, the extracted frame directory, and any import error so sessions
// and the CLI can present a series without re-reading the source file.
//
// The database is derived storage: every row can be rebuilt by re-importing
// its source path. Schema changes bump the version in schema.go; users
// delete the database to adopt the new schema.
package catalog
