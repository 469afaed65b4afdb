// Package related holds the types shared by the packages of the in-memory
// relational record store: record identifiers and the typed errors of the
// store.
//
// The store itself lives in package models, model declarations in package
// schema. Package codec encodes snapshots and write payloads and package
// dialect/sql reads snapshots from a database.
package related
