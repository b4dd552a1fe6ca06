// Package db provides the embedded database schema and seed data.
package db

import "embed"

// Schema contains the DDL statements for all application tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// Seed holds the default employees.json and menu_items.json fixtures.
//
//go:embed seed/*.json
var Seed embed.FS
