// Package db embeds the schema applied at startup.
package db

import _ "embed"

// Schema holds the DDL for every table the service owns: menus, catalog,
// orders, delivery requests, loyalty and push subscriptions.
//
//go:embed migrations/001_schema.sql
var Schema string
