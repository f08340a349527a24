// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package database

var SQLitePool = sqlitePool
