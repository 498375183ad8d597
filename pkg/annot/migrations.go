package annot

import (
	"strings"

	"github.com/BurntSushi/migration"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
)

// Migrations for the annotation database on the given driver (dbh.DriverSqlite or dbh.DriverPostgres)
func Migrations(log logs.Log, driver string) []migration.Migrator {
	migs := []migration.Migrator{}
	idx := 0
	for _, sql := range migrationSQL(driver) {
		migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx, sql))
	}
	return migs
}

func migrationSQL(driver string) []string {
	// SQLite only auto-increments an INTEGER PRIMARY KEY (the rowid alias)
	pkey := "INTEGER PRIMARY KEY"
	if driver == dbh.DriverPostgres {
		pkey = "BIGSERIAL PRIMARY KEY"
	}
	sql := []string{
		`
		CREATE TABLE annotation(
			id $PKEY,
			image TEXT NOT NULL,
			class_label TEXT NOT NULL,
			x_top_left REAL NOT NULL,
			y_top_left REAL NOT NULL,
			width REAL NOT NULL,
			height REAL NOT NULL,
			occluded BOOLEAN NOT NULL DEFAULT FALSE,
			truncated BOOLEAN NOT NULL DEFAULT FALSE,
			lost BOOLEAN NOT NULL DEFAULT FALSE,
			difficult BOOLEAN NOT NULL DEFAULT FALSE,
			ignore BOOLEAN NOT NULL DEFAULT FALSE
		);
		CREATE INDEX idx_annotation_image ON annotation (image);
	`,
		`
		CREATE TABLE import_batch(
			id $PKEY,
			source TEXT,
			imported_at BIGINT,
			count INT NOT NULL
		);
		ALTER TABLE annotation ADD COLUMN batch_id BIGINT;
	`,
	}
	for i := range sql {
		sql[i] = strings.ReplaceAll(sql[i], "$PKEY", pkey)
	}
	return sql
}
