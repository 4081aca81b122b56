// Package dbconf loads entry database configuration and prepares the
// database it names.
package dbconf

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"bitbucket.org/liamstask/goose/lib/goose"
	"github.com/jmoiron/sqlx"
	rserr "github.com/sigstore/rekor-search-ui/errors"
	"github.com/sigstore/rekor-search-ui/log"
)

// DBConfig contains the database driver name and configuration to be passed
// to Open.
type DBConfig struct {
	DriverName     string `json:"driver"`
	DataSourceName string `json:"data_source"`
}

// LoadFile attempts to load the db configuration file stored at the path
// and returns the configuration. On error, it returns nil.
func LoadFile(path string) (cfg *DBConfig, err error) {
	log.Debugf("loading db configuration file from %s", path)
	if path == "" {
		return nil, rserr.Wrap(rserr.ConfigError, rserr.ReadFailed, errors.New("invalid path"))
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return nil, rserr.Wrap(rserr.ConfigError, rserr.ReadFailed, errors.New("could not read configuration file"))
	}

	cfg = &DBConfig{}
	err = json.Unmarshal(body, cfg)
	if err != nil {
		return nil, rserr.Wrap(rserr.ConfigError, rserr.ParseFailed,
			errors.New("failed to unmarshal configuration: "+err.Error()))
	}

	if cfg.DataSourceName == "" || cfg.DriverName == "" {
		return nil, rserr.Wrap(rserr.ConfigError, rserr.ParseFailed, errors.New("invalid db configuration"))
	}

	return cfg, nil
}

// DBFromConfig opens a sql.DB from settings in a db config file.
func DBFromConfig(path string) (db *sqlx.DB, err error) {
	dbCfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return sqlx.Open(dbCfg.DriverName, dbCfg.DataSourceName)
}

func dialect(driver string) (goose.SqlDialect, error) {
	switch driver {
	case "sqlite3":
		return &goose.Sqlite3Dialect{}, nil
	case "postgres":
		return &goose.PostgresDialect{}, nil
	case "mysql":
		return &goose.MySqlDialect{}, nil
	}
	return nil, rserr.Wrap(rserr.ConfigError, rserr.Unknown, fmt.Errorf("no migration dialect for driver %q", driver))
}

// Migrate applies every goose migration in dir to db, which was opened with
// the named driver. dir is one of the per-driver migrations directories
// shipped under entrydb.
func Migrate(db *sqlx.DB, driver, dir string) error {
	d, err := dialect(driver)
	if err != nil {
		return err
	}

	conf := &goose.DBConf{
		MigrationsDir: dir,
		Env:           "production",
		Driver: goose.DBDriver{
			Name:    driver,
			Dialect: d,
		},
	}

	target, err := goose.GetMostRecentDBVersion(dir)
	if err != nil {
		return rserr.Wrap(rserr.StoreError, rserr.ReadFailed, err)
	}

	log.Infof("migrating %s entry database to version %d", driver, target)
	if err := goose.RunMigrationsOnDb(conf, dir, target, db.DB); err != nil {
		return rserr.Wrap(rserr.StoreError, rserr.Unknown, err)
	}
	return nil
}
