package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

// Config selects the driver and connection for the release ledger and the
// application database. Connection matches the application's own setting:
// "mysql" or "pgsql".
type Config struct {
	Connection string
	DSN        string
	Debug      bool
}

type Database struct {
	bun *bun.DB
}

func NewDatabase(cfg Config) (*Database, error) {
	var bunDB *bun.DB
	switch cfg.Connection {
	case "", "mysql":
		sqldb, err := sql.Open("mysql", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open mysql connection: %w", err)
		}
		bunDB = bun.NewDB(sqldb, mysqldialect.New())
	case "pgsql":
		connector := pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN))
		bunDB = bun.NewDB(sql.OpenDB(connector), pgdialect.New())
	default:
		return nil, fmt.Errorf("unsupported db connection %q", cfg.Connection)
	}

	if cfg.Debug {
		bunDB.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	return &Database{bun: bunDB}, nil
}

// BuildDSN assembles a driver DSN from discrete connection settings. Ports
// default per dialect when zero.
func BuildDSN(connection, host string, port int, database, username, password string) (string, error) {
	switch connection {
	case "", "mysql":
		if port == 0 {
			port = 3306
		}
		mc := mysql.NewConfig()
		mc.User = username
		mc.Passwd = password
		mc.Net = "tcp"
		mc.Addr = fmt.Sprintf("%s:%d", host, port)
		mc.DBName = database
		mc.ParseTime = true
		return mc.FormatDSN(), nil
	case "pgsql":
		if port == 0 {
			port = 5432
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(username, password),
			Host:     fmt.Sprintf("%s:%d", host, port),
			Path:     database,
			RawQuery: "sslmode=disable",
		}
		return u.String(), nil
	default:
		return "", fmt.Errorf("unsupported db connection %q", connection)
	}
}

func (d *Database) Bun() *bun.DB {
	return d.bun
}

func (d *Database) Close() error {
	return d.bun.Close()
}

func (d *Database) Ping(ctx context.Context) error {
	return d.bun.PingContext(ctx)
}
