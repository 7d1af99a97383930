// Package config loads sqlpipe connection settings from a TOML file:
//
//	[mysql]
//	host = "127.0.0.1"
//	port = 3306
//	database = "app"
//	user = "root"
//	password = ""
//	pool = 10
//
//	[mysql.params]
//	charset = "utf8mb4"
//
// SQLPIPE_PASSWORD, when set, overrides the password from the file.
package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/go-sql-driver/mysql"

	"sqlpipe/internal/core"
)

// PasswordEnv names the environment variable that overrides MySQL.Password.
const PasswordEnv = "SQLPIPE_PASSWORD"

type Config struct {
	MySQL MySQL `toml:"mysql"`
}

// MySQL holds the connection pool settings.
type MySQL struct {
	Host     string            `toml:"host"`
	Port     int               `toml:"port"`
	Database string            `toml:"database"`
	User     string            `toml:"user"`
	Password string            `toml:"password"`
	Pool     int               `toml:"pool"`
	Params   map[string]string `toml:"params"`
}

// Default returns the settings used for keys missing from the file.
func Default() *Config {
	return &Config{MySQL: MySQL{Host: "127.0.0.1", Port: 3306, Pool: 10}}
}

// Load reads, overrides from the environment and validates the file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open file %q: %w", path, err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads TOML content from r. See Load.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return nil, fmt.Errorf("config: decode error: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config: unknown key %q: %w", undecoded[0].String(), core.ErrInvalidArgument)
	}

	if pw, ok := os.LookupEnv(PasswordEnv); ok {
		cfg.MySQL.Password = pw
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing or out-of-range setting.
func (c *Config) Validate() error {
	m := c.MySQL
	var errs []error
	if m.Host == "" {
		errs = append(errs, errors.New("invalid host"))
	}
	if m.Port <= 0 {
		errs = append(errs, errors.New("invalid port"))
	}
	if m.Database == "" {
		errs = append(errs, errors.New("invalid database"))
	}
	if m.User == "" {
		errs = append(errs, errors.New("invalid user"))
	}
	if m.Pool <= 0 {
		errs = append(errs, errors.New("invalid pool number"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w: %w", errors.Join(errs...), core.ErrInvalidArgument)
	}
	return nil
}

// DSN renders the go-sql-driver/mysql data source name. Times are parsed
// into time.Time.
func (m MySQL) DSN() string {
	dc := mysql.NewConfig()
	dc.User = m.User
	dc.Passwd = m.Password
	dc.Net = "tcp"
	dc.Addr = net.JoinHostPort(m.Host, strconv.Itoa(m.Port))
	dc.DBName = m.Database
	dc.ParseTime = true
	if len(m.Params) > 0 {
		dc.Params = make(map[string]string, len(m.Params))
		for k, v := range m.Params {
			dc.Params[k] = v
		}
	}
	return dc.FormatDSN()
}
