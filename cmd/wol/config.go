package main

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/PieterD/wol"
)

// config is the optional TOML file holding defaults and named hosts.
type config struct {
	Broadcast string          `toml:"broadcast"`
	Port      *int            `toml:"port"`
	Hosts     map[string]host `toml:"host"`
}

type host struct {
	MAC       string `toml:"mac"`
	Broadcast string `toml:"broadcast"`
	Port      *int   `toml:"port"`
}

// defaultConfigPath returns <UserConfigDir>/wol/config.toml, or "" when there
// is no user config directory.
func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "wol", "config.toml")
}

// loadConfig reads path. When explicit is false a missing file yields an
// empty config.
func loadConfig(path string, explicit bool) (*config, error) {
	cfg := &config{}
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return &config{}, nil
		}
		return nil, errors.Wrapf(err, "failed to load config '%s'", path)
	}
	if err := cfg.validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config '%s'", path)
	}
	return cfg, nil
}

func (c *config) validate() error {
	if err := validateDest(c.Broadcast, c.Port); err != nil {
		return err
	}
	for name, h := range c.Hosts {
		if _, err := wol.ParseHardwareAddr(h.MAC); err != nil {
			return errors.Wrapf(err, "host '%s'", name)
		}
		if err := validateDest(h.Broadcast, h.Port); err != nil {
			return errors.Wrapf(err, "host '%s'", name)
		}
	}
	return nil
}

func validateDest(bcast string, port *int) error {
	if bcast != "" {
		if _, err := wol.ParseBroadcast(bcast); err != nil {
			return err
		}
	}
	if port != nil && (*port < 0 || *port > 0xFFFF) {
		return errors.Errorf("port %d out of range", *port)
	}
	return nil
}

// target is what a positional argument resolves to, before flags apply.
type target struct {
	hwStr     string
	broadcast string
	port      string
}

// resolve looks arg up among the configured hosts and fills in configured
// defaults. Unknown names are taken to be hardware addresses.
func (c *config) resolve(arg string) target {
	t := target{
		hwStr:     arg,
		broadcast: "255.255.255.255",
		port:      strconv.Itoa(wol.DefaultPort),
	}
	if c.Broadcast != "" {
		t.broadcast = c.Broadcast
	}
	if c.Port != nil {
		t.port = strconv.Itoa(*c.Port)
	}
	h, ok := c.Hosts[arg]
	if !ok {
		return t
	}
	t.hwStr = h.MAC
	if h.Broadcast != "" {
		t.broadcast = h.Broadcast
	}
	if h.Port != nil {
		t.port = strconv.Itoa(*h.Port)
	}
	return t
}
