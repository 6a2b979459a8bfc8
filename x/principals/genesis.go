package principals

import (
	"github.com/iov-one/threshold"
	"github.com/iov-one/threshold/errors"
	"github.com/iov-one/threshold/orm"
)

// configKey is the singleton under which the configuration is persisted.
var configKey = []byte("_c:principals")

// Config is the persisted form of a registry.
type Config struct {
	Principals []threshold.Address `json:"principals"`
	Threshold  int64               `json:"threshold"`
}

// Validate runs the same checks as Initialize.
func (c *Config) Validate() error {
	_, err := Initialize(c.Principals, int(c.Threshold))
	return err
}

// Config returns the persisted form of this registry.
func (r *Registry) Config() Config {
	return Config{
		Principals: r.List(),
		Threshold:  int64(r.threshold),
	}
}

// Save writes the registry configuration. A wallet is configured exactly
// once, saving over an existing configuration fails.
func Save(db threshold.KVStore, r *Registry) error {
	exists, err := db.Has(configKey)
	if err != nil {
		return err
	}
	if exists {
		return errors.Wrap(errors.ErrConfiguration, "principals already configured")
	}
	c := r.Config()
	raw, err := orm.Marshal(&c)
	if err != nil {
		return err
	}
	return db.Set(configKey, raw)
}

// Load reads the configuration written by Save and builds the registry.
func Load(db threshold.ReadOnlyKVStore) (*Registry, error) {
	raw, err := db.Get(configKey)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.Wrap(errors.ErrConfiguration, "wallet is not initialized")
	}
	var c Config
	if err := orm.Unmarshal(raw, &c); err != nil {
		return nil, errors.Wrap(err, "principals configuration")
	}
	return Initialize(c.Principals, int(c.Threshold))
}
