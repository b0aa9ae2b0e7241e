package main

import (
	"fmt"

	"cipherpay.onion/checkout/client"
	"cipherpay.onion/checkout/receipts"
	"github.com/dgraph-io/badger/v4"
)

// Yaml configuration reference
type Config struct {
	GatewayUrl   string  `yaml:"gateway-url"`
	Username     *string `yaml:"username,omitempty"`
	Password     *string `yaml:"password,omitempty"`
	DatabasePath string  `yaml:"database-path"`
}

func (c *Config) Compile() (gateway *client.Client, store *receipts.Store, db *badger.DB, err error) {
	gateway = client.New(client.Config{
		BaseUrl:  c.GatewayUrl,
		Username: c.Username,
		Password: c.Password,
	})

	opt := badger.DefaultOptions(c.DatabasePath).WithLogger(nil)
	db, err = badger.Open(opt)
	if err != nil {
		return gateway, store, db, fmt.Errorf("failed to open database: %w", err)
	}
	store = receipts.New(db)
	return gateway, store, db, nil
}
