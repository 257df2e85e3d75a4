package db

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teslo-shop/apiserver/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "teslo",
		Password: "p@ss",
		DBName:   "shop",
	})
	assert.Equal(t, "postgres://teslo:p%40ss@db:5433/shop?sslmode=disable", dsn)

	dsn = DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "x", UseSSL: true})
	assert.Contains(t, dsn, "sslmode=require")
}
