package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/registration-etl/pkg/config"
)

func TestDSN(t *testing.T) {
	cfg := config.DatabaseConfig{Host: "db", Port: 5433, User: "etl", Password: "pw", Name: "registry", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=etl password=pw dbname=registry sslmode=disable", DSN(cfg))

	cfg.URL = "postgres://etl:pw@neon.example/registry?sslmode=require"
	assert.Equal(t, cfg.URL, DSN(cfg))
}
