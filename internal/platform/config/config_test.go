package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ConfigSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) TestDefaults() {
	s.T().Setenv("ENV", "dev")
	cfg, err := FromEnv()
	s.Require().NoError(err)

	s.Equal(":8080", cfg.Server.Addr)
	s.Equal(5*time.Second, cfg.Database.TxTimeout)
	s.Equal("oncofeliz.lifecycle", cfg.Kafka.Topic)
	s.Equal(24*time.Hour, cfg.Redis.ProposalTTL)
	s.NotEmpty(cfg.Auth.JWTSigningKey, "dev profile falls back to a development key")
	s.Empty(cfg.Kafka.Brokers)
}

func (s *ConfigSuite) TestOverrides() {
	s.T().Setenv("HTTP_ADDR", ":9090")
	s.T().Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	s.T().Setenv("TX_TIMEOUT", "2s")
	s.T().Setenv("MIGRATE_ON_START", "false")

	cfg, err := FromEnv()
	s.Require().NoError(err)
	s.Equal(":9090", cfg.Server.Addr)
	s.Equal([]string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	s.Equal(2*time.Second, cfg.Database.TxTimeout)
	s.False(cfg.Database.MigrateOnStart)
}

func (s *ConfigSuite) TestInvalidValuesAreReported() {
	s.T().Setenv("TX_TIMEOUT", "soon")
	s.T().Setenv("DB_MAX_OPEN_CONNS", "many")

	_, err := FromEnv()
	s.Require().Error(err)
	s.Contains(err.Error(), "TX_TIMEOUT")
	s.Contains(err.Error(), "DB_MAX_OPEN_CONNS")
}

func (s *ConfigSuite) TestProdRequiresSecrets() {
	s.T().Setenv("ENV", "prod")
	s.T().Setenv("JWT_SIGNING_KEY", "")
	s.T().Setenv("DATABASE_URL", "")

	_, err := FromEnv()
	s.Require().Error(err)
	s.Contains(err.Error(), "JWT_SIGNING_KEY")
	s.Contains(err.Error(), "DATABASE_URL")
}
