package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fairplay-vault/sentinel/internal/core/application"
	"github.com/fairplay-vault/sentinel/internal/core/domain"
	"github.com/fairplay-vault/sentinel/internal/core/ports"
	"github.com/fairplay-vault/sentinel/internal/infrastructure/db"
	timescheduler "github.com/fairplay-vault/sentinel/internal/infrastructure/scheduler/gocron"
	ethereumvault "github.com/fairplay-vault/sentinel/internal/infrastructure/vault/ethereum"
	"github.com/spf13/viper"
)

var (
	supportedDbs = supportedType{
		"file":   {},
		"badger": {},
	}
)

type Config struct {
	Datadir             string
	Port                uint32
	LogLevel            int
	DbType              string
	RpcURL              string
	VaultAddress        string
	PrivateKey          string `json:"-"`
	ChainID             uint64
	RevealSafetySeconds int64
	PollInterval        time.Duration

	repo      ports.RepoManager
	vault     ports.VaultService
	scheduler ports.SchedulerService
	svc       application.Service
}

func (c *Config) String() string {
	json, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("error while marshalling config JSON: %s", err)
	}
	return string(json)
}

var (
	Datadir             = "DATADIR"
	Port                = "PORT"
	LogLevel            = "LOG_LEVEL"
	DbType              = "DB_TYPE"
	RpcURL              = "RPC_URL"
	VaultAddress        = "VAULT_ADDRESS"
	PrivateKey          = "PRIVATE_KEY"
	ChainID             = "CHAIN_ID"
	RevealSafetySeconds = "REVEAL_SAFETY_SECONDS"
	PollInterval        = "POLL_INTERVAL"

	defaultDatadir             = "./data"
	defaultPort                = 8787
	defaultLogLevel            = 4
	defaultDbType              = "file"
	defaultChainID             = 8453 // Base mainnet
	defaultRevealSafetySeconds = 60
	defaultPollInterval        = 10 * time.Second
)

func LoadConfig() (*Config, error) {
	viper.SetEnvPrefix("SENTINEL")
	viper.AutomaticEnv()

	viper.SetDefault(Datadir, defaultDatadir)
	viper.SetDefault(Port, defaultPort)
	viper.SetDefault(LogLevel, defaultLogLevel)
	viper.SetDefault(DbType, defaultDbType)
	viper.SetDefault(ChainID, defaultChainID)
	viper.SetDefault(RevealSafetySeconds, defaultRevealSafetySeconds)
	viper.SetDefault(PollInterval, defaultPollInterval)

	if err := initDatadir(); err != nil {
		return nil, fmt.Errorf("error while creating datadir: %s", err)
	}

	return &Config{
		Datadir:             viper.GetString(Datadir),
		Port:                viper.GetUint32(Port),
		LogLevel:            viper.GetInt(LogLevel),
		DbType:              viper.GetString(DbType),
		RpcURL:              viper.GetString(RpcURL),
		VaultAddress:        viper.GetString(VaultAddress),
		PrivateKey:          viper.GetString(PrivateKey),
		ChainID:             viper.GetUint64(ChainID),
		RevealSafetySeconds: viper.GetInt64(RevealSafetySeconds),
		PollInterval:        viper.GetDuration(PollInterval),
	}, nil
}

func (c *Config) Validate() error {
	if len(c.RpcURL) <= 0 {
		return fmt.Errorf("missing RPC_URL")
	}
	if len(c.VaultAddress) <= 0 {
		return fmt.Errorf("missing VAULT_ADDRESS")
	}
	if len(c.PrivateKey) <= 0 {
		return fmt.Errorf("missing PRIVATE_KEY")
	}
	if !domain.IsHex32(c.PrivateKey) {
		return fmt.Errorf("PRIVATE_KEY must be a 0x-prefixed 32-byte hex string")
	}
	if !supportedDbs.supports(c.DbType) {
		return fmt.Errorf("db type not supported, please select one of: %s", supportedDbs)
	}
	if c.RevealSafetySeconds < 0 {
		return fmt.Errorf("invalid reveal safety margin, must not be negative")
	}
	if c.PollInterval < time.Second {
		return fmt.Errorf("invalid poll interval, must be at least 1 second")
	}

	if err := c.repoManager(); err != nil {
		return err
	}
	if err := c.vaultService(); err != nil {
		return err
	}
	c.schedulerService()
	return nil
}

func (c *Config) AppService() (application.Service, error) {
	if c.svc == nil {
		if err := c.appService(); err != nil {
			return nil, err
		}
	}
	return c.svc, nil
}

func (c *Config) repoManager() error {
	var dataStoreConfig []interface{}
	switch c.DbType {
	case "file":
		dataStoreConfig = []interface{}{c.Datadir}
	case "badger":
		dataStoreConfig = []interface{}{c.Datadir, nil}
	default:
		return fmt.Errorf("unknown db type")
	}

	svc, err := db.NewService(db.ServiceConfig{
		DataStoreType:   c.DbType,
		DataStoreConfig: dataStoreConfig,
	})
	if err != nil {
		return err
	}

	c.repo = svc
	return nil
}

func (c *Config) vaultService() error {
	svc, err := ethereumvault.NewService(
		c.RpcURL, c.VaultAddress, c.PrivateKey, c.ChainID, c.PollInterval,
	)
	if err != nil {
		return err
	}

	c.vault = svc
	return nil
}

func (c *Config) schedulerService() {
	c.scheduler = timescheduler.NewScheduler()
}

func (c *Config) appService() error {
	svc, err := application.NewService(c.repo, c.vault, c.scheduler, c.RevealSafetySeconds)
	if err != nil {
		return err
	}

	c.svc = svc
	return nil
}

func initDatadir() error {
	datadir := viper.GetString(Datadir)
	if _, err := os.Stat(datadir); os.IsNotExist(err) {
		return os.MkdirAll(datadir, os.ModeDir|0755)
	}
	return nil
}

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	return strings.Join(types, " | ")
}

func (t supportedType) supports(typeStr string) bool {
	_, ok := t[typeStr]
	return ok
}
