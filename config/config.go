package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del bot.
type Config struct {
	Quoter  QuoterConfig  `yaml:"quoter"`
	API     APIConfig     `yaml:"api"`
	Feed    FeedConfig    `yaml:"feed"`
	Chain   ChainConfig   `yaml:"chain"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// QuoterConfig parametriza el scoring y la generación de ladders.
type QuoterConfig struct {
	IntervalSeconds int     `yaml:"interval_seconds"`
	BudgetUSDC      float64 `yaml:"budget_usdc"`
	Side            string  `yaml:"side"`    // both | bid | ask
	VCents          float64 `yaml:"v_cents"` // max qualifying spread en centavos
	BMultiplier     float64 `yaml:"b_multiplier"`
	CScale          float64 `yaml:"c_scale"`  // divisor single-side del Qmin
	MinSize         float64 `yaml:"min_size"` // tamaño mínimo elegible en el book
}

// APIConfig contiene los base URLs de las APIs REST.
type APIConfig struct {
	CLOBBase  string `yaml:"clob_base"`
	GammaBase string `yaml:"gamma_base"`
}

// FeedConfig controla los websockets de market y account data.
type FeedConfig struct {
	BaseURL          string `yaml:"base_url"`
	ProxyURL         string `yaml:"proxy_url"` // vacío = variables de entorno
	ChunkSize        int    `yaml:"chunk_size"`
	ConnectTimeoutS  int    `yaml:"connect_timeout_seconds"`
	ReconnectDelayS  int    `yaml:"reconnect_delay_seconds"`
	PingIntervalS    int    `yaml:"ping_interval_seconds"`
	SubscribeAccount bool   `yaml:"subscribe_account"`
}

// ChainConfig parametriza la settlement chain (Polygon).
type ChainConfig struct {
	RPCURL          string  `yaml:"rpc_url"`
	ChainID         int64   `yaml:"chain_id"`
	PriorityFeeGwei int64   `yaml:"priority_fee_gwei"`
	FeeMultiplier   float64 `yaml:"fee_multiplier"`
	GasBuffer       float64 `yaml:"gas_buffer"`
	ReceiptTimeoutS int     `yaml:"receipt_timeout_seconds"`
	PollIntervalS   int     `yaml:"poll_interval_seconds"`
	MaxRetries      int     `yaml:"max_retries"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si
// existe. Los valores del entorno sobreescriben los del YAML para las keys
// que correspondan; la private key solo puede venir del entorno.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// PrivateKey devuelve la private key de la wallet desde el entorno. Nunca
// vive en el YAML ni en el struct de config.
func PrivateKey() string {
	return os.Getenv("PK")
}

// QuoteInterval devuelve el intervalo entre ciclos de scoring.
func (c *Config) QuoteInterval() time.Duration {
	return time.Duration(c.Quoter.IntervalSeconds) * time.Second
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("RPC_URL"); v != "" {
		cfg.Chain.RPCURL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" && cfg.Feed.ProxyURL == "" {
		cfg.Feed.ProxyURL = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Quoter.IntervalSeconds <= 0 {
		cfg.Quoter.IntervalSeconds = 60
	}
	if cfg.Quoter.BudgetUSDC <= 0 {
		cfg.Quoter.BudgetUSDC = 100
	}
	if cfg.Quoter.Side == "" {
		cfg.Quoter.Side = "both"
	}
	if cfg.Quoter.VCents <= 0 {
		cfg.Quoter.VCents = 3
	}
	if cfg.Quoter.BMultiplier <= 0 {
		cfg.Quoter.BMultiplier = 1
	}
	if cfg.Quoter.CScale <= 0 {
		cfg.Quoter.CScale = 3
	}
	if cfg.Quoter.MinSize <= 0 {
		cfg.Quoter.MinSize = 0.001
	}
	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = "https://clob.polymarket.com"
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.Feed.BaseURL == "" {
		cfg.Feed.BaseURL = "wss://ws-subscriptions-clob.polymarket.com"
	}
	if cfg.Feed.ChunkSize <= 0 {
		cfg.Feed.ChunkSize = 100
	}
	if cfg.Feed.ConnectTimeoutS <= 0 {
		cfg.Feed.ConnectTimeoutS = 60
	}
	if cfg.Feed.ReconnectDelayS <= 0 {
		cfg.Feed.ReconnectDelayS = 5
	}
	if cfg.Feed.PingIntervalS <= 0 {
		cfg.Feed.PingIntervalS = 10
	}
	if cfg.Chain.RPCURL == "" {
		cfg.Chain.RPCURL = "https://polygon-rpc.com"
	}
	if cfg.Chain.ChainID == 0 {
		cfg.Chain.ChainID = 137
	}
	if cfg.Chain.PriorityFeeGwei <= 0 {
		cfg.Chain.PriorityFeeGwei = 30
	}
	if cfg.Chain.FeeMultiplier <= 0 {
		cfg.Chain.FeeMultiplier = 2.0
	}
	if cfg.Chain.GasBuffer <= 0 {
		cfg.Chain.GasBuffer = 1.2
	}
	if cfg.Chain.ReceiptTimeoutS <= 0 {
		cfg.Chain.ReceiptTimeoutS = 600
	}
	if cfg.Chain.PollIntervalS <= 0 {
		cfg.Chain.PollIntervalS = 2
	}
	if cfg.Chain.MaxRetries <= 0 {
		cfg.Chain.MaxRetries = 3
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "polylp.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
