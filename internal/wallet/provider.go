package wallet

import (
	"errors"
	"log"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/jobagent-labs/web3-job-agent/internal/models"
)

// Context keys set by the provider layers, innermost handlers can read them.
const (
	CtxChains     = "wallet.chains"
	CtxAppName    = "wallet.app_name"
	CtxQueryCache = "wallet.query_cache"
	CtxProjectID  = "wallet.project_id"
)

// Provider composes the three wallet layers around the application's
// routes, in fixed nesting order: chain configuration (outermost), the
// async query cache, then the wallet-connect layer (innermost). It is
// built once at startup from static configuration and holds no mutable
// conversation state. Failures inside the wrapped layers pass through
// untranslated.
type Provider struct {
	cfg models.WalletConfig
}

// New validates the static configuration and copies the chain list, so
// later mutation of the caller's slice cannot leak into the provider.
func New(cfg models.WalletConfig) (*Provider, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("wallet: project id is required")
	}
	if len(cfg.Chains) == 0 {
		return nil, errors.New("wallet: at least one chain is required")
	}

	chains := make([]models.Chain, len(cfg.Chains))
	copy(chains, cfg.Chains)
	cfg.Chains = chains
	return &Provider{cfg: cfg}, nil
}

// Config returns a copy of the static configuration.
func (p *Provider) Config() models.WalletConfig {
	cfg := p.cfg
	cfg.Chains = make([]models.Chain, len(p.cfg.Chains))
	copy(cfg.Chains, p.cfg.Chains)
	return cfg
}

// Middlewares returns the three provider layers in their required nesting
// order. gin applies them left to right, so the chain-config layer wraps
// everything and the wallet-connect layer sits closest to the handlers.
func (p *Provider) Middlewares() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		p.chainConfigLayer(),
		p.queryCacheLayer(),
		p.walletConnectLayer(),
	}
}

// chainConfigLayer exposes the static chain list and app name.
func (p *Provider) chainConfigLayer() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(CtxChains, p.Config().Chains)
		c.Set(CtxAppName, p.cfg.AppName)
		c.Next()
	}
}

// queryCacheLayer attaches a request-scoped async result cache.
func (p *Provider) queryCacheLayer() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(CtxQueryCache, NewQueryCache())
		c.Next()
	}
}

// walletConnectLayer exposes the wallet-connect credential.
func (p *Provider) walletConnectLayer() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(CtxProjectID, p.cfg.ProjectID)
		c.Next()
	}
}

// QueryCache is a small request-scoped cache for async lookups performed
// while serving one request.
type QueryCache struct {
	mu      sync.RWMutex
	entries map[string]any
}

func NewQueryCache() *QueryCache {
	return &QueryCache{entries: make(map[string]any)}
}

func (q *QueryCache) Get(key string) (any, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	v, ok := q.entries[key]
	return v, ok
}

func (q *QueryCache) Set(key string, value any) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries[key] = value
}

// DefaultChains is the demo's supported network list: mainnet, the public
// testnets/L2s, and the Sonic Blaze test chain the project mints on.
func DefaultChains() []models.Chain {
	return []models.Chain{
		{ChainID: 1, Name: "Ethereum", Currency: "ETH", RPCURL: "https://eth.llamarpc.com", ExplorerURL: "https://etherscan.io"},
		{ChainID: 11155111, Name: "Sepolia", Currency: "ETH", RPCURL: "https://rpc.sepolia.org", ExplorerURL: "https://sepolia.etherscan.io", Testnet: true},
		{ChainID: 42161, Name: "Arbitrum One", Currency: "ETH", RPCURL: "https://arb1.arbitrum.io/rpc", ExplorerURL: "https://arbiscan.io"},
		{ChainID: 10, Name: "OP Mainnet", Currency: "ETH", RPCURL: "https://mainnet.optimism.io", ExplorerURL: "https://optimistic.etherscan.io"},
		{ChainID: 8453, Name: "Base", Currency: "ETH", RPCURL: "https://mainnet.base.org", ExplorerURL: "https://basescan.org"},
		{ChainID: 57054, Name: "Sonic Blaze Testnet", Currency: "S", RPCURL: "https://rpc.blaze.soniclabs.com", ExplorerURL: "https://testnet.sonicscan.org", Testnet: true},
	}
}

// MustNew is the startup path: configuration errors are fatal.
func MustNew(cfg models.WalletConfig) *Provider {
	p, err := New(cfg)
	if err != nil {
		log.Fatal("Failed to build wallet provider:", err)
	}
	return p
}
