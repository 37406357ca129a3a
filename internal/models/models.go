package models

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in a session's conversation history.
// Messages are append-only; insertion order is the display order.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type Job struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Title           string   `json:"title"`
	Company         string   `json:"company"`
	Location        string   `json:"location"`
	SalaryRange     string   `json:"salary_range"`
	Description     string   `json:"description"`
	Requirements    []string `json:"requirements"`
	ApplicationLink string   `json:"application_link"`
}

// Chain describes one supported blockchain network. The chain list is
// static configuration consumed once at provider construction.
type Chain struct {
	ChainID     uint64 `json:"chain_id"`
	Name        string `json:"name"`
	Currency    string `json:"currency"`
	RPCURL      string `json:"rpc_url"`
	ExplorerURL string `json:"explorer_url"`
	Testnet     bool   `json:"testnet"`
}

// WalletConfig is the static configuration handed to the wallet-connect
// stack. ProjectID is an opaque credential for the WalletConnect service.
type WalletConfig struct {
	AppName   string  `json:"app_name"`
	ProjectID string  `json:"project_id"`
	Chains    []Chain `json:"chains"`
	SSR       bool    `json:"ssr"`
}
