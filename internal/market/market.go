package market

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Kind distinguishes the two asset classes in the simulated feed.
type Kind string

const (
	KindStock  Kind = "stock"
	KindCrypto Kind = "crypto"
)

// Quote is one simulated market entry.
type Quote struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	Change float64 `json:"change"` // percent
	Kind   Kind    `json:"type"`
}

var seedQuotes = []Quote{
	{Symbol: "AAPL", Name: "Apple Inc.", Price: 178.32, Change: 1.2, Kind: KindStock},
	{Symbol: "TSLA", Name: "Tesla Inc.", Price: 205.60, Change: -2.4, Kind: KindStock},
	{Symbol: "NVDA", Name: "NVIDIA", Price: 820.15, Change: 4.5, Kind: KindStock},
	{Symbol: "MSFT", Name: "Microsoft", Price: 415.20, Change: 0.8, Kind: KindStock},
	{Symbol: "BTC", Name: "Bitcoin", Price: 64500, Change: 2.1, Kind: KindCrypto},
	{Symbol: "ETH", Name: "Ethereum", Price: 3450, Change: 1.5, Kind: KindCrypto},
	{Symbol: "SOL", Name: "Solana", Price: 145.20, Change: 5.8, Kind: KindCrypto},
}

// Service serves simulated quotes. This is a stand-in for a real market
// data feed: prices drift randomly around the seed values on every refresh.
type Service struct {
	rng *rand.Rand

	mu     sync.RWMutex
	quotes []Quote
}

func NewService() *Service {
	s := &Service{
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		quotes: make([]Quote, len(seedQuotes)),
	}
	copy(s.quotes, seedQuotes)

	return s
}

// Snapshot returns a copy of the current quotes.
func (s *Service) Snapshot() []Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Quote, len(s.quotes))
	copy(out, s.quotes)

	return out
}

// Refresh applies one round of bounded random fluctuation: price moves up
// to ±0.5% and the change figure drifts by up to ±0.1 points.
func (s *Service) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.quotes {
		s.quotes[i].Price *= 1 + (s.rng.Float64()-0.5)*0.01
		s.quotes[i].Change += (s.rng.Float64() - 0.5) * 0.2
	}
}

// Run refreshes the quotes on the given interval until ctx is cancelled.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh()
		}
	}
}
