package registry

import (
	"context"
	"math/rand"
)

// Prober determines whether a device at the given address is reachable.
// Implementations must treat "not reachable" as a normal outcome, not an
// error; the error return is for probe machinery failures only.
type Prober interface {
	Probe(ctx context.Context, address string) (bool, error)
}

// CoinFlipProber is a stand-in for a real network probe: it returns a
// random outcome without touching the network. Swap in a real Prober to
// change the determination without touching the service contract.
type CoinFlipProber struct{}

func NewCoinFlipProber() *CoinFlipProber {
	return &CoinFlipProber{}
}

func (p *CoinFlipProber) Probe(ctx context.Context, address string) (bool, error) {
	return rand.Intn(2) == 0, nil
}
