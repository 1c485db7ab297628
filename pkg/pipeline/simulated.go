package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/zoff-tech/go-orderflow/pkg/order"
)

// Rand supplies the randomness behind the simulated stock levels and payment
// declines. *math/rand.Rand satisfies it; tests inject fixed values.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Sleeper injects the simulated latency of an external call. Tests pass a
// no-op.
type Sleeper func(ctx context.Context, d time.Duration)

func defaultSleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// NewSystemRand returns a time-seeded Rand for production wiring.
func NewSystemRand() Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// Simulated call latencies, matching the external services they stand in for.
const (
	inventoryCheckLatency   = 500 * time.Millisecond
	paymentLatency          = 800 * time.Millisecond
	inventoryReserveLatency = 300 * time.Millisecond
	shipmentLatency         = 600 * time.Millisecond
)

// paymentDeclineRate models the share of charges the gateway declines.
const paymentDeclineRate = 0.05

// SimulatedInventory reports a random stock level between 0 and 99 per
// product, a stand-in for a real inventory system call.
type SimulatedInventory struct {
	rand  Rand
	sleep Sleeper
}

func NewSimulatedInventory(r Rand, sleep Sleeper) *SimulatedInventory {
	if sleep == nil {
		sleep = defaultSleep
	}
	return &SimulatedInventory{rand: r, sleep: sleep}
}

func (s *SimulatedInventory) Available(ctx context.Context, productID string) (int, error) {
	s.sleep(ctx, inventoryCheckLatency)
	return s.rand.Intn(100), nil
}

func (s *SimulatedInventory) Reserve(ctx context.Context, items []order.Item) error {
	s.sleep(ctx, inventoryReserveLatency)
	return nil
}

// SimulatedPayment declines a fixed share of charges.
type SimulatedPayment struct {
	rand  Rand
	sleep Sleeper
}

func NewSimulatedPayment(r Rand, sleep Sleeper) *SimulatedPayment {
	if sleep == nil {
		sleep = defaultSleep
	}
	return &SimulatedPayment{rand: r, sleep: sleep}
}

func (s *SimulatedPayment) Charge(ctx context.Context, o *order.Order) error {
	s.sleep(ctx, paymentLatency)
	if s.rand.Float64() < paymentDeclineRate {
		return fmt.Errorf("payment failed for order %s: card declined", o.OrderID)
	}
	return nil
}

// SimulatedShipping issues tracking references locally.
type SimulatedShipping struct {
	sleep   Sleeper
	nowFunc func() time.Time
}

func NewSimulatedShipping(sleep Sleeper) *SimulatedShipping {
	if sleep == nil {
		sleep = defaultSleep
	}
	return &SimulatedShipping{sleep: sleep, nowFunc: time.Now}
}

func (s *SimulatedShipping) CreateShipment(ctx context.Context, o *order.Order) (string, error) {
	s.sleep(ctx, shipmentLatency)
	id := o.OrderID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("TRACK-%d-%s", s.nowFunc().UnixMilli(), id), nil
}
