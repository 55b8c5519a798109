package bridge_test

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/bronystylecrazy/testbridge/bridge"
	"github.com/bronystylecrazy/testbridge/di"
)

const (
	requestScope      di.Scope = "request"
	conversationScope di.Scope = "conversation"
)

func testMarkers() *di.Markers {
	return di.NewMarkers().
		Qualifier("primary", "region").
		Nonbinding("produced").
		Scope(requestScope).
		Stereotype("model", di.Stereotype{Scope: di.Application}).
		Stereotype("mock", di.Stereotype{Alternative: true})
}

// Three nested levels each contribute a MyBean implementation.

type MyBean interface {
	Ping() string
}

type MyBean1 struct{}

func (*MyBean1) Ping() string { return "MyBean1" }

type MyBean2 struct{}

func (*MyBean2) Ping() string { return "MyBean2" }

type MyBean3 struct{}

func (*MyBean3) Ping() string { return "MyBean3" }

type OuterSuite struct {
	Bean1 *MyBean1 `di:"produces"`
}

type MiddleSuite struct {
	Bean2 *MyBean2 `di:"produces"`
}

type InnerSuite struct {
	Bean3 *MyBean3 `di:"produces"`
	Bean  MyBean   `di:"inject"`
}

// Connections exercise provider methods and disposal.

type connection struct {
	name string
}

type connectionSuite struct {
	mu     sync.Mutex
	closed []string
}

func (s *connectionSuite) DeclareMembers(d *bridge.Declarations) {
	d.Produces((*connectionSuite).primary, string(requestScope), "primary")
	d.Produces((*connectionSuite).secondary, string(requestScope))
	d.Disposes((*connectionSuite).closePrimary, 0, "primary")
}

func (s *connectionSuite) primary() *connection { return &connection{name: "primary"} }
func (s *connectionSuite) secondary() *connection { return &connection{name: "secondary"} }

func (s *connectionSuite) closePrimary(c *connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = append(s.closed, c.name)
}

type doubleDisposerSuite struct {
	Conn   *connection `di:"produces,singleton"`
	closes atomic.Int32
}

func (s *doubleDisposerSuite) DeclareMembers(d *bridge.Declarations) {
	d.Disposes((*doubleDisposerSuite).closeA, 0)
	d.Disposes((*doubleDisposerSuite).closeB, 1)
}

func (s *doubleDisposerSuite) closeA(*connection) { s.closes.Add(1) }

func (s *doubleDisposerSuite) closeB(_ context.Context, _ *connection) error {
	s.closes.Add(1)
	return nil
}

// Events.

type orderPlaced struct {
	ID int
}

type eventSuite struct {
	mu      sync.Mutex
	orders  []int
	eu      []int
	ctxSeen bool
	async   atomic.Int32
}

func (s *eventSuite) DeclareMembers(d *bridge.Declarations) {
	d.Observes((*eventSuite).onOrder, 1)
	d.Observes((*eventSuite).onEU, 0, "region=eu")
	d.ObservesAsync((*eventSuite).onOrderAsync, 0)
}

func (s *eventSuite) onOrder(ctx context.Context, e orderPlaced, extra *connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctxSeen = ctx != nil && extra == nil
	s.orders = append(s.orders, e.ID)
}

func (s *eventSuite) onEU(e orderPlaced) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eu = append(s.eu, e.ID)
	return nil
}

func (s *eventSuite) onOrderAsync(orderPlaced) {
	s.async.Add(1)
}
