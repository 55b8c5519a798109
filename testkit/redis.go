package testkit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bronystylecrazy/testbridge/bridge"
	"github.com/bronystylecrazy/testbridge/di"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	defaultRedisImage          = "redis:7-alpine"
	defaultRedisPort           = "6379/tcp"
	defaultRedisStartupTimeout = 90 * time.Second
)

// RedisOptions controls how the Redis server is started.
type RedisOptions struct {
	// Container starts a real Redis in Docker instead of an in-memory server.
	Container      bool
	Image          string
	Password       string
	StartupTimeout time.Duration
}

// StartRedis starts a Redis container and returns its address.
func (s *Suite) StartRedis(opts RedisOptions) string {
	s.t.Helper()
	opts = withRedisDefaults(opts)
	req := testcontainers.ContainerRequest{
		Image:        opts.Image,
		ExposedPorts: []string{defaultRedisPort},
		WaitingFor:   wait.ForListeningPort(defaultRedisPort).WithStartupTimeout(opts.StartupTimeout),
	}
	if opts.Password != "" {
		req.Cmd = []string{"redis-server", "--appendonly", "no", "--requirepass", opts.Password}
	}
	return s.Addr(s.StartContainer(req), defaultRedisPort)
}

func withRedisDefaults(opts RedisOptions) RedisOptions {
	if opts.Image == "" {
		opts.Image = defaultRedisImage
	}
	if opts.StartupTimeout <= 0 {
		opts.StartupTimeout = defaultRedisStartupTimeout
	}
	return opts
}

// RedisFixture is a chain instance that owns a Redis server for the duration
// of a test. It produces a singleton *redis.Client, closed when the container
// shuts down, and dependent *redis.Options.
type RedisFixture struct {
	t      testing.TB
	opts   RedisOptions
	once   sync.Once
	err    error
	addr   string
	server *miniredis.Miniredis
}

func NewRedisFixture(t testing.TB, opts RedisOptions) *RedisFixture {
	return &RedisFixture{t: t, opts: opts}
}

func (f *RedisFixture) DeclareMembers(d *bridge.Declarations) {
	d.Produces((*RedisFixture).ClientOptions)
	d.Produces((*RedisFixture).Client, string(di.Singleton))
	d.Disposes((*RedisFixture).closeClient, 0)
}

func (f *RedisFixture) start() error {
	f.once.Do(func() {
		if f.opts.Container {
			f.addr = NewSuite(f.t).StartRedis(f.opts)
			return
		}
		server := miniredis.NewMiniRedis()
		if f.opts.Password != "" {
			server.RequireAuth(f.opts.Password)
		}
		if err := server.Start(); err != nil {
			f.err = fmt.Errorf("testkit: start miniredis: %w", err)
			return
		}
		f.server = server
		f.addr = server.Addr()
	})
	return f.err
}

func (f *RedisFixture) PostConstruct(context.Context) error {
	return f.start()
}

func (f *RedisFixture) PreDestroy(context.Context) error {
	if f.server != nil {
		f.server.Close()
	}
	return nil
}

// Addr returns host:port of the running server.
func (f *RedisFixture) Addr() string {
	return f.addr
}

// Server returns the in-memory server, or nil in container mode.
func (f *RedisFixture) Server() *miniredis.Miniredis {
	return f.server
}

func (f *RedisFixture) ClientOptions() (*redis.Options, error) {
	if err := f.start(); err != nil {
		return nil, err
	}
	return &redis.Options{Addr: f.addr, Password: f.opts.Password}, nil
}

func (f *RedisFixture) Client(opts *redis.Options) *redis.Client {
	return redis.NewClient(opts)
}

func (f *RedisFixture) closeClient(c *redis.Client) error {
	return c.Close()
}
