package testkit

import (
	"context"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// IntegrationEnv gates tests that need Docker.
const IntegrationEnv = "TESTBRIDGE_INTEGRATION"

const terminateTimeout = 30 * time.Second

// RequireIntegration skips the test unless TESTBRIDGE_INTEGRATION is truthy.
func RequireIntegration(t testing.TB) {
	t.Helper()
	if on, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv(IntegrationEnv))); on {
		return
	}
	t.Skipf("skipping integration test; set %s=1 to run", IntegrationEnv)
}

// RequireDocker skips the test when Docker is unavailable.
func RequireDocker(t testing.TB) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			t.Skipf("docker is not available: %v", r)
		}
	}()
	provider, err := testcontainers.NewDockerProvider()
	if err != nil {
		t.Skipf("docker is not available: %v", err)
		return
	}
	_ = provider.Close()
}

// Suite owns the containers started for a test. Containers are terminated
// in reverse start order by Stop, or at test cleanup at the latest.
type Suite struct {
	t          testing.TB
	ctx        context.Context
	log        *zap.Logger
	mu         sync.Mutex
	containers []testcontainers.Container
}

func NewSuite(t testing.TB) *Suite {
	t.Helper()
	RequireDocker(t)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Suite{t: t, ctx: ctx, log: zaptest.NewLogger(t).Named("testkit")}
	t.Cleanup(func() {
		stopCtx, stop := context.WithTimeout(context.Background(), terminateTimeout)
		defer stop()
		if err := s.Stop(stopCtx); err != nil {
			t.Errorf("testkit: %v", err)
		}
		cancel()
	})
	return s
}

func (s *Suite) Context() context.Context {
	return s.ctx
}

// StartContainer starts req and fails the test when it cannot.
func (s *Suite) StartContainer(req testcontainers.ContainerRequest) testcontainers.Container {
	s.t.Helper()
	c, err := testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		s.t.Fatalf("testkit: start container %q: %v", req.Image, err)
	}
	s.mu.Lock()
	s.containers = append(s.containers, c)
	s.mu.Unlock()
	s.log.Debug("container started", zap.String("image", req.Image), zap.String("id", c.GetContainerID()))
	return c
}

// Stop terminates every started container. It is safe to call repeatedly.
func (s *Suite) Stop(ctx context.Context) error {
	s.mu.Lock()
	containers := s.containers
	s.containers = nil
	s.mu.Unlock()

	var err error
	for i := len(containers) - 1; i >= 0; i-- {
		err = multierr.Append(err, containers[i].Terminate(ctx))
	}
	return err
}

// Addr returns the host:port a container port is published on.
func (s *Suite) Addr(c testcontainers.Container, port string) string {
	s.t.Helper()
	host, err := c.Host(s.ctx)
	if err != nil {
		s.t.Fatalf("testkit: container host: %v", err)
	}
	mapped, err := c.MappedPort(s.ctx, nat.Port(port))
	if err != nil {
		s.t.Fatalf("testkit: mapped port for %s: %v", port, err)
	}
	return net.JoinHostPort(host, mapped.Port())
}
