// Package hostpool pre-warms a pool of Docker containers, each running an
// isolated dedicated-lobby-host process, ready to be acquired without
// paying cold-start latency. The lobby manager does not acquire from it;
// lobbies run in-process. Adapted from the teacher's ghost-container
// sandbox pool.
package hostpool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

// Host is one pre-warmed container capable of hosting a single lobby.
type Host struct {
	ID        string
	LobbyCode string // set once Acquire binds it to a lobby
	LastUsed  time.Time
}

// PoolManager handles the lifecycle of hosts: pre-warm -> acquire -> reset
// -> release.
type PoolManager struct {
	mu          sync.Mutex
	available   chan *Host
	active      map[string]*Host
	minIdle     int
	maxCapacity int
	imageName   string
	logger      *slog.Logger
	stop        chan struct{}
}

// NewPoolManager initializes the pool and starts the background
// pre-warming maintainer.
func NewPoolManager(minIdle, maxCap int, image string, logger *slog.Logger) *PoolManager {
	if logger == nil {
		logger = slog.Default()
	}
	pm := &PoolManager{
		available:   make(chan *Host, maxCap),
		active:      make(map[string]*Host),
		minIdle:     minIdle,
		maxCapacity: maxCap,
		imageName:   image,
		logger:      logger,
		stop:        make(chan struct{}),
	}
	go pm.maintainPool()
	return pm
}

// Acquire retrieves a pre-warmed host for lobbyCode, or blocks until one is
// ready or ctx is canceled.
func (pm *PoolManager) Acquire(ctx context.Context, lobbyCode string) (*Host, error) {
	select {
	case h := <-pm.available:
		pm.mu.Lock()
		pm.active[h.ID] = h
		pm.mu.Unlock()
		h.LastUsed = time.Now()
		h.LobbyCode = lobbyCode
		return h, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a host to the pool once its lobby has ended, resetting
// its process state first. A host that fails to reset is destroyed instead
// of recycled.
func (pm *PoolManager) Release(h *Host) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := pm.resetHost(ctx, h); err != nil {
			pm.logger.Warn("hostpool: reset failed, destroying host", "host_id", h.ID, "err", err)
			pm.destroyHost(ctx, h)
			return
		}

		pm.mu.Lock()
		delete(pm.active, h.ID)
		pm.mu.Unlock()
		h.LobbyCode = ""
		pm.available <- h
	}()
}

// resetHost wipes the dedicated lobby process's in-container state via
// docker exec, so the next lobby starts from a clean slate.
func (pm *PoolManager) resetHost(ctx context.Context, h *Host) error {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return err
	}
	defer cli.Close()

	execConfig := types.ExecConfig{
		AttachStdout: true,
		AttachStderr: true,
		Cmd:          []string{"/bin/sh", "-c", "rm -rf /tmp/lobby-state/* && pkill -u lobbyuser"},
	}
	execID, err := cli.ContainerExecCreate(ctx, h.ID, execConfig)
	if err != nil {
		return fmt.Errorf("create reset exec: %w", err)
	}
	return cli.ContainerExecStart(ctx, execID.ID, types.ExecStartCheck{})
}

func (pm *PoolManager) maintainPool() {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-pm.stop:
			return
		case <-ticker.C:
			pm.mu.Lock()
			activeCount := len(pm.active)
			pm.mu.Unlock()
			availableCount := len(pm.available)
			total := activeCount + availableCount

			if availableCount < pm.minIdle && total < pm.maxCapacity {
				deficit := pm.minIdle - availableCount
				for i := 0; i < deficit; i++ {
					if total+i >= pm.maxCapacity {
						break
					}
					go pm.createHost()
				}
			}
		}
	}
}

// Stop halts the background maintainer. Existing hosts are left running;
// callers are responsible for tearing down the pool's containers on
// process shutdown.
func (pm *PoolManager) Stop() {
	close(pm.stop)
}

func (pm *PoolManager) createHost() {
	ctx := context.Background()
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		pm.logger.Warn("hostpool: docker client error", "err", err)
		return
	}
	defer cli.Close()

	hostConfig := &container.HostConfig{
		NetworkMode: "bridge",
		Resources: container.Resources{
			NanoCPUs: 500000000,        // 0.5 CPU
			Memory:   256 * 1024 * 1024, // 256MB, one lobby's worth of headroom
		},
	}

	resp, err := cli.ContainerCreate(ctx, &container.Config{
		Image: pm.imageName,
		Tty:   false,
		Cmd:   []string{"sleep", "infinity"},
	}, hostConfig, nil, nil, "")
	if err != nil {
		pm.logger.Warn("hostpool: failed to create host container", "err", err)
		return
	}

	if err := cli.ContainerStart(ctx, resp.ID, types.ContainerStartOptions{}); err != nil {
		pm.logger.Warn("hostpool: failed to start host container", "err", err)
		return
	}

	h := &Host{ID: resp.ID, LastUsed: time.Now()}
	pm.available <- h
	pm.logger.Info("hostpool: pre-warmed host ready", "host_id", shortID(resp.ID))
}

func (pm *PoolManager) destroyHost(ctx context.Context, h *Host) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		pm.logger.Warn("hostpool: failed to create client for destroy", "err", err)
		return
	}
	defer cli.Close()
	if err := cli.ContainerRemove(ctx, h.ID, types.ContainerRemoveOptions{Force: true}); err != nil {
		pm.logger.Warn("hostpool: failed to force remove host", "host_id", h.ID, "err", err)
	}
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// Stats returns current pool statistics, surfaced by the admin API.
func (pm *PoolManager) Stats() map[string]interface{} {
	pm.mu.Lock()
	activeCount := len(pm.active)
	pm.mu.Unlock()
	return map[string]interface{}{
		"active_hosts":    activeCount,
		"idle_hosts":      len(pm.available),
		"total_capacity":  pm.maxCapacity,
		"min_idle":        pm.minIdle,
	}
}
