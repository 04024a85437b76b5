// Package azure drives the Azure control plane through the az CLI.
// Hyper-V integration services (KVP, FCOPY, heartbeat, checkpoints) have no
// ARM counterpart and report ErrNotSupported; suites skip on that.
package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/lvh-project/lvh/pkg/host"
	"github.com/lvh-project/lvh/pkg/utils"
)

type runFunc func(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error)

// Controller wraps az vm subcommands for one subscription context.
type Controller struct {
	cli string
	run runFunc
}

// New creates an az-CLI backed controller. Login and subscription selection
// are the operator's concern.
func New() *Controller {
	return &Controller{cli: "az", run: utils.RunCommandAndWait}
}

func (c *Controller) az(ctx context.Context, args ...string) (string, error) {
	log.Debugf("azure: az %s", strings.Join(args, " "))
	stdout, stderr, err := c.run(ctx, c.cli, args...)
	if err != nil {
		return "", fmt.Errorf("az %s failed: %w: %s", args[0], err, strings.TrimSpace(stderr))
	}
	return strings.TrimSpace(stdout), nil
}

func (c *Controller) Start(ctx context.Context, vm *host.VM) error {
	_, err := c.az(ctx, "vm", "start", "--resource-group", vm.HostOrGroup, "--name", vm.Name)
	return err
}

func (c *Controller) Stop(ctx context.Context, vm *host.VM, force bool) error {
	args := []string{"vm", "deallocate", "--resource-group", vm.HostOrGroup, "--name", vm.Name}
	if force {
		args = append(args, "--force")
	}
	_, err := c.az(ctx, args...)
	return err
}

func (c *Controller) Restart(ctx context.Context, vm *host.VM) error {
	_, err := c.az(ctx, "vm", "restart", "--resource-group", vm.HostOrGroup, "--name", vm.Name)
	return err
}

func (c *Controller) State(ctx context.Context, vm *host.VM) (host.VMState, error) {
	out, err := c.az(ctx, "vm", "show", "-d",
		"--resource-group", vm.HostOrGroup, "--name", vm.Name,
		"--query", "powerState", "--output", "json")
	if err != nil {
		return host.StateUnknown, err
	}
	var powerState string
	if err := json.Unmarshal([]byte(out), &powerState); err != nil {
		return host.StateUnknown, fmt.Errorf("cannot parse az vm show output: %w", err)
	}
	switch powerState {
	case "VM running":
		return host.StateRunning, nil
	case "VM stopped", "VM deallocated":
		return host.StateOff, nil
	}
	return host.StateUnknown, nil
}

func (c *Controller) Checkpoint(ctx context.Context, _ *host.VM, _ string) error {
	return host.ErrNotSupported
}

func (c *Controller) RevertCheckpoint(ctx context.Context, _ *host.VM, _ string) error {
	return host.ErrNotSupported
}

func (c *Controller) RemoveCheckpoint(ctx context.Context, _ *host.VM, _ string) error {
	return host.ErrNotSupported
}

func (c *Controller) AttachDisk(ctx context.Context, vm *host.VM, disk host.DiskSpec) error {
	_, err := c.az(ctx, "vm", "disk", "attach",
		"--resource-group", vm.HostOrGroup, "--vm-name", vm.Name,
		"--name", disk.Name, "--new", "--size-gb", fmt.Sprint(disk.SizeGB))
	return err
}

func (c *Controller) DetachDisk(ctx context.Context, vm *host.VM, diskName string) error {
	_, err := c.az(ctx, "vm", "disk", "detach",
		"--resource-group", vm.HostOrGroup, "--vm-name", vm.Name, "--name", diskName)
	return err
}

func (c *Controller) SetMemory(ctx context.Context, _ *host.VM, _ uint64) error {
	// memory resize means a redeploy to another size, not a runtime hot add
	return host.ErrNotSupported
}

func (c *Controller) Memory(ctx context.Context, _ *host.VM) (host.MemoryStat, error) {
	return host.MemoryStat{}, host.ErrNotSupported
}

func (c *Controller) KVPRead(ctx context.Context, _ *host.VM, _ int, _ string) (string, error) {
	return "", host.ErrNotSupported
}

func (c *Controller) KVPWrite(ctx context.Context, _ *host.VM, _, _ string) error {
	return host.ErrNotSupported
}

func (c *Controller) Heartbeat(ctx context.Context, _ *host.VM) (host.HeartbeatStatus, error) {
	return host.HeartbeatNone, host.ErrNotSupported
}

func (c *Controller) CopyFileToGuest(ctx context.Context, _ *host.VM, _, _ string) error {
	return host.ErrNotSupported
}

func (c *Controller) SetIntegrationService(ctx context.Context, _ *host.VM, _ string, _ bool) error {
	return host.ErrNotSupported
}
