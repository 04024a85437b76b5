package host

import (
	"context"
	"errors"
)

// ErrNotSupported is returned by a driver for operations its control plane
// does not offer (e.g. KVP on Azure). Suites map it to a skip.
var ErrNotSupported = errors.New("operation not supported by this driver")

// VMState is the lifecycle state reported by the control plane.
type VMState string

const (
	StateRunning VMState = "Running"
	StateOff     VMState = "Off"
	StatePaused  VMState = "Paused"
	StateSaved   VMState = "Saved"
	StateUnknown VMState = "Unknown"
)

// HeartbeatStatus is the guest-responsiveness status of the heartbeat
// integration service.
type HeartbeatStatus string

const (
	HeartbeatOK       HeartbeatStatus = "OK"
	HeartbeatLost     HeartbeatStatus = "LostCommunication"
	HeartbeatNone     HeartbeatStatus = "NoContact"
	HeartbeatDisabled HeartbeatStatus = "Disabled"
)

// DiskSpec describes a data disk to hot attach.
type DiskSpec struct {
	Name    string
	SizeGB  int
	Dynamic bool
}

// MemoryStat is a point-in-time memory reading for a VM with dynamic
// memory enabled, in bytes.
type MemoryStat struct {
	Assigned uint64
	Demand   uint64
}

// KVP pools of the key-value exchange integration service.
const (
	KVPPoolHostToGuest    = 0
	KVPPoolGuestToHost    = 1
	KVPPoolGuestIntrinsic = 3
)

// Controller is the control-plane surface the corpus touches. Drivers wrap
// the platform tooling (Hyper-V cmdlets, the az CLI) and do not reproduce
// its object model.
type Controller interface {
	Start(ctx context.Context, vm *VM) error
	Stop(ctx context.Context, vm *VM, force bool) error
	Restart(ctx context.Context, vm *VM) error
	State(ctx context.Context, vm *VM) (VMState, error)

	Checkpoint(ctx context.Context, vm *VM, name string) error
	RevertCheckpoint(ctx context.Context, vm *VM, name string) error
	RemoveCheckpoint(ctx context.Context, vm *VM, name string) error

	AttachDisk(ctx context.Context, vm *VM, disk DiskSpec) error
	DetachDisk(ctx context.Context, vm *VM, diskName string) error

	// SetMemory resizes a running VM (memory hot add/remove).
	SetMemory(ctx context.Context, vm *VM, bytes uint64) error
	Memory(ctx context.Context, vm *VM) (MemoryStat, error)

	KVPRead(ctx context.Context, vm *VM, pool int, key string) (string, error)
	KVPWrite(ctx context.Context, vm *VM, key, value string) error

	Heartbeat(ctx context.Context, vm *VM) (HeartbeatStatus, error)

	// CopyFileToGuest pushes a host file through the file-copy
	// integration service, bypassing the network.
	CopyFileToGuest(ctx context.Context, vm *VM, localPath, guestPath string) error

	SetIntegrationService(ctx context.Context, vm *VM, service string, enabled bool) error
}
