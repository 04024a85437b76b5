package host

import (
	"context"
	"fmt"
	"sync"
)

// Fake is an in-memory Controller used by framework unit tests and by the
// "fake" driver for dry runs. It keeps just enough state to answer the
// calls the corpus makes.
type Fake struct {
	mu          sync.Mutex
	states      map[string]VMState
	checkpoints map[string][]string
	disks       map[string][]DiskSpec
	memory      map[string]MemoryStat
	kvp         map[string]map[string]string
	heartbeat   map[string]HeartbeatStatus
	guestFiles  map[string]map[string]string
	services    map[string]map[string]bool

	// Calls records every mutating operation for assertions.
	Calls []string
}

// NewFake creates an empty fake controller.
func NewFake() *Fake {
	return &Fake{
		states:      map[string]VMState{},
		checkpoints: map[string][]string{},
		disks:       map[string][]DiskSpec{},
		memory:      map[string]MemoryStat{},
		kvp:         map[string]map[string]string{},
		heartbeat:   map[string]HeartbeatStatus{},
		guestFiles:  map[string]map[string]string{},
		services:    map[string]map[string]bool{},
	}
}

func (f *Fake) record(format string, args ...interface{}) {
	f.Calls = append(f.Calls, fmt.Sprintf(format, args...))
}

// SetState seeds the lifecycle state of a VM.
func (f *Fake) SetState(vm *VM, s VMState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[vm.Name] = s
}

// SetMemoryStat seeds the memory reading returned for a VM.
func (f *Fake) SetMemoryStat(vm *VM, m MemoryStat) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memory[vm.Name] = m
}

// SetHeartbeat seeds the heartbeat status of a VM.
func (f *Fake) SetHeartbeat(vm *VM, h HeartbeatStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.heartbeat[vm.Name] = h
}

// SeedKVP seeds a guest-side KVP item.
func (f *Fake) SeedKVP(vm *VM, key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.kvp[vm.Name] == nil {
		f.kvp[vm.Name] = map[string]string{}
	}
	f.kvp[vm.Name][key] = value
}

// GuestFile returns the content pushed by CopyFileToGuest.
func (f *Fake) GuestFile(vm *VM, guestPath string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	content, ok := f.guestFiles[vm.Name][guestPath]
	return content, ok
}

func (f *Fake) Start(_ context.Context, vm *VM) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[vm.Name] = StateRunning
	f.record("Start %s", vm.Name)
	return nil
}

func (f *Fake) Stop(_ context.Context, vm *VM, force bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[vm.Name] = StateOff
	f.record("Stop %s force=%v", vm.Name, force)
	return nil
}

func (f *Fake) Restart(_ context.Context, vm *VM) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[vm.Name] = StateRunning
	f.record("Restart %s", vm.Name)
	return nil
}

func (f *Fake) State(_ context.Context, vm *VM) (VMState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.states[vm.Name]; ok {
		return s, nil
	}
	return StateUnknown, nil
}

func (f *Fake) Checkpoint(_ context.Context, vm *VM, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkpoints[vm.Name] = append(f.checkpoints[vm.Name], name)
	f.record("Checkpoint %s %s", vm.Name, name)
	return nil
}

func (f *Fake) RevertCheckpoint(_ context.Context, vm *VM, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, cp := range f.checkpoints[vm.Name] {
		if cp == name {
			f.record("RevertCheckpoint %s %s", vm.Name, name)
			return nil
		}
	}
	return fmt.Errorf("checkpoint %s not found on %s", name, vm.Name)
}

func (f *Fake) RemoveCheckpoint(_ context.Context, vm *VM, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.checkpoints[vm.Name][:0]
	for _, cp := range f.checkpoints[vm.Name] {
		if cp != name {
			kept = append(kept, cp)
		}
	}
	f.checkpoints[vm.Name] = kept
	f.record("RemoveCheckpoint %s %s", vm.Name, name)
	return nil
}

func (f *Fake) AttachDisk(_ context.Context, vm *VM, disk DiskSpec) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disks[vm.Name] = append(f.disks[vm.Name], disk)
	f.record("AttachDisk %s %s %dGB", vm.Name, disk.Name, disk.SizeGB)
	return nil
}

func (f *Fake) DetachDisk(_ context.Context, vm *VM, diskName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.disks[vm.Name][:0]
	found := false
	for _, d := range f.disks[vm.Name] {
		if d.Name == diskName {
			found = true
			continue
		}
		kept = append(kept, d)
	}
	if !found {
		return fmt.Errorf("disk %s not attached to %s", diskName, vm.Name)
	}
	f.disks[vm.Name] = kept
	f.record("DetachDisk %s %s", vm.Name, diskName)
	return nil
}

func (f *Fake) SetMemory(_ context.Context, vm *VM, bytes uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := f.memory[vm.Name]
	m.Assigned = bytes
	f.memory[vm.Name] = m
	f.record("SetMemory %s %d", vm.Name, bytes)
	return nil
}

func (f *Fake) Memory(_ context.Context, vm *VM) (MemoryStat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.memory[vm.Name], nil
}

func (f *Fake) KVPRead(_ context.Context, vm *VM, _ int, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.kvp[vm.Name][key]; ok {
		return v, nil
	}
	return "", fmt.Errorf("KVP item %s not found on %s", key, vm.Name)
}

func (f *Fake) KVPWrite(_ context.Context, vm *VM, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.kvp[vm.Name] == nil {
		f.kvp[vm.Name] = map[string]string{}
	}
	f.kvp[vm.Name][key] = value
	f.record("KVPWrite %s %s=%s", vm.Name, key, value)
	return nil
}

func (f *Fake) Heartbeat(_ context.Context, vm *VM) (HeartbeatStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if h, ok := f.heartbeat[vm.Name]; ok {
		return h, nil
	}
	return HeartbeatNone, nil
}

func (f *Fake) CopyFileToGuest(_ context.Context, vm *VM, localPath, guestPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.guestFiles[vm.Name] == nil {
		f.guestFiles[vm.Name] = map[string]string{}
	}
	f.guestFiles[vm.Name][guestPath] = localPath
	f.record("CopyFileToGuest %s %s", vm.Name, guestPath)
	return nil
}

func (f *Fake) SetIntegrationService(_ context.Context, vm *VM, service string, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.services[vm.Name] == nil {
		f.services[vm.Name] = map[string]bool{}
	}
	f.services[vm.Name][service] = enabled
	f.record("SetIntegrationService %s %s=%v", vm.Name, service, enabled)
	return nil
}
