// Package host models the hypervisor/cloud control plane side of a test
// run: the VM descriptors allocated to a case and the operations the corpus
// performs on them.
package host

import (
	"fmt"
	"strings"

	"github.com/lvh-project/lvh/pkg/defaults"
)

// VM describes one virtual machine allocated to a test run. Descriptors are
// supplied by the framework configuration and are read-only for suites.
type VM struct {
	// Role is the logical name cases look the VM up by ("VM1", "server",
	// "client", "dependency").
	Role string
	// Name is the VM name on the hypervisor or in the resource group.
	Name string
	// HostOrGroup is the Hyper-V server name or the Azure resource group.
	HostOrGroup string
	PublicIP    string
	InternalIP  string
	SSHPort     int
	SSHUser     string
	SSHPassword string
	SSHKeyFile  string
}

// SSHAddr returns the address suites dial, preferring the public IP.
func (vm *VM) SSHAddr() (string, int) {
	ip := vm.PublicIP
	if ip == "" {
		ip = vm.InternalIP
	}
	port := vm.SSHPort
	if port == 0 {
		port = defaults.DefaultSSHPort
	}
	return ip, port
}

// FindVM resolves a role name among the allocated VMs. Every case requires
// a descriptor per role it uses; a missing role aborts the case.
func FindVM(vms []*VM, role string) (*VM, error) {
	for _, vm := range vms {
		if strings.EqualFold(vm.Role, role) {
			return vm, nil
		}
	}
	return nil, fmt.Errorf("no VM with role %q among the allocated test VMs", role)
}
