// Package harness is the entry point for test suites: it loads the
// configuration, materializes the allocated VM descriptors, selects the
// control-plane driver and hands out guest sessions.
package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/lvh-project/lvh/pkg/defaults"
	"github.com/lvh-project/lvh/pkg/guest"
	"github.com/lvh-project/lvh/pkg/host"
	"github.com/lvh-project/lvh/pkg/host/azure"
	"github.com/lvh-project/lvh/pkg/host/hyperv"
	"github.com/lvh-project/lvh/pkg/report"
	"github.com/lvh-project/lvh/pkg/utils"
)

//GetDriverMode parses the test.driver config value
func GetDriverMode(driver string) (modeType, modeTarget string, err error) {
	params := utils.GetParams(driver, defaults.DefaultDriverModePattern)
	if len(params) == 0 {
		return "", "", fmt.Errorf("cannot parse driver (not [hyperv|azure|fake]://<target>): %s", driver)
	}
	ok := false
	if modeType, ok = params["Type"]; !ok {
		return "", "", fmt.Errorf("cannot parse driver type from %s", driver)
	}
	modeTarget = params["Target"]
	return
}

//TestContext is main structure for running tests
type TestContext struct {
	controller host.Controller
	vms        []*host.VM
	vars       *utils.ConfigVars
	runID      string
	logDir     string
	tests      map[*host.VM]*testing.T
}

//NewTestContext creates new TestContext
func NewTestContext() *TestContext {
	if _, err := utils.LoadConfigFile(utils.GetConfig("")); err != nil {
		log.Fatalf("LoadConfigFile: %s", err)
	}
	vars, err := utils.InitVars()
	if err != nil {
		log.Fatalf("utils.InitVars: %s", err)
	}

	modeType, modeTarget, err := GetDriverMode(vars.Driver)
	if err != nil {
		log.Fatal(err)
	}
	if modeTarget == "" {
		modeTarget = vars.DriverTarget
	}
	var controller host.Controller
	switch modeType {
	case defaults.DriverHyperV:
		controller = hyperv.New(modeTarget)
	case defaults.DriverAzure:
		controller = azure.New()
	case defaults.DriverFake:
		controller = host.NewFake()
	default:
		log.Fatalf("Not implemented driver type %s", modeType)
	}

	runID := uuid.New().String()
	logDir := filepath.Join(vars.LogDir, runID)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Fatalf("cannot create log directory %s: %s", logDir, err)
	}

	tc := &TestContext{
		controller: controller,
		vars:       vars,
		runID:      runID,
		logDir:     logDir,
		tests:      map[*host.VM]*testing.T{},
	}
	tc.vms = vmDescriptions(vars)
	return tc
}

// vmDescriptions materializes the allocated VM descriptors from config.
func vmDescriptions(vars *utils.ConfigVars) (vms []*host.VM) {
	for role := range viper.GetStringMap("test.vms") {
		prefix := fmt.Sprintf("test.vms.%s", role)
		vm := &host.VM{
			Role:        role,
			Name:        viper.GetString(prefix + ".name"),
			HostOrGroup: viper.GetString(prefix + ".host"),
			PublicIP:    viper.GetString(prefix + ".ip"),
			InternalIP:  viper.GetString(prefix + ".internal-ip"),
			SSHPort:     viper.GetInt(prefix + ".port"),
			SSHUser:     viper.GetString(prefix + ".user"),
			SSHPassword: viper.GetString(prefix + ".password"),
			SSHKeyFile:  viper.GetString(prefix + ".ssh-key"),
		}
		if vm.Name == "" {
			vm.Name = role
		}
		if vm.SSHUser == "" {
			vm.SSHUser = defaults.DefaultSSHUser
		}
		if vm.SSHKeyFile == "" {
			vm.SSHKeyFile = vars.SSHKey
		}
		vms = append(vms, vm)
	}
	return
}

//Controller returns the configured control plane driver
func (tc *TestContext) Controller() host.Controller {
	if tc.controller == nil {
		log.Fatal("Controller not initialized")
	}
	return tc.controller
}

//Vars returns parameters from the config file
func (tc *TestContext) Vars() *utils.ConfigVars {
	return tc.vars
}

//LogDir returns the per-run directory fetched guest logs land in
func (tc *TestContext) LogDir() string {
	return tc.logDir
}

//RunID returns the identity of this run
func (tc *TestContext) RunID() string {
	return tc.runID
}

//VMs returns all allocated VM descriptors
func (tc *TestContext) VMs() []*host.VM {
	return tc.vms
}

//AddVM adds a descriptor to the context
func (tc *TestContext) AddVM(vm *host.VM) {
	tc.vms = append(tc.vms, vm)
}

type GetVMOpts func(*host.VM) bool

//WithRole filters VMs by role name
func (tc *TestContext) WithRole(role string) GetVMOpts {
	return func(vm *host.VM) bool {
		return strings.EqualFold(vm.Role, role)
	}
}

//WithTest assigns *testing.T for the VM
func (tc *TestContext) WithTest(t *testing.T) GetVMOpts {
	return func(vm *host.VM) bool {
		tc.tests[vm] = t
		return true
	}
}

//GetVM returns the first allocated VM matching all opts
func (tc *TestContext) GetVM(opts ...GetVMOpts) *host.VM {
VM:
	for _, vm := range tc.vms {
		for _, opt := range opts {
			if !opt(vm) {
				continue VM
			}
		}
		return vm
	}
	return nil
}

//RequireVM resolves a role or aborts the suite
func (tc *TestContext) RequireVM(role string) (*host.VM, error) {
	return host.FindVM(tc.vms, role)
}

//NewGuest opens an SSH client for a VM descriptor
func (tc *TestContext) NewGuest(vm *host.VM) *guest.Client {
	ip, port := vm.SSHAddr()
	var opts []guest.Option
	if vm.SSHKeyFile != "" {
		opts = append(opts, guest.WithKeyFile(vm.SSHKeyFile))
	}
	if vm.SSHPassword != "" {
		opts = append(opts, guest.WithPassword(vm.SSHPassword))
	}
	return guest.NewClient(ip, port, vm.SSHUser, opts...)
}

//PerfSink opens the sqlite result database when enabled in config
func (tc *TestContext) PerfSink() (*report.DB, error) {
	if !tc.vars.SQLEnabled {
		return nil, nil
	}
	return report.Open(tc.vars.ResultsDB)
}
