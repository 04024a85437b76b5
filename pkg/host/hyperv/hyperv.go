// Package hyperv drives the Hyper-V control plane through PowerShell
// cmdlets. Only the argument surface the test corpus touches is covered;
// the WMI object model stays on the PowerShell side.
package hyperv

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/lvh-project/lvh/pkg/host"
	"github.com/lvh-project/lvh/pkg/utils"
)

// runFunc executes a host-side binary; split out so unit tests can record
// the generated cmdlet invocations.
type runFunc func(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error)

// Controller talks to a Hyper-V server via powershell.exe.
type Controller struct {
	// computerName is the Hyper-V host; empty means the local machine.
	computerName string
	shell        string
	run          runFunc
}

// New creates a controller for the given Hyper-V server.
func New(computerName string) *Controller {
	return &Controller{
		computerName: computerName,
		shell:        "powershell.exe",
		run:          utils.RunCommandAndWait,
	}
}

// invoke runs a cmdlet pipeline and returns its trimmed stdout.
func (c *Controller) invoke(ctx context.Context, script string) (string, error) {
	log.Debugf("hyperv: %s", script)
	stdout, stderr, err := c.run(ctx, c.shell, "-NoProfile", "-NonInteractive", "-Command", script)
	if err != nil {
		return "", fmt.Errorf("powershell failed: %w: %s", err, strings.TrimSpace(stderr))
	}
	return strings.TrimSpace(stdout), nil
}

// onServer appends the -ComputerName argument when a remote host is set.
func (c *Controller) onServer() string {
	if c.computerName == "" {
		return ""
	}
	return fmt.Sprintf(" -ComputerName '%s'", c.computerName)
}

func (c *Controller) Start(ctx context.Context, vm *host.VM) error {
	_, err := c.invoke(ctx, fmt.Sprintf("Start-VM -Name '%s'%s", vm.Name, c.onServer()))
	return err
}

func (c *Controller) Stop(ctx context.Context, vm *host.VM, force bool) error {
	script := fmt.Sprintf("Stop-VM -Name '%s'%s", vm.Name, c.onServer())
	if force {
		script += " -TurnOff -Force"
	}
	_, err := c.invoke(ctx, script)
	return err
}

func (c *Controller) Restart(ctx context.Context, vm *host.VM) error {
	_, err := c.invoke(ctx, fmt.Sprintf("Restart-VM -Name '%s'%s -Force", vm.Name, c.onServer()))
	return err
}

func (c *Controller) State(ctx context.Context, vm *host.VM) (host.VMState, error) {
	out, err := c.invoke(ctx, fmt.Sprintf("(Get-VM -Name '%s'%s).State.ToString()", vm.Name, c.onServer()))
	if err != nil {
		return host.StateUnknown, err
	}
	switch out {
	case "Running":
		return host.StateRunning, nil
	case "Off":
		return host.StateOff, nil
	case "Paused":
		return host.StatePaused, nil
	case "Saved":
		return host.StateSaved, nil
	}
	return host.StateUnknown, nil
}

func (c *Controller) Checkpoint(ctx context.Context, vm *host.VM, name string) error {
	_, err := c.invoke(ctx, fmt.Sprintf("Checkpoint-VM -Name '%s'%s -SnapshotName '%s'",
		vm.Name, c.onServer(), name))
	return err
}

func (c *Controller) RevertCheckpoint(ctx context.Context, vm *host.VM, name string) error {
	_, err := c.invoke(ctx, fmt.Sprintf("Restore-VMSnapshot -VMName '%s'%s -Name '%s' -Confirm:$false",
		vm.Name, c.onServer(), name))
	return err
}

func (c *Controller) RemoveCheckpoint(ctx context.Context, vm *host.VM, name string) error {
	_, err := c.invoke(ctx, fmt.Sprintf("Remove-VMSnapshot -VMName '%s'%s -Name '%s'",
		vm.Name, c.onServer(), name))
	return err
}

func (c *Controller) AttachDisk(ctx context.Context, vm *host.VM, disk host.DiskSpec) error {
	sizeOpt := "-Fixed"
	if disk.Dynamic {
		sizeOpt = "-Dynamic"
	}
	vhdPath := fmt.Sprintf("$((Get-VMHost%s).VirtualHardDiskPath + '\\%s.vhdx')", c.onServer(), disk.Name)
	script := fmt.Sprintf("$vhd = %s; New-VHD -Path $vhd -SizeBytes %dGB %s%s | Out-Null; "+
		"Add-VMHardDiskDrive -VMName '%s'%s -ControllerType SCSI -Path $vhd",
		vhdPath, disk.SizeGB, sizeOpt, c.onServer(), vm.Name, c.onServer())
	_, err := c.invoke(ctx, script)
	return err
}

func (c *Controller) DetachDisk(ctx context.Context, vm *host.VM, diskName string) error {
	script := fmt.Sprintf("Get-VMHardDiskDrive -VMName '%s'%s | "+
		"Where-Object { $_.Path -like '*%s*' } | Remove-VMHardDiskDrive",
		vm.Name, c.onServer(), diskName)
	_, err := c.invoke(ctx, script)
	return err
}

func (c *Controller) SetMemory(ctx context.Context, vm *host.VM, bytes uint64) error {
	_, err := c.invoke(ctx, fmt.Sprintf("Set-VMMemory -VMName '%s'%s -StartupBytes %d",
		vm.Name, c.onServer(), bytes))
	return err
}

func (c *Controller) Memory(ctx context.Context, vm *host.VM) (host.MemoryStat, error) {
	out, err := c.invoke(ctx, fmt.Sprintf(
		"Get-VM -Name '%s'%s | Select-Object MemoryAssigned,MemoryDemand | ConvertTo-Json",
		vm.Name, c.onServer()))
	if err != nil {
		return host.MemoryStat{}, err
	}
	var stat struct {
		MemoryAssigned uint64
		MemoryDemand   uint64
	}
	if err := json.Unmarshal([]byte(out), &stat); err != nil {
		return host.MemoryStat{}, fmt.Errorf("cannot parse Get-VM memory output: %w", err)
	}
	return host.MemoryStat{Assigned: stat.MemoryAssigned, Demand: stat.MemoryDemand}, nil
}

// kvpReadScript extracts one item from the KVP exchange component of a VM.
// Pools 1 and 3 live in GuestExchangeItems/GuestIntrinsicExchangeItems.
const kvpReadScript = `$vm = Get-WmiObject%[1]s -Namespace root\virtualization\v2 ` +
	`-Query "Select * From Msvm_ComputerSystem Where ElementName='%[2]s'";` +
	`$kvp = $vm.GetRelated('Msvm_KvpExchangeComponent');` +
	`$items = if (%[3]d -eq 3) { $kvp.GuestIntrinsicExchangeItems } else { $kvp.GuestExchangeItems };` +
	`foreach ($item in $items) {` +
	` $xml = [xml]$item;` +
	` $name = ($xml.Instance.Property | Where-Object {$_.Name -eq 'Name'}).Value;` +
	` if ($name -eq '%[4]s') { ($xml.Instance.Property | Where-Object {$_.Name -eq 'Data'}).Value }}`

func (c *Controller) KVPRead(ctx context.Context, vm *host.VM, pool int, key string) (string, error) {
	computer := ""
	if c.computerName != "" {
		computer = fmt.Sprintf(" -ComputerName '%s'", c.computerName)
	}
	out, err := c.invoke(ctx, fmt.Sprintf(kvpReadScript, computer, vm.Name, pool, key))
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", fmt.Errorf("KVP item %s not found on %s", key, vm.Name)
	}
	return out, nil
}

// kvpWriteScript adds a host-to-guest item through the virtual system
// management service.
const kvpWriteScript = `$vmms = Get-WmiObject%[1]s -Namespace root\virtualization\v2 -Class Msvm_VirtualSystemManagementService;` +
	`$vm = Get-WmiObject%[1]s -Namespace root\virtualization\v2 ` +
	`-Query "Select * From Msvm_ComputerSystem Where ElementName='%[2]s'";` +
	`$item = ([WmiClass]"\\.\root\virtualization\v2:Msvm_KvpExchangeDataItem").CreateInstance();` +
	`$item.Name = '%[3]s'; $item.Data = '%[4]s'; $item.Source = 0;` +
	`$vmms.AddKvpItems($vm, $item.PSBase.GetText(1)) | Out-Null`

func (c *Controller) KVPWrite(ctx context.Context, vm *host.VM, key, value string) error {
	computer := ""
	if c.computerName != "" {
		computer = fmt.Sprintf(" -ComputerName '%s'", c.computerName)
	}
	_, err := c.invoke(ctx, fmt.Sprintf(kvpWriteScript, computer, vm.Name, key, value))
	return err
}

func (c *Controller) Heartbeat(ctx context.Context, vm *host.VM) (host.HeartbeatStatus, error) {
	out, err := c.invoke(ctx, fmt.Sprintf(
		"(Get-VMIntegrationService -VMName '%s'%s -Name Heartbeat).PrimaryStatusDescription",
		vm.Name, c.onServer()))
	if err != nil {
		return host.HeartbeatNone, err
	}
	switch out {
	case "OK":
		return host.HeartbeatOK, nil
	case "Lost Communication":
		return host.HeartbeatLost, nil
	case "No Contact":
		return host.HeartbeatNone, nil
	case "":
		return host.HeartbeatDisabled, nil
	}
	return host.HeartbeatNone, nil
}

func (c *Controller) CopyFileToGuest(ctx context.Context, vm *host.VM, localPath, guestPath string) error {
	_, err := c.invoke(ctx, fmt.Sprintf(
		"Copy-VMFile -Name '%s'%s -SourcePath '%s' -DestinationPath '%s' -FileSource Host -CreateFullPath -Force",
		vm.Name, c.onServer(), localPath, guestPath))
	return err
}

func (c *Controller) SetIntegrationService(ctx context.Context, vm *host.VM, service string, enabled bool) error {
	cmdlet := "Enable-VMIntegrationService"
	if !enabled {
		cmdlet = "Disable-VMIntegrationService"
	}
	_, err := c.invoke(ctx, fmt.Sprintf("%s -VMName '%s'%s -Name '%s'", cmdlet, vm.Name, c.onServer(), service))
	return err
}
