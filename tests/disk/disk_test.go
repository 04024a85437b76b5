package disk_test

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/lvh-project/lvh/pkg/guest"
	"github.com/lvh-project/lvh/pkg/harness"
	"github.com/lvh-project/lvh/pkg/host"
	"github.com/lvh-project/lvh/pkg/params"
	"github.com/lvh-project/lvh/pkg/tests"
)

var testParams = flag.String("params", "diskSizeGB=2;raidDisks=3",
	"semicolon separated test parameters")

var (
	tc *harness.TestContext
	vm *host.VM
	tp params.Params
)

func TestMain(m *testing.M) {
	log.Println("Storage Hot-Add Test Suite started")

	tests.TestArgsParse()

	tp = params.Parse(*testParams)
	tc = harness.NewTestContext()

	var err error
	vm, err = tc.RequireVM("vm1")
	if err != nil {
		log.Fatal(err)
	}

	os.Exit(m.Run())
}

// guestDisks lists the block devices the guest currently sees.
func guestDisks(ctx context.Context, cli *guest.Client) ([]string, error) {
	out, err := cli.Run(ctx, "lsblk -d -n -o NAME,TYPE | awk '$2==\"disk\"{print $1}'")
	if err != nil {
		return nil, err
	}
	var disks []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			disks = append(disks, line)
		}
	}
	return disks, nil
}

// newDisks returns the devices present in after but not in before.
func newDisks(before, after []string) []string {
	seen := map[string]bool{}
	for _, d := range before {
		seen[d] = true
	}
	var fresh []string
	for _, d := range after {
		if !seen[d] {
			fresh = append(fresh, d)
		}
	}
	return fresh
}

// waitNewDisks polls until the guest sees count more disks than before.
func waitNewDisks(ctx context.Context, cli *guest.Client, before []string, count int) ([]string, error) {
	var fresh []string
	_, err := guest.WaitForMatch(ctx, guest.RunnerFunc(func(ctx context.Context, _ string) (string, error) {
		after, err := guestDisks(ctx, cli)
		if err != nil {
			return "", err
		}
		fresh = newDisks(before, after)
		return strconv.Itoa(len(fresh)), nil
	}), "lsblk new disks",
		func(out string) bool { return out == strconv.Itoa(count) },
		0, 2*time.Minute)
	return fresh, err
}

//nolint:paralleltest
func TestDiskHotAdd(t *testing.T) {
	log.Println("TestDiskHotAdd started")
	defer log.Println("TestDiskHotAdd finished")

	ctx := context.Background()
	cli := tc.NewGuest(vm)

	before, err := guestDisks(ctx, cli)
	if err != nil {
		t.Fatal(err)
	}

	spec := host.DiskSpec{
		Name:    diskName(t, "hotadd"),
		SizeGB:  tp.IntDefault("diskSizeGB", 2),
		Dynamic: true,
	}
	if err := tc.Controller().AttachDisk(ctx, vm, spec); err != nil {
		if errors.Is(err, host.ErrNotSupported) {
			t.Skip("disk hot-add is not supported by the configured driver")
		}
		t.Fatal(err)
	}
	defer func() {
		if err := tc.Controller().DetachDisk(ctx, vm, spec.Name); err != nil {
			log.Errorf("detach %s: %s", spec.Name, err)
		}
	}()

	fresh, err := waitNewDisks(ctx, cli, before, 1)
	if err != nil {
		t.Fatalf("guest never saw the hot-added disk: %s", err)
	}
	dev := "/dev/" + fresh[0]
	log.Printf("hot-added disk appeared as %s", dev)

	// partition, format, mount and write through the new disk
	prep := strings.Join([]string{
		fmt.Sprintf("sudo parted -s %s mklabel gpt mkpart primary ext4 0%% 100%%", dev),
		fmt.Sprintf("sudo mkfs.ext4 -F %s1", dev),
		"sudo mkdir -p /mnt/hotadd",
		fmt.Sprintf("sudo mount %s1 /mnt/hotadd", dev),
		"sudo dd if=/dev/zero of=/mnt/hotadd/probe bs=1M count=64 conv=fsync",
		"sync",
		"sudo umount /mnt/hotadd",
	}, " && ")
	if out, err := cli.Run(ctx, prep); err != nil {
		t.Fatalf("filesystem workload on %s failed: %s\n%s", dev, err, out)
	}
}

//nolint:paralleltest
func TestDiskRAID(t *testing.T) {
	log.Println("TestDiskRAID started")
	defer log.Println("TestDiskRAID finished")

	ctx := context.Background()
	cli := tc.NewGuest(vm)

	if _, err := cli.Run(ctx, "which mdadm"); err != nil {
		t.Skip("mdadm is not installed in the guest")
	}

	before, err := guestDisks(ctx, cli)
	if err != nil {
		t.Fatal(err)
	}

	count := tp.IntDefault("raidDisks", 3)
	var specs []host.DiskSpec
	for i := 0; i < count; i++ {
		spec := host.DiskSpec{
			Name:    diskName(t, fmt.Sprintf("raid%d", i)),
			SizeGB:  tp.IntDefault("diskSizeGB", 2),
			Dynamic: true,
		}
		if err := tc.Controller().AttachDisk(ctx, vm, spec); err != nil {
			if errors.Is(err, host.ErrNotSupported) {
				t.Skip("disk hot-add is not supported by the configured driver")
			}
			t.Fatal(err)
		}
		specs = append(specs, spec)
	}
	defer func() {
		for _, spec := range specs {
			if err := tc.Controller().DetachDisk(ctx, vm, spec.Name); err != nil {
				log.Errorf("detach %s: %s", spec.Name, err)
			}
		}
	}()

	fresh, err := waitNewDisks(ctx, cli, before, count)
	if err != nil {
		t.Fatalf("guest never saw all %d hot-added disks: %s", count, err)
	}
	var devs []string
	for _, d := range fresh {
		devs = append(devs, "/dev/"+d)
	}

	raid := strings.Join([]string{
		fmt.Sprintf("sudo mdadm --create /dev/md0 --level=0 --raid-devices=%d %s --run --force",
			count, strings.Join(devs, " ")),
		"sudo mkfs.ext4 -F /dev/md0",
		"sudo mkdir -p /mnt/raid",
		"sudo mount /dev/md0 /mnt/raid",
		"sudo dd if=/dev/zero of=/mnt/raid/probe bs=1M count=128 conv=fsync",
		"sync",
		"sudo umount /mnt/raid",
		"sudo mdadm --stop /dev/md0",
	}, " && ")
	if out, err := cli.Run(ctx, raid); err != nil {
		t.Fatalf("raid workload failed: %s\n%s", err, out)
	}
}

// diskName derives a disk name unique to this run and test.
func diskName(t *testing.T, suffix string) string {
	return fmt.Sprintf("%s-%s-%s", strings.ToLower(t.Name()), tc.RunID()[:8], suffix)
}
