package kvp_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/lvh-project/lvh/pkg/guest"
	"github.com/lvh-project/lvh/pkg/harness"
	"github.com/lvh-project/lvh/pkg/host"
	"github.com/lvh-project/lvh/pkg/tests"
)

var (
	tc  *harness.TestContext
	vm  *host.VM
	cli *guest.Client
)

// TestMain is used to provide setup and teardown for the rest of the
// tests. As part of setup we resolve the VM descriptor the suite operates
// on and open the guest session; a missing role aborts the whole suite.
func TestMain(m *testing.M) {
	log.Println("KVP Test Suite started")

	tests.TestArgsParse()

	tc = harness.NewTestContext()

	var err error
	vm, err = tc.RequireVM("vm1")
	if err != nil {
		log.Fatal(err)
	}
	cli = tc.NewGuest(vm)

	os.Exit(m.Run())
}

//nolint:paralleltest
func TestKVPDaemonRunning(t *testing.T) {
	log.Println("TestKVPDaemonRunning started")
	defer log.Println("TestKVPDaemonRunning finished")

	ctx := context.Background()
	_, err := guest.WaitForMatch(ctx, cli, "pgrep -f 'hv_kvp_daemon|hypervkvpd'",
		func(out string) bool { return strings.TrimSpace(out) != "" },
		0, 2*time.Minute)
	if err != nil {
		t.Fatal("KVP daemon is not running in the guest")
	}
}

//nolint:paralleltest
func TestKVPHostToGuest(t *testing.T) {
	log.Println("TestKVPHostToGuest started")
	defer log.Println("TestKVPHostToGuest finished")

	ctx := context.Background()
	key := fmt.Sprintf("lvh_%d", time.Now().Unix())
	value := "host-to-guest-checked"

	err := tc.Controller().KVPWrite(ctx, vm, key, value)
	if errors.Is(err, host.ErrNotSupported) {
		t.Skip("KVP exchange is not supported by the configured driver")
	}
	if err != nil {
		t.Fatal(err)
	}

	// pool 0 holds host-to-guest items; the daemon needs a moment to sync
	command := "cat /var/lib/hyperv/.kvp_pool_0 | tr -d '\\0'"
	out, err := guest.WaitForMatch(ctx, cli, command,
		func(out string) bool { return strings.Contains(out, key) },
		0, 2*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, value) {
		t.Fatalf("KVP item %s reached the guest without its value", key)
	}
}

//nolint:paralleltest
func TestKVPIntrinsicItems(t *testing.T) {
	log.Println("TestKVPIntrinsicItems started")
	defer log.Println("TestKVPIntrinsicItems finished")

	ctx := context.Background()
	osName, err := tc.Controller().KVPRead(ctx, vm, host.KVPPoolGuestIntrinsic, "OSName")
	if errors.Is(err, host.ErrNotSupported) {
		t.Skip("KVP exchange is not supported by the configured driver")
	}
	if err != nil {
		t.Fatal(err)
	}

	uname, err := cli.Run(ctx, "uname -s")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(strings.ToLower(osName), strings.ToLower(strings.TrimSpace(uname))) {
		t.Fatalf("intrinsic OSName %q does not match guest uname %q", osName, strings.TrimSpace(uname))
	}
}

//nolint:paralleltest
func TestKVPServiceToggle(t *testing.T) {
	log.Println("TestKVPServiceToggle started")
	defer log.Println("TestKVPServiceToggle finished")

	ctx := context.Background()
	err := tc.Controller().SetIntegrationService(ctx, vm, "Key-Value Pair Exchange", false)
	if errors.Is(err, host.ErrNotSupported) {
		t.Skip("integration services are not supported by the configured driver")
	}
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := tc.Controller().SetIntegrationService(ctx, vm, "Key-Value Pair Exchange", true); err != nil {
			t.Errorf("cannot re-enable KVP service: %s", err)
		}
	}()

	// with the service disabled a host write must not land in the guest
	key := fmt.Sprintf("lvh_disabled_%d", time.Now().Unix())
	if err := tc.Controller().KVPWrite(ctx, vm, key, "should-not-arrive"); err == nil {
		command := "cat /var/lib/hyperv/.kvp_pool_0 | tr -d '\\0'"
		if out, err := cli.Run(ctx, command); err == nil && strings.Contains(out, key) {
			t.Fatalf("KVP item %s reached the guest while the service was disabled", key)
		}
	}
}
