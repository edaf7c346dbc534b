package registry_test

import (
	"errors"
	"testing"

	"github.com/netgroup-polito/ringpmd/api"
	"github.com/netgroup-polito/ringpmd/internal/registry"
)

type fakeDevice struct {
	name   string
	closed bool
}

func (d *fakeDevice) Name() string { return d.name }
func (d *fakeDevice) Close() error { d.closed = true; return nil }

func TestTable_RegisterLookupUnregister(t *testing.T) {
	r := registry.New()
	dev := &fakeDevice{name: "eth_ring0"}

	id, err := r.Register("eth_ring0", dev)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	got, ok := r.Lookup(id)
	if !ok || got != dev {
		t.Fatalf("Lookup mismatch: ok=%v got=%v", ok, got)
	}

	if _, err := r.Register("eth_ring0", dev); !errors.Is(err, api.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	if err := r.Unregister(id); err != nil {
		t.Fatalf("Unregister: %v", err)
	}
	if !dev.closed {
		t.Fatalf("expected device closed")
	}
	if _, ok := r.Lookup(id); ok {
		t.Fatalf("expected device gone after Unregister")
	}
}

func TestTable_RenameDispatchesHook(t *testing.T) {
	r := registry.New()
	dev := &fakeDevice{name: "eth_ring0"}
	if _, err := r.Register("eth_ring0", dev); err != nil {
		t.Fatalf("Register: %v", err)
	}

	var gotOld, gotNew string
	done := make(chan struct{})
	r.OnRename(func(oldName, newName string) {
		gotOld, gotNew = oldName, newName
		close(done)
	})

	if err := r.Rename("eth_ring0", "eth_ring0_renamed"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	<-done
	if gotOld != "eth_ring0" || gotNew != "eth_ring0_renamed" {
		t.Fatalf("unexpected hook args: %q -> %q", gotOld, gotNew)
	}
	if _, _, ok := r.LookupByName("eth_ring0_renamed"); !ok {
		t.Fatalf("expected lookup by new name to succeed")
	}
}

func TestTable_RegisterRingSkipsDuplicateByName(t *testing.T) {
	r := registry.New()
	r.RegisterRing("ETH_RXTX0_ring0", "first")
	r.RegisterRing("ETH_RXTX0_ring0", "second")

	got, ok := r.LookupRing("ETH_RXTX0_ring0")
	if !ok || got != "first" {
		t.Fatalf("expected first registration to win, got %v", got)
	}
}
