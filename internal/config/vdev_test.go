package config_test

import (
	"testing"

	"github.com/netgroup-polito/ringpmd/internal/config"
)

func TestParseVdevArgs_EmptyDefaultsToLocalCreate(t *testing.T) {
	p, err := config.ParseVdevArgs("", 3)
	if err != nil {
		t.Fatalf("ParseVdevArgs: %v", err)
	}
	if len(p.Actions) != 1 || p.Actions[0].Action != config.ActionCreate || p.Actions[0].NUMA != 3 {
		t.Fatalf("unexpected default: %+v", p.Actions)
	}
}

func TestParseVdevArgs_MultipleClauses(t *testing.T) {
	p, err := config.ParseVdevArgs("nodeaction=ring0:0:CREATE,nodeaction=ring1:1:ATTACH", 0)
	if err != nil {
		t.Fatalf("ParseVdevArgs: %v", err)
	}
	if len(p.Actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(p.Actions))
	}
	if p.Actions[0].Name != "ring0" || p.Actions[0].Action != config.ActionCreate {
		t.Fatalf("unexpected first clause: %+v", p.Actions[0])
	}
	if p.Actions[1].Name != "ring1" || p.Actions[1].NUMA != 1 || p.Actions[1].Action != config.ActionAttach {
		t.Fatalf("unexpected second clause: %+v", p.Actions[1])
	}
}

func TestParseVdevArgs_RejectsMalformedClause(t *testing.T) {
	if _, err := config.ParseVdevArgs("nodeaction=onlyname", 0); err == nil {
		t.Fatalf("expected error for malformed clause")
	}
	if _, err := config.ParseVdevArgs("nodeaction=n:0:BOGUS", 0); err == nil {
		t.Fatalf("expected error for unknown action")
	}
}

func TestRingName_MatchesConvention(t *testing.T) {
	if got, want := config.RingName(2, "ring0"), "ETH_RXTX2_ring0"; got != want {
		t.Fatalf("RingName = %q, want %q", got, want)
	}
}
