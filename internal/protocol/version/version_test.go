package version_test

import (
	"testing"

	"obscuraproto/internal/protocol/version"
)

func TestNegotiatePicksMaxOfIntersection(t *testing.T) {
	client := []version.Version{1, 2, 3}
	server := []version.Version{2, 3, 4}
	got, ok := version.Negotiate(client, server)
	if !ok {
		t.Fatal("expected a negotiated version")
	}
	if got != 3 {
		t.Fatalf("got %d, want 3", got)
	}
}

func TestNegotiateOrderIndependent(t *testing.T) {
	client := []version.Version{3, 1, 2}
	server := []version.Version{4, 2, 3}
	got, ok := version.Negotiate(client, server)
	if !ok || got != 3 {
		t.Fatalf("got (%d, %v), want (3, true)", got, ok)
	}

	client2 := []version.Version{2, 3, 4}
	server2 := []version.Version{3, 2, 1}
	got2, ok2 := version.Negotiate(client2, server2)
	if !ok2 || got2 != 3 {
		t.Fatalf("got (%d, %v), want (3, true)", got2, ok2)
	}
}

func TestNegotiateEmptyIntersection(t *testing.T) {
	client := []version.Version{1}
	server := []version.Version{2}
	_, ok := version.Negotiate(client, server)
	if ok {
		t.Fatal("expected no negotiated version")
	}
}

func TestSupports(t *testing.T) {
	if !version.Supports(version.V1_0) {
		t.Fatal("V1_0 must be supported")
	}
	if version.Supports(version.Version(9999)) {
		t.Fatal("an unknown version must not be reported as supported")
	}
}
