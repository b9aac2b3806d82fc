//go:build !integration

package usecase

import (
	"context"
	"errors"
	"testing"

	"telegram-number-market/internal/domain/ports/adapter"
)

var gateChannels = []adapter.ChatRef{
	{Username: "@vipstoresim"},
	{Username: "@nomera_russian"},
}

func TestGateAllSubscribed(t *testing.T) {
	gw := newMockGateway()
	const userID = int64(42)
	gw.setMember(gateChannels[0], userID, "member")
	gw.setMember(gateChannels[1], userID, "creator")
	uc := NewGateUseCase(gw, gateChannels, newTestLogger())

	if missing := uc.MissingChannels(context.Background(), userID); len(missing) != 0 {
		t.Fatalf("expected no missing channels, got %v", missing)
	}
}

func TestGateMissingPreservesOrder(t *testing.T) {
	gw := newMockGateway()
	uc := NewGateUseCase(gw, gateChannels, newTestLogger())

	missing := uc.MissingChannels(context.Background(), 42)
	if len(missing) != 2 {
		t.Fatalf("expected both channels missing, got %v", missing)
	}
	if missing[0] != gateChannels[0] || missing[1] != gateChannels[1] {
		t.Fatalf("missing list must keep configuration order: %v", missing)
	}
}

func TestGateRestrictedIsNotSubscribed(t *testing.T) {
	gw := newMockGateway()
	const userID = int64(42)
	gw.setMember(gateChannels[0], userID, "restricted")
	gw.setMember(gateChannels[1], userID, "member")
	uc := NewGateUseCase(gw, gateChannels, newTestLogger())

	missing := uc.MissingChannels(context.Background(), userID)
	if len(missing) != 1 || missing[0] != gateChannels[0] {
		t.Fatalf("restricted status must count as missing: %v", missing)
	}
}

func TestGateLookupErrorBlocks(t *testing.T) {
	gw := newMockGateway()
	gw.memberErr = errors.New("telegram unavailable")
	uc := NewGateUseCase(gw, gateChannels, newTestLogger())

	missing := uc.MissingChannels(context.Background(), 42)
	if len(missing) != len(gateChannels) {
		t.Fatalf("a failed lookup must block publication, got %v", missing)
	}
}
