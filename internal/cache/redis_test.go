package cache

import (
	"context"
	"testing"

	"github.com/cardmint/internal/config"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("init disabled redis failed: %v", err)
	}
	if Enabled() || Client() != nil {
		t.Fatalf("expected cache disabled")
	}
	ctx := context.Background()
	var dest []RewardEntry
	hit, err := GetJSON(ctx, "reward:catalog:1", &dest)
	if err != nil || hit {
		t.Fatalf("expected miss without error, got hit=%v err=%v", hit, err)
	}
	if err := SetRewardCatalog(ctx, 1, []RewardEntry{{ID: 1}}); err != nil {
		t.Fatalf("set on disabled cache should be noop: %v", err)
	}
	lock, err := AcquireClaimLock(ctx, 1, 2, 0)
	if err != nil || lock != nil {
		t.Fatalf("expected nil lock without redis, got %v %v", lock, err)
	}
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release nil lock failed: %v", err)
	}
}

func TestKeyJoinsSegments(t *testing.T) {
	cases := []struct {
		prefix string
		parts  []string
		want   string
	}{
		{prefix: "cm", parts: []string{"rate", "claim"}, want: "cm:rate:claim"},
		{prefix: "cm", parts: []string{" :reward:catalog:1 "}, want: "cm:reward:catalog:1"},
		{prefix: "cm", parts: []string{"", "x"}, want: "cm:x"},
		{prefix: "cm", want: "cm"},
	}
	for _, tc := range cases {
		if got := joinKey(tc.prefix, tc.parts...); got != tc.want {
			t.Fatalf("joinKey(%q,%v) = %q, want %q", tc.prefix, tc.parts, got, tc.want)
		}
	}
	if normalizePrefix(" app: ") != "app" || normalizePrefix("") == "" {
		t.Fatalf("unexpected prefix normalization")
	}
}
