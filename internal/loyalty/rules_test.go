package loyalty

import "testing"

func TestBuildSnapshotBelowThreshold(t *testing.T) {
	s := BuildSnapshot(90, 100, 1, 500)
	if s.CanRedeem {
		t.Fatal("expected CanRedeem=false below threshold")
	}
	if s.RedeemableCount != 0 || s.MaxDiscount != 0 {
		t.Fatalf("expected zero redeemable state, got count=%d max=%d", s.RedeemableCount, s.MaxDiscount)
	}
}

func TestBuildSnapshotMultipleTranches(t *testing.T) {
	s := BuildSnapshot(250, 100, 1, 500)
	if !s.CanRedeem {
		t.Fatal("expected CanRedeem=true at 250/100")
	}
	if s.RedeemableCount != 2 {
		t.Fatalf("RedeemableCount = %d, want 2", s.RedeemableCount)
	}
	if s.MaxDiscount != 1000 {
		t.Fatalf("MaxDiscount = %d, want 1000", s.MaxDiscount)
	}
}

func TestBuildSnapshotZeroThreshold(t *testing.T) {
	s := BuildSnapshot(500, 0, 1, 500)
	if s.CanRedeem {
		t.Fatal("zero threshold must never redeem")
	}
}

func TestDiscountCappedByRemaining(t *testing.T) {
	r := Redemption{Requested: true, Snapshot: BuildSnapshot(100, 100, 1, 500)}
	if got := r.Discount(300); got != 300 {
		t.Fatalf("Discount(300) = %d, want 300", got)
	}
	if got := r.Discount(800); got != 500 {
		t.Fatalf("Discount(800) = %d, want 500", got)
	}
}

func TestDiscountRequiresOptIn(t *testing.T) {
	r := Redemption{Requested: false, Snapshot: BuildSnapshot(100, 100, 1, 500)}
	if got := r.Discount(800); got != 0 {
		t.Fatalf("opt-out must yield zero discount, got %d", got)
	}
}

func TestDiscountZeroRemaining(t *testing.T) {
	r := Redemption{Requested: true, Snapshot: BuildSnapshot(100, 100, 1, 500)}
	if got := r.Discount(0); got != 0 {
		t.Fatalf("Discount(0) = %d, want 0", got)
	}
}

func TestPointsSpentWholeTranches(t *testing.T) {
	r := Redemption{Snapshot: BuildSnapshot(250, 100, 1, 500)}
	// A partial redemption still burns a full tranche.
	if got := r.PointsSpent(300); got != 100 {
		t.Fatalf("PointsSpent(300) = %d, want 100", got)
	}
	if got := r.PointsSpent(501); got != 200 {
		t.Fatalf("PointsSpent(501) = %d, want 200", got)
	}
	if got := r.PointsSpent(0); got != 0 {
		t.Fatalf("PointsSpent(0) = %d, want 0", got)
	}
}

func TestPointsSpentCappedAtRedeemable(t *testing.T) {
	r := Redemption{Snapshot: BuildSnapshot(150, 100, 1, 500)}
	if got := r.PointsSpent(1500); got != 100 {
		t.Fatalf("PointsSpent beyond redeemable = %d, want 100", got)
	}
}

func TestPointsEarned(t *testing.T) {
	cases := []struct {
		total, perEuro, want int64
	}{
		{2550, 1, 25},
		{2599, 1, 25},
		{250, 3, 7},
		{99, 1, 0},
		{0, 1, 0},
		{-100, 1, 0},
		{2550, 0, 0},
	}
	for _, c := range cases {
		if got := PointsEarned(c.total, c.perEuro); got != c.want {
			t.Errorf("PointsEarned(%d, %d) = %d, want %d", c.total, c.perEuro, got, c.want)
		}
	}
}
