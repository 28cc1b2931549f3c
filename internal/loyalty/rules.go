package loyalty

// Snapshot is the customer's loyalty state at pricing time, combined with the
// truck's program settings. It is rebuilt on every pricing pass.
type Snapshot struct {
	Points          int64 `json:"points"`
	Threshold       int64 `json:"threshold"`
	PointsPerEuro   int64 `json:"pointsPerEuro"`
	Reward          int64 `json:"reward"`
	RedeemableCount int64 `json:"redeemableCount"`
	MaxDiscount     int64 `json:"maxDiscount"`
	CanRedeem       bool  `json:"canRedeem"`
}

// Redemption gates loyalty application in the discount engine. Requested is the
// caller-supplied opt-in toggle; the snapshot decides whether redemption is
// actually permitted.
type Redemption struct {
	Requested bool
	Snapshot  Snapshot
}

// BuildSnapshot derives the redeemable state from raw points and program
// settings. CanRedeem holds exactly when points have reached the threshold.
func BuildSnapshot(points, threshold, perEuro, reward int64) Snapshot {
	s := Snapshot{
		Points:        points,
		Threshold:     threshold,
		PointsPerEuro: perEuro,
		Reward:        reward,
	}
	if threshold > 0 && points >= threshold {
		s.CanRedeem = true
		s.RedeemableCount = points / threshold
		s.MaxDiscount = s.RedeemableCount * reward
	}
	return s
}

// Discount returns the loyalty discount for the given remaining order amount.
// Redemption never exceeds what is left to pay after all other discounts.
func (r Redemption) Discount(remaining int64) int64 {
	if !r.Requested || !r.Snapshot.CanRedeem || remaining <= 0 {
		return 0
	}
	if r.Snapshot.MaxDiscount < remaining {
		return r.Snapshot.MaxDiscount
	}
	return remaining
}

// PointsSpent reports how many points a redemption of the given discount
// consumes: full reward tranches only, rounded up to cover the amount.
func (r Redemption) PointsSpent(discount int64) int64 {
	if discount <= 0 || r.Snapshot.Reward <= 0 || r.Snapshot.Threshold <= 0 {
		return 0
	}
	tranches := (discount + r.Snapshot.Reward - 1) / r.Snapshot.Reward
	if tranches > r.Snapshot.RedeemableCount {
		tranches = r.Snapshot.RedeemableCount
	}
	return tranches * r.Snapshot.Threshold
}

// PointsEarned computes the points accrued by an order: whole points per euro
// of the final total, truncated, never rounded up. The final total already has
// any redemption subtracted, so redeeming lowers the same order's accrual.
func PointsEarned(total, perEuro int64) int64 {
	if total <= 0 || perEuro <= 0 {
		return 0
	}
	return total * perEuro / 100
}
