package events

// Topic constants for domain events emitted by the platform.
const (
	TopicOrderCreated    = "order.created"
	TopicOrderReady      = "order.ready"
	TopicOrderPickedUp   = "order.picked_up"
	TopicOrderCanceled   = "order.canceled"
	TopicPromoRedeemed   = "promo.redeemed"
	TopicLoyaltyRedeemed = "loyalty.redeemed"
	TopicLoyaltyEarned   = "loyalty.earned"
)

// DefaultTopics returns the canonical list of topics that support notifications.
func DefaultTopics() []string {
	return []string{
		TopicOrderCreated,
		TopicOrderReady,
		TopicOrderPickedUp,
		TopicOrderCanceled,
		TopicPromoRedeemed,
		TopicLoyaltyRedeemed,
		TopicLoyaltyEarned,
	}
}
