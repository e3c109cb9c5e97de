package loyalty

// ReferralBonusPoints is granted to the referrer when the referred user
// completes their first order.
const ReferralBonusPoints = 500

// ReferralDue reports whether a just-committed order should trigger the
// referral bonus: the buyer's order count has reached exactly one and a
// referrer exists. The count check keeps the bonus exactly-once because the
// whole checkout commit is transactional.
func ReferralDue(orderCountAfter int, hasReferrer bool) bool {
	return orderCountAfter == 1 && hasReferrer
}
