package jobs

// 定时任务名称.
const (
	JobSubscriptionSweep = "subscription.expire_sweep"
	JobCatalogRefresh    = "metrics.catalog_refresh"
)

// CatalogGauge 的 kind 标签.
const (
	kindUsers         = "users"
	kindPremiumUsers  = "premium_users"
	kindNotes         = "notes"
	kindVerifiedNotes = "verified_notes"
)
