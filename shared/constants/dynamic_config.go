package constants

// Динамические ключи конфигураций, использующиеся в проекте
const (
	ConfigKeySessionTTL          = "assessment.session_ttl"
	ConfigKeySessionMaxPerUser   = "assessment.max_sessions_per_user"
	ConfigKeyPushEnabled         = "notifications.push_enabled"
	ConfigKeyCatalogCacheTTL     = "catalog.cache_ttl"
	ConfigKeyMiniAssessmentPush  = "notifications.mini_assessment_push"
	ConfigKeyVendorMatchingLimit = "catalog.vendor_matching_limit"
)
