package constants

const (
	ViperHTTPAddrKey        = "http.addr"
	ViperAllowedOriginsKey  = "http.allowed_origins"
	ViperRateLimitKey       = "http.rate_limit"
	ViperRateWindowKey      = "http.rate_window"
	ViperCacheMaxAgeKey     = "http.cache_max_age"
	ViperDocsURLKey         = "http.docs_url"
	ViperDatabaseDSNKey     = "database.dsn"
	ViperDatabaseMaxConns   = "database.max_conns"
	ViperAPIKey             = "auth.api_key"
	ViperAdminSecretKey     = "auth.admin_secret"
	ViperSigningSecretKey   = "charts.signing_secret"
	ViperChartsBaseURLKey   = "charts.base_url"
	ViperRendererURLKey     = "charts.renderer_url"
	ViperRendererTimeoutKey = "charts.renderer_timeout"
	ViperCurrentYearKey     = "premiums.current_year"
	ViperDatasetURLKey      = "etl.dataset_url"
	ViperETLWorkDirKey      = "etl.work_dir"
	ViperLogLevelKey        = "log.level"
	ViperLogFormatKey       = "log.format"
	ViperLogOutputKey       = "log.output"
	ViperLogDevelopmentKey  = "log.development"
)

const (
	HeaderAPIKey        = "X-API-Key"
	CookieKeyAdminToken = "admin_token"
	CtxKeyRequestID     = "request_id"
)

const (
	CacheControlPublic  = "public, max-age=3600"
	CacheControlNoCache = "no-cache"
)
