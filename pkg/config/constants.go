package config

const (
	// EnvPrefix namespaces every environment variable the service reads.
	EnvPrefix = "DEALERDESK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv                 = "DEALERDESK_APP_ENV"
	EnvPort                   = "DEALERDESK_APP_PORT"
	EnvDBDSN                  = "DEALERDESK_DB_DSN"
	EnvDBHost                 = "DEALERDESK_DB_HOST"
	EnvDBUser                 = "DEALERDESK_DB_USER"
	EnvDBName                 = "DEALERDESK_DB_NAME"
	EnvRedisURL               = "DEALERDESK_REDIS_URL"
	EnvJWTSecret              = "DEALERDESK_JWT_SECRET"
	EnvJWTIssuer              = "DEALERDESK_JWT_ISSUER"
	EnvJWTExpMins             = "DEALERDESK_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "DEALERDESK_REFRESH_TOKEN_TTL_MINUTES"
	EnvGCPProjectID           = "DEALERDESK_GCP_PROJECT_ID"
	EnvPubSubDomainTopic      = "DEALERDESK_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubNotificationSub  = "DEALERDESK_PUBSUB_NOTIFICATION_SUBSCRIPTION"
	EnvPubSubAnalyticsSub     = "DEALERDESK_PUBSUB_ANALYTICS_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
