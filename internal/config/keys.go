package config

const (
	KeySourceRepo    = "source_repo"
	KeySourceRef     = "source_ref"
	KeyGitHubToken   = "github_token"
	KeyAppEnv        = "app_env"
	KeyBaseImage     = "base_image"
	KeyDomainName    = "domain_name"
	KeyHostedZoneID  = "hosted_zone_id"
	KeyDBConnection  = "db_connection"
	KeyDBDSN         = "db_dsn"
	KeyDBHost        = "db_host"
	KeyDBPort        = "db_port"
	KeyDBDatabase    = "db_database"
	KeyDBUsername    = "db_username"
	KeyDBPassword    = "db_password"
	KeyDBDebug       = "db_debug"
	KeyMigrationsDir = "db_migrations_dir"
	KeyAWSRegion     = "aws_region"
	KeyAWSProfile    = "aws_profile"
	KeyECRRepository = "ecr_repository"
	KeyImageTag      = "image_tag"
	KeyCluster       = "cluster_name"
	KeyService       = "service_name"
	KeyTaskFamily    = "task_family"
	KeyTaskCPU       = "task_cpu"
	KeyTaskMemory    = "task_memory"
	KeyExecutionRole = "task_execution_role"
	KeyTaskRole      = "task_role"
	KeyLogGroup      = "log_group"
	KeyDesiredCount  = "desired_count"
	KeyScaleMin      = "scale_min"
	KeyScaleMax      = "scale_max"
	KeyScaleRequests = "scale_requests_per_target"
	KeySubnets       = "subnets"
	KeySecurityGrps  = "security_groups"
	KeyTargetGroup   = "target_group_arn"
	KeyListenerARN   = "listener_arn"
	KeySlackWebhook  = "slack_webhook_url"
	KeyOllamaURL     = "ollama_url"
	KeyDiagnoseModel = "diagnose_model"
	KeyLLMTimeout    = "llm_call_timeout"
	KeyDockerPath    = "docker_path"
	KeyAWSPath       = "aws_path"
	KeyStateDir      = "state_dir"
	KeyLogLevel      = "log_level"
)
