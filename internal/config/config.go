package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func Init(root *cobra.Command) {
	viper.AutomaticEnv()
	_ = godotenv.Load("shiplift.env")
	if root != nil {
		_ = viper.BindPFlags(root.PersistentFlags())
	}
	setDefaults()
}

func setDefaults() {
	viper.SetDefault(KeySourceRef, "main")
	viper.SetDefault(KeyAppEnv, "production")
	viper.SetDefault(KeyBaseImage, "php:8.2-apache")
	viper.SetDefault(KeyDBConnection, "mysql")
	viper.SetDefault(KeyDBDebug, false)
	viper.SetDefault(KeyMigrationsDir, "migrations")
	viper.SetDefault(KeyImageTag, "latest")
	viper.SetDefault(KeyTaskCPU, "512")
	viper.SetDefault(KeyTaskMemory, "1024")
	viper.SetDefault(KeyDesiredCount, 2)
	viper.SetDefault(KeyScaleMin, 1)
	viper.SetDefault(KeyScaleMax, 4)
	viper.SetDefault(KeyScaleRequests, 1000)
	viper.SetDefault(KeyOllamaURL, "http://localhost:11434")
	viper.SetDefault(KeyDiagnoseModel, "phi3")
	viper.SetDefault(KeyDockerPath, "docker")
	viper.SetDefault(KeyAWSPath, "aws")
	viper.SetDefault(KeyStateDir, ".shiplift")
	viper.SetDefault(KeyLogLevel, "info")
}

func SourceRepo() string       { return viper.GetString(KeySourceRepo) }
func SourceRef() string        { return viper.GetString(KeySourceRef) }
func GitHubToken() string      { return viper.GetString(KeyGitHubToken) }
func AppEnv() string           { return viper.GetString(KeyAppEnv) }
func BaseImage() string        { return viper.GetString(KeyBaseImage) }
func DomainName() string       { return viper.GetString(KeyDomainName) }
func HostedZoneID() string     { return viper.GetString(KeyHostedZoneID) }
func DBConnection() string     { return viper.GetString(KeyDBConnection) }
func DBDSN() string            { return viper.GetString(KeyDBDSN) }
func DBHost() string           { return viper.GetString(KeyDBHost) }
func DBPort() int              { return viper.GetInt(KeyDBPort) }
func DBDatabase() string       { return viper.GetString(KeyDBDatabase) }
func DBUsername() string       { return viper.GetString(KeyDBUsername) }
func DBPassword() string       { return viper.GetString(KeyDBPassword) }
func DBDebug() bool            { return viper.GetBool(KeyDBDebug) }
func MigrationsDir() string    { return viper.GetString(KeyMigrationsDir) }
func AWSRegion() string        { return viper.GetString(KeyAWSRegion) }
func AWSProfile() string       { return viper.GetString(KeyAWSProfile) }
func ECRRepository() string    { return viper.GetString(KeyECRRepository) }
func ImageTag() string         { return viper.GetString(KeyImageTag) }
func ClusterName() string      { return viper.GetString(KeyCluster) }
func ServiceName() string      { return viper.GetString(KeyService) }
func TaskFamily() string       { return viper.GetString(KeyTaskFamily) }
func TaskCPU() string          { return viper.GetString(KeyTaskCPU) }
func TaskMemory() string       { return viper.GetString(KeyTaskMemory) }
func ExecutionRoleARN() string { return viper.GetString(KeyExecutionRole) }
func TaskRoleARN() string      { return viper.GetString(KeyTaskRole) }
func LogGroup() string         { return viper.GetString(KeyLogGroup) }
func DesiredCount() int        { return viper.GetInt(KeyDesiredCount) }
func ScaleMin() int            { return viper.GetInt(KeyScaleMin) }
func ScaleMax() int            { return viper.GetInt(KeyScaleMax) }
func ScaleRequestsTarget() int { return viper.GetInt(KeyScaleRequests) }
func TargetGroupARN() string   { return viper.GetString(KeyTargetGroup) }
func ListenerARN() string      { return viper.GetString(KeyListenerARN) }
func SlackWebhookURL() string  { return viper.GetString(KeySlackWebhook) }
func OllamaURL() string        { return viper.GetString(KeyOllamaURL) }
func DiagnoseModel() string    { return viper.GetString(KeyDiagnoseModel) }
func LLMCallTimeout() string   { return viper.GetString(KeyLLMTimeout) }
func DockerPath() string       { return viper.GetString(KeyDockerPath) }
func AWSPath() string          { return viper.GetString(KeyAWSPath) }
func StateDir() string         { return viper.GetString(KeyStateDir) }
func LogLevel() string         { return viper.GetString(KeyLogLevel) }

// Subnets and SecurityGroups accept comma-separated lists.
func Subnets() []string        { return splitList(viper.GetString(KeySubnets)) }
func SecurityGroups() []string { return splitList(viper.GetString(KeySecurityGrps)) }

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
