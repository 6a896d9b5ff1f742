package awscli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ServiceSpec is the shape of the ECS service the deployer maintains.
type ServiceSpec struct {
	Cluster           string
	Service           string
	TaskDefinitionARN string
	DesiredCount      int
	Subnets           []string
	SecurityGroups    []string
	TargetGroupARN    string
	ContainerName     string
	ContainerPort     int
}

// ServiceSummary is the slice of describe-services the status command shows.
type ServiceSummary struct {
	Status         string
	RolloutState   string
	TaskDefinition string
	Desired        int64
	Running        int64
	Pending        int64
}

// RegisterTaskDefinition submits a task definition JSON document and returns
// the new revision's ARN. The document is handed to the CLI through a private
// temp file because it carries the runtime environment, including secrets.
func (c *Client) RegisterTaskDefinition(ctx context.Context, taskDefJSON string) (string, error) {
	dir, err := os.MkdirTemp("", "taskdef-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "taskdef.json")
	if err := os.WriteFile(path, []byte(taskDefJSON), 0o600); err != nil {
		return "", fmt.Errorf("write task definition: %w", err)
	}

	res, err := c.json(ctx, "ecs", "register-task-definition", "--cli-input-json", "file://"+path)
	if err != nil {
		return "", err
	}
	arn := res.Get("taskDefinition.taskDefinitionArn").Str
	if arn == "" {
		return "", fmt.Errorf("ecs register-task-definition: no ARN in reply")
	}
	return arn, nil
}

// ServiceStatus returns the service's lifecycle status, or "MISSING" when the
// cluster has no service by that name.
func (c *Client) ServiceStatus(ctx context.Context, cluster, service string) (string, error) {
	res, err := c.json(ctx, "ecs", "describe-services", "--cluster", cluster, "--services", service)
	if err != nil {
		return "", err
	}
	if reason := res.Get("failures.0.reason").Str; reason == "MISSING" {
		return "MISSING", nil
	}
	status := res.Get("services.0.status").Str
	if status == "" {
		return "MISSING", nil
	}
	return status, nil
}

// DescribeService returns the summary used by the status command.
func (c *Client) DescribeService(ctx context.Context, cluster, service string) (ServiceSummary, error) {
	res, err := c.json(ctx, "ecs", "describe-services", "--cluster", cluster, "--services", service)
	if err != nil {
		return ServiceSummary{}, err
	}
	svc := res.Get("services.0")
	if !svc.Exists() {
		return ServiceSummary{}, fmt.Errorf("service %s not found in cluster %s", service, cluster)
	}
	return ServiceSummary{
		Status:         svc.Get("status").Str,
		RolloutState:   svc.Get("deployments.0.rolloutState").Str,
		TaskDefinition: svc.Get("taskDefinition").Str,
		Desired:        svc.Get("desiredCount").Int(),
		Running:        svc.Get("runningCount").Int(),
		Pending:        svc.Get("pendingCount").Int(),
	}, nil
}

// CreateService creates the load-balanced Fargate service in private subnets.
func (c *Client) CreateService(ctx context.Context, spec ServiceSpec) error {
	netConfig, err := json.Marshal(map[string]any{
		"awsvpcConfiguration": map[string]any{
			"subnets":        spec.Subnets,
			"securityGroups": spec.SecurityGroups,
			"assignPublicIp": "DISABLED",
		},
	})
	if err != nil {
		return fmt.Errorf("marshal network configuration: %w", err)
	}
	loadBalancers, err := json.Marshal([]map[string]any{{
		"targetGroupArn": spec.TargetGroupARN,
		"containerName":  spec.ContainerName,
		"containerPort":  spec.ContainerPort,
	}})
	if err != nil {
		return fmt.Errorf("marshal load balancer attachment: %w", err)
	}

	_, err = c.json(ctx, "ecs", "create-service",
		"--cluster", spec.Cluster,
		"--service-name", spec.Service,
		"--task-definition", spec.TaskDefinitionARN,
		"--desired-count", fmt.Sprint(spec.DesiredCount),
		"--launch-type", "FARGATE",
		"--network-configuration", string(netConfig),
		"--load-balancers", string(loadBalancers))
	return err
}

// UpdateService points an existing service at a new task definition revision.
func (c *Client) UpdateService(ctx context.Context, cluster, service, taskDefARN string, desiredCount int) error {
	_, err := c.json(ctx, "ecs", "update-service",
		"--cluster", cluster,
		"--service", service,
		"--task-definition", taskDefARN,
		"--desired-count", fmt.Sprint(desiredCount))
	return err
}

// WaitServicesStable blocks until ECS reports the service steady.
func (c *Client) WaitServicesStable(ctx context.Context, cluster, service string) error {
	_, err := c.text(ctx, "ecs", "wait", "services-stable", "--cluster", cluster, "--services", service)
	return err
}

// RegisterScalableTarget declares the scaling bounds for the service's
// desired count.
func (c *Client) RegisterScalableTarget(ctx context.Context, cluster, service string, min, max int) error {
	_, err := c.json(ctx, "application-autoscaling", "register-scalable-target",
		"--service-namespace", "ecs",
		"--scalable-dimension", "ecs:service:DesiredCount",
		"--resource-id", fmt.Sprintf("service/%s/%s", cluster, service),
		"--min-capacity", fmt.Sprint(min),
		"--max-capacity", fmt.Sprint(max))
	return err
}

// PutRequestCountPolicy installs a target-tracking policy on request count
// per target, the traffic metric the service scales on.
func (c *Client) PutRequestCountPolicy(ctx context.Context, cluster, service string, requestsPerTarget int, albARN, targetGroupARN string) error {
	label, err := resourceLabel(albARN, targetGroupARN)
	if err != nil {
		return err
	}
	policy, err := json.Marshal(map[string]any{
		"TargetValue": requestsPerTarget,
		"PredefinedMetricSpecification": map[string]any{
			"PredefinedMetricType": "ALBRequestCountPerTarget",
			"ResourceLabel":        label,
		},
	})
	if err != nil {
		return fmt.Errorf("marshal scaling policy: %w", err)
	}

	_, err = c.json(ctx, "application-autoscaling", "put-scaling-policy",
		"--service-namespace", "ecs",
		"--scalable-dimension", "ecs:service:DesiredCount",
		"--resource-id", fmt.Sprintf("service/%s/%s", cluster, service),
		"--policy-name", service+"-requests-per-target",
		"--policy-type", "TargetTrackingScaling",
		"--target-tracking-scaling-policy-configuration", string(policy))
	return err
}
