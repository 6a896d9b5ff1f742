// Package fargate registers task definitions and converges the ECS service on
// them. A deploy registers a new revision, creates or updates the service,
// and blocks until ECS reports it stable.
package fargate

import (
	"context"
	"fmt"

	"github.com/avezina/shiplift/internal/awscli"
	"github.com/avezina/shiplift/internal/logging"
)

// Options describe the service the deployer maintains.
type Options struct {
	Cluster           string
	Service           string
	DesiredCount      int
	Subnets           []string
	SecurityGroups    []string
	TargetGroupARN    string
	ContainerName     string
	ScaleMin          int
	ScaleMax          int
	RequestsPerTarget int
}

type Deployer struct {
	aws *awscli.Client
	log logging.Logger
}

func NewDeployer(aws *awscli.Client, log logging.Logger) *Deployer {
	return &Deployer{aws: aws, log: log.WithName("fargate")}
}

// Deploy registers the task definition and rolls the service onto it. Returns
// the registered revision ARN once the service is stable.
func (d *Deployer) Deploy(ctx context.Context, taskDefJSON string, opts Options) (string, error) {
	arn, err := d.aws.RegisterTaskDefinition(ctx, taskDefJSON)
	if err != nil {
		return "", fmt.Errorf("register task definition: %w", err)
	}
	d.log.Info("task definition registered", "arn", arn)

	status, err := d.aws.ServiceStatus(ctx, opts.Cluster, opts.Service)
	if err != nil {
		return "", fmt.Errorf("describe service: %w", err)
	}

	switch status {
	case "ACTIVE":
		err = d.aws.UpdateService(ctx, opts.Cluster, opts.Service, arn, opts.DesiredCount)
		if err != nil {
			return "", fmt.Errorf("update service: %w", err)
		}
		d.log.Info("service updated", "service", opts.Service)
	case "MISSING", "INACTIVE":
		spec := awscli.ServiceSpec{
			Cluster:           opts.Cluster,
			Service:           opts.Service,
			TaskDefinitionARN: arn,
			DesiredCount:      opts.DesiredCount,
			Subnets:           opts.Subnets,
			SecurityGroups:    opts.SecurityGroups,
			TargetGroupARN:    opts.TargetGroupARN,
			ContainerName:     opts.ContainerName,
			ContainerPort:     80,
		}
		if err := d.aws.CreateService(ctx, spec); err != nil {
			return "", fmt.Errorf("create service: %w", err)
		}
		d.log.Info("service created", "service", opts.Service)
	default:
		return "", fmt.Errorf("service %s is %s, cannot deploy", opts.Service, status)
	}

	d.log.Info("waiting for service to stabilize", "service", opts.Service)
	if err := d.aws.WaitServicesStable(ctx, opts.Cluster, opts.Service); err != nil {
		return "", fmt.Errorf("service did not stabilize: %w", err)
	}
	return arn, nil
}

// ConfigureScaling installs the request-count target-tracking policy. The
// scaling target bounds desired count between ScaleMin and ScaleMax.
func (d *Deployer) ConfigureScaling(ctx context.Context, opts Options) error {
	if opts.TargetGroupARN == "" || opts.RequestsPerTarget <= 0 {
		d.log.Info("scaling not configured, skipping", "service", opts.Service)
		return nil
	}

	if err := d.aws.RegisterScalableTarget(ctx, opts.Cluster, opts.Service, opts.ScaleMin, opts.ScaleMax); err != nil {
		return fmt.Errorf("register scalable target: %w", err)
	}
	albARN, err := d.aws.LoadBalancerForTargetGroup(ctx, opts.TargetGroupARN)
	if err != nil {
		return fmt.Errorf("resolve load balancer: %w", err)
	}
	err = d.aws.PutRequestCountPolicy(ctx, opts.Cluster, opts.Service, opts.RequestsPerTarget, albARN, opts.TargetGroupARN)
	if err != nil {
		return fmt.Errorf("put scaling policy: %w", err)
	}
	d.log.Info("scaling configured",
		"service", opts.Service,
		"min", opts.ScaleMin,
		"max", opts.ScaleMax,
		"requests_per_target", opts.RequestsPerTarget)
	return nil
}
