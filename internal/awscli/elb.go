package awscli

import (
	"context"
	"fmt"
	"strings"
)

// LoadBalancerEndpoint is the alias target for the Route53 record.
type LoadBalancerEndpoint struct {
	ARN          string
	DNSName      string
	HostedZoneID string
}

// LoadBalancerForTargetGroup resolves the ALB fronting a target group.
func (c *Client) LoadBalancerForTargetGroup(ctx context.Context, targetGroupARN string) (string, error) {
	res, err := c.json(ctx, "elbv2", "describe-target-groups", "--target-group-arns", targetGroupARN)
	if err != nil {
		return "", err
	}
	arn := res.Get("TargetGroups.0.LoadBalancerArns.0").Str
	if arn == "" {
		return "", fmt.Errorf("target group %s is not attached to a load balancer", targetGroupARN)
	}
	return arn, nil
}

// DescribeLoadBalancer returns the ALB's DNS name and canonical hosted zone,
// the two values an alias record needs.
func (c *Client) DescribeLoadBalancer(ctx context.Context, loadBalancerARN string) (LoadBalancerEndpoint, error) {
	res, err := c.json(ctx, "elbv2", "describe-load-balancers", "--load-balancer-arns", loadBalancerARN)
	if err != nil {
		return LoadBalancerEndpoint{}, err
	}
	lb := res.Get("LoadBalancers.0")
	if !lb.Exists() {
		return LoadBalancerEndpoint{}, fmt.Errorf("load balancer %s not found", loadBalancerARN)
	}
	return LoadBalancerEndpoint{
		ARN:          lb.Get("LoadBalancerArn").Str,
		DNSName:      lb.Get("DNSName").Str,
		HostedZoneID: lb.Get("CanonicalHostedZoneId").Str,
	}, nil
}

// AddListenerCertificate attaches an ACM certificate to the HTTPS listener.
// Attaching a certificate that is already present is a no-op on the AWS side.
func (c *Client) AddListenerCertificate(ctx context.Context, listenerARN, certificateARN string) error {
	_, err := c.json(ctx, "elbv2", "add-listener-certificates",
		"--listener-arn", listenerARN,
		"--certificates", "CertificateArn="+certificateARN)
	return err
}

// resourceLabel derives the ALBRequestCountPerTarget resource label from the
// load balancer and target group ARNs. The label is the final ARN segments
// joined: app/<lb-name>/<lb-id>/targetgroup/<tg-name>/<tg-id>.
func resourceLabel(loadBalancerARN, targetGroupARN string) (string, error) {
	_, lbPart, ok := strings.Cut(loadBalancerARN, ":loadbalancer/")
	if !ok || lbPart == "" {
		return "", fmt.Errorf("unexpected load balancer ARN %q", loadBalancerARN)
	}
	idx := strings.Index(targetGroupARN, ":targetgroup/")
	if idx < 0 {
		return "", fmt.Errorf("unexpected target group ARN %q", targetGroupARN)
	}
	return lbPart + "/" + targetGroupARN[idx+1:], nil
}
