// Package dns makes the deployed service reachable by name: it ensures an
// ACM certificate for the domain, attaches it to the HTTPS listener, and
// points a Route53 alias record at the load balancer.
package dns

import (
	"context"
	"fmt"
	"time"

	"github.com/avezina/shiplift/internal/awscli"
	"github.com/avezina/shiplift/internal/logging"
)

// Options describe the exposure target.
type Options struct {
	Domain         string
	HostedZoneID   string
	ListenerARN    string
	TargetGroupARN string
}

type Manager struct {
	aws *awscli.Client
	log logging.Logger

	// validation record propagation poll, shortened in tests
	recordAttempts int
	recordInterval time.Duration
}

func NewManager(aws *awscli.Client, log logging.Logger) *Manager {
	return &Manager{
		aws:            aws,
		log:            log.WithName("dns"),
		recordAttempts: 20,
		recordInterval: 3 * time.Second,
	}
}

// Ensure sets up TLS and DNS for the domain and returns the public URL.
func (m *Manager) Ensure(ctx context.Context, opts Options) (string, error) {
	zoneID := opts.HostedZoneID
	if zoneID == "" {
		var err error
		zoneID, err = m.aws.HostedZoneID(ctx, opts.Domain)
		if err != nil {
			return "", fmt.Errorf("resolve hosted zone: %w", err)
		}
	}

	certARN, err := m.ensureCertificate(ctx, zoneID, opts.Domain)
	if err != nil {
		return "", err
	}

	if opts.ListenerARN != "" {
		if err := m.aws.AddListenerCertificate(ctx, opts.ListenerARN, certARN); err != nil {
			return "", fmt.Errorf("attach certificate to listener: %w", err)
		}
		m.log.Info("certificate attached to listener", "listener", opts.ListenerARN)
	}

	albARN, err := m.aws.LoadBalancerForTargetGroup(ctx, opts.TargetGroupARN)
	if err != nil {
		return "", fmt.Errorf("resolve load balancer: %w", err)
	}
	endpoint, err := m.aws.DescribeLoadBalancer(ctx, albARN)
	if err != nil {
		return "", fmt.Errorf("describe load balancer: %w", err)
	}
	if err := m.aws.UpsertAlias(ctx, zoneID, opts.Domain, endpoint); err != nil {
		return "", fmt.Errorf("publish alias record: %w", err)
	}
	m.log.Info("alias record published", "domain", opts.Domain, "target", endpoint.DNSName)

	return "https://" + opts.Domain + "/", nil
}

// ensureCertificate returns an issued certificate for the domain, requesting
// and DNS-validating one when none exists.
func (m *Manager) ensureCertificate(ctx context.Context, zoneID, domain string) (string, error) {
	if arn, err := m.aws.FindIssuedCertificate(ctx, domain); err != nil {
		return "", fmt.Errorf("look up certificate: %w", err)
	} else if arn != "" {
		m.log.Info("reusing issued certificate", "arn", arn)
		return arn, nil
	}

	arn, err := m.aws.RequestCertificate(ctx, domain)
	if err != nil {
		return "", fmt.Errorf("request certificate: %w", err)
	}
	m.log.Info("certificate requested", "arn", arn)

	record, err := m.waitForValidationRecord(ctx, arn)
	if err != nil {
		return "", err
	}
	if err := m.aws.UpsertRecord(ctx, zoneID, record.Name, record.Type, record.Value); err != nil {
		return "", fmt.Errorf("publish validation record: %w", err)
	}
	m.log.Info("validation record published", "name", record.Name)

	if err := m.aws.WaitCertificateValidated(ctx, arn); err != nil {
		return "", fmt.Errorf("certificate validation: %w", err)
	}
	m.log.Info("certificate issued", "arn", arn)
	return arn, nil
}

// waitForValidationRecord polls until ACM has filled in the validation CNAME.
func (m *Manager) waitForValidationRecord(ctx context.Context, certARN string) (awscli.ValidationRecord, error) {
	for attempt := 0; attempt < m.recordAttempts; attempt++ {
		record, err := m.aws.CertificateValidationRecord(ctx, certARN)
		if err != nil {
			return awscli.ValidationRecord{}, fmt.Errorf("fetch validation record: %w", err)
		}
		if record.Name != "" {
			return record, nil
		}
		select {
		case <-ctx.Done():
			return awscli.ValidationRecord{}, ctx.Err()
		case <-time.After(m.recordInterval):
		}
	}
	return awscli.ValidationRecord{}, fmt.Errorf("validation record for %s not available after %d attempts", certARN, m.recordAttempts)
}
