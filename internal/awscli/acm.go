package awscli

import (
	"context"
	"fmt"
)

// ValidationRecord is the DNS record ACM wants published to prove control of
// the domain.
type ValidationRecord struct {
	Name  string
	Type  string
	Value string
}

// FindIssuedCertificate returns the ARN of an issued certificate covering the
// domain, or "" when none exists yet.
func (c *Client) FindIssuedCertificate(ctx context.Context, domain string) (string, error) {
	res, err := c.json(ctx, "acm", "list-certificates", "--certificate-statuses", "ISSUED")
	if err != nil {
		return "", err
	}
	for _, cert := range res.Get("CertificateSummaryList").Array() {
		if cert.Get("DomainName").Str == domain {
			return cert.Get("CertificateArn").Str, nil
		}
	}
	return "", nil
}

// RequestCertificate asks ACM for a DNS-validated certificate and returns its
// ARN. Issuance happens later, once the validation record is published.
func (c *Client) RequestCertificate(ctx context.Context, domain string) (string, error) {
	res, err := c.json(ctx, "acm", "request-certificate",
		"--domain-name", domain,
		"--validation-method", "DNS")
	if err != nil {
		return "", err
	}
	arn := res.Get("CertificateArn").Str
	if arn == "" {
		return "", fmt.Errorf("acm request-certificate: no ARN in reply")
	}
	return arn, nil
}

// CertificateValidationRecord fetches the CNAME ACM expects for validation.
// ACM populates the record shortly after the request, so the caller may need
// to retry when Name comes back empty.
func (c *Client) CertificateValidationRecord(ctx context.Context, certificateARN string) (ValidationRecord, error) {
	res, err := c.json(ctx, "acm", "describe-certificate", "--certificate-arn", certificateARN)
	if err != nil {
		return ValidationRecord{}, err
	}
	record := res.Get("Certificate.DomainValidationOptions.0.ResourceRecord")
	return ValidationRecord{
		Name:  record.Get("Name").Str,
		Type:  record.Get("Type").Str,
		Value: record.Get("Value").Str,
	}, nil
}

// CertificateStatus returns the certificate lifecycle status, e.g.
// PENDING_VALIDATION or ISSUED.
func (c *Client) CertificateStatus(ctx context.Context, certificateARN string) (string, error) {
	res, err := c.json(ctx, "acm", "describe-certificate", "--certificate-arn", certificateARN)
	if err != nil {
		return "", err
	}
	return res.Get("Certificate.Status").Str, nil
}

// WaitCertificateValidated blocks until the certificate is issued.
func (c *Client) WaitCertificateValidated(ctx context.Context, certificateARN string) error {
	_, err := c.text(ctx, "acm", "wait", "certificate-validated", "--certificate-arn", certificateARN)
	return err
}
