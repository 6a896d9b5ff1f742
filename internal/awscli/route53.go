package awscli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// HostedZoneID returns the public hosted zone serving the domain. The zone
// lookup matches the longest suffix, so "app.example.com" resolves through the
// "example.com." zone.
func (c *Client) HostedZoneID(ctx context.Context, domain string) (string, error) {
	res, err := c.json(ctx, "route53", "list-hosted-zones-by-name", "--dns-name", domain, "--max-items", "1")
	if err != nil {
		return "", err
	}
	zone := res.Get("HostedZones.0")
	if !zone.Exists() {
		return "", fmt.Errorf("no hosted zone found for %s", domain)
	}
	name := strings.TrimSuffix(zone.Get("Name").Str, ".")
	if !strings.HasSuffix(domain, name) {
		return "", fmt.Errorf("hosted zone %s does not serve %s", name, domain)
	}
	return strings.TrimPrefix(zone.Get("Id").Str, "/hostedzone/"), nil
}

// UpsertAlias points the domain at the load balancer with an alias A record.
func (c *Client) UpsertAlias(ctx context.Context, zoneID, domain string, endpoint LoadBalancerEndpoint) error {
	batch, err := json.Marshal(map[string]any{
		"Comment": "managed by shiplift",
		"Changes": []map[string]any{{
			"Action": "UPSERT",
			"ResourceRecordSet": map[string]any{
				"Name": domain,
				"Type": "A",
				"AliasTarget": map[string]any{
					"HostedZoneId":         endpoint.HostedZoneID,
					"DNSName":              endpoint.DNSName,
					"EvaluateTargetHealth": true,
				},
			},
		}},
	})
	if err != nil {
		return fmt.Errorf("marshal change batch: %w", err)
	}
	_, err = c.json(ctx, "route53", "change-resource-record-sets",
		"--hosted-zone-id", zoneID,
		"--change-batch", string(batch))
	return err
}

// UpsertRecord publishes a plain record, used for ACM validation CNAMEs.
func (c *Client) UpsertRecord(ctx context.Context, zoneID, name, recordType, value string) error {
	batch, err := json.Marshal(map[string]any{
		"Changes": []map[string]any{{
			"Action": "UPSERT",
			"ResourceRecordSet": map[string]any{
				"Name": name,
				"Type": recordType,
				"TTL":  300,
				"ResourceRecords": []map[string]string{
					{"Value": value},
				},
			},
		}},
	})
	if err != nil {
		return fmt.Errorf("marshal change batch: %w", err)
	}
	_, err = c.json(ctx, "route53", "change-resource-record-sets",
		"--hosted-zone-id", zoneID,
		"--change-batch", string(batch))
	return err
}
