package dns

import (
	"context"
	"testing"
	"time"

	"github.com/avezina/shiplift/internal/awscli"
	"github.com/avezina/shiplift/internal/logging"
	"github.com/avezina/shiplift/internal/runner"
)

func testManager(fake *runner.Fake) *Manager {
	m := NewManager(awscli.NewClient("aws", "eu-west-1", "", fake), logging.DefaultLogger())
	m.recordAttempts = 3
	m.recordInterval = time.Millisecond
	return m
}

func options() Options {
	return Options{
		Domain:         "shop.example.com",
		ListenerARN:    "arn:listener",
		TargetGroupARN: "arn:aws:elasticloadbalancing:eu-west-1:123:targetgroup/shop/73e2",
	}
}

const (
	zoneReply = `{"HostedZones":[{"Id":"/hostedzone/Z123","Name":"example.com."}]}`
	tgReply   = `{"TargetGroups":[{"LoadBalancerArns":["arn:aws:elasticloadbalancing:eu-west-1:123:loadbalancer/app/shop-alb/50dc"]}]}`
	albReply  = `{"LoadBalancers":[{"LoadBalancerArn":"arn:alb","DNSName":"shop-alb.elb.amazonaws.com","CanonicalHostedZoneId":"Z32O"}]}`
)

func TestEnsureWithExistingCertificate(t *testing.T) {
	fake := &runner.Fake{Script: []runner.Response{
		{Out: zoneReply},
		{Out: `{"CertificateSummaryList":[{"DomainName":"shop.example.com","CertificateArn":"arn:cert"}]}`},
		{Out: `{}`}, // add-listener-certificates
		{Out: tgReply},
		{Out: albReply},
		{Out: `{"ChangeInfo":{"Status":"PENDING"}}`},
	}}
	m := testManager(fake)

	url, err := m.Ensure(context.Background(), options())
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if url != "https://shop.example.com/" {
		t.Errorf("url = %q", url)
	}
	if _, err := fake.CallContaining("add-listener-certificates", "CertificateArn=arn:cert"); err != nil {
		t.Error(err)
	}
	if _, err := fake.CallContaining("change-resource-record-sets", "--hosted-zone-id Z123"); err != nil {
		t.Error(err)
	}
	for _, line := range fake.CommandLines() {
		if line == "aws acm request-certificate" {
			t.Error("must not request a new certificate when one is issued")
		}
	}
}

func TestEnsureRequestsAndValidatesCertificate(t *testing.T) {
	fake := &runner.Fake{Script: []runner.Response{
		{Out: zoneReply},
		{Out: `{"CertificateSummaryList":[]}`},
		{Out: `{"CertificateArn":"arn:cert-new"}`},
		// first describe has no record yet, second one does
		{Out: `{"Certificate":{"DomainValidationOptions":[{}]}}`},
		{Out: `{"Certificate":{"DomainValidationOptions":[{"ResourceRecord":{"Name":"_x.shop.example.com.","Type":"CNAME","Value":"_y.acm-validations.aws."}}]}}`},
		{Out: `{"ChangeInfo":{"Status":"PENDING"}}`}, // validation record upsert
		{Out: ""},                                    // wait certificate-validated
		{Out: `{}`},                                  // add-listener-certificates
		{Out: tgReply},
		{Out: albReply},
		{Out: `{"ChangeInfo":{"Status":"PENDING"}}`}, // alias upsert
	}}
	m := testManager(fake)

	if _, err := m.Ensure(context.Background(), options()); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if _, err := fake.CallContaining("acm request-certificate", "--validation-method DNS"); err != nil {
		t.Error(err)
	}
	if _, err := fake.CallContaining("change-resource-record-sets", "_x.shop.example.com."); err != nil {
		t.Error(err)
	}
	if _, err := fake.CallContaining("acm wait certificate-validated", "arn:cert-new"); err != nil {
		t.Error(err)
	}
}

func TestEnsureSkipsListenerWhenUnset(t *testing.T) {
	fake := &runner.Fake{Script: []runner.Response{
		{Out: zoneReply},
		{Out: `{"CertificateSummaryList":[{"DomainName":"shop.example.com","CertificateArn":"arn:cert"}]}`},
		{Out: tgReply},
		{Out: albReply},
		{Out: `{"ChangeInfo":{"Status":"PENDING"}}`},
	}}
	m := testManager(fake)

	opts := options()
	opts.ListenerARN = ""
	if _, err := m.Ensure(context.Background(), opts); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	for _, line := range fake.CommandLines() {
		if line == "aws elbv2 add-listener-certificates" {
			t.Error("listener attach must be skipped when no listener is configured")
		}
	}
}

func TestWaitForValidationRecordGivesUp(t *testing.T) {
	fake := &runner.Fake{Script: []runner.Response{
		{Out: `{"Certificate":{"DomainValidationOptions":[{}]}}`},
		{Out: `{"Certificate":{"DomainValidationOptions":[{}]}}`},
		{Out: `{"Certificate":{"DomainValidationOptions":[{}]}}`},
	}}
	m := testManager(fake)

	if _, err := m.waitForValidationRecord(context.Background(), "arn:cert"); err == nil {
		t.Fatal("expected give-up error")
	}
}
