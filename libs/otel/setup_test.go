package otelx

import (
	"context"
	"testing"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "false")
	t.Setenv("OTEL_SAMPLING_RATIO", "0.25")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "false")
	t.Setenv("DEPLOY_ENV", "staging")

	cfg := ConfigFromEnv("window-service")
	if cfg.Enabled || cfg.Insecure {
		t.Fatalf("expected tracing disabled and TLS on, got %+v", cfg)
	}
	if cfg.SampleRatio != 0.25 || cfg.OTLPEndpoint != "collector:4317" || cfg.ServiceName != "window-service" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Environment != "staging" || cfg.ServiceVersion != "dev" {
		t.Fatalf("unexpected resource config %+v", cfg)
	}
}

func TestParseRatio(t *testing.T) {
	cases := map[string]float64{"0": 0, "0.5": 0.5, " 1 ": 1, "7": 1, "-1": 1, "half": 1}
	for raw, want := range cases {
		if got := parseRatio(raw); got != want {
			t.Fatalf("%q: expected %v, got %v", raw, want, got)
		}
	}
}

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
}
