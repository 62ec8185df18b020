package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/solartrack/go-deal-ledger/internal/config"
)

func preserveGlobals(t *testing.T) {
	t.Helper()
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
}

func enabledCfg(name string) config.OTELConfig {
	return config.OTELConfig{
		Enabled:     true,
		Insecure:    true,
		Endpoint:    "localhost:4317",
		ServiceName: name,
		SampleRatio: 1.0,
	}
}

func TestSetup_DisabledIsNoOp(t *testing.T) {
	preserveGlobals(t)
	prev := otel.GetTracerProvider()

	shutdown, err := Setup(context.Background(), config.OTELConfig{Enabled: false}, "v0")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if otel.GetTracerProvider() != prev {
		t.Fatal("disabled setup replaced the global tracer provider")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown returned error: %v", err)
	}
}

func TestSetup_InstallsSDKProvider(t *testing.T) {
	preserveGlobals(t)

	shutdown, err := Setup(context.Background(), enabledCfg("deal-ledger-test"), "v1.0.0")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
		t.Fatalf("expected *sdktrace.TracerProvider, got %T", otel.GetTracerProvider())
	}

	_, span := otel.Tracer("smoke").Start(context.Background(), "record-sale")
	span.End()
}

func TestSetup_TLSBranch(t *testing.T) {
	preserveGlobals(t)

	cfg := enabledCfg("deal-ledger-tls")
	cfg.Insecure = false

	shutdown, err := Setup(context.Background(), cfg, "v1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	_ = shutdown(context.Background())
}

func TestSetup_ExporterErrorLeavesGlobalsIntact(t *testing.T) {
	preserveGlobals(t)

	orig := newExporterFn
	defer func() { newExporterFn = orig }()
	newExporterFn = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return nil, errors.New("exporter down")
	}

	prevTP := otel.GetTracerProvider()
	if _, err := Setup(context.Background(), enabledCfg("svc"), "v0"); err == nil {
		t.Fatal("expected exporter error")
	}
	if otel.GetTracerProvider() != prevTP {
		t.Fatal("tracer provider changed on failure")
	}
}

func TestSetup_ResourceErrorLeavesGlobalsIntact(t *testing.T) {
	preserveGlobals(t)

	orig := newResourceFn
	defer func() { newResourceFn = orig }()
	newResourceFn = func(ctx context.Context, serviceName, version string) (*resource.Resource, error) {
		return nil, errors.New("bad resource")
	}

	prevTP := otel.GetTracerProvider()
	if _, err := Setup(context.Background(), enabledCfg("svc"), "v0"); err == nil {
		t.Fatal("expected resource error")
	}
	if otel.GetTracerProvider() != prevTP {
		t.Fatal("tracer provider changed on failure")
	}
}

func TestSetup_ShutdownFlushes(t *testing.T) {
	preserveGlobals(t)

	shutdown, err := Setup(context.Background(), enabledCfg("deal-ledger-shutdown"), "v1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown returned error: %v", err)
	}
}
