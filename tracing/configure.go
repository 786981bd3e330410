package tracing

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel"
	otlpgrpc "go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

const (
	// EndpointEnvVar points at the collector's otlp grpc receiver, host:port.
	EndpointEnvVar = "RECALL_COLLECTOR_ENDPOINT"
	// ApiKeyEnvVar is sent as the `api_key` header on every export, for
	// collectors which authenticate (phoenix et al).
	ApiKeyEnvVar = "RECALL_API_KEY"
)

func Configure(ctx context.Context, appName string, version string) (func(ctx context.Context) error, error) {
	if val := os.Getenv("OTEL_SDK_DISABLED"); val == "true" {
		return func(ctx context.Context) error { return nil }, nil
	}

	opts := []otlpgrpc.Option{}
	if endpoint := os.Getenv(EndpointEnvVar); endpoint != "" {
		opts = append(opts, otlpgrpc.WithEndpoint(endpoint), otlpgrpc.WithInsecure())
	}
	if key := os.Getenv(ApiKeyEnvVar); key != "" {
		opts = append(opts, otlpgrpc.WithHeaders(map[string]string{"api_key": key}))
	}

	exporter, _ := otlpgrpc.New(ctx, opts...)
	res, _ := resource.New(
		ctx,
		resource.WithTelemetrySDK(),
		resource.WithFromEnv(),
		resource.WithAttributes(
			semconv.ServiceName(appName),
			semconv.ServiceVersion(version),
		),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-signals
		fmt.Printf("Received %s, stopping\n", s)

		if err := tp.Shutdown(context.Background()); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		os.Exit(0)
	}()

	return tp.Shutdown, nil
}
