package otelprovider

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	gxotel "github.com/gxo-labs/gxotel/pkg/gxotel/v1"
	gxolog "github.com/gxo-labs/gxotel/pkg/gxotel/v1/log"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/encoding/gzip"
)

const (
	defaultExportTimeout = 10 * time.Second
	defaultHTTPTracePath = "/v1/traces"
)

// newOTLPExporter builds the OTLP exporter described by cfg. It returns
// nil when no endpoint is configured.
func newOTLPExporter(ctx context.Context, cfg gxotel.Config, log gxolog.Logger) (sdktrace.SpanExporter, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, nil
	}

	protocol := strings.ToLower(cfg.Protocol)
	if protocol == "" {
		protocol = gxotel.ProtocolGRPC
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultExportTimeout
	}
	gzipped := strings.ToLower(cfg.Compression) == "gzip"
	isURL := strings.Contains(endpoint, "://")

	switch protocol {
	case gxotel.ProtocolGRPC:
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithTimeout(timeout),
		}
		if isURL {
			opts = append(opts, otlptracegrpc.WithEndpointURL(endpoint))
		} else {
			opts = append(opts, otlptracegrpc.WithEndpoint(endpoint))
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlptracegrpc.WithHeaders(cfg.Headers))
		}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		} else if !isURL {
			opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
		}
		if gzipped {
			opts = append(opts, otlptracegrpc.WithCompressor(gzip.Name))
		}
		log.Debugf("Configuring OTLP gRPC exporter (endpoint: %s, insecure: %t, compression: %s, headers: %d)", endpoint, cfg.Insecure, cfg.Compression, len(cfg.Headers))
		return otlptracegrpc.New(ctx, opts...)

	case gxotel.ProtocolHTTP, gxotel.ProtocolHTTPProtobuf:
		opts := []otlptracehttp.Option{
			otlptracehttp.WithTimeout(timeout),
		}
		if isURL {
			opts = append(opts, otlptracehttp.WithEndpointURL(endpoint))
		} else {
			opts = append(opts, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithURLPath(defaultHTTPTracePath))
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
		}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if gzipped {
			opts = append(opts, otlptracehttp.WithCompression(otlptracehttp.GzipCompression))
		}
		log.Debugf("Configuring OTLP HTTP exporter (endpoint: %s, insecure: %t, compression: %s, headers: %d)", endpoint, cfg.Insecure, cfg.Compression, len(cfg.Headers))
		return otlptracehttp.New(ctx, opts...)

	default:
		return nil, fmt.Errorf("unsupported OTLP protocol: %s", protocol)
	}
}

// newConsoleExporter writes finished spans as indented JSON to w.
func newConsoleExporter(w io.Writer) (sdktrace.SpanExporter, error) {
	return stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
}
