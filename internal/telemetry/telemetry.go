// Package telemetry provides OpenTelemetry span helpers for the NFSv3/MOUNT3
// client and its retry/path-resolver layer.
//
// Unlike a server process, this module never owns exporter configuration: it
// only pulls a trace.Tracer out of whatever TracerProvider the embedding
// application has already installed via otel.SetTracerProvider (or the
// no-op default if the application never called that). This keeps the
// client free of an OTLP exporter dependency while still letting an
// application that already has tracing wired up see NFS calls in its spans.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/microsoft/hpc-cache-nfsv3-client"

func tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// Attribute keys for RPC and NFSv3 call spans.
const (
	AttrRPCXID       = "rpc.xid"
	AttrRPCSession   = "rpc.session"
	AttrRPCAttempts  = "rpc.attempts"
	AttrNFSProcedure = "nfs.procedure"
	AttrNFSHandle    = "nfs.handle"
	AttrNFSStatus    = "nfs.status"
	AttrNFSPath      = "nfs.path"
)

func RPCXID(xid uint32) attribute.KeyValue { return attribute.Int64(AttrRPCXID, int64(xid)) }

func NFSProcedure(name string) attribute.KeyValue {
	return attribute.String(AttrNFSProcedure, name)
}

func NFSHandle(handle []byte) attribute.KeyValue {
	return attribute.String(AttrNFSHandle, fmt.Sprintf("%x", handle))
}

func NFSStatus(status string) attribute.KeyValue { return attribute.String(AttrNFSStatus, status) }

func NFSPath(path string) attribute.KeyValue { return attribute.String(AttrNFSPath, path) }

// StartOpSpan starts a span named "nfsclient.<op>" for one logical,
// retry-wrapped operation (the Retrier's unit of work, not one wire
// attempt).
func StartOpSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{NFSProcedure(op)}, attrs...)
	return tracer().Start(ctx, "nfsclient."+op, trace.WithAttributes(all...))
}

// RecordOutcome sets a span's final status: ok on success, or an error
// status carrying err's message.
func RecordOutcome(span trace.Span, err error) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// AddAttemptEvent records one wire attempt (JUKEBOX retry, transport error,
// or final outcome) as a span event, since these happen within a single op
// span rather than warranting their own child span.
func AddAttemptEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
