package plesk

import (
	"context"
	"log/slog"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/plesk")

// operator is the shared core of every typed operator. It borrows the
// client for the duration of a call and holds no other state.
type operator struct {
	name   OperatorName
	client *Client
}

// send serializes one operation into a request packet, posts it, and
// classifies the response.
//
// When verbose is false a remote protocol error is logged and replaced
// with a sanitized 502 StatusError; when true the raw *ProtocolError is
// returned so the caller can inspect the remote text. Transport failures
// are always logged and always returned as *TransportError.
func (o operator) send(ctx context.Context, operation string, nodes []*DataNode, verbose bool) (*ResultNode, error) {
	ctx, span := tracer.Start(ctx, string(o.name)+":"+operation)
	defer span.End()
	span.SetAttributes(attribute.String("host", o.client.Host))

	body := BuildPacket(string(o.name), operation, nodes)

	res, err := o.client.http.R().
		SetContext(ctx).
		SetHeaders(o.client.authHeaders()).
		SetBody(body).
		Post(agentPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		slog.ErrorContext(ctx, "xml api request failed",
			"host", o.client.Host,
			"operator", string(o.name),
			"operation", operation,
			"err", err,
		)
		return nil, &TransportError{Cause: err}
	}

	packet, err := parsePacket(res.Body())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed response body")
		slog.ErrorContext(ctx, "xml api response unparsable",
			"host", o.client.Host,
			"operator", string(o.name),
			"operation", operation,
			"err", err,
		)
		return nil, &TransportError{Cause: err}
	}

	if system := packet.Child("system"); system != nil {
		code, _ := strconv.Atoi(system.Get("errcode").Text())
		protoErr := &ProtocolError{
			ErrText: system.Get("errtext").Text(),
			ErrCode: code,
		}
		span.SetStatus(codes.Error, protoErr.ErrText)
		if verbose {
			return nil, protoErr
		}
		slog.ErrorContext(ctx, "remote api returned an error",
			"host", o.client.Host,
			"operator", string(o.name),
			"operation", operation,
			"errcode", protoErr.ErrCode,
			"errtext", protoErr.ErrText,
		)
		return nil, &StatusError{
			Code:    502,
			Message: "error interacting with the remote API, check log for more information",
		}
	}

	result := packet.Get(string(o.name), operation)
	if result == nil {
		span.SetStatus(codes.Error, "response is missing the operator node")
		slog.ErrorContext(ctx, "xml api response missing operator node",
			"host", o.client.Host,
			"operator", string(o.name),
			"operation", operation,
		)
		return nil, &TransportError{Cause: errMalformedResponse}
	}
	return result, nil
}

// result is a convenience wrapper for the common single-result case.
func (o operator) result(ctx context.Context, operation string, nodes []*DataNode) (*ResultNode, error) {
	out, err := o.send(ctx, operation, nodes, false)
	if err != nil {
		return nil, err
	}
	return out.Child("result"), nil
}
