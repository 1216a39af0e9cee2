package plesk

import (
	"context"
	"errors"
	"strings"
)

const badCredentialsText = "incorrect username or password"

// VerifyConnection exercises the transport once with verbose errors so
// bad credentials surface at connect time instead of on first real use.
// It is a pseudo-operator: it rides on the server operator but is not
// part of the remote API.
//
// Bad credentials come back as *AuthenticationError (a 403-class
// failure); anything else, including unreachable hosts, becomes a
// 500-class StatusError.
func VerifyConnection(ctx context.Context, c *Client) error {
	op := operator{name: OperatorServer, client: c}
	_, err := op.send(ctx, "get", []*DataNode{Node("stat", "")}, true)
	if err == nil {
		return nil
	}

	var protoErr *ProtocolError
	if errors.As(err, &protoErr) &&
		strings.Contains(strings.ToLower(protoErr.ErrText), badCredentialsText) {
		return &AuthenticationError{Message: "incorrect login details for remote host"}
	}
	return &StatusError{
		Code:    500,
		Message: "could not connect to the remote API, is the host correct?",
	}
}
