package plesk

import (
	"context"
	"time"
)

// idle timestamps come back in the panel's own date format
const sessionTimeFormat = "2006-01-02 15:04:05"

// RemoteSession is one active panel session on the remote host.
type RemoteSession struct {
	ID   string
	Type string
	// when the session last saw activity
	IdleSince time.Time
}

// SessionOperator lists and terminates active panel sessions.
type SessionOperator struct {
	operator
}

func (o *SessionOperator) Get(ctx context.Context) ([]RemoteSession, error) {
	result, err := o.result(ctx, "get", nil)
	if err != nil {
		return nil, err
	}

	var sessions []RemoteSession
	for _, node := range result.Each("session") {
		idle, _ := time.Parse(sessionTimeFormat, node.Get("idle").Text())
		sessions = append(sessions, RemoteSession{
			ID:        node.Get("id").Text(),
			Type:      node.Get("type").Text(),
			IdleSince: idle,
		})
	}
	return sessions, nil
}

func (o *SessionOperator) Terminate(ctx context.Context, sessionID string) (bool, error) {
	result, err := o.result(ctx, "terminate", []*DataNode{
		Node("session-id", sessionID),
	})
	if err != nil {
		return false, err
	}
	return result.Get("status").Text() == "ok", nil
}
