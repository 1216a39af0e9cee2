package plesk

import (
	"context"
	"strconv"
	"time"
)

// Domain is one entry of the server's domain list.
type Domain struct {
	ID   int64
	Name string
	// "domain" or "alias"
	Type string
}

type ServerInfo struct {
	Domains []Domain
	// panel session idle timeout, server configuration
	SessionIdleTimeout time.Duration
}

// ServerOperator reads server-level configuration and creates panel
// sessions.
type ServerOperator struct {
	operator
}

func (o *ServerOperator) Get(ctx context.Context) (ServerInfo, error) {
	result, err := o.result(ctx, "get", []*DataNode{
		Node("gen_info", ""),
		Node("session_setup", ""),
		Node("admin-domain-list", ""),
	})
	if err != nil {
		return ServerInfo{}, err
	}

	info := ServerInfo{}

	timeoutMinutes, err := strconv.Atoi(result.Get("session_setup", "login_timeout").Text())
	if err == nil {
		info.SessionIdleTimeout = time.Duration(timeoutMinutes) * time.Minute
	}

	for _, node := range result.Child("admin-domain-list").Each("domain") {
		id, _ := strconv.ParseInt(node.Get("id").Text(), 10, 64)
		info.Domains = append(info.Domains, Domain{
			ID:   id,
			Name: node.Get("name").Text(),
			Type: node.Get("type").Text(),
		})
	}

	return info, nil
}

type CreateSessionOptions struct {
	// the address the browser session will appear to come from; the
	// remote host binds the session to it
	SourceIP string
	// optional url the panel offers as a "back" link
	ReturnURL string
}

// CreateSession asks the remote host for a fresh panel session id for
// the given panel login. The id only becomes a usable browser session
// once the session-initialization url has been visited, see the session
// manager.
func (o *ServerOperator) CreateSession(ctx context.Context, login string, opts CreateSessionOptions) (string, error) {
	result, err := o.result(ctx, "create_session", []*DataNode{
		Node("login", login),
		GroupNode("data",
			OptionalNode("user_ip", opts.SourceIP),
			OptionalNode("back_url", opts.ReturnURL),
		),
	})
	if err != nil {
		return "", err
	}
	return result.Get("id").Text(), nil
}
