package plesk

import "context"

type KeyInfo struct {
	Key         string
	IPAddress   string
	Description string
	Login       string
}

// SecretKeyOperator manages the API keys the remote host accepts in
// place of login credentials.
type SecretKeyOperator struct {
	operator
}

type CreateKeyOptions struct {
	// ip the key will be bound to; the remote host defaults to the
	// request sender's address
	IPAddress   string
	Description string
	// login of the account owning the key; defaults to the
	// administrator account
	Login string
}

func (o *SecretKeyOperator) Create(ctx context.Context, opts CreateKeyOptions) (string, error) {
	result, err := o.result(ctx, "create", []*DataNode{
		OptionalNode("ip_address", opts.IPAddress),
		OptionalNode("description", opts.Description),
		OptionalNode("login", opts.Login),
	})
	if err != nil {
		return "", err
	}
	return result.Get("key").Text(), nil
}

// Info retrieves information on one key, or on every key on the server
// when key is empty.
func (o *SecretKeyOperator) Info(ctx context.Context, key string) ([]KeyInfo, error) {
	out, err := o.send(ctx, "get_info", []*DataNode{keyFilter(key)}, false)
	if err != nil {
		return nil, err
	}

	var keys []KeyInfo
	for _, result := range out.Each("result") {
		keys = append(keys, KeyInfo{
			Key:         result.Get("key").Text(),
			IPAddress:   result.Get("ip_address").Text(),
			Description: result.Get("description").Text(),
			Login:       result.Get("login").Text(),
		})
	}
	return keys, nil
}

// Delete removes the given key. An empty key deletes every secret key
// on the server, so callers must only pass empty deliberately.
func (o *SecretKeyOperator) Delete(ctx context.Context, key string) error {
	_, err := o.send(ctx, "delete", []*DataNode{keyFilter(key)}, false)
	return err
}

// the filter node is required even when empty ("match everything")
func keyFilter(key string) *DataNode {
	return &DataNode{Name: "filter", Children: []*DataNode{OptionalNode("key", key)}}
}
