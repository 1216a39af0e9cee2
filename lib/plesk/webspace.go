package plesk

import (
	"context"
	"strconv"
)

type WebspaceInfo struct {
	ID   int64
	Name string
}

// WebspaceOperator reads subscription (webspace) information.
type WebspaceOperator struct {
	operator
}

// Get retrieves webspaces matching the filter; an empty filter type
// matches all webspaces.
func (o *WebspaceOperator) Get(ctx context.Context, filter SiteFilter) ([]WebspaceInfo, error) {
	filterNode := &DataNode{Name: "filter"}
	if filter.Type != "" {
		filterNode.Children = []*DataNode{Node(filter.Type, filter.Value)}
	}

	out, err := o.send(ctx, "get", []*DataNode{
		filterNode,
		GroupNode("dataset", Node("gen_info", "")),
	}, false)
	if err != nil {
		return nil, err
	}

	var spaces []WebspaceInfo
	for _, result := range out.Each("result") {
		id, _ := strconv.ParseInt(result.Get("id").Text(), 10, 64)
		spaces = append(spaces, WebspaceInfo{
			ID:   id,
			Name: result.Get("data", "gen_info", "name").Text(),
		})
	}
	return spaces, nil
}
