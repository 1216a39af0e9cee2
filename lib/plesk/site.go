package plesk

import (
	"context"
	"strconv"
)

// SiteFilter selects sites by one of the filter keys the remote API
// understands ("id", "name", "guid", ...).
type SiteFilter struct {
	Type  string
	Value string
}

func SiteByID(id int64) SiteFilter {
	return SiteFilter{Type: "id", Value: strconv.FormatInt(id, 10)}
}

func SiteByName(name string) SiteFilter {
	return SiteFilter{Type: "name", Value: name}
}

type SiteInfo struct {
	ID   int64
	Name string
	// name of the certificate assigned to the site's hosting, empty
	// when none is assigned
	CertificateName string
}

// SiteOperator reads per-site (domain) information.
type SiteOperator struct {
	operator
}

func (o *SiteOperator) Get(ctx context.Context, filter SiteFilter) (SiteInfo, error) {
	result, err := o.result(ctx, "get", []*DataNode{
		GroupNode("filter", Node(filter.Type, filter.Value)),
		GroupNode("dataset",
			Node("gen_info", ""),
			Node("hosting", ""),
		),
	})
	if err != nil {
		return SiteInfo{}, err
	}

	id, _ := strconv.ParseInt(result.Get("id").Text(), 10, 64)
	info := SiteInfo{
		ID:   id,
		Name: result.Get("data", "gen_info", "name").Text(),
	}
	if hosting := result.Get("data", "hosting", "vrt_hst"); hosting != nil {
		info.CertificateName = hosting.Property("certificate_name")
	}
	return info, nil
}
