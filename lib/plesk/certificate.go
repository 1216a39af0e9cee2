package plesk

import "context"

// Material is a certificate's component bundle. PrivateKey is always
// present; the rest are optional.
type Material struct {
	CSR        string
	PrivateKey string
	Cert       string
	CA         string
}

type CertificateSummary struct {
	Name string
}

// CertificateOperator manages certificate resources over the XML API.
type CertificateOperator struct {
	operator
}

type InstallCertificateRequest struct {
	Name string
	// domain to install on; empty installs into the server repository
	SiteName string
	Content  Material
}

func (o *CertificateOperator) Install(ctx context.Context, req InstallCertificateRequest) error {
	_, err := o.send(ctx, "install", []*DataNode{
		Node("name", req.Name),
		OptionalNode("site", req.SiteName),
		GroupNode("content",
			OptionalNode("csr", req.Content.CSR),
			Node("pvt", req.Content.PrivateKey),
			OptionalNode("cert", req.Content.Cert),
			OptionalNode("ca", req.Content.CA),
		),
	}, false)
	return err
}

// List enumerates the certificate pool of a domain, or the server-wide
// repository when siteName is empty.
func (o *CertificateOperator) List(ctx context.Context, siteName string) ([]CertificateSummary, error) {
	filter := &DataNode{Name: "filter", Children: []*DataNode{
		OptionalNode("domain-name", siteName),
	}}
	result, err := o.result(ctx, "get-pool", []*DataNode{filter})
	if err != nil {
		return nil, err
	}

	var certs []CertificateSummary
	for _, node := range result.Child("certificates").Each("certificate") {
		certs = append(certs, CertificateSummary{Name: node.Get("name").Text()})
	}
	return certs, nil
}

func (o *CertificateOperator) Remove(ctx context.Context, siteName, certName string) error {
	_, err := o.send(ctx, "remove", []*DataNode{
		GroupNode("filter", Node("name", certName)),
		OptionalNode("site", siteName),
	}, false)
	return err
}
