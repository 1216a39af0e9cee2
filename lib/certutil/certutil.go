package certutil

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// CommonName derives a certificate's common name from whichever of the
// PEM-encoded CSR or certificate is available, preferring the CSR.
// Both empty yields an empty name, not an error.
func CommonName(csrPEM, certPEM string) (string, error) {
	if csrPEM != "" {
		return commonNameFromCSR(csrPEM)
	}
	if certPEM != "" {
		return commonNameFromCert(certPEM)
	}
	return "", nil
}

func commonNameFromCSR(csrPEM string) (string, error) {
	block, _ := pem.Decode([]byte(csrPEM))
	if block == nil {
		return "", fmt.Errorf("csr is not valid pem")
	}
	csr, err := x509.ParseCertificateRequest(block.Bytes)
	if err != nil {
		return "", fmt.Errorf("parse csr: %w", err)
	}
	return csr.Subject.CommonName, nil
}

func commonNameFromCert(certPEM string) (string, error) {
	block, _ := pem.Decode([]byte(certPEM))
	if block == nil {
		return "", fmt.Errorf("certificate is not valid pem")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return "", fmt.Errorf("parse certificate: %w", err)
	}
	return cert.Subject.CommonName, nil
}
