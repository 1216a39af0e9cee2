package certutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testCertPEM = `-----BEGIN CERTIFICATE-----
MIIDDTCCAfWgAwIBAgIURhN7Kb7aFx/WznAA+d/3nxb1cMswDQYJKoZIhvcNAQEL
BQAwFjEUMBIGA1UEAwwLZXhhbXBsZS5jb20wHhcNMjYwOTAxMDEwOTQzWhcNMzYw
ODI5MDEwOTQzWjAWMRQwEgYDVQQDDAtleGFtcGxlLmNvbTCCASIwDQYJKoZIhvcN
AQEBBQADggEPADCCAQoCggEBAMf37oj3Qdv4+yajAhT+owb0mRFpbWwYPpe+rEqQ
z3d9E6j1BQJ5sBWbDXpcvFaM+fMZmuYjYpP2Pfbws0VZwjubJTb4UG+hwXtlxdI/
dflSD2VL180tveSLBiJWtwTAWAIUCR5VAq7KnJzZnqBFPa1QiaOZ324+KG/D8OcA
8/q1uTgLcx2KsXtsOWjKG36HvZqChXfUA6jiwBusaRHyyRn41SXvN7nRB8AXaDCh
IPfqBh44+T80T+be1RdGuRSCL5Y8qzgXvQC0yh/NGndL8ubpsVPUAZp5VzdXsSEq
/+sMqcH2RU4TGdJP4lnpFMhKNHbTyH5l8yqHSLLmtzkGSkECAwEAAaNTMFEwHQYD
VR0OBBYEFNHwdl0+00qpDX3chQIPBpOPW8PoMB8GA1UdIwQYMBaAFNHwdl0+00qp
DX3chQIPBpOPW8PoMA8GA1UdEwEB/wQFMAMBAf8wDQYJKoZIhvcNAQELBQADggEB
AEwx19K0jIRv7nrIHSSTqm9QCsBg6cc+9TM9j8+bozelW1zKyp7hME/6m1ZG1ouC
HtB7CeMF4l81mIrUSesuScecLVsawxIoUgWbVtYX5HS34gt6/rCNumIw6loYQ1rg
L4NhgLPomLKfPXn6O9ojYmnb18bgUMePNWrxTA5aUfW6ebzBgvfQQ9oYqs07Fnck
hdDfTvVqopMXULGP9TlH+TevEBb1OmQ3byO60Xa+iAVlCXb+R6FJlcsPDh35EVsC
hnFrIjVn7EBmSEeyN6okyxDoTbGPXksbKz3QcNtfqYZICBdIO8nItvpfDDSK8UxA
MeEvg9DRZo4kHhsasr6Xk2Q=
-----END CERTIFICATE-----`

const testCSRPEM = `-----BEGIN CERTIFICATE REQUEST-----
MIICXzCCAUcCAQAwGjEYMBYGA1UEAwwPY3NyLmV4YW1wbGUuY29tMIIBIjANBgkq
hkiG9w0BAQEFAAOCAQ8AMIIBCgKCAQEAx/fuiPdB2/j7JqMCFP6jBvSZEWltbBg+
l76sSpDPd30TqPUFAnmwFZsNely8Voz58xma5iNik/Y99vCzRVnCO5slNvhQb6HB
e2XF0j91+VIPZUvXzS295IsGIla3BMBYAhQJHlUCrsqcnNmeoEU9rVCJo5nfbj4o
b8Pw5wDz+rW5OAtzHYqxe2w5aMobfoe9moKFd9QDqOLAG6xpEfLJGfjVJe83udEH
wBdoMKEg9+oGHjj5PzRP5t7VF0a5FIIvljyrOBe9ALTKH80ad0vy5umxU9QBmnlX
N1exISr/6wypwfZFThMZ0k/iWekUyEo0dtPIfmXzKodIsua3OQZKQQIDAQABoAAw
DQYJKoZIhvcNAQELBQADggEBABrgHirpXVOGAKcIwVFxYXX70z8VJn4Z/16kbYsR
5+6HpBQa9fyDMMGy3gLLe4RGRlp8KAUJtQnPL8DgF8h4NzzhmOF+Q729Kns3SqAk
zH6ihREgxw6fYsPcmQY5wa3ulp0eu8pS1Kwpu0D6XruaAve2uEV5tizp+3qdVMJU
Wtv++ITrDvnYNvU9HjIUyq0JeMqQ/ZRVhOdI5lMMQGZSKYT85LjdKA6gkN+3gUs6
jUJVA07xKaXGL9d/69wtjSQusEsUqC1qqqPZGBWCy6QCb+yQRt8fEBsFZpCLKpMs
w3aX6qLKYCi53+D2GvOVUlEpz4dUz7as3yIjMuiYfIfcGtE=
-----END CERTIFICATE REQUEST-----`

func TestCommonNamePrefersCSR(t *testing.T) {
	name, err := CommonName(testCSRPEM, testCertPEM)
	require.NoError(t, err)
	require.Equal(t, "csr.example.com", name)
}

func TestCommonNameFallsBackToCert(t *testing.T) {
	name, err := CommonName("", testCertPEM)
	require.NoError(t, err)
	require.Equal(t, "example.com", name)
}

func TestCommonNameEmptyInputs(t *testing.T) {
	name, err := CommonName("", "")
	require.NoError(t, err)
	require.Equal(t, "", name)
}

func TestCommonNameRejectsGarbage(t *testing.T) {
	_, err := CommonName("not pem at all", "")
	require.Error(t, err)

	_, err = CommonName("", "also not pem")
	require.Error(t, err)
}
