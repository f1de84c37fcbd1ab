package s3

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	signer, err := NewSigner(context.Background(), Config{
		Region:       "us-east-1",
		BaseEndpoint: "http://127.0.0.1:9000",
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		Bucket:       "medical-vault",
		UsePathStyle: true,
	})
	require.NoError(t, err)
	return signer
}

func TestSignGetURL(t *testing.T) {
	signer := newTestSigner(t)

	url, err := signer.SignGetURL(context.Background(), "profile-1/reports/scan.pdf", 60*time.Second)
	require.NoError(t, err)

	require.Contains(t, url, "medical-vault/profile-1/reports/scan.pdf")
	require.Contains(t, url, "X-Amz-Expires=60")
	require.Contains(t, url, "X-Amz-Signature=")
}

func TestSignGetURLEncodesKey(t *testing.T) {
	signer := newTestSigner(t)

	url, err := signer.SignGetURL(context.Background(), "profile-1/bills/summer bill.pdf", 60*time.Second)
	require.NoError(t, err)
	require.NotContains(t, url, "summer bill.pdf")
}
