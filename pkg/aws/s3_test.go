package aws

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3ArchiverWithAPI_ParsesTarget(t *testing.T) {
	tests := []struct {
		target string
		key    string
		wantOK bool
	}{
		{target: "my-bucket", key: "ec2stats-2024-01-01.json", wantOK: true},
		{target: "s3://my-bucket/reports/ec2/", key: "reports/ec2/ec2stats-2024-01-01.json", wantOK: true},
		{target: "", wantOK: false},
		{target: "s3:///prefix", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			a, err := NewS3ArchiverWithAPI(&mockS3API{}, tt.target)
			if !tt.wantOK {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.key, a.Key("ec2stats-2024-01-01.json"))
		})
	}
}

func TestS3Archiver_Archive(t *testing.T) {
	api := &mockS3API{}
	a, err := NewS3ArchiverWithAPI(api, "bucket/prefix")
	require.NoError(t, err)

	require.NoError(t, a.Archive(context.Background(), "ec2summary-2024-01-01.json", []byte(`{"Summary":{}}`)))
	require.Len(t, api.inputs, 1)

	in := api.inputs[0]
	assert.Equal(t, "bucket", aws.ToString(in.Bucket))
	assert.Equal(t, "prefix/ec2summary-2024-01-01.json", aws.ToString(in.Key))
	assert.Equal(t, "application/json", aws.ToString(in.ContentType))
	body, err := io.ReadAll(in.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"Summary":{}}`, string(body))
}

func TestS3Archiver_ArchiveError(t *testing.T) {
	a, err := NewS3ArchiverWithAPI(&mockS3API{err: errors.New("denied")}, "bucket")
	require.NoError(t, err)

	err = a.Archive(context.Background(), "x.json", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://bucket/x.json")
}

func TestCredentials_HasStaticKeys(t *testing.T) {
	assert.True(t, Credentials{AccessKey: "a", SecretKey: "b"}.HasStaticKeys())
	assert.False(t, Credentials{AccessKey: "a"}.HasStaticKeys())
	assert.False(t, Credentials{Profile: "dev"}.HasStaticKeys())
}
