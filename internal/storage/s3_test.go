package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseS3Ref(t *testing.T) {
	bucket, key, err := parseS3Ref("s3://assessments/assessments/abc/submission.json")
	require.NoError(t, err)
	assert.Equal(t, "assessments", bucket)
	assert.Equal(t, "assessments/abc/submission.json", key)
}

func TestParseS3Ref_Bad(t *testing.T) {
	for _, ref := range []string{
		"http://bucket/key",
		"s3://",
		"s3://bucket",
		"s3://bucket/",
		"s3:///key",
	} {
		_, _, err := parseS3Ref(ref)
		assert.Error(t, err, ref)
	}
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "assessments/a1/submission.json", ArchiveKey("a1"))
	assert.Equal(t, "assessments/a1/scorecard.xlsx", ReportKey("a1"))
}

func TestRef(t *testing.T) {
	c := &Client{bucket: "b"}
	assert.Equal(t, "s3://b/k/x.json", c.Ref("k/x.json"))
}
