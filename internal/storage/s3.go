package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"research-assessment/internal/config"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ArchiveKey is the object key of an assessment's submission snapshot.
func ArchiveKey(assessmentID string) string {
	return fmt.Sprintf("assessments/%s/submission.json", assessmentID)
}

// ReportKey is the object key of an assessment's scorecard workbook.
func ReportKey(assessmentID string) string {
	return fmt.Sprintf("assessments/%s/scorecard.xlsx", assessmentID)
}

type Client struct {
	s3     *s3.Client
	bucket string
	log    logrus.FieldLogger
}

func New(ctx context.Context, opts config.MinIOOptions, log logrus.FieldLogger) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.AccessKey,
			opts.SecretKey,
			"")),
	)
	if err != nil {
		return nil, err
	}
	endpoint := opts.Endpoint
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
	return &Client{s3: client, bucket: opts.Bucket, log: log}, nil
}

// Ref returns the s3:// reference of key in the client's bucket.
func (c *Client) Ref(key string) string {
	return fmt.Sprintf("s3://%s/%s", c.bucket, key)
}

// Put uploads body under key and returns its reference.
func (c *Client) Put(ctx context.Context, key, contentType string, body []byte) (string, error) {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &c.bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	ref := c.Ref(key)
	c.log.WithFields(logrus.Fields{"ref": ref, "bytes": len(body)}).Debug("stored object")
	return ref, nil
}

func (c *Client) PutJSON(ctx context.Context, key string, v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return c.Put(ctx, key, ContentTypeJSON, b)
}

func parseS3Ref(ref string) (string, string, error) {
	const p = "s3://"
	if !strings.HasPrefix(ref, p) {
		return "", "", fmt.Errorf("bad s3 ref (missing s3://): %q", ref)
	}
	s := strings.TrimPrefix(ref, p)
	slash := strings.IndexByte(s, '/')
	if slash <= 0 || slash == len(s)-1 {
		return "", "", fmt.Errorf("bad s3 ref (need bucket/key): %q", ref)
	}
	return s[:slash], s[slash+1:], nil
}

// GetJSON decodes the object at ref into v.
func (c *Client) GetJSON(ctx context.Context, ref string, v any) error {
	bucket, key, err := parseS3Ref(ref)
	if err != nil {
		return err
	}
	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("get %s: %w", ref, err)
	}
	defer out.Body.Close()
	if err := json.NewDecoder(out.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", ref, err)
	}
	return nil
}
