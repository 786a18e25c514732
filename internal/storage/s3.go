// Package storage holds the raw document blobs behind the library in an
// S3-compatible object store.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/lantern-kg/lantern/internal/util"
)

// Client wraps the S3 API for one bucket.
//
// A Client should be created using NewClient or NewClientFromEnv.
type Client struct {
	s3             *s3.Client
	bucket         string
	publicEndpoint string
}

// NewClientParams defines the configuration for creating a Client.
//
// PublicEndpoint is optional; when set, presigned links are signed
// against it instead of the internal endpoint.
type NewClientParams struct {
	Region         string
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	Bucket         string
}

// NewClient creates a Client configured with the provided parameters.
func NewClient(ctx context.Context, params NewClientParams) (*Client, error) {
	if params.Bucket == "" {
		return nil, errors.New("storage: bucket is required")
	}

	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(params.Region),
		config.WithBaseEndpoint(params.Endpoint),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			params.AccessKey,
			params.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &Client{
		s3:             client,
		bucket:         params.Bucket,
		publicEndpoint: params.PublicEndpoint,
	}, nil
}

// NewClientFromEnv creates a Client from the AWS_* environment.
func NewClientFromEnv(ctx context.Context) (*Client, error) {
	return NewClient(ctx, NewClientParams{
		Region:         util.GetEnv("AWS_REGION"),
		Endpoint:       util.GetEnv("AWS_ENDPOINT"),
		PublicEndpoint: util.GetEnv("AWS_PUBLIC_ENDPOINT"),
		AccessKey:      util.GetEnv("AWS_ACCESS_KEY"),
		SecretKey:      util.GetEnv("AWS_SECRET_KEY"),
		Bucket:         util.GetEnv("AWS_BUCKET"),
	})
}

// Put stores a blob under key. An empty content type is inferred from
// the key's extension.
func (c *Client) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(key))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// Get loads a blob.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, nil
}

// Delete removes a blob.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// PresignDownload returns a time-limited GET link. With a public
// endpoint configured the link is signed against it, so the signature
// matches the Host header the browser will send.
func (c *Client) PresignDownload(ctx context.Context, key string, expiry time.Duration) (string, error) {
	client := c.s3
	prefix := ""
	if c.publicEndpoint != "" {
		publicURL, err := url.Parse(c.publicEndpoint)
		if err != nil || publicURL.Scheme == "" || publicURL.Host == "" {
			return "", fmt.Errorf("invalid public endpoint %s", c.publicEndpoint)
		}
		prefix = strings.TrimSuffix(publicURL.Path, "/")

		base := publicURL.Scheme + "://" + publicURL.Host
		client = s3.NewFromConfig(aws.Config{
			Region:      c.s3.Options().Region,
			Credentials: c.s3.Options().Credentials,
			HTTPClient:  c.s3.Options().HTTPClient,
		}, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(base)
			o.UsePathStyle = true
		})
	}

	presigner := s3.NewPresignClient(client)
	out, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("presign object %s: %w", key, err)
	}

	if prefix != "" {
		signed, err := url.Parse(out.URL)
		if err != nil {
			return "", fmt.Errorf("parse presigned url: %w", err)
		}
		signed.Path = prefix + signed.Path
		return signed.String(), nil
	}
	return out.URL, nil
}

// DeletePrefix removes every object under prefix, page by page.
func (c *Client) DeletePrefix(ctx context.Context, prefix string) error {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	}

	for {
		page, err := c.s3.ListObjectsV2(ctx, input)
		if err != nil {
			return fmt.Errorf("list objects under %s: %w", prefix, err)
		}
		if len(page.Contents) == 0 {
			return nil
		}

		objects := make([]types.ObjectIdentifier, 0, len(page.Contents))
		for _, object := range page.Contents {
			objects = append(objects, types.ObjectIdentifier{Key: object.Key})
		}
		if _, err := c.s3.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(c.bucket),
			Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
		}); err != nil {
			return fmt.Errorf("delete objects under %s: %w", prefix, err)
		}

		if page.IsTruncated == nil || !*page.IsTruncated {
			return nil
		}
		input.ContinuationToken = page.NextContinuationToken
	}
}
