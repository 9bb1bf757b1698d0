// Package s3store keeps each document as an object of an S3 (or S3 compatible) bucket.
//
// Objects are written one after another: a failure in the middle of a batch leaves the
// earlier objects of the batch written. Use it for single writer deployments.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/potluck/core"
	"github.com/trezcool/potluck/storage/docstore"
)

// modTimeMeta carries the document modification time (unix ns); LastModified only has second precision.
const modTimeMeta = "modtime"

var newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client { // mockable
	return s3.NewFromConfig(cfg, optFns...)
}

// API is the subset of *s3.Client used by the backend.
type API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Backend struct {
	client API
	bucket string
	prefix string
}

var _ docstore.Backend = (*Backend)(nil)

// New builds an S3 client from conf.Storage.S3. Static credentials are used when an access key is set,
// otherwise the default AWS credential chain applies.
func New(ctx context.Context, conf *core.Config) (*Backend, error) {
	sc := conf.Storage.S3
	if sc.Bucket == "" {
		return nil, pkgerrors.New("s3 bucket is not configured")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(sc.Region)}
	if sc.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(sc.AccessKey, sc.SecretKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "loading aws config")
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if sc.Endpoint != "" {
			o.BaseEndpoint = aws.String(sc.Endpoint)
			o.UsePathStyle = true // minio
		}
	})
	return NewWithClient(client, sc.Bucket, sc.Prefix), nil
}

func NewWithClient(client API, bucket, prefix string) *Backend {
	return &Backend{client: client, bucket: bucket, prefix: prefix}
}

func (b *Backend) objectKey(key string) string {
	return b.prefix + key + ".json"
}

func (b *Backend) Read(ctx context.Context, key string) (docstore.Document, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(key)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return docstore.Document{}, pkgerrors.Wrap(docstore.ErrNotExist, key)
		}
		return docstore.Document{}, pkgerrors.Wrapf(err, "getting %s", key)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return docstore.Document{}, pkgerrors.Wrapf(err, "reading %s", key)
	}

	doc := docstore.Document{Key: key, Data: data}
	if ns, err := strconv.ParseInt(out.Metadata[modTimeMeta], 10, 64); err == nil {
		doc.ModTime = time.Unix(0, ns)
	} else if out.LastModified != nil {
		doc.ModTime = *out.LastModified
	}
	return doc, nil
}

func (b *Backend) Write(ctx context.Context, docs ...docstore.Document) error {
	for _, doc := range docs {
		modTime := doc.ModTime
		if modTime.IsZero() {
			modTime = time.Now()
		}
		_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(b.bucket),
			Key:         aws.String(b.objectKey(doc.Key)),
			Body:        bytes.NewReader(doc.Data),
			ContentType: aws.String("application/json"),
			Metadata:    map[string]string{modTimeMeta: strconv.FormatInt(modTime.UnixNano(), 10)},
		})
		if err != nil {
			return pkgerrors.Wrapf(err, "putting %s", doc.Key)
		}
	}
	return nil
}

func (b *Backend) Close() error { return nil }
