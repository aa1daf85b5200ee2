package amazon

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"speechaudio/internal/transcript"
)

type S3API interface {
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type ObjectStore struct {
	api  S3API
	opts options
}

func NewObjectStore(api S3API, opts ...Option) *ObjectStore {
	return &ObjectStore{api: api, opts: newOptions(opts)}
}

// List returns s3:// URIs for every object under prefix except the prefix
// placeholder itself.
func (s *ObjectStore) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	var uris []string
	p := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		started := time.Now()
		page, err := p.NextPage(ctx)
		s.opts.observe("s3.list_objects", started, err)
		if err != nil {
			return nil, fmt.Errorf("list s3://%s/%s: %w", bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == prefix {
				continue
			}
			uris = append(uris, "s3://"+bucket+"/"+key)
		}
	}
	return uris, nil
}

// Upload stores a local file as prefix/<basename> and returns the key.
func (s *ObjectStore) Upload(ctx context.Context, bucket, prefix, filename string) (string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return "", err
	}
	defer f.Close()

	key := path.Join(prefix, filepath.Base(filename))
	started := time.Now()
	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	s.opts.observe("s3.put_object", started, err)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}
	return key, nil
}

func (s *ObjectStore) Delete(ctx context.Context, bucket, prefix, name string) error {
	started := time.Now()
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(path.Join(prefix, name)),
	})
	s.opts.observe("s3.delete_object", started, err)
	if err != nil {
		return fmt.Errorf("delete s3://%s/%s: %w", bucket, path.Join(prefix, name), err)
	}
	return nil
}

// FetchTranscript downloads and decodes a transcription result document.
func (s *ObjectStore) FetchTranscript(ctx context.Context, uri string) (transcript.Payload, error) {
	bucket, key, err := ParseObjectURI(uri)
	if err != nil {
		return transcript.Payload{}, err
	}
	started := time.Now()
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	s.opts.observe("s3.get_object", started, err)
	if err != nil {
		return transcript.Payload{}, fmt.Errorf("fetch %s: %w", uri, err)
	}
	defer out.Body.Close()
	return transcript.Decode(out.Body)
}

// ParseObjectURI accepts s3://bucket/key and path-style https object URLs,
// where the first path element is the bucket.
func ParseObjectURI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("parse object uri: %w", err)
	}
	if u.Scheme == "s3" {
		bucket, key = u.Host, strings.TrimPrefix(u.Path, "/")
	} else {
		parts := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)
		if len(parts) == 2 {
			bucket, key = parts[0], parts[1]
		}
	}
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("object uri %q has no bucket or key", uri)
	}
	return bucket, key, nil
}
