package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"docintake-backend/internal/shared/storage/object"
	"docintake-backend/internal/shared/util"
)

const (
	fileNameMetaKey = "filename"

	// S3 caps user metadata at 2 KB total, so long values get truncated.
	maxMetaValueBytes = 1536
)

// Store implements ObjectStore on Amazon S3. Object metadata carries the
// file name and the caller's metadata bag.
type Store struct {
	client   *s3.Client
	bucket   string
	prefix   string
	kmsKeyID string
}

// New creates an S3-backed object store.
func New(ctx context.Context, region, bucket, prefix, kmsKeyID string) (*Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Store{
		client:   s3.NewFromConfig(cfg),
		bucket:   bucket,
		prefix:   strings.Trim(strings.TrimSpace(prefix), "/"),
		kmsKeyID: strings.TrimSpace(kmsKeyID),
	}, nil
}

// Save uploads the reader contents under a generated id.
func (s *Store) Save(ctx context.Context, fileName string, meta object.Metadata, r io.Reader) (string, int64, error) {
	sanitized, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", 0, fmt.Errorf("sanitize file name: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	id := uuid.NewString()
	counter := &countingReader{r: r}

	objectMeta := make(map[string]string, len(meta)+1)
	for k, v := range meta {
		objectMeta[strings.ToLower(k)] = truncateMeta(v)
	}
	objectMeta[fileNameMetaKey] = sanitized

	input := &s3.PutObjectInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(s.objectKey(id)),
		Body:     counter,
		Metadata: objectMeta,
	}
	if ct := meta[object.MetaContentType]; ct != "" {
		input.ContentType = aws.String(ct)
	}
	s.applyEncryption(input)

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", 0, fmt.Errorf("s3 put object bucket=%s id=%s: %w", s.bucket, id, err)
	}
	return id, counter.n, nil
}

// Open downloads a stored object for reading.
func (s *Store) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(id)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, object.ErrNotFound
		}
		return nil, fmt.Errorf("s3 get object bucket=%s id=%s: %w", s.bucket, id, err)
	}
	return out.Body, nil
}

// Stat returns the object summary from a HeadObject call.
func (s *Store) Stat(ctx context.Context, id string) (object.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return object.ObjectInfo{}, err
	}
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(id)),
	})
	if err != nil {
		if isNotFound(err) {
			return object.ObjectInfo{}, object.ErrNotFound
		}
		return object.ObjectInfo{}, fmt.Errorf("s3 head object bucket=%s id=%s: %w", s.bucket, id, err)
	}
	return s.infoFromHead(id, head), nil
}

// Delete removes the object, first verifying it exists so missing ids surface
// as ErrNotFound rather than S3's idempotent no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.Stat(ctx, id); err != nil {
		return err
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(id)),
	}); err != nil {
		return fmt.Errorf("s3 delete object bucket=%s id=%s: %w", s.bucket, id, err)
	}
	return nil
}

// Rename rewrites the object's metadata with the new file name via a self-copy.
func (s *Store) Rename(ctx context.Context, id string, newName string) error {
	sanitized, err := util.SanitizeFileName(newName)
	if err != nil {
		return fmt.Errorf("sanitize file name: %w", err)
	}
	info, err := s.Stat(ctx, id)
	if err != nil {
		return err
	}

	objectMeta := make(map[string]string, len(info.Metadata)+1)
	for k, v := range info.Metadata {
		objectMeta[strings.ToLower(k)] = v
	}
	objectMeta[fileNameMetaKey] = sanitized

	key := s.objectKey(id)
	input := &s3.CopyObjectInput{
		Bucket:            aws.String(s.bucket),
		Key:               aws.String(key),
		CopySource:        aws.String(s.bucket + "/" + key),
		Metadata:          objectMeta,
		MetadataDirective: s3types.MetadataDirectiveReplace,
	}
	if ct := info.Metadata[object.MetaContentType]; ct != "" {
		input.ContentType = aws.String(ct)
	}
	if _, err := s.client.CopyObject(ctx, input); err != nil {
		return fmt.Errorf("s3 rename bucket=%s id=%s: %w", s.bucket, id, err)
	}
	return nil
}

// List pages through the prefix and heads each object for its metadata.
func (s *Store) List(ctx context.Context, filter object.Metadata) ([]object.ObjectInfo, error) {
	var out []object.ObjectInfo

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.listPrefix()),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 list bucket=%s: %w", s.bucket, err)
		}
		for _, obj := range page.Contents {
			id := s.idFromKey(aws.ToString(obj.Key))
			if id == "" {
				continue
			}
			info, err := s.Stat(ctx, id)
			if err != nil {
				if errors.Is(err, object.ErrNotFound) {
					continue
				}
				return nil, err
			}
			if info.Matches(filter) {
				out = append(out, info)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out, nil
}

// S3 lowercases user metadata keys, so reads map them back to the
// canonical casing the rest of the code expects.
var canonicalMetaKeys = map[string]string{
	strings.ToLower(object.MetaContentType):   object.MetaContentType,
	strings.ToLower(object.MetaCategory):      object.MetaCategory,
	strings.ToLower(object.MetaExtractedText): object.MetaExtractedText,
	strings.ToLower(object.MetaStaging):       object.MetaStaging,
}

func (s *Store) infoFromHead(id string, head *s3.HeadObjectOutput) object.ObjectInfo {
	meta := make(object.Metadata, len(head.Metadata))
	fileName := ""
	for k, v := range head.Metadata {
		if strings.EqualFold(k, fileNameMetaKey) {
			fileName = v
			continue
		}
		if canonical, ok := canonicalMetaKeys[strings.ToLower(k)]; ok {
			k = canonical
		}
		meta[k] = v
	}
	info := object.ObjectInfo{
		ID:        id,
		FileName:  fileName,
		SizeBytes: aws.ToInt64(head.ContentLength),
		Metadata:  meta,
	}
	if head.LastModified != nil {
		info.UploadedAt = *head.LastModified
	}
	return info
}

func (s *Store) applyEncryption(input *s3.PutObjectInput) {
	if s.kmsKeyID != "" {
		input.ServerSideEncryption = s3types.ServerSideEncryptionAwsKms
		input.SSEKMSKeyId = aws.String(s.kmsKeyID)
	} else {
		input.ServerSideEncryption = s3types.ServerSideEncryptionAes256
	}
}

func (s *Store) objectKey(id string) string {
	if s.prefix == "" {
		return id
	}
	return s.prefix + "/" + id
}

func (s *Store) listPrefix() string {
	if s.prefix == "" {
		return ""
	}
	return s.prefix + "/"
}

func (s *Store) idFromKey(key string) string {
	return strings.TrimPrefix(strings.TrimPrefix(key, s.listPrefix()), "/")
}

func truncateMeta(v string) string {
	if len(v) <= maxMetaValueBytes {
		return v
	}
	return v[:maxMetaValueBytes]
}

func isNotFound(err error) bool {
	var noSuchKey *s3types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *s3types.NotFound
	return errors.As(err, &notFound)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

var _ object.ObjectStore = (*Store)(nil)
