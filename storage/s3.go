package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/ruteri/simpleweb/interfaces"
)

// RemoteProvider implements a storage provider using Amazon S3 or compatible services.
// The underlying HTTP client pools connections and is safe for concurrent use.
type RemoteProvider struct {
	client     *s3.S3
	uploader   *s3manager.Uploader
	bucketName string
	log        *slog.Logger
}

// NewRemoteProvider creates a new S3 storage provider for bucketName and
// verifies that the bucket is reachable. Any failure is reported as
// ErrConfiguration so the process refuses to start.
func NewRemoteProvider(ctx context.Context, bucketName string, opts RemoteOptions, log *slog.Logger) (*RemoteProvider, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("%w: empty bucket name", interfaces.ErrConfiguration)
	}

	cfg := aws.Config{
		Region:           aws.String(opts.Region),
		Credentials:      credentials.NewStaticCredentials(opts.AccessKey, opts.SecretKey, ""),
		S3ForcePathStyle: aws.Bool(opts.ForcePathStyle),
		DisableSSL:       aws.Bool(opts.DisableSSL),
		// Retry policy belongs to the caller.
		MaxRetries: aws.Int(0),
	}
	if opts.Endpoint != "" {
		cfg.Endpoint = aws.String(opts.Endpoint)
	}

	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create AWS session: %v", interfaces.ErrConfiguration, err)
	}

	client := s3.New(sess)
	uploader := s3manager.NewUploaderWithClient(client, func(u *s3manager.Uploader) {
		u.LeavePartsOnError = false
	})

	p := &RemoteProvider{
		client:     client,
		uploader:   uploader,
		bucketName: bucketName,
		log:        log,
	}

	if err := p.Available(ctx); err != nil {
		return nil, fmt.Errorf("%w: bucket %s unreachable: %v", interfaces.ErrConfiguration, bucketName, err)
	}

	return p, nil
}

// Write uploads content under name. S3 makes an object visible only once the
// upload completes; failed multipart uploads are aborted.
func (p *RemoteProvider) Write(ctx context.Context, name string, content io.Reader) (interfaces.StoredObjectRef, error) {
	start := time.Now()

	if err := validateWritableName(name); err != nil {
		return interfaces.StoredObjectRef{}, err
	}

	counter := &countingReader{r: content}
	_, err := p.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(p.bucketName),
		Key:    aws.String(name),
		Body:   counter,
	})
	if err != nil {
		p.log.Error("Failed to upload object to S3",
			slog.String("bucket", p.bucketName),
			slog.String("key", name),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return interfaces.StoredObjectRef{}, p.classify(ctx, err)
	}

	p.log.Debug("Stored content in S3",
		slog.String("bucket", p.bucketName),
		slog.String("key", name),
		slog.Int64("size", counter.n),
		slog.Duration("duration", time.Since(start)))

	return interfaces.StoredObjectRef{ID: name, Kind: interfaces.RemoteStorage}, nil
}

// Read retrieves an object from S3. Returns ErrNotFound if the object doesn't exist.
// The caller must close the returned body.
func (p *RemoteProvider) Read(ctx context.Context, ref interfaces.StoredObjectRef) (io.ReadCloser, error) {
	if ref.Kind != interfaces.RemoteStorage {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrNotFound, ref)
	}
	if err := ValidateName(ref.ID); err != nil {
		return nil, err
	}

	result, err := p.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucketName),
		Key:    aws.String(ref.ID),
	})
	if err != nil {
		if isNotFound(err) {
			p.log.Debug("Content not found in S3",
				slog.String("bucket", p.bucketName),
				slog.String("key", ref.ID))
			return nil, fmt.Errorf("%w: %s", interfaces.ErrNotFound, ref)
		}
		return nil, p.classify(ctx, err)
	}

	return result.Body, nil
}

// Exists heads the referenced object. Any failure, including connectivity
// problems, is logged and reported as false.
func (p *RemoteProvider) Exists(ctx context.Context, ref interfaces.StoredObjectRef) bool {
	if ref.Kind != interfaces.RemoteStorage || ValidateName(ref.ID) != nil {
		return false
	}

	_, err := p.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.bucketName),
		Key:    aws.String(ref.ID),
	})
	if err != nil {
		if !isNotFound(err) {
			p.log.Warn("S3 exists check failed",
				slog.String("bucket", p.bucketName),
				slog.String("key", ref.ID),
				"err", err)
		}
		return false
	}
	return true
}

// Available checks if the S3 backend is accessible by attempting to head the bucket.
func (p *RemoteProvider) Available(ctx context.Context) error {
	start := time.Now()

	_, err := p.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(p.bucketName),
	})
	if err != nil {
		p.log.Warn("S3 backend unavailable",
			slog.String("bucket", p.bucketName),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		if isNotFound(err) {
			return fmt.Errorf("%w: bucket %s does not exist", interfaces.ErrStorageUnavailable, p.bucketName)
		}
		return p.classify(ctx, err)
	}
	return nil
}

// Kind returns RemoteStorage.
func (p *RemoteProvider) Kind() interfaces.StorageKind {
	return interfaces.RemoteStorage
}

// Name returns a unique identifier for this storage provider.
func (p *RemoteProvider) Name() string {
	return fmt.Sprintf("s3-%s", p.bucketName)
}

// classify maps SDK errors onto the storage error taxonomy.
func (p *RemoteProvider) classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("s3 request aborted: %w", ctxErr)
	}

	// A missing bucket is a deployment problem, not a bad object name.
	if isNoSuchBucket(err) {
		return fmt.Errorf("%w: %v", interfaces.ErrStorageUnavailable, err)
	}

	if reqErr := findRequestFailure(err); reqErr != nil {
		status := reqErr.StatusCode()
		switch {
		case status == http.StatusUnauthorized, status == http.StatusForbidden,
			status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %v", interfaces.ErrStorageUnavailable, err)
		case status >= http.StatusBadRequest:
			return fmt.Errorf("%w: %v", interfaces.ErrInvalidName, err)
		}
	}

	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case "InvalidArgument", "KeyTooLongError", "InvalidObjectName":
			return fmt.Errorf("%w: %v", interfaces.ErrInvalidName, err)
		case request.CanceledErrorCode:
			return err
		}
	}

	return fmt.Errorf("%w: %v", interfaces.ErrStorageUnavailable, err)
}

// findRequestFailure walks the awserr chain looking for an HTTP failure.
func findRequestFailure(err error) awserr.RequestFailure {
	for err != nil {
		var reqErr awserr.RequestFailure
		if errors.As(err, &reqErr) {
			return reqErr
		}
		var aerr awserr.Error
		if !errors.As(err, &aerr) {
			return nil
		}
		err = aerr.OrigErr()
	}
	return nil
}

// isNoSuchBucket reports whether any error in the awserr chain names a
// missing bucket. Multipart upload failures wrap the request error.
func isNoSuchBucket(err error) bool {
	for err != nil {
		var aerr awserr.Error
		if !errors.As(err, &aerr) {
			return false
		}
		if aerr.Code() == s3.ErrCodeNoSuchBucket {
			return true
		}
		err = aerr.OrigErr()
	}
	return false
}

// isNotFound reports a missing object. A missing bucket is not a missing object.
func isNotFound(err error) bool {
	if isNoSuchBucket(err) {
		return false
	}
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	if reqErr := findRequestFailure(err); reqErr != nil {
		return reqErr.StatusCode() == http.StatusNotFound
	}
	return false
}

var _ interfaces.StorageProvider = (*RemoteProvider)(nil)
