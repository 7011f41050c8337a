// Package storage resolves factory image locations to local files.
//
// A location is either a local path or an S3 URI (s3://bucket/key). S3
// objects are downloaded into a work directory; credentials come from the
// standard AWS environment, and public buckets are read anonymously when the
// environment provides none.
//
//	r := storage.New(storage.WithRegion("us-east-1"), storage.WithLogger(logger))
//	obj, err := r.Resolve(ctx, "s3://images/husky-factory.zip", workDir)
//	if err != nil {
//	    return err
//	}
//	update, err := archive.OpenFile(obj.Path)
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Scheme is the URI scheme of S3 locations.
const Scheme = "s3://"

// Logger is an optional logging interface. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ObjectGetter is the part of the S3 API used for downloads. *s3.Client
// satisfies it.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Object is a resolved local file.
type Object struct {
	Path   string
	SHA256 string
	Size   int64

	// Remote is true when the file was downloaded
	Remote bool
}

// Location is a parsed S3 URI.
type Location struct {
	Bucket string
	Key    string
}

func (l Location) String() string {
	return Scheme + l.Bucket + "/" + l.Key
}

// ParseLocation parses s3://bucket/key. ok is false for anything that is
// not an S3 URI.
func ParseLocation(uri string) (loc Location, ok bool, err error) {
	if !strings.HasPrefix(uri, Scheme) {
		return Location{}, false, nil
	}

	bucket, key, found := strings.Cut(strings.TrimPrefix(uri, Scheme), "/")
	if bucket == "" {
		return Location{}, true, fmt.Errorf("parse %q: missing bucket", uri)
	}
	if !found || key == "" || strings.HasSuffix(key, "/") {
		return Location{}, true, fmt.Errorf("parse %q: missing object key", uri)
	}
	return Location{Bucket: bucket, Key: key}, true, nil
}

// Config holds the resolver configuration.
type Config struct {
	Logger Logger

	// Region is the AWS region of the bucket
	Region string

	// Client replaces the S3 client built from the AWS environment
	Client ObjectGetter
}

// Option is a functional option for configuring a Resolver.
type Option func(*Config)

// WithLogger sets a logger.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(c *Config) {
		c.Region = region
	}
}

// WithClient sets the S3 client.
func WithClient(client ObjectGetter) Option {
	return func(c *Config) {
		c.Client = client
	}
}

// Resolver turns locations into local files.
type Resolver struct {
	config Config
	client ObjectGetter
}

// New creates a Resolver. The S3 client is created on the first S3 location.
func New(opts ...Option) *Resolver {
	cfg := Config{Region: "us-east-1"}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Resolver{config: cfg, client: cfg.Client}
}

// Resolve returns the local file for uri, downloading S3 objects into workDir.
func (r *Resolver) Resolve(ctx context.Context, uri, workDir string) (*Object, error) {
	loc, remote, err := ParseLocation(uri)
	if err != nil {
		return nil, err
	}
	if !remote {
		return r.local(uri)
	}
	return r.download(ctx, loc, workDir)
}

func (r *Resolver) local(p string) (*Object, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", p, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("open %s: is a directory", p)
	}

	hash := sha256.New()
	n, err := io.Copy(hash, f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}

	return &Object{Path: p, SHA256: hex.EncodeToString(hash.Sum(nil)), Size: n}, nil
}

func (r *Resolver) download(ctx context.Context, loc Location, workDir string) (*Object, error) {
	client, err := r.s3Client(ctx)
	if err != nil {
		return nil, err
	}

	if workDir == "" {
		workDir = os.TempDir()
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}

	r.logInfo("s3_download_start", "bucket", loc.Bucket, "s3_key", loc.Key)

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		r.logError("s3_get_object_failed", "s3_key", loc.Key, "error", err)
		return nil, fmt.Errorf("get %s: %w", loc, err)
	}
	defer out.Body.Close()

	dest := filepath.Join(workDir, path.Base(loc.Key))
	tmp, err := os.CreateTemp(workDir, path.Base(loc.Key)+".*.part")
	if err != nil {
		return nil, fmt.Errorf("create download file: %w", err)
	}
	defer os.Remove(tmp.Name())

	hash := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, hash), out.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		r.logError("s3_download_failed", "s3_key", loc.Key, "error", err)
		return nil, fmt.Errorf("download %s: %w", loc, err)
	}
	if want := aws.ToInt64(out.ContentLength); out.ContentLength != nil && n != want {
		return nil, fmt.Errorf("download %s: got %d bytes, expected %d", loc, n, want)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return nil, fmt.Errorf("move download into place: %w", err)
	}

	checksum := hex.EncodeToString(hash.Sum(nil))
	r.logInfo("s3_download_complete",
		"s3_key", loc.Key,
		"size_mb", n/1024/1024,
		"local_path", dest,
		"sha256", checksum,
	)

	return &Object{Path: dest, SHA256: checksum, Size: n, Remote: true}, nil
}

// s3Client loads the AWS configuration once. Without credentials in the
// environment, requests are sent unsigned.
func (r *Resolver) s3Client(ctx context.Context) (ObjectGetter, error) {
	if r.client != nil {
		return r.client, nil
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(r.config.Region)}
	if !hasCredentials() {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(aws.AnonymousCredentials{}))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	r.client = s3.NewFromConfig(cfg)
	return r.client, nil
}

func hasCredentials() bool {
	for _, name := range []string{"AWS_ACCESS_KEY_ID", "AWS_PROFILE", "AWS_WEB_IDENTITY_TOKEN_FILE"} {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

func (r *Resolver) logInfo(msg string, kv ...interface{}) {
	if r.config.Logger != nil {
		r.config.Logger.Info(msg, kv...)
	}
}

func (r *Resolver) logError(msg string, kv ...interface{}) {
	if r.config.Logger != nil {
		r.config.Logger.Error(msg, kv...)
	}
}
