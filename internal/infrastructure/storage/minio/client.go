package minio

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"github.com/minio/minio-go/v7/pkg/tags"
	"github.com/turtacn/mfa-engine/internal/config"
	"github.com/turtacn/mfa-engine/internal/platform/logging"
	"github.com/turtacn/mfa-engine/pkg/mfaerr"
)

// MinIOAPI is the subset of the minio-go SDK this package depends on, so
// tests can substitute a mock instead of dialing a real server.
type MinIOAPI interface {
	ListBuckets(ctx context.Context) ([]minio.BucketInfo, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	SetBucketLifecycle(ctx context.Context, bucketName string, config *lifecycle.Configuration) error
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
	PresignedPutObject(ctx context.Context, bucketName, objectName string, expiry time.Duration) (*url.URL, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	RemoveObjects(ctx context.Context, bucketName string, objectsCh <-chan minio.ObjectInfo, opts minio.RemoveObjectsOptions) <-chan minio.RemoveObjectError
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	CopyObject(ctx context.Context, dst minio.CopyDestOptions, src minio.CopySrcOptions) (minio.UploadInfo, error)
	PutObjectTagging(ctx context.Context, bucketName, objectName string, ot *tags.Tags, opts minio.PutObjectTaggingOptions) error
	GetObjectTagging(ctx context.Context, bucketName, objectName string, opts minio.GetObjectTaggingOptions) (*tags.Tags, error)
}

// BucketConfig names the buckets this engine writes into. A deployment that
// wants bucket-level isolation or per-purpose lifecycle policy sets these
// independently; NewClientFromConfig instead points every field at the same
// bucket and relies on key prefixes, the same separation
// solver.FileDispatchBackend already uses for LP/output objects within one
// bucket ("lpfiles/", "outputs/", "driver/").
type BucketConfig struct {
	LPDumps       string `mapstructure:"lp_dumps"`
	SolverOutputs string `mapstructure:"solver_outputs"`
	ModelExports  string `mapstructure:"model_exports"`
	Reports       string `mapstructure:"reports"`
	Temp          string `mapstructure:"temp"`
	Attachments   string `mapstructure:"attachments"`
}

// MinIOConfig is the package-local, fully expanded configuration for an
// object-storage deployment that wants per-purpose buckets and lifecycle
// tuning. Operators who just want one bucket set internal/config.MinIOConfig
// and call NewClientFromConfig, which collapses BucketConfig onto it.
type MinIOConfig struct {
	Endpoint        string        `mapstructure:"endpoint"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	UseSSL          bool          `mapstructure:"use_ssl"`
	Region          string        `mapstructure:"region"`
	DefaultBucket   string        `mapstructure:"default_bucket"`
	Buckets         BucketConfig  `mapstructure:"buckets"`
	PartSize        int64         `mapstructure:"part_size"`
	MaxRetries      int           `mapstructure:"max_retries"`
	PresignExpiry   time.Duration `mapstructure:"presign_expiry"`
	TempFileExpiry  int           `mapstructure:"temp_file_expiry"`
}

type MinIOClient struct {
	client MinIOAPI
	config *MinIOConfig
	logger logging.Logger
	mu     sync.RWMutex
	closed bool
}

// NewMinIOClient dials endpoint, verifies the connection with ListBuckets,
// and ensures every configured bucket exists with its lifecycle rules set.
func NewMinIOClient(cfg *MinIOConfig, log logging.Logger) (*MinIOClient, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	applyDefaults(cfg)

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, mfaerr.Wrap(err, mfaerr.CodeStorageError, "create minio client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := client.ListBuckets(ctx); err != nil {
		return nil, mfaerr.Wrap(err, mfaerr.CodeStorageError, "connect to minio")
	}

	mClient := &MinIOClient{
		client: client,
		config: cfg,
		logger: log,
	}

	if err := mClient.EnsureBuckets(ctx); err != nil {
		return nil, err
	}
	if err := mClient.SetupLifecycleRules(ctx); err != nil {
		return nil, err
	}

	log.Info("minio client connected", logging.String("endpoint", cfg.Endpoint), logging.Bool("ssl", cfg.UseSSL))
	return mClient, nil
}

// NewClientFromConfig adapts the operator-facing config.MinIOConfig (one
// bucket) onto the richer MinIOConfig this package understands, pointing
// every BucketConfig field at the same bucket.
func NewClientFromConfig(cfg config.MinIOConfig, log logging.Logger) (*MinIOClient, error) {
	return NewMinIOClient(&MinIOConfig{
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKey,
		SecretAccessKey: cfg.SecretKey,
		UseSSL:          cfg.UseSSL,
		DefaultBucket:   cfg.Bucket,
		PresignExpiry:   cfg.PresignExpiry,
		Buckets: BucketConfig{
			LPDumps:       cfg.Bucket,
			SolverOutputs: cfg.Bucket,
			ModelExports:  cfg.Bucket,
			Reports:       cfg.Bucket,
			Temp:          cfg.Bucket,
			Attachments:   cfg.Bucket,
		},
	}, log)
}

func applyDefaults(cfg *MinIOConfig) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.PartSize == 0 {
		cfg.PartSize = 16 * 1024 * 1024
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.PresignExpiry == 0 {
		cfg.PresignExpiry = 1 * time.Hour
	}
	if cfg.TempFileExpiry == 0 {
		cfg.TempFileExpiry = 7
	}
	if cfg.DefaultBucket == "" {
		cfg.DefaultBucket = "mfa-lp-dumps"
	}
	if cfg.Buckets.LPDumps == "" {
		cfg.Buckets.LPDumps = "mfa-lp-dumps"
	}
	if cfg.Buckets.SolverOutputs == "" {
		cfg.Buckets.SolverOutputs = "mfa-solver-outputs"
	}
	if cfg.Buckets.ModelExports == "" {
		cfg.Buckets.ModelExports = "mfa-model-exports"
	}
	if cfg.Buckets.Reports == "" {
		cfg.Buckets.Reports = "mfa-reports"
	}
	if cfg.Buckets.Temp == "" {
		cfg.Buckets.Temp = "mfa-temp"
	}
	if cfg.Buckets.Attachments == "" {
		cfg.Buckets.Attachments = "mfa-attachments"
	}
}

func (c *MinIOClient) allBuckets() []string {
	return []string{
		c.config.Buckets.LPDumps,
		c.config.Buckets.SolverOutputs,
		c.config.Buckets.ModelExports,
		c.config.Buckets.Reports,
		c.config.Buckets.Temp,
		c.config.Buckets.Attachments,
	}
}

func (c *MinIOClient) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range c.allBuckets() {
		exists, err := c.client.BucketExists(ctx, bucket)
		if err != nil {
			return mfaerr.Wrap(err, mfaerr.CodeStorageError, "check bucket existence")
		}
		if !exists {
			if err := c.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: c.config.Region}); err != nil {
				return mfaerr.Wrap(err, mfaerr.CodeStorageError, fmt.Sprintf("create bucket %s", bucket))
			}
			c.logger.Info("created bucket", logging.String("bucket", bucket))
		}
	}
	return nil
}

// SetupLifecycleRules expires temp-bucket objects after TempFileExpiry days
// and report exports after 30 days; run jobs write under those buckets
// expecting the objects to age out on their own.
func (c *MinIOClient) SetupLifecycleRules(ctx context.Context) error {
	tempConfig := lifecycle.NewConfiguration()
	tempConfig.Rules = []lifecycle.Rule{
		{
			ID:         "temp-cleanup",
			Status:     "Enabled",
			Expiration: lifecycle.Expiration{Days: lifecycle.ExpirationDays(c.config.TempFileExpiry)},
			Prefix:     "",
		},
	}
	if err := c.client.SetBucketLifecycle(ctx, c.config.Buckets.Temp, tempConfig); err != nil {
		c.logger.Warn("failed to set lifecycle for temp bucket", logging.Err(err))
	}

	reportsConfig := lifecycle.NewConfiguration()
	reportsConfig.Rules = []lifecycle.Rule{
		{
			ID:         "reports-cleanup",
			Status:     "Enabled",
			Expiration: lifecycle.Expiration{Days: 30},
			Prefix:     "",
		},
	}
	if err := c.client.SetBucketLifecycle(ctx, c.config.Buckets.Reports, reportsConfig); err != nil {
		c.logger.Warn("failed to set lifecycle for reports bucket", logging.Err(err))
	}

	return nil
}

func (c *MinIOClient) GetClient() MinIOAPI {
	return c.client
}

// GetBucketName resolves a logical bucket purpose to the configured bucket
// name, falling back to DefaultBucket for anything it doesn't recognize.
func (c *MinIOClient) GetBucketName(bucketType string) string {
	switch bucketType {
	case "lp_dumps":
		return c.config.Buckets.LPDumps
	case "solver_outputs":
		return c.config.Buckets.SolverOutputs
	case "model_exports":
		return c.config.Buckets.ModelExports
	case "reports":
		return c.config.Buckets.Reports
	case "temp":
		return c.config.Buckets.Temp
	case "attachments":
		return c.config.Buckets.Attachments
	default:
		return c.config.DefaultBucket
	}
}

var ErrMinIOClientClosed = mfaerr.New(mfaerr.CodeStorageError, "minio client is closed")

func (c *MinIOClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

type HealthStatus struct {
	Healthy        bool
	Latency        time.Duration
	BucketStatuses map[string]bool
	Error          string
}

func (c *MinIOClient) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	start := time.Now()
	_, err := c.client.ListBuckets(ctx)
	latency := time.Since(start)

	status := &HealthStatus{
		Healthy:        err == nil,
		Latency:        latency,
		BucketStatuses: make(map[string]bool),
	}
	if err != nil {
		status.Error = err.Error()
		return status, err
	}

	for _, b := range c.allBuckets() {
		exists, _ := c.client.BucketExists(ctx, b)
		status.BucketStatuses[b] = exists
		if !exists {
			status.Healthy = false
			status.Error = fmt.Sprintf("bucket %s missing", b)
		}
	}
	return status, nil
}

type BucketStats struct {
	ObjectCount  int64
	TotalSize    int64
	LastModified time.Time
}

var ErrBucketNotFound = mfaerr.New(mfaerr.CodeNotFound, "bucket not found")

func (c *MinIOClient) GetBucketStats(ctx context.Context, bucketName string) (*BucketStats, error) {
	exists, err := c.client.BucketExists(ctx, bucketName)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrBucketNotFound
	}

	stats := &BucketStats{}
	objects := c.client.ListObjects(ctx, bucketName, minio.ListObjectsOptions{Recursive: true})
	for obj := range objects {
		if obj.Err != nil {
			return nil, obj.Err
		}
		stats.ObjectCount++
		stats.TotalSize += obj.Size
		if obj.LastModified.After(stats.LastModified) {
			stats.LastModified = obj.LastModified
		}
	}
	return stats, nil
}

func (c *MinIOClient) GeneratePresignedGetURL(ctx context.Context, bucketName, objectName string, expiry time.Duration) (string, error) {
	if expiry == 0 {
		expiry = c.config.PresignExpiry
	}
	u, err := c.client.PresignedGetObject(ctx, bucketName, objectName, expiry, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (c *MinIOClient) GeneratePresignedPutURL(ctx context.Context, bucketName, objectName string, expiry time.Duration) (string, error) {
	if expiry == 0 {
		expiry = c.config.PresignExpiry
	}
	u, err := c.client.PresignedPutObject(ctx, bucketName, objectName, expiry)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
