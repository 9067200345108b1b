package storage

// Config holds S3-compatible storage configuration.
// Mirroring is disabled when Bucket is empty.
type Config struct {
	// Bucket is the S3 bucket name.
	Bucket string `env:"S3_BUCKET"`

	// AccessKey is the access key ID.
	AccessKey string `env:"S3_ACCESS_KEY"`

	// SecretKey is the secret access key.
	SecretKey string `env:"S3_SECRET_KEY"`

	// Endpoint is the custom S3 endpoint URL (MinIO and other S3-compatible services).
	Endpoint string `env:"S3_ENDPOINT"`

	// Region is the AWS region (default: us-east-1).
	Region string `env:"S3_REGION" envDefault:"us-east-1"`

	// Prefix is prepended to every object key.
	Prefix string `env:"S3_PREFIX"`

	// DefaultACL is the ACL applied to uploaded objects (default: private).
	DefaultACL ACL `env:"S3_ACL" envDefault:"private"`

	// PathStyle enables path-style URLs (required for MinIO).
	PathStyle bool `env:"S3_PATH_STYLE" envDefault:"false"`
}

// Enabled reports whether a bucket is configured.
func (c Config) Enabled() bool {
	return c.Bucket != ""
}

// ACL represents access control levels for stored objects.
type ACL string

const (
	// ACLPrivate makes the object accessible only with credentials or a signed URL.
	ACLPrivate ACL = "private"

	// ACLPublicRead makes the object publicly readable.
	ACLPublicRead ACL = "public-read"
)

// DefaultRegion is used when Config.Region is empty.
const DefaultRegion = "us-east-1"

func (c *Config) applyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.DefaultACL == "" {
		c.DefaultACL = ACLPrivate
	}
}

func (c *Config) validate() error {
	if c.Bucket == "" || c.AccessKey == "" || c.SecretKey == "" {
		return ErrInvalidConfig
	}
	return nil
}
