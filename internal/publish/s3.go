package publish

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// URL schemes accepted by ParseS3URL.
const (
	SchemeHTTP  = "s3+http"
	SchemeHTTPS = "s3+https"
)

// Credential environment variables.
const (
	EnvAccessKeyID     = "AWS_ACCESS_KEY_ID"
	EnvSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
)

// Publishing errors.
var (
	// ErrInvalidS3URL is returned for destinations that are not s3+http(s) URLs.
	ErrInvalidS3URL = errors.New("destination must be an s3+http:// or s3+https:// URL")

	// ErrMissingBucket is returned when the destination names no bucket.
	ErrMissingBucket = errors.New("destination has no bucket")

	// ErrMissingCredentials is returned when a credential variable is unset.
	ErrMissingCredentials = errors.New("object storage credentials not set")
)

// Destination is a parsed upload location.
type Destination struct {
	// Secure selects HTTPS.
	Secure bool

	// Host is the storage endpoint, with port if any.
	Host string

	Bucket string

	// Prefix is prepended to object names. It has no leading or
	// trailing slash.
	Prefix string
}

// ParseS3URL parses an s3+http(s)://host/bucket/prefix destination.
func ParseS3URL(raw string) (*Destination, error) {
	if !strings.HasPrefix(raw, SchemeHTTP+"://") && !strings.HasPrefix(raw, SchemeHTTPS+"://") {
		return nil, fmt.Errorf("%w: %s", ErrInvalidS3URL, raw)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidS3URL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %s", ErrInvalidS3URL, raw)
	}

	parts := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)
	if parts[0] == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingBucket, raw)
	}

	dest := &Destination{
		Secure: u.Scheme == SchemeHTTPS,
		Host:   u.Host,
		Bucket: parts[0],
	}
	if len(parts) > 1 {
		dest.Prefix = strings.Trim(parts[1], "/")
	}

	return dest, nil
}

// ObjectName returns the object name for a local file name.
func (d *Destination) ObjectName(fileName string) string {
	return path.Join(d.Prefix, path.Base(fileName))
}

// String formats the destination as a URL.
func (d *Destination) String() string {
	scheme := SchemeHTTP
	if d.Secure {
		scheme = SchemeHTTPS
	}
	return scheme + "://" + path.Join(d.Host, d.Bucket, d.Prefix)
}

// Credentials are static object storage credentials.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
}

// CredentialsFromEnv reads credentials using getenv, usually os.Getenv.
func CredentialsFromEnv(getenv func(string) string) (Credentials, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	creds := Credentials{
		AccessKeyID:     getenv(EnvAccessKeyID),
		SecretAccessKey: getenv(EnvSecretAccessKey),
	}
	if creds.AccessKeyID == "" {
		return Credentials{}, fmt.Errorf("%w: %s", ErrMissingCredentials, EnvAccessKeyID)
	}
	if creds.SecretAccessKey == "" {
		return Credentials{}, fmt.Errorf("%w: %s", ErrMissingCredentials, EnvSecretAccessKey)
	}

	return creds, nil
}

// NewClient creates a minio client for dest.
func NewClient(dest *Destination, creds Credentials) (*minio.Client, error) {
	mc, err := minio.New(dest.Host, &minio.Options{
		Creds:  credentials.NewStaticV4(creds.AccessKeyID, creds.SecretAccessKey, ""),
		Secure: dest.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return mc, nil
}
