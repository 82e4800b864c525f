// Package publish uploads built manifests to S3 compatible object storage.
//
// Destinations are written as s3+http://host/bucket/prefix or
// s3+https://host/bucket/prefix. Credentials come from the standard
// AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY environment variables.
package publish
