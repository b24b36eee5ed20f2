package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	appconfig "recipe-catalog/internal/infrastructure/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestPut(t *testing.T) {
	putter := &fakePutter{}
	s := NewS3StoreWithClient(putter, &appconfig.StorageConfig{Bucket: "photos", Region: "eu-central-1"})

	url, err := s.Put(context.Background(), "recipes/r1/a.jpg", []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://photos.s3.eu-central-1.amazonaws.com/recipes/r1/a.jpg", url)
	assert.Equal(t, "photos", aws.ToString(putter.input.Bucket))
	assert.Equal(t, "recipes/r1/a.jpg", aws.ToString(putter.input.Key))
	assert.Equal(t, "image/jpeg", aws.ToString(putter.input.ContentType))
	assert.Equal(t, []byte("jpeg"), putter.body)

	_, err = NewS3StoreWithClient(&fakePutter{err: errors.New("denied")}, &appconfig.StorageConfig{Bucket: "photos"}).
		Put(context.Background(), "k", nil, "image/png")
	assert.ErrorContains(t, err, "denied")
}

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  appconfig.StorageConfig
		want string
	}{
		{"public base", appconfig.StorageConfig{Bucket: "b", PublicBaseURL: "https://cdn.example.com/"}, "https://cdn.example.com/k.jpg"},
		{"custom endpoint", appconfig.StorageConfig{Bucket: "b", Endpoint: "http://minio:9000/"}, "http://minio:9000/b/k.jpg"},
		{"aws", appconfig.StorageConfig{Bucket: "b", Region: "us-east-1"}, "https://b.s3.us-east-1.amazonaws.com/k.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			assert.Equal(t, tt.want, NewS3StoreWithClient(&fakePutter{}, &cfg).PublicURL("k.jpg"))
		})
	}
}
