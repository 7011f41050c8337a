package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string]string
	length  map[string]int64
	gets    []string
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	name := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.gets = append(f.gets, name)

	body, ok := f.objects[name]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	length := int64(len(body))
	if n, ok := f.length[name]; ok {
		length = n
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: aws.Int64(length),
	}, nil
}

func sum(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		uri     string
		want    Location
		remote  bool
		wantErr string
	}{
		{uri: "factory.zip"},
		{uri: "/images/factory.zip"},
		{uri: "s3://images/husky/factory.zip", want: Location{Bucket: "images", Key: "husky/factory.zip"}, remote: true},
		{uri: "s3://", remote: true, wantErr: "missing bucket"},
		{uri: "s3://images", remote: true, wantErr: "missing object key"},
		{uri: "s3://images/", remote: true, wantErr: "missing object key"},
		{uri: "s3://images/husky/", remote: true, wantErr: "missing object key"},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			loc, remote, err := ParseLocation(tt.uri)
			assert.Equal(t, tt.remote, remote)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, loc)
		})
	}
}

func TestLocationString(t *testing.T) {
	assert.Equal(t, "s3://images/a/b.zip", Location{Bucket: "images", Key: "a/b.zip"}.String())
}

func TestResolveLocal(t *testing.T) {
	p := filepath.Join(t.TempDir(), "factory.zip")
	require.NoError(t, os.WriteFile(p, []byte("zipdata"), 0o644))

	client := &fakeS3{}
	obj, err := New(WithClient(client)).Resolve(context.Background(), p, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, &Object{Path: p, SHA256: sum("zipdata"), Size: 7}, obj)
	assert.Empty(t, client.gets)
}

func TestResolveLocalErrors(t *testing.T) {
	dir := t.TempDir()
	r := New(WithClient(&fakeS3{}))

	_, err := r.Resolve(context.Background(), filepath.Join(dir, "missing.zip"), dir)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = r.Resolve(context.Background(), dir, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestResolveS3(t *testing.T) {
	client := &fakeS3{objects: map[string]string{"images/husky/factory.zip": "remote zip"}}
	work := filepath.Join(t.TempDir(), "work")

	obj, err := New(WithClient(client)).Resolve(context.Background(), "s3://images/husky/factory.zip", work)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(work, "factory.zip"), obj.Path)
	assert.Equal(t, sum("remote zip"), obj.SHA256)
	assert.Equal(t, int64(10), obj.Size)
	assert.True(t, obj.Remote)
	assert.Equal(t, []string{"images/husky/factory.zip"}, client.gets)

	data, err := os.ReadFile(obj.Path)
	require.NoError(t, err)
	assert.Equal(t, "remote zip", string(data))

	// no partial files are left behind
	entries, err := os.ReadDir(work)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestResolveS3Errors(t *testing.T) {
	client := &fakeS3{
		objects: map[string]string{"images/short.zip": "abc"},
		length:  map[string]int64{"images/short.zip": 10},
	}
	r := New(WithClient(client))
	work := t.TempDir()

	_, err := r.Resolve(context.Background(), "s3://images/missing.zip", work)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get s3://images/missing.zip")

	_, err = r.Resolve(context.Background(), "s3://images/short.zip", work)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 3 bytes, expected 10")

	entries, err := os.ReadDir(work)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
