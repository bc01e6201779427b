package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string][]byte
	puts    []*s3.PutObjectInput
	getErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) UploadPart(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, errors.New("multipart not expected")
}

func (f *fakeS3) CreateMultipartUpload(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, errors.New("multipart not expected")
}

func (f *fakeS3) CompleteMultipartUpload(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, errors.New("multipart not expected")
}

func (f *fakeS3) AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return nil, errors.New("multipart not expected")
}

func TestS3Store_PutOpenDelete(t *testing.T) {
	client := newFakeS3()
	store, err := NewS3Store(client, "photos", "/uploads/")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "abc-photo.jpg", strings.NewReader("jpeg-bytes"), "image/jpeg"))
	require.Len(t, client.puts, 1)
	assert.Equal(t, "uploads/abc-photo.jpg", aws.ToString(client.puts[0].Key))
	assert.Equal(t, "image/jpeg", aws.ToString(client.puts[0].ContentType))
	assert.Equal(t, types.ObjectCannedACLPrivate, client.puts[0].ACL)

	obj, err := store.Open(ctx, "abc-photo.jpg")
	require.NoError(t, err)
	data, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
	assert.Equal(t, int64(10), obj.Size)

	require.NoError(t, store.Delete(ctx, "abc-photo.jpg"))
	_, err = store.Open(ctx, "abc-photo.jpg")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestS3Store_OpenMapsAPIErrors(t *testing.T) {
	client := newFakeS3()
	store, err := NewS3Store(client, "photos", "")
	require.NoError(t, err)
	ctx := context.Background()

	client.getErr = &smithy.GenericAPIError{Code: "NotFound", Message: "missing"}
	_, err = store.Open(ctx, "x.jpg")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	client.getErr = &smithy.GenericAPIError{Code: "AccessDenied", Message: "nope"}
	_, err = store.Open(ctx, "x.jpg")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrObjectNotFound)
}

func TestS3Store_Validation(t *testing.T) {
	_, err := NewS3Store(newFakeS3(), "", "uploads")
	assert.Error(t, err)

	store, err := NewS3Store(newFakeS3(), "photos", "uploads")
	require.NoError(t, err)
	assert.ErrorIs(t, store.Put(context.Background(), "../x.jpg", strings.NewReader("x"), ""), ErrInvalidKey)
}
