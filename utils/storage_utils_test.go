package utils

import (
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

type fakeS3 struct {
	s3iface.S3API
	input *s3.PutObjectInput
	body  []byte
}

func (f *fakeS3) PutObjectWithContext(ctx aws.Context, in *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestStorageUpload(t *testing.T) {
	fake := &fakeS3{}
	st := NewStorageWithClient(fake, "https://cdn.example.com/")

	url, err := st.Upload(context.Background(), "avatars", "u1/a.png", []byte("png"), "image/png")
	if err != nil {
		t.Fatal(err)
	}
	if url != "https://cdn.example.com/avatars/u1/a.png" {
		t.Errorf("url = %q", url)
	}
	if aws.StringValue(fake.input.Bucket) != "avatars" || aws.StringValue(fake.input.ContentType) != "image/png" {
		t.Errorf("put input = %+v", fake.input)
	}
	if string(fake.body) != "png" {
		t.Errorf("body = %q", fake.body)
	}
}
