package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

type apiError struct {
	code string
}

func (e *apiError) Error() string                 { return "api error " + e.code }
func (e *apiError) ErrorCode() string             { return e.code }
func (e *apiError) ErrorMessage() string          { return e.code }
func (e *apiError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

// mockS3 is an in-memory bucket. The err fields, when set, fail every call
// of the matching operation.
type mockS3 struct {
	mu      sync.Mutex
	objects map[string][]byte

	getErr  error
	putErr  error
	headErr error
}

func newMockS3() *mockS3 {
	return &mockS3{objects: make(map[string][]byte)}
}

func (m *mockS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*in.Key]
	if !ok {
		return nil, &apiError{code: "NoSuchKey"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *mockS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	if _, ok := in.Body.(io.Seeker); !ok {
		return nil, errors.New("mock: body must be seekable")
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if in.ContentLength == nil || *in.ContentLength != int64(len(data)) {
		return nil, errors.New("mock: content length mismatch")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if m.headErr != nil {
		return nil, m.headErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[*in.Key]; !ok {
		return nil, &apiError{code: "NotFound"}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (m *mockS3) object(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	return string(data), ok
}

func TestS3Keys(t *testing.T) {
	tests := []struct {
		prefix, path, key string
	}{
		{"", "classes", "classes"},
		{"", "a/b", "a/b"},
		{"speech", "train_data.npy", "speech/train_data.npy"},
		{"runs/2024", "manifest.yaml", "runs/2024/manifest.yaml"},
	}
	for _, tt := range tests {
		mock := newMockS3()
		put(t, NewS3(mock, "bkt", tt.prefix), tt.path, "x")
		if _, ok := mock.object(tt.key); !ok {
			t.Errorf("prefix %q path %q: object %q not stored", tt.prefix, tt.path, tt.key)
		}
	}
}

func TestS3BackendErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("network timeout")

	t.Run("Read", func(t *testing.T) {
		mock := newMockS3()
		mock.getErr = boom
		_, err := NewS3(mock, "bkt", "").Read(ctx, "classes")
		if !errors.Is(err, boom) || errors.Is(err, os.ErrNotExist) {
			t.Fatalf("Read: %v", err)
		}
	})

	t.Run("Exists", func(t *testing.T) {
		mock := newMockS3()
		mock.headErr = &apiError{code: "AccessDenied"}
		ok, err := NewS3(mock, "bkt", "").Exists(ctx, "classes")
		if err == nil || ok {
			t.Fatalf("Exists = %v, %v; want error", ok, err)
		}
	})

	t.Run("Upload", func(t *testing.T) {
		mock := newMockS3()
		mock.putErr = boom
		w, err := NewS3(mock, "bkt", "").Write(ctx, "train_data.npy")
		if err != nil {
			t.Fatal(err)
		}
		io.WriteString(w, "data")
		if err := w.Close(); !errors.Is(err, boom) {
			t.Fatalf("Close: %v, want upload error", err)
		}
	})
}

func TestS3NothingStoredBeforeClose(t *testing.T) {
	mock := newMockS3()
	s := NewS3(mock, "bkt", "")
	w, err := s.Write(context.Background(), "classes")
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(w, "abc")
	if _, ok := mock.object("classes"); ok {
		t.Fatal("object uploaded before Close")
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(w, "more"); !errors.Is(err, os.ErrClosed) {
		t.Fatalf("write after close: %v", err)
	}
	if err := w.Close(); !errors.Is(err, os.ErrClosed) {
		t.Fatalf("second close: %v", err)
	}
	if got, _ := mock.object("classes"); got != "abc" {
		t.Fatalf("stored %q, want %q", got, "abc")
	}
}

func TestIsS3NotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"NoSuchKey", &apiError{code: "NoSuchKey"}, true},
		{"NotFound", &apiError{code: "NotFound"}, true},
		{"AccessDenied", &apiError{code: "AccessDenied"}, false},
		{"plain error", errors.New("timeout"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isS3NotFound(tt.err); got != tt.want {
				t.Fatalf("isS3NotFound(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestS3Location(t *testing.T) {
	if got := NewS3(newMockS3(), "bkt", "").Location(); got != "s3://bkt" {
		t.Errorf("Location() = %q", got)
	}
	if got := NewS3(newMockS3(), "bkt", "runs/1").Location(); got != "s3://bkt/runs/1" {
		t.Errorf("Location() = %q", got)
	}
}

func TestParseS3URL(t *testing.T) {
	tests := []struct {
		in             string
		bucket, prefix string
		ok             bool
	}{
		{"s3://bkt", "bkt", "", true},
		{"s3://bkt/", "bkt", "", true},
		{"s3://bkt/a/b/", "bkt", "a/b", true},
		{"audio_files/transfer/", "", "", false},
		{"/abs/path", "", "", false},
	}
	for _, tt := range tests {
		bucket, prefix, ok := ParseS3URL(tt.in)
		if bucket != tt.bucket || prefix != tt.prefix || ok != tt.ok {
			t.Errorf("ParseS3URL(%q) = %q, %q, %v", tt.in, bucket, prefix, ok)
		}
	}
}

func TestOpenS3(t *testing.T) {
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv(EndpointEnv, "http://127.0.0.1:9000")
	fs, err := Open(context.Background(), "s3://datasets/speech")
	if err != nil {
		t.Fatal(err)
	}
	s, ok := fs.(*S3Store)
	if !ok {
		t.Fatalf("Open returned %T, want *S3Store", fs)
	}
	if s.bucket != "datasets" || s.prefix != "speech" {
		t.Errorf("bucket %q prefix %q", s.bucket, s.prefix)
	}
	if _, err := Open(context.Background(), "s3://"); err == nil {
		t.Error("expected error for missing bucket")
	}
}
