package analysis

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/younsl/ec2stats/pkg/snapshot"
	"github.com/younsl/ec2stats/pkg/storage"
)

const summaryDoc = `{"Summary":{"OwnerId":"o","Regions":[["us-east-1",2]],"Threshold":{"Avg":5,"Max":30}}}`

func newStore(t *testing.T) (*storage.Store, string) {
	t.Helper()
	dir := t.TempDir()
	s := storage.NewStore(dir, nil)
	s.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	return s, dir
}

func TestAnalyze_Success(t *testing.T) {
	var gotBody, gotType, gotRequestID, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotType = r.Header.Get("Content-Type")
		gotRequestID = r.Header.Get("X-Request-Id")
		gotAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(summaryDoc))
	}))
	defer srv.Close()

	store, dir := newStore(t)
	client := NewClient(srv.URL, store, Options{UserAgent: "ec2stats/test"})

	res, err := client.Analyze(context.Background(), []byte(`{"OwnerId":"o","Instances":[]}`))
	require.NoError(t, err)

	assert.Equal(t, `{"OwnerId":"o","Instances":[]}`, gotBody)
	assert.Equal(t, "application/json", gotType)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, gotRequestID, res.RequestID)
	assert.Equal(t, "ec2stats/test", gotAgent)

	require.NotNil(t, res.Summary)
	assert.Equal(t, "o", res.Summary.OwnerID)
	assert.Equal(t, filepath.Join(dir, "ec2summary-2024-01-01.json"), res.RawPath)

	saved, err := os.ReadFile(res.RawPath)
	require.NoError(t, err)
	assert.Equal(t, summaryDoc, string(saved))
}

func TestAnalyze_NonOKIsSubmissionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("internal error"))
	}))
	defer srv.Close()

	store, dir := newStore(t)
	client := NewClient(srv.URL, store, Options{})

	res, err := client.Analyze(context.Background(), []byte(`{}`))
	assert.Nil(t, res)

	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, http.StatusInternalServerError, subErr.StatusCode)
	assert.Equal(t, "internal error", subErr.Body)
	assert.NoFileExists(t, filepath.Join(dir, "ec2summary-2024-01-01.json"))
}

func TestAnalyze_OtherSuccessCodesRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(summaryDoc))
	}))
	defer srv.Close()

	store, dir := newStore(t)
	_, err := NewClient(srv.URL, store, Options{}).Analyze(context.Background(), []byte(`{}`))

	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, http.StatusAccepted, subErr.StatusCode)
	assert.NoFileExists(t, filepath.Join(dir, "ec2summary-2024-01-01.json"))
}

func TestAnalyze_BodyExcerptIsCapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(strings.Repeat("x", 10000)))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil, Options{}).Analyze(context.Background(), []byte(`{}`))
	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Len(t, subErr.Body, maxBodyExcerpt)
}

func TestAnalyze_MalformedSummaryKeepsRawFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"NotSummary":1}`))
	}))
	defer srv.Close()

	store, _ := newStore(t)
	res, err := NewClient(srv.URL, store, Options{}).Analyze(context.Background(), []byte(`{}`))

	var decodeErr *snapshot.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	require.NotNil(t, res)
	assert.Nil(t, res.Summary)

	saved, err := os.ReadFile(res.RawPath)
	require.NoError(t, err)
	assert.Equal(t, `{"NotSummary":1}`, string(saved))
}

func TestAnalyze_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, nil, Options{Timeout: time.Second}).Analyze(context.Background(), []byte(`{}`))
	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Zero(t, subErr.StatusCode)
}

type failingStore struct{}

func (failingStore) Save(context.Context, string, []byte) (string, error) {
	return "", &storage.PersistenceError{Path: "x", Err: errors.New("disk full")}
}

func TestAnalyze_SaveFailureStillDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(summaryDoc))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, failingStore{}, Options{}).Analyze(context.Background(), []byte(`{}`))
	require.NoError(t, err)
	assert.NotNil(t, res.Summary)
	assert.Empty(t, res.RawPath)
}
