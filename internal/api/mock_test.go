package api

import (
	"errors"
	"io"
	"sync"

	http "github.com/bogdanfinn/fhttp"
)

// MockResponseBody is a ReadCloser that serves data in fixed size chunks
type MockResponseBody struct {
	data      []byte
	pos       int
	chunkSize int
	failAfter int
	err       error
	closed    bool
	reads     int
}

// NewMockResponseBody creates a new MockResponseBody with the given data
func NewMockResponseBody(data []byte) *MockResponseBody {
	return &MockResponseBody{data: data}
}

// Read implements the io.Reader interface
func (m *MockResponseBody) Read(p []byte) (n int, err error) {
	m.reads++
	if m.err != nil && m.pos >= m.failAfter {
		return 0, m.err
	}
	if m.pos >= len(m.data) {
		return 0, io.EOF
	}
	end := len(m.data)
	if m.chunkSize > 0 && m.pos+m.chunkSize < end {
		end = m.pos + m.chunkSize
	}
	if m.err != nil && end > m.failAfter {
		end = m.failAfter
	}
	n = copy(p, m.data[m.pos:end])
	m.pos += n
	return n, nil
}

// Close implements the io.Closer interface
func (m *MockResponseBody) Close() error {
	m.closed = true
	return nil
}

// MockDoer records requests and replays a canned response
type MockDoer struct {
	mu       sync.Mutex
	Response *http.Response
	Err      error
	Requests []*http.Request
	Bodies   []string
}

// Do implements the Doer interface
func (m *MockDoer) Do(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		m.Bodies = append(m.Bodies, string(data))
	} else {
		m.Bodies = append(m.Bodies, "")
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

// LastRequest returns the most recent request
func (m *MockDoer) LastRequest() *http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Requests) == 0 {
		return nil
	}
	return m.Requests[len(m.Requests)-1]
}

func newResponse(status int, contentType, body string) *http.Response {
	header := http.Header{}
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       NewMockResponseBody([]byte(body)),
	}
}

func newTestClient(t interface{ Fatalf(string, ...any) }, doer *MockDoer, token string, opts ...ClientOption) *Client {
	opts = append([]ClientOption{WithHTTPClient(doer)}, opts...)
	c, err := NewClient("http://backend.test/", NewSession(token), opts...)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

var errConnReset = errors.New("connection reset by peer")
