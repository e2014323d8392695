package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!doctype html>
<html><head><title>Ignored title</title><style>body{color:red}</style></head>
<body>
  <script>var x = "hidden";</script>
  <h1>Redis</h1>
  <p>Redis is an   in-memory <b>data store</b>.</p>
  <noscript>enable js</noscript>
</body></html>`

func TestHTMLText(t *testing.T) {
	text, err := HTMLText(strings.NewReader(samplePage))
	require.NoError(t, err)
	assert.Equal(t, "Redis Redis is an in-memory data store .", text)
}

func TestFetcher_Fetch(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/page":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(samplePage))
		case "/notes.txt":
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte("Kafka  depends on\nZooKeeper."))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, "kg-test/1.0")

	text, err := f.Fetch(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	assert.Contains(t, text, "Redis is an in-memory data store")
	assert.NotContains(t, text, "hidden")
	assert.Equal(t, "kg-test/1.0", gotUA)

	text, err = f.Fetch(context.Background(), srv.URL+"/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "Kafka depends on ZooKeeper.", text)

	_, err = f.Fetch(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestFetcher_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := NewFetcher(20*time.Millisecond, "").Fetch(context.Background(), srv.URL)
	assert.Error(t, err)
}
