package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesaa/hostprobe/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubSnapshotter returns a fixed snapshot and counts calls.
type stubSnapshotter struct {
	snap  models.ResourceSnapshot
	calls atomic.Int32
}

func (s *stubSnapshotter) Collect(context.Context) models.ResourceSnapshot {
	s.calls.Add(1)
	return s.snap
}

func sampleSnapshot() models.ResourceSnapshot {
	return models.ResourceSnapshot{
		DeviceName: "probe-host",
		CPU:        models.CpuStats{Usage: 7.5, Count: 4},
		Memory:     models.MemoryStats{Total: 8000, Used: 2000, Available: 5500, Usage: 31.2, SwapUsage: 0},
		Network:    models.NetworkStats{BytesSent: 1, BytesRecv: 2, PacketsSent: 3, PacketsRecv: 4},
		Disk:       []models.DiskPartitionStats{{Name: "/", Total: 100, Used: 50, Free: 45, Usage: 52.6}},
	}
}

func topKeys(t *testing.T, body []byte) []string {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &m))
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func TestSnapshotHandler(t *testing.T) {
	stub := &stubSnapshotter{snap: sampleSnapshot()}
	r := NewRouter(stub, hclog.NewNullLogger())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, []string{"cpu", "device_name", "disk", "memory", "network"}, topKeys(t, rr.Body.Bytes()))

	var got models.ResourceSnapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, stub.snap, got)
	assert.Equal(t, int32(1), stub.calls.Load())
}

func TestSnapshotHandlerIgnoresPathAndQuery(t *testing.T) {
	stub := &stubSnapshotter{snap: sampleSnapshot()}
	r := NewRouter(stub, hclog.NewNullLogger())

	for _, target := range []string{"/metrics", "/a/b/c?x=1&y=2", "/?format=xml"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusOK, rr.Code, target)
		assert.Equal(t, []string{"cpu", "device_name", "disk", "memory", "network"}, topKeys(t, rr.Body.Bytes()), target)
	}
	assert.Equal(t, int32(3), stub.calls.Load())
}

func TestNonGETIsMethodNotAllowed(t *testing.T) {
	stub := &stubSnapshotter{snap: sampleSnapshot()}
	r := NewRouter(stub, hclog.NewNullLogger())

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(method, "/", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code, method)
		assert.Equal(t, http.MethodGet, rr.Header().Get("Allow"), method)
	}
	assert.Zero(t, stub.calls.Load(), "sampler must not run for rejected methods")
}

func TestEmptyDiskEncodesAsArray(t *testing.T) {
	snap := sampleSnapshot()
	snap.Disk = []models.DiskPartitionStats{}
	r := NewRouter(&stubSnapshotter{snap: snap}, hclog.NewNullLogger())

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.JSONEq(t, `[]`, string(body["disk"]))
}

func TestDegradedSectionStillReturns200(t *testing.T) {
	snap := sampleSnapshot()
	snap.CPU = models.CpuStats{Error: "cpu times: permission denied"}
	r := NewRouter(&stubSnapshotter{snap: snap}, hclog.NewNullLogger())

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var got models.ResourceSnapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "cpu times: permission denied", got.CPU.Error)
	assert.Equal(t, uint64(8000), got.Memory.Total)
}

func TestEmptyPathGETIsAnsweredInPlace(t *testing.T) {
	stub := &stubSnapshotter{snap: sampleSnapshot()}
	r := NewRouter(stub, hclog.NewNullLogger())

	// absolute-form target with no path, as in "GET http://host HTTP/1.1"
	req := httptest.NewRequest(http.MethodGet, "http://probe.example", nil)
	req.URL.Path = ""
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("Location"))
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, []string{"cpu", "device_name", "disk", "memory", "network"}, topKeys(t, rr.Body.Bytes()))
	assert.Equal(t, int32(1), stub.calls.Load())
}

func TestEmptyPathNonGETIsMethodNotAllowed(t *testing.T) {
	stub := &stubSnapshotter{snap: sampleSnapshot()}
	r := NewRouter(stub, hclog.NewNullLogger())

	req := httptest.NewRequest(http.MethodPost, "http://probe.example", nil)
	req.URL.Path = ""
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, http.MethodGet, rr.Header().Get("Allow"))
	assert.Zero(t, stub.calls.Load())
}

func TestTrailingSlashVariantsAreNotRedirected(t *testing.T) {
	r := NewRouter(&stubSnapshotter{snap: sampleSnapshot()}, hclog.NewNullLogger())
	for _, target := range []string{"/x/", "//x", "/a/../b"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusOK, rr.Code, target)
	}
}
