package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type solid uint8

func (s solid) Occludes() world.Occlusion {
	if s != 0 {
		return world.OcclusionAll
	}
	return world.OcclusionNone
}

type fakeScheduler struct{}

func (fakeScheduler) Anchors() int { return 2 }
func (fakeScheduler) Claimed(c vec.Vec3) int { return c.X + 1 }
func (fakeScheduler) IsPending(c vec.Vec3) bool { return c.Y == 5 }

type fakeMeshes map[vec.Vec3]int

func (m fakeMeshes) MeshCount() int { return len(m) }
func (m fakeMeshes) MeshQuads(c vec.Vec3) (int, bool) {
	q, ok := m[c]
	return q, ok
}

func newTestServer(t *testing.T) (*RestServer, *world.VoxelWorld[solid]) {
	t.Helper()
	w := world.NewVoxelWorld[solid](world.Options[solid]{})
	require.NoError(t, w.LoadChunk(context.Background(), vec.Vec3{X: 1, Y: 2, Z: 3}, nil))

	rs, err := NewRestServer(Config{
		World:     w,
		Scheduler: fakeScheduler{},
		Meshes:    fakeMeshes{{X: 1, Y: 2, Z: 3}: 42},
		Registry:  prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	return rs, w
}

func get(t *testing.T, rs *RestServer, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	rs.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rs, _ := newTestServer(t)
	rec := get(t, rs, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))
}

func TestChunkStatus(t *testing.T) {
	rs, w := newTestServer(t)

	rec := get(t, rs, "/api/chunks/1/2/3")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool        `json:"success"`
		Data    ChunkStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	loadID, _ := w.LoadID(vec.Vec3{X: 1, Y: 2, Z: 3})
	edits, _ := w.ChunkEdits(vec.Vec3{X: 1, Y: 2, Z: 3})
	assert.Equal(t, ChunkStatus{
		X: 1, Y: 2, Z: 3,
		Resident:  true,
		Generated: true,
		LoadID:    loadID,
		Edits:     edits,
		Claims:    2,
		Meshed:    true,
		Quads:     42,
	}, resp.Data)

	rec = get(t, rs, "/api/chunks/-4/5/0")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Data.Resident)
	assert.True(t, resp.Data.Pending)
	assert.Equal(t, -3, resp.Data.Claims)
}

func TestChunkStatusBadCoords(t *testing.T) {
	rs, _ := newTestServer(t)
	rec := get(t, rs, "/api/chunks/1/abc/3")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "abc")
}

func TestStats(t *testing.T) {
	rs, _ := newTestServer(t)
	rec := get(t, rs, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			World   world.WorldStats `json:"world"`
			Anchors int              `json:"anchors"`
			Meshes  int              `json:"meshes"`
			Server  ProcessStats     `json:"server"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Data.World.Resident)
	assert.Equal(t, 2, resp.Data.Anchors)
	assert.Equal(t, 1, resp.Data.Meshes)
	assert.Positive(t, resp.Data.Server.Goroutines)
}

func TestMetricsEndpoint(t *testing.T) {
	rs, _ := newTestServer(t)
	get(t, rs, "/health")
	get(t, rs, "/missing")

	rec := get(t, rs, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "voxel_api_http_request_duration_seconds"))
	assert.Contains(t, body, `path="unmatched"`)
}

func TestNewRestServerRequiresWorld(t *testing.T) {
	_, err := NewRestServer(Config{})
	assert.Error(t, err)
}
