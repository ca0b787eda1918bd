package server_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/routecraft/anchor/internal/config"
	"github.com/routecraft/anchor/internal/costing"
	"github.com/routecraft/anchor/internal/graph"
	"github.com/routecraft/anchor/internal/metrics"
	"github.com/routecraft/anchor/internal/search"
	"github.com/routecraft/anchor/internal/server"
	"github.com/routecraft/anchor/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// downstream captures the forward messages a route success produces.
type downstream struct {
	mu       sync.Mutex
	payloads []string
}

func (d *downstream) handler() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		d.mu.Lock()
		d.payloads = append(d.payloads, string(body))
		d.mu.Unlock()
		rw.WriteHeader(http.StatusOK)
	})
}

func (d *downstream) received() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.payloads...)
}

// populateGraph fills the source with a small connected street fragment
// around two midtown points that straddle a tile boundary.
func populateGraph(src *graph.StaticSource, hierarchy graph.Hierarchy) {
	level := hierarchy.MostDetailed()

	west := graph.TileKey{Level: level.Index, ID: level.TileID(40.751158, -74.000816)}
	src.AddTile(&graph.Tile{Key: west, Edges: []graph.DirectedEdge{
		{
			ID: graph.NewEdgeID(west.Level, west.ID, 0), WayID: 4100,
			ALat: 40.7511, ALon: -74.002, BLat: 40.7511, BLon: -74.0005,
			Access: graph.AccessAuto | graph.AccessPedestrian,
		},
	}})

	east := graph.TileKey{Level: level.Index, ID: level.TileID(40.74941, -73.99681)}
	src.AddTile(&graph.Tile{Key: east, Edges: []graph.DirectedEdge{
		{
			ID: graph.NewEdgeID(east.Level, east.ID, 0), WayID: 5200,
			ALat: 40.7494, ALon: -73.998, BLat: 40.7494, BLon: -73.996,
			Access: graph.AccessAuto | graph.AccessPedestrian,
		},
	}})

	src.SetRegion(hierarchy.RegionAt(40.751158, -74.000816), 1)
	src.SetRegion(hierarchy.RegionAt(40.74941, -73.99681), 1)
}

func newStack(t *testing.T) (*httptest.Server, *downstream) {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Server.Workers = 2

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.NewMetrics(prometheus.NewRegistry())
	hierarchy := graph.DefaultHierarchy()

	src := graph.NewStaticSource()
	populateGraph(src, hierarchy)

	sink := &downstream{}
	sinkServer := httptest.NewServer(sink.handler())
	t.Cleanup(sinkServer.Close)

	newWorker := func() *worker.Worker {
		reader, err := graph.NewCachedReader(
			context.Background(), src, hierarchy, cfg.Tiles.CacheBudgetBytes, log)
		require.NoError(t, err)
		return worker.New(cfg, log, m, reader, costing.NewFactory(), search.New())
	}

	front := server.New(log, m, server.DefaultActions(),
		server.NewHTTPForwarder(sinkServer.URL), cfg.Server.Workers, newWorker)

	ctx, cancel := context.WithCancel(context.Background())
	front.Run(ctx)
	t.Cleanup(func() {
		cancel()
		front.Wait()
	})

	ts := httptest.NewServer(front)
	t.Cleanup(ts.Close)
	return ts, sink
}

func get(t *testing.T, ts *httptest.Server, path string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp, string(body)
}

func post(t *testing.T, ts *httptest.Server, path, body string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	reply, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp, string(reply)
}

func TestRequestValidation(t *testing.T) {
	ts, _ := newStack(t)

	t.Run("unknown path lists the actions", func(t *testing.T) {
		resp, body := get(t, ts, "/bogus")

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t,
			"Try any of: '/locate' '/nearest' '/route' '/version' '/viaroute' ",
			strings.TrimSuffix(body, "\n"))
	})

	t.Run("malformed json parameter", func(t *testing.T) {
		resp, body := get(t, ts, "/route?json="+url.QueryEscape("{"))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Failed to parse json request", body)
	})

	t.Run("missing locations", func(t *testing.T) {
		resp, body := post(t, ts, "/route", `{"costing":"auto"}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Insufficiently specified required parameter 'locations'", body)
	})

	t.Run("missing costing", func(t *testing.T) {
		resp, body := post(t, ts, "/route",
			`{"locations":[{"lat":40.751158,"lon":-74.000816},{"lat":40.74941,"lon":-73.99681}]}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "No edge/node costing provided", body)
	})

	t.Run("unknown costing", func(t *testing.T) {
		resp, body := post(t, ts, "/route",
			`{"locations":[{"lat":40.751158,"lon":-74.000816},{"lat":40.74941,"lon":-73.99681}],"costing":"yak"}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "No costing method found for 'yak'", body)
	})

	t.Run("too many locations", func(t *testing.T) {
		var entries []string
		for i := 0; i < 21; i++ {
			entries = append(entries, `{"lat":40.75,"lon":-74.0}`)
		}
		doc := `{"locations":[` + strings.Join(entries, ",") + `],"costing":"auto"}`

		resp, body := post(t, ts, "/route", doc)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Exceeded max locations of 20.", body)
	})

	t.Run("unconnected regions", func(t *testing.T) {
		resp, body := post(t, ts, "/route",
			`{"locations":[{"lat":89.9,"lon":0},{"lat":-89.9,"lon":0}],"costing":"pedestrian"}`)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t,
			"Locations are in unconnected regions. Go check/edit the map at osm.org", body)
	})

	t.Run("unsupported method", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPut, ts.URL+"/route", nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "Try a POST or GET request instead", strings.TrimSuffix(string(body), "\n"))
	})

	t.Run("cors header on every reply", func(t *testing.T) {
		resp, _ := get(t, ts, "/bogus")
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

		resp, _ = post(t, ts, "/route", `{}`)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	})
}

func TestRoutePipeline(t *testing.T) {
	ts, sink := newStack(t)

	t.Run("success is acknowledged and forwarded", func(t *testing.T) {
		resp, body := post(t, ts, "/route",
			`{"locations":[{"lat":40.751158,"lon":-74.000816},{"lat":40.74941,"lon":-73.99681}],"costing":"auto"}`)

		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
		assert.Empty(t, body)

		payloads := sink.received()
		require.Len(t, payloads, 1)
		assert.Contains(t, payloads[0], "correlated_0")
		assert.Contains(t, payloads[0], "correlated_1")
		assert.Contains(t, payloads[0], "way_id 4100")
		assert.Contains(t, payloads[0], "way_id 5200")
		assert.NotContains(t, payloads[0], "osrm")
	})

	t.Run("viaroute marks the osrm dialect", func(t *testing.T) {
		resp, _ := get(t, ts, "/viaroute?loc=40.751158,-74.000816&loc=40.74941,-73.99681&costing=auto")

		assert.Equal(t, http.StatusAccepted, resp.StatusCode)

		payloads := sink.received()
		require.NotEmpty(t, payloads)
		assert.Contains(t, payloads[len(payloads)-1], "osrm compatibility")
	})
}

func TestLocatePipeline(t *testing.T) {
	ts, _ := newStack(t)

	t.Run("answers the client directly", func(t *testing.T) {
		resp, body := post(t, ts, "/locate",
			`{"locations":[{"lat":40.751158,"lon":-74.000816}],"costing":"auto"}`)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json;charset=utf-8", resp.Header.Get("Content-Type"))
		assert.Contains(t, body, `"way_id":4100`)
		assert.Contains(t, body, `"input_lat":40.751158`)
	})

	t.Run("unsnappable locations report a reason", func(t *testing.T) {
		resp, body := post(t, ts, "/locate",
			`{"locations":[{"lat":0,"lon":0}],"costing":"auto"}`)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, `"ways":null`)
		assert.Contains(t, body, `"reason":"No suitable edges near location"`)
	})

	t.Run("jsonp wraps the reply", func(t *testing.T) {
		_, body := get(t, ts, "/locate?json="+url.QueryEscape(
			`{"locations":[{"lat":40.751158,"lon":-74.000816}],"costing":"auto"}`)+"&jsonp=handler")

		assert.True(t, strings.HasPrefix(body, "handler(") && strings.HasSuffix(body, ")"),
			"expected a handler(...) wrapper, got %q", body)
	})
}

func TestUnimplementedActions(t *testing.T) {
	ts, _ := newStack(t)

	for _, path := range []string{"/nearest", "/version"} {
		t.Run(path, func(t *testing.T) {
			resp, _ := get(t, ts, path)

			assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
		})
	}
}

func TestForwardFailure(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.NewMetrics(prometheus.NewRegistry())
	hierarchy := graph.DefaultHierarchy()
	src := graph.NewStaticSource()
	populateGraph(src, hierarchy)

	// A downstream that rejects everything.
	sinkServer := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(sinkServer.Close)

	newWorker := func() *worker.Worker {
		reader, err := graph.NewCachedReader(context.Background(), src, hierarchy, 0, log)
		require.NoError(t, err)
		return worker.New(cfg, log, m, reader, costing.NewFactory(), search.New())
	}
	front := server.New(log, m, server.DefaultActions(),
		server.NewHTTPForwarder(sinkServer.URL), 1, newWorker)

	ctx, cancel := context.WithCancel(context.Background())
	front.Run(ctx)
	t.Cleanup(func() {
		cancel()
		front.Wait()
	})
	ts := httptest.NewServer(front)
	t.Cleanup(ts.Close)

	resp, _ := post(t, ts, "/route",
		`{"locations":[{"lat":40.751158,"lon":-74.000816},{"lat":40.74941,"lon":-73.99681}],"costing":"auto"}`)

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}
