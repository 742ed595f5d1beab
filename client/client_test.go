package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestClientHappyPath(t *testing.T) {
	Convey("client decodes server payloads", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status": "healthy", "dummy_mode": true, "behaviors_count": 2,
				"behaviors": []string{"A2", "B1"}, "system": map[string]any{"score": 90.0},
			})
		})
		mux.HandleFunc("POST /api/infer", func(w http.ResponseWriter, r *http.Request) {
			var req InferRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.BehaviorID != "B1" {
				w.WriteHeader(400)
				_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "invalid behavior_id, valid options: B1"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"job_id": "job-1"})
		})
		mux.HandleFunc("GET /api/jobs/job-1", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "completed", "progress": 100, "message": "Análisis completado"})
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		c := New(srv.URL)
		ctx := context.Background()

		h, err := c.Health(ctx)
		So(err, ShouldBeNil)
		So(h.Status, ShouldEqual, "healthy")
		So(h.DummyMode, ShouldBeTrue)
		So(h.BehaviorsCount, ShouldEqual, 2)

		jobID, err := c.StartInference(ctx, "in-1", "skeleton", "B1")
		So(err, ShouldBeNil)
		So(jobID, ShouldEqual, "job-1")

		st, err := c.JobStatus(ctx, "job-1")
		So(err, ShouldBeNil)
		So(st.Status, ShouldEqual, "completed")
		So(st.Terminal(), ShouldBeTrue)
	})
}

func TestClientErrorEnvelope(t *testing.T) {
	Convey("server error envelope surfaces in the returned error", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(404)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "job not found"})
		}))
		defer srv.Close()

		_, err := New(srv.URL).JobStatus(context.Background(), "nope")
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "404")
		So(err.Error(), ShouldContainSubstring, "job not found")
	})
}

func TestWaitForJob(t *testing.T) {
	Convey("wait polls until the job turns terminal", t, func() {
		var calls int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n := atomic.AddInt64(&calls, 1)
			st := map[string]any{"status": "processing", "progress": 55, "message": "Extrayendo características..."}
			if n >= 3 {
				st = map[string]any{"status": "completed", "progress": 100, "message": "Análisis completado"}
			}
			_ = json.NewEncoder(w).Encode(st)
		}))
		defer srv.Close()

		st, err := New(srv.URL).WaitForJob(context.Background(), "job-1", 5*time.Millisecond)
		So(err, ShouldBeNil)
		So(st.Status, ShouldEqual, "completed")
		So(atomic.LoadInt64(&calls), ShouldBeGreaterThanOrEqualTo, 3)

		Convey("ctx cancellation stops the poll", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
			defer cancel()
			stuck := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{"status": "processing"})
			}))
			defer stuck.Close()
			_, err := New(stuck.URL).WaitForJob(ctx, "job-1", 10*time.Millisecond)
			So(err, ShouldNotBeNil)
		})
	})
}
