package gormstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/dianalab/diana-server-go/predict"
	"github.com/dianalab/diana-server-go/runstore"
	"github.com/dianalab/diana-server-go/worker"
)

func TestStoreCRUD(t *testing.T) {
	Convey("sqlite-backed job registry", t, func() {
		s, err := Open(filepath.Join(t.TempDir(), "jobs.db"))
		So(err, ShouldBeNil)
		ctx := context.Background()

		now := time.Now().UTC().Truncate(time.Second)
		job := &worker.Job{
			JobID: "j1", InputID: "in1", InputType: "skeleton", BehaviorID: "B1",
			Status: worker.StatusPending, Message: "En cola...",
			CreatedAt: now, UpdatedAt: now,
		}
		So(s.Create(ctx, job), ShouldBeNil)

		Convey("duplicate create is rejected", func() {
			So(s.Create(ctx, job), ShouldNotBeNil)
		})

		Convey("get round-trips fields", func() {
			got, err := s.Get(ctx, "j1")
			So(err, ShouldBeNil)
			So(got.JobID, ShouldEqual, "j1")
			So(got.Status, ShouldEqual, worker.StatusPending)
			So(got.Message, ShouldEqual, "En cola...")
			So(got.Results, ShouldBeNil)
		})

		Convey("unknown job -> ErrJobNotFound", func() {
			_, err := s.Get(ctx, "nope")
			So(err, ShouldEqual, worker.ErrJobNotFound)
			So(s.Update(ctx, "nope", func(*worker.Job) {}), ShouldEqual, worker.ErrJobNotFound)
		})

		Convey("update persists mutation including results payload", func() {
			res := &runstore.Results{
				JobID: "j1", InputID: "in1", InputType: "skeleton", BehaviorID: "B1",
				Prediction: predict.Prediction{BehaviorID: "B1", Pred: 1, Confidence: 0.8123},
				Metadata:   runstore.Metadata{ModelVersion: "dummy-v1.0", InputHash: "aabbccdd00112233"},
			}
			err := s.Update(ctx, "j1", func(j *worker.Job) {
				j.Status = worker.StatusCompleted
				j.Progress = 100
				j.Message = "Análisis completado"
				j.Results = res
			})
			So(err, ShouldBeNil)

			got, err := s.Get(ctx, "j1")
			So(err, ShouldBeNil)
			So(got.Status, ShouldEqual, worker.StatusCompleted)
			So(got.Progress, ShouldEqual, 100)
			So(got.Results, ShouldResemble, res)
		})

		Convey("list processing filters by status", func() {
			So(s.Create(ctx, &worker.Job{JobID: "j2", Status: worker.StatusProcessing, CreatedAt: now, UpdatedAt: now}), ShouldBeNil)
			So(s.Create(ctx, &worker.Job{JobID: "j3", Status: worker.StatusFailed, CreatedAt: now, UpdatedAt: now}), ShouldBeNil)
			list, err := s.ListProcessing(ctx)
			So(err, ShouldBeNil)
			So(list, ShouldHaveLength, 1)
			So(list[0].JobID, ShouldEqual, "j2")
		})
	})
}
