package runstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/dianalab/diana-server-go/predict"
)

func TestPersistLoad(t *testing.T) {
	Convey("persist then load round-trips", t, func() {
		dir := t.TempDir()
		s := New(filepath.Join(dir, "runs"))

		res := &Results{
			JobID:      "job-1",
			InputID:    "in-1",
			InputType:  "skeleton",
			BehaviorID: "B1",
			Prediction: predict.Prediction{BehaviorID: "B1", Pred: 2, Confidence: 0.9123, RubricText: "good", RubricTextES: "bueno"},
			Metadata:   Metadata{ModelVersion: "dummy-v1.0", InputHash: "aabbccdd00112233", ProcessedAt: "2026-08-23T10:00:00Z"},
		}
		meta := &RunMetadata{
			JobID:        "job-1",
			InputID:      "in-1",
			InputType:    "skeleton",
			BehaviorID:   "B1",
			InputPath:    "/data/skeletons/in-1.json",
			InputHash:    "aabbccdd00112233",
			ModelVersion: "dummy-v1.0",
			StartedAt:    "2026-08-23T09:59:58Z",
			CompletedAt:  "2026-08-23T10:00:00Z",
			DummyMode:    true,
		}
		So(s.Persist("job-1", res, meta), ShouldBeNil)

		got, err := s.Load("job-1")
		So(err, ShouldBeNil)
		So(got, ShouldResemble, res)

		Convey("both documents exist on disk", func() {
			jobDir := filepath.Join(dir, "runs", "job-1")
			for _, name := range []string{"results.json", "metadata.json"} {
				_, err := os.Stat(filepath.Join(jobDir, name))
				So(err, ShouldBeNil)
			}
		})

		Convey("no temp files left behind", func() {
			entries, err := os.ReadDir(filepath.Join(dir, "runs", "job-1"))
			So(err, ShouldBeNil)
			for _, e := range entries {
				So(strings.HasPrefix(e.Name(), ".tmp-"), ShouldBeFalse)
			}
		})
	})
}

func TestLoadMissing(t *testing.T) {
	Convey("load unknown job -> error", t, func() {
		s := New(t.TempDir())
		_, err := s.Load("nope")
		So(err, ShouldNotBeNil)
		So(os.IsNotExist(err), ShouldBeTrue)
	})
}
