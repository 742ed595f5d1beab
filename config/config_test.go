package config

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const sampleYAML = `
listen_addr: "0.0.0.0:9000"
data_dir: /var/lib/diana
label_map: /etc/diana/label_map.json
model:
  path: /var/lib/diana/models/diana.bin
  dummy: true
jobs:
  stage_delay_ms: 200
  max_concurrent: 8
  stuck_after_seconds: 300
storage:
  sqlite_path: /var/lib/diana/jobs.db
cors_origins:
  - http://localhost:5173
`

func TestLoad(t *testing.T) {
	Convey("load yaml config", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "dianad.yaml")
		So(os.WriteFile(path, []byte(sampleYAML), 0o644), ShouldBeNil)

		c, err := Load(path)
		So(err, ShouldBeNil)
		So(c.ListenAddr, ShouldEqual, "0.0.0.0:9000")
		So(c.DataDir, ShouldEqual, "/var/lib/diana")
		So(c.Model.Dummy, ShouldBeTrue)
		So(c.Jobs.StageDelayMS, ShouldEqual, 200)
		So(c.Jobs.MaxConcurrent, ShouldEqual, 8)
		So(c.Jobs.StuckAfterSeconds, ShouldEqual, 300)
		So(c.Storage.SQLitePath, ShouldEqual, "/var/lib/diana/jobs.db")
		So(c.CORSOrigins, ShouldResemble, []string{"http://localhost:5173"})

		Convey("unset fields stay zero (defaults applied later)", func() {
			So(c.Jobs.HeartbeatSeconds, ShouldEqual, 0)
			So(c.Model.Engine, ShouldEqual, "")
		})

		Convey("missing file -> error", func() {
			_, err := Load(filepath.Join(dir, "nope.yaml"))
			So(err, ShouldNotBeNil)
		})

		Convey("malformed yaml -> error", func() {
			bad := filepath.Join(dir, "bad.yaml")
			So(os.WriteFile(bad, []byte("listen_addr: [oops"), 0o644), ShouldBeNil)
			_, err := Load(bad)
			So(err, ShouldNotBeNil)
		})
	})
}
