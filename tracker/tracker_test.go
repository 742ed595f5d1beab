package tracker

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	Convey("start/stop lifecycle", t, func() {
		m := NewManager()
		ins := m.Start("job-1")
		So(ins.Ctx.Err(), ShouldBeNil)

		got, ok := m.Get("job-1")
		So(ok, ShouldBeTrue)
		So(got, ShouldEqual, ins)
		So(m.ListIDs(), ShouldResemble, []string{"job-1"})

		Convey("stop cancels the context and removes the entry", func() {
			So(m.Stop("job-1"), ShouldBeTrue)
			So(ins.Ctx.Err(), ShouldNotBeNil)
			_, ok := m.Get("job-1")
			So(ok, ShouldBeFalse)
		})

		Convey("stopping an unknown job returns false", func() {
			So(m.Stop("nope"), ShouldBeFalse)
		})
	})
}
