package metrics

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCollectSystemMetric(t *testing.T) {
	Convey("collect metrics should not panic and be in range", t, func() {
		m := CollectSystemMetric(context.Background())
		So(m.CPUProcessors, ShouldBeGreaterThanOrEqualTo, 1)
		So(m.Score, ShouldBeGreaterThanOrEqualTo, 0)
		So(m.Score, ShouldBeLessThanOrEqualTo, 100)
		So(m.DiskUsageRatio, ShouldBeLessThanOrEqualTo, 1)
	})
}
