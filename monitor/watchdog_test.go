package monitor_test

import (
	"context"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/mock/gomock"

	"github.com/dianalab/diana-server-go/mocks"
	"github.com/dianalab/diana-server-go/monitor"
)

func TestWatchdog(t *testing.T) {
	Convey("watchdog fails only jobs stuck past the deadline", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		lister := mocks.NewMockJobLister(ctrl)

		stale := monitor.Running{JobID: "stale", UpdatedAt: time.Now().Add(-time.Hour)}
		fresh := monitor.Running{JobID: "fresh", UpdatedAt: time.Now()}
		lister.EXPECT().ListProcessing(gomock.Any()).Return([]monitor.Running{stale, fresh}, nil).MinTimes(1)

		var mu sync.Mutex
		failed := map[string]string{}
		fail := func(ctx context.Context, jobID, reason string) {
			mu.Lock()
			defer mu.Unlock()
			failed[jobID] = reason
		}

		wd := monitor.NewWatchdog(lister, fail, 20*time.Millisecond, 10*time.Minute)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		wd.Start(ctx)
		time.Sleep(100 * time.Millisecond)

		mu.Lock()
		defer mu.Unlock()
		So(failed["stale"], ShouldEqual, "processing deadline exceeded")
		_, ok := failed["fresh"]
		So(ok, ShouldBeFalse)
	})
}

func TestWatchdogListError(t *testing.T) {
	Convey("list errors are logged and skipped, loop keeps running", t, func() {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		lister := mocks.NewMockJobLister(ctrl)
		lister.EXPECT().ListProcessing(gomock.Any()).Return(nil, context.DeadlineExceeded).MinTimes(2)

		wd := monitor.NewWatchdog(lister, func(context.Context, string, string) {
			t.Error("fail must not be called on list error")
		}, 15*time.Millisecond, time.Minute)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		wd.Start(ctx)
		time.Sleep(80 * time.Millisecond)
		So(true, ShouldBeTrue)
	})
}
