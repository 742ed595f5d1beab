package logging

import (
	"context"
	"fmt"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestHook(t *testing.T) {
	Convey("hook fires after each log call and can be disabled", t, func() {
		var mu sync.Mutex
		var got []string
		SetHook(func(ctx context.Context, level int, msg string, args ...any) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, LevelName(level)+" "+msg)
		})
		defer SetHook(nil)

		ctx := context.Background()
		L().Info(ctx, "job started", "job_id", "j1")
		L().Errorf(ctx, "job failed: %v", "boom")

		mu.Lock()
		So(got, ShouldResemble, []string{"INFO job started", "ERROR job failed: boom"})
		mu.Unlock()

		Convey("nil hook turns the bypass off", func() {
			SetHook(nil)
			L().Warn(ctx, "ignored")
			mu.Lock()
			So(got, ShouldHaveLength, 2)
			mu.Unlock()
		})
	})
}

func TestSetHookConcurrentWithLogging(t *testing.T) {
	Convey("installing the hook while other goroutines log does not race", t, func() {
		defer SetHook(nil)
		ctx := context.Background()
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					L().Debug(ctx, fmt.Sprintf("worker %d tick %d", n, j))
				}
			}(i)
		}
		var mu sync.Mutex
		count := 0
		SetHook(func(context.Context, int, string, ...any) {
			mu.Lock()
			count++
			mu.Unlock()
		})
		wg.Wait()
		So(true, ShouldBeTrue)
	})
}

func TestLevelName(t *testing.T) {
	Convey("level names", t, func() {
		So(LevelName(LevelDebug), ShouldEqual, "DEBUG")
		So(LevelName(LevelInfo), ShouldEqual, "INFO")
		So(LevelName(LevelWarn), ShouldEqual, "WARN")
		So(LevelName(LevelError), ShouldEqual, "ERROR")
		So(LevelName(99), ShouldEqual, "INFO")
	})
}
