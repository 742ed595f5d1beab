package dummy

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/dianalab/diana-server-go/catalog"
	"github.com/dianalab/diana-server-go/engine"
)

func TestDummyEngine(t *testing.T) {
	Convey("dummy engine registers itself and answers deterministically", t, func() {
		cat := catalog.Catalog{"B1": {
			Labels:   map[string]string{"0": "poor", "1": "fair", "2": "good"},
			LabelsES: map[string]string{"0": "pobre", "1": "regular", "2": "bueno"},
		}}
		e := New(cat)

		got, ok := engine.Get(engine.DummyName)
		So(ok, ShouldBeTrue)
		So(got, ShouldEqual, e)

		ctx := context.Background()
		So(e.Init(ctx), ShouldBeNil)
		req := engine.Request{BehaviorID: "B1", Fingerprint: "aabbccdd00112233", InputType: "skeleton"}
		p1, err := e.Infer(ctx, req)
		So(err, ShouldBeNil)
		p2, err := e.Infer(ctx, req)
		So(err, ShouldBeNil)
		So(p2, ShouldResemble, p1)
		So(p1.Pred, ShouldBeIn, 0, 1, 2)
		So(e.Stop(ctx), ShouldBeNil)
	})
}
