package render

import (
	"testing"

	"github.com/plx30080-ctrl/SalesMapper-sub000/internal/models"
)

type captureBroadcaster struct {
	ops []Op
}

func (c *captureBroadcaster) Broadcast(v any) {
	c.ops = append(c.ops, v.(Op))
}

func TestWebRendererEmitsOps(t *testing.T) {
	sink := &captureBroadcaster{}
	r := NewWebRenderer(sink)

	r.CreateDataSource("a")
	r.AddFeatures("a", []*models.Feature{models.NewPointFeature("f1", 1, 2, nil)})
	r.SetLayerVisibility("a", false)
	r.SetLayerOpacity("a", 0.5)
	r.SetLayerFilter("a", []string{"f1"})
	r.SetZOrder([]string{"b", "a"})
	r.RemoveFeature("a", "f1")
	r.FitToLayer("a")
	r.RemoveLayer("a")

	wantTypes := []string{
		OpCreateDataSource, OpAddFeatures, OpSetVisibility, OpSetOpacity,
		OpSetFilter, OpSetZOrder, OpRemoveFeature, OpFitToLayer, OpRemoveLayer,
	}
	if len(sink.ops) != len(wantTypes) {
		t.Fatalf("Expected %d ops, got %d", len(wantTypes), len(sink.ops))
	}
	for i, want := range wantTypes {
		if sink.ops[i].Type != want {
			t.Errorf("op[%d].Type = %s, want %s", i, sink.ops[i].Type, want)
		}
	}

	if vis := sink.ops[2].Visible; vis == nil || *vis != false {
		t.Errorf("Visibility payload lost: %v", vis)
	}
	if op := sink.ops[5]; len(op.LayerIDs) != 2 || op.LayerIDs[0] != "b" {
		t.Errorf("Z-order payload lost: %v", op.LayerIDs)
	}
}

func TestFilterClearUsesNilIDs(t *testing.T) {
	sink := &captureBroadcaster{}
	r := NewWebRenderer(sink)

	r.SetLayerFilter("a", nil)
	if sink.ops[0].FeatureIDs != nil {
		t.Errorf("Clearing filter should carry nil ids, got %v", sink.ops[0].FeatureIDs)
	}
}
