package diagram

import (
	"testing"

	"github.com/gclaussn/go-bpmn-diagram/model"
	"github.com/stretchr/testify/assert"
)

func TestRoute(t *testing.T) {
	assert := assert.New(t)

	source := model.Geometry{X: 0, Y: 0, Width: 100, Height: 80}
	target := model.Geometry{X: 300, Y: 0, Width: 100, Height: 80}

	t.Run("straight", func(t *testing.T) {
		// when
		points, ok := route(source, target, sideRight, nil)

		// then
		assert.True(ok)
		assert.Equal([]model.Point{{X: 100, Y: 40}, {X: 300, Y: 40}}, points)
	})

	t.Run("detour around obstacle", func(t *testing.T) {
		obstacle := model.Geometry{X: 150, Y: 20, Width: 60, Height: 40}

		// when
		points, ok := route(source, target, sideRight, []model.Geometry{obstacle})

		// then
		assert.True(ok)
		assert.Equal([]model.Point{{X: 100, Y: 40}, {X: 100, Y: 0}, {X: 300, Y: 0}, {X: 300, Y: 40}}, points)
	})

	t.Run("fallback when endpoint is enclosed", func(t *testing.T) {
		obstacle := model.Geometry{X: -50, Y: -50, Width: 500, Height: 200}

		// when
		_, ok := route(source, target, sideRight, []model.Geometry{obstacle})

		// then
		assert.False(ok)
	})
}

func TestCrossesSegment(t *testing.T) {
	assert := assert.New(t)

	g := model.Geometry{X: 100, Y: 100, Width: 100, Height: 80}

	assert.True(crossesSegment(model.Point{X: 0, Y: 140}, model.Point{X: 300, Y: 140}, g))
	assert.True(crossesSegment(model.Point{X: 150, Y: 0}, model.Point{X: 150, Y: 140}, g))

	// touching an edge does not count as crossing
	assert.False(crossesSegment(model.Point{X: 0, Y: 100}, model.Point{X: 300, Y: 100}, g))
	assert.False(crossesSegment(model.Point{X: 0, Y: 180}, model.Point{X: 300, Y: 180}, g))
	assert.False(crossesSegment(model.Point{X: 150, Y: 0}, model.Point{X: 150, Y: 100}, g))

	// segments outside of the rectangle
	assert.False(crossesSegment(model.Point{X: 0, Y: 0}, model.Point{X: 300, Y: 0}, g))
	assert.False(crossesSegment(model.Point{X: 0, Y: 140}, model.Point{X: 90, Y: 140}, g))
}

func TestSimplify(t *testing.T) {
	assert := assert.New(t)

	// duplicates and collinear points are removed
	points := simplify([]model.Point{
		{X: 0, Y: 0},
		{X: 50, Y: 0},
		{X: 50, Y: 0},
		{X: 100, Y: 0},
		{X: 100, Y: 40},
	})

	assert.Equal([]model.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 40}}, points)
}

func TestSideOf(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(sideRight, sideOf(model.Point{}, model.Point{X: 10, Y: 5}))
	assert.Equal(sideLeft, sideOf(model.Point{}, model.Point{X: -10, Y: 5}))
	assert.Equal(sideBottom, sideOf(model.Point{}, model.Point{X: 5, Y: 10}))
	assert.Equal(sideTop, sideOf(model.Point{}, model.Point{X: 5, Y: -10}))
}

func TestRouteSelfLoop(t *testing.T) {
	assert := assert.New(t)

	// when
	result := mustConvert(t, "self-loop.bpmn")

	// then
	pollTask, _ := result.CellById("pollTask")
	loop, _ := result.CellById("loop")
	assert.Len(loop.Points, 5)

	// the loop leaves at the right side and enters at the top
	assert.Equal(model.Point{X: pollTask.Geometry.Right(), Y: pollTask.Geometry.Center().Y}, loop.Points[0])
	assert.Equal(model.Point{X: pollTask.Geometry.Center().X, Y: pollTask.Geometry.Y}, loop.Points[4])

	checkCells(t, result)
}

func TestRouteAnnotation(t *testing.T) {
	assert := assert.New(t)

	// when
	result := mustConvert(t, "annotation.bpmn")

	// then
	assert.Empty(result.Warnings)

	note, _ := result.CellById("note")
	assert.Equal(model.ElementTextAnnotation, note.ElementKind)
	assert.Equal("Check the four eyes principle", note.Value)

	a1, _ := result.CellById("a1")
	assert.Equal(model.FlowAssociation, a1.FlowKind)
	assert.Contains(a1.Style, "endArrow=none")

	checkCells(t, result)
}
