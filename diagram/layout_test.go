package diagram

import (
	"strings"
	"testing"

	"github.com/gclaussn/go-bpmn-diagram/model"
	"github.com/stretchr/testify/assert"
)

func TestAssignRanks(t *testing.T) {
	assert := assert.New(t)

	t.Run("chain", func(t *testing.T) {
		// when
		ranks := assignRanks([]string{"a", "b", "c"}, []layoutEdge{
			{from: "a", to: "b"},
			{from: "b", to: "c"},
		})

		// then
		assert.Equal([][]string{{"a"}, {"b"}, {"c"}}, ranks)
	})

	t.Run("diamond", func(t *testing.T) {
		// when
		ranks := assignRanks([]string{"a", "b", "c", "d"}, []layoutEdge{
			{from: "a", to: "b"},
			{from: "a", to: "c"},
			{from: "b", to: "d"},
			{from: "c", to: "d"},
		})

		// then
		assert.Equal([][]string{{"a"}, {"b", "c"}, {"d"}}, ranks)
	})

	t.Run("longest path", func(t *testing.T) {
		// d is reachable over a short and a long path and must take the longer one
		ranks := assignRanks([]string{"a", "b", "c", "d"}, []layoutEdge{
			{from: "a", to: "b"},
			{from: "a", to: "d"},
			{from: "b", to: "c"},
			{from: "c", to: "d"},
		})

		assert.Equal([][]string{{"a"}, {"b"}, {"c"}, {"d"}}, ranks)
	})

	t.Run("cycle with entry", func(t *testing.T) {
		// when
		ranks := assignRanks([]string{"start", "a", "b"}, []layoutEdge{
			{from: "start", to: "a"},
			{from: "a", to: "b"},
			{from: "b", to: "a"},
		})

		// then
		assert.Equal([][]string{{"start"}, {"a"}, {"b"}}, ranks)
	})

	t.Run("pure cycle", func(t *testing.T) {
		// when
		ranks := assignRanks([]string{"a", "b"}, []layoutEdge{
			{from: "a", to: "b"},
			{from: "b", to: "a"},
		})

		// then
		assert.Equal([][]string{{"a"}, {"b"}}, ranks)
	})

	t.Run("isolated node moves to tail rank", func(t *testing.T) {
		// when
		ranks := assignRanks([]string{"a", "b", "c"}, []layoutEdge{
			{from: "a", to: "b"},
		})

		// then
		assert.Equal([][]string{{"a"}, {"b"}, {"c"}}, ranks)
	})

	t.Run("no edges", func(t *testing.T) {
		// when
		ranks := assignRanks([]string{"a", "b"}, nil)

		// then
		assert.Equal([][]string{{"a", "b"}}, ranks)
	})
}

func TestConvertCycle(t *testing.T) {
	assert := assert.New(t)

	// when
	result := mustConvert(t, "cycle.bpmn")

	// then
	orphans := warningsOfType(result.Warnings, model.WarningOrphanElement)
	assert.Len(orphans, 1)
	assert.Equal("isolatedTask", orphans[0].ElementId)

	// the cycle is cut at the revisited task, resulting in one rank per node
	elementX := func(id string) float64 {
		cell, _ := result.CellById(id)
		return cell.Geometry.X
	}
	assert.Less(elementX("startEvent"), elementX("taskA"))
	assert.Less(elementX("taskA"), elementX("taskB"))
	assert.Less(elementX("taskB"), elementX("retry"))
	assert.Less(elementX("retry"), elementX("endEvent"))

	// the isolated task is placed after all ranked nodes
	assert.Greater(elementX("isolatedTask"), elementX("endEvent"))

	checkCells(t, result)
}

func TestConvertMinimalContainerSize(t *testing.T) {
	assert := assert.New(t)

	bpmnXml := `<?xml version="1.0" encoding="UTF-8"?>
<definitions id="test" targetNamespace="http://go-bpmn-diagram/test" xmlns="http://www.omg.org/spec/BPMN/20100524/MODEL">
  <process id="minimalTest" name="Minimal">
    <startEvent id="startEvent"/>
  </process>
</definitions>
`

	// when
	result, err := Convert(strings.NewReader(bpmnXml))
	if err != nil {
		t.Fatalf("failed to convert BPMN XML: %v", err)
	}

	// then
	pool := result.Cells[0]
	assert.Equal(model.Geometry{X: 40, Y: 40, Width: headerSize + margin + minContentPs + margin, Height: margin + minContentSs + margin}, *pool.Geometry)

	startEvent, _ := result.CellById("startEvent")
	assert.True(pool.Geometry.Encloses(*startEvent.Geometry))
}
