package model

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvalidXml(t *testing.T) {
	if _, _, err := New(strings.NewReader("")); err == nil {
		t.Fatal("expected error when XML is empty")
	}

	if _, _, err := New(strings.NewReader("#")); err == nil {
		t.Fatal("expected error when XML is invalid")
	}

	if _, _, err := New(strings.NewReader("<process></process>")); err == nil {
		t.Fatal("expected error when XML contains no definitions")
	}

	if _, _, err := New(strings.NewReader("<definitions id=\"test\"></definitions>")); err == nil {
		t.Fatal("expected error when XML contains no process")
	}

	if _, _, err := New(strings.NewReader("<process></process1>")); err == nil {
		t.Fatal("expected error when XML is invalid")
	}
}

func TestSimple(t *testing.T) {
	assert := assert.New(t)

	// when
	doc, warnings := mustParse(t, "simple.bpmn")

	// then
	assert.Equal("test", doc.Id)
	assert.Equal("Simple", doc.Name)
	assert.Empty(warnings)
	assert.False(doc.HasGeometry)

	assert.Len(doc.Pools, 1)
	assert.Len(doc.ElementIds, 3)
	assert.Len(doc.FlowIds, 2)

	pool := doc.ContainerById(doc.Pools[0])
	assert.NotNil(pool)
	assert.Equal(ContainerPool, pool.Kind)
	assert.Equal("Simple", pool.Name)
	assert.Empty(pool.ParentId)
	assert.Len(pool.ChildIds, 3)

	startEvent := doc.ElementById("startEvent")
	assert.NotNil(startEvent)
	assert.Equal(ElementNoneStartEvent, startEvent.Kind)
	assert.Equal(pool.Id, startEvent.ContainerId)
	assert.Empty(startEvent.Incoming)
	assert.Equal([]string{"f1"}, startEvent.Outgoing)

	serviceTask := doc.ElementById("serviceTask")
	assert.NotNil(serviceTask)
	assert.Equal(ElementServiceTask, serviceTask.Kind)
	assert.Equal("Do work", serviceTask.Name)
	assert.Equal([]string{"f1"}, serviceTask.Incoming)
	assert.Equal([]string{"f2"}, serviceTask.Outgoing)

	endEvent := doc.ElementById("endEvent")
	assert.NotNil(endEvent)
	assert.Equal(ElementNoneEndEvent, endEvent.Kind)
	assert.Equal([]string{"f2"}, endEvent.Incoming)
	assert.Empty(endEvent.Outgoing)

	f1 := doc.FlowById("f1")
	assert.NotNil(f1)
	assert.Equal(FlowSequence, f1.Kind)
	assert.Equal("startEvent", f1.SourceId)
	assert.Equal("serviceTask", f1.TargetId)

	assert.Nil(doc.ElementById("not-existing"))
	assert.Nil(doc.FlowById("not-existing"))
	assert.Nil(doc.ContainerById("not-existing"))
}

func TestLanes(t *testing.T) {
	assert := assert.New(t)

	// when
	doc, warnings := mustParse(t, "lanes.bpmn")

	// then
	assert.Empty(warnings)
	assert.Len(doc.Pools, 1)
	assert.Equal("orderPool", doc.Pools[0])

	pool := doc.ContainerById("orderPool")
	assert.Equal("Order handling", pool.Name)
	assert.Len(pool.ChildIds, 5)

	laneIds := []string{"laneSales", "laneFinance", "laneWarehouse", "laneShipping", "laneSupport"}
	assert.Equal(laneIds, pool.ChildIds)

	for _, laneId := range laneIds {
		lane := doc.ContainerById(laneId)
		assert.NotNil(lane)
		assert.Equal(ContainerLane, lane.Kind)
		assert.Equal("orderPool", lane.ParentId)
		assert.Len(lane.ChildIds, 2)
	}

	assert.Equal("laneSales", doc.ElementById("receiveOrder").ContainerId)
	assert.Equal("laneFinance", doc.ElementById("bookPayment").ContainerId)
	assert.Equal("laneSupport", doc.ElementById("closeOrder").ContainerId)

	assert.Equal(pool, doc.PoolOf("closeOrder"))
	assert.True(doc.IsAncestor("orderPool", "closeOrder"))
	assert.True(doc.IsAncestor("laneSupport", "closeOrder"))
	assert.False(doc.IsAncestor("laneSales", "closeOrder"))
}

func TestCollaboration(t *testing.T) {
	assert := assert.New(t)

	// when
	doc, warnings := mustParse(t, "collaboration.bpmn")

	// then
	assert.Empty(warnings)
	assert.Equal([]string{"customerPool", "shopPool"}, doc.Pools)

	customerPool := doc.ContainerById("customerPool")
	assert.Equal("Customer", customerPool.Name)
	assert.Len(customerPool.ChildIds, 6)

	shopPool := doc.ContainerById("shopPool")
	assert.Equal("Shop", shopPool.Name)
	assert.Len(shopPool.ChildIds, 6)

	messageFlowIds := []string{"m1", "m2", "m3", "m4"}
	for _, messageFlowId := range messageFlowIds {
		messageFlow := doc.FlowById(messageFlowId)
		assert.NotNil(messageFlow)
		assert.Equal(FlowMessage, messageFlow.Kind)
		assert.NotNil(doc.ElementById(messageFlow.SourceId))
		assert.NotNil(doc.ElementById(messageFlow.TargetId))
		assert.NotEqual(doc.PoolOf(messageFlow.SourceId), doc.PoolOf(messageFlow.TargetId))
	}

	// elements of different pools share no container
	assert.Nil(doc.CommonAncestor("placeOrder", "receiveOrder"))
	assert.Equal(customerPool, doc.CommonAncestor("placeOrder", "payInvoice"))
}

func TestSubProcess(t *testing.T) {
	assert := assert.New(t)

	// when
	doc, warnings := mustParse(t, "subprocess.bpmn")

	// then
	assert.Empty(warnings)

	subProcess := doc.ContainerById("subProcess")
	assert.NotNil(subProcess)
	assert.Equal(ContainerSubProcess, subProcess.Kind)
	assert.Equal([]string{"innerStart", "innerTask", "innerEnd"}, subProcess.ChildIds)
	assert.Equal(1, doc.Depth("subProcess"))

	innerTask := doc.ElementById("innerTask")
	assert.Equal("subProcess", innerTask.ContainerId)
	assert.True(doc.IsAncestor(doc.Pools[0], "innerTask"))

	pool := doc.ContainerById(doc.Pools[0])
	assert.Contains(pool.ChildIds, "subProcess")

	// sub process flows stay in the flat flow table
	i1 := doc.FlowById("i1")
	assert.Equal("innerStart", i1.SourceId)
	assert.Equal("innerTask", i1.TargetId)

	// the sub process itself is a flow target
	f1 := doc.FlowById("f1")
	assert.Equal("subProcess", f1.TargetId)

	assert.Equal(subProcess, doc.CommonAncestor("innerTask", "innerEnd"))
	assert.Equal(pool, doc.CommonAncestor("startEvent", "innerTask"))
	assert.Equal(pool, doc.CommonAncestor("startEvent", "subProcess"))
}

func TestBoundaryEvent(t *testing.T) {
	assert := assert.New(t)

	// when
	doc, warnings := mustParse(t, "boundary.bpmn")

	// then
	assert.Empty(warnings)

	timeout := doc.ElementById("timeout")
	assert.NotNil(timeout)
	assert.Equal(ElementTimerBoundaryEvent, timeout.Kind)
	assert.Equal("longRunningTask", timeout.AttachedToId)
	assert.Equal("PT5M", timeout.TimerDefinition)
	assert.Equal([]string{"f3"}, timeout.Outgoing)

	attached := doc.AttachedTo("longRunningTask")
	assert.Len(attached, 1)
	assert.Equal(timeout, attached[0])
}

func TestSubProcessBoundaryEvent(t *testing.T) {
	assert := assert.New(t)

	// when
	doc, warnings := mustParse(t, "subprocess-boundary.bpmn")

	// then
	assert.Empty(warnings)

	timeout := doc.ElementById("timeout")
	assert.NotNil(timeout)
	assert.Equal(ElementTimerBoundaryEvent, timeout.Kind)
	assert.Equal("subProcess", timeout.AttachedToId)

	// the event is a sibling of its host, not a child
	assert.Equal(doc.Pools[0], timeout.ContainerId)
	assert.NotContains(doc.ContainerById("subProcess").ChildIds, "timeout")

	attached := doc.AttachedTo("subProcess")
	assert.Len(attached, 1)
	assert.Equal(timeout, attached[0])
}

func TestBoundaryEventUnknownHost(t *testing.T) {
	assert := assert.New(t)

	bpmnXml := `<?xml version="1.0" encoding="UTF-8"?>
<definitions id="test" targetNamespace="http://go-bpmn-diagram/test" xmlns="http://www.omg.org/spec/BPMN/20100524/MODEL">
  <process id="unknownHostTest" name="Unknown host">
    <task id="task"/>
    <boundaryEvent id="timeout" attachedToRef="ghost">
      <timerEventDefinition id="timerEventDefinition">
        <timeDuration>PT5M</timeDuration>
      </timerEventDefinition>
    </boundaryEvent>
  </process>
</definitions>
`

	// when
	doc, warnings, err := New(strings.NewReader(bpmnXml))
	if err != nil {
		t.Fatalf("failed to parse BPMN XML: %v", err)
	}

	// then
	assert.Len(warnings, 1)
	assert.Equal(WarningUnresolvedReference, warnings[0].Type)
	assert.Equal(SeverityWarning, warnings[0].Severity)
	assert.Equal("timeout", warnings[0].ElementId)

	// the event is detached and laid out like an ordinary element
	assert.Empty(doc.ElementById("timeout").AttachedToId)
}

func TestGatewayBranches(t *testing.T) {
	assert := assert.New(t)

	// when
	doc, warnings := mustParse(t, "gateway-branches.bpmn")

	// then
	assert.Empty(warnings)

	fork := doc.ElementById("fork")
	assert.Equal(ElementExclusiveGateway, fork.Kind)
	assert.Equal("branchC", fork.DefaultFlowId)
	assert.Equal([]string{"branchA", "branchB", "branchC"}, fork.Outgoing)

	branchA := doc.FlowById("branchA")
	assert.Equal(FlowConditional, branchA.Kind)
	assert.Equal("amount > 100", branchA.Condition)

	assert.Equal(FlowSequence, doc.FlowById("branchB").Kind)
	assert.Equal(FlowDefault, doc.FlowById("branchC").Kind)
}

func TestAnnotation(t *testing.T) {
	assert := assert.New(t)

	// when
	doc, warnings := mustParse(t, "annotation.bpmn")

	// then
	assert.Empty(warnings)

	note := doc.ElementById("note")
	assert.NotNil(note)
	assert.Equal(ElementTextAnnotation, note.Kind)
	assert.Equal("Check the four eyes principle", note.Name)

	a1 := doc.FlowById("a1")
	assert.NotNil(a1)
	assert.Equal(FlowAssociation, a1.Kind)
	assert.Equal("reviewTask", a1.SourceId)
	assert.Equal("note", a1.TargetId)
}

func TestPreserveGeometry(t *testing.T) {
	assert := assert.New(t)

	// when
	doc, warnings := mustParse(t, "preserve.bpmn")

	// then
	assert.Empty(warnings)
	assert.True(doc.HasGeometry)

	serviceTask := doc.ElementById("serviceTask")
	assert.NotNil(serviceTask.Geometry)
	assert.Equal(Geometry{X: 270, Y: 158, Width: 100, Height: 80}, *serviceTask.Geometry)

	f1 := doc.FlowById("f1")
	assert.Len(f1.Waypoints, 2)
	assert.Equal(Point{X: 216, Y: 198}, f1.Waypoints[0])
}

func TestPartialGeometryDiscarded(t *testing.T) {
	assert := assert.New(t)

	// when
	doc, _ := mustParse(t, "invalid/partial-di.bpmn")

	// then
	assert.False(doc.HasGeometry)
	assert.Nil(doc.ElementById("startEvent").Geometry)
	assert.Nil(doc.ElementById("serviceTask").Geometry)
}

func TestUnresolvedFlowDropped(t *testing.T) {
	assert := assert.New(t)

	// when
	doc, warnings := mustParse(t, "invalid/flow-unresolved.bpmn")

	// then
	assert.NotNil(doc.FlowById("f1"))
	assert.Nil(doc.FlowById("f2"))
	assert.Len(doc.FlowIds, 1)

	task := doc.ElementById("task")
	assert.Equal([]string{"f1"}, task.Incoming)
	assert.Empty(task.Outgoing)

	assert.Len(warnings, 1)
	assert.Equal(WarningUnresolvedReference, warnings[0].Type)
	assert.Equal(SeverityWarning, warnings[0].Severity)
	assert.Equal("f2", warnings[0].ElementId)
}

func TestCrossPoolSequenceFlow(t *testing.T) {
	fileName := "../test/bpmn/invalid/cross-pool-flow.bpmn"

	bpmnFile, err := os.Open(fileName)
	if err != nil {
		t.Fatalf("failed to open BPMN file %s: %v", fileName, err)
	}

	defer bpmnFile.Close()

	if _, _, err := New(bpmnFile); err == nil {
		t.Fatal("expected error when a sequence flow crosses pools")
	}
}

func TestUnknownElement(t *testing.T) {
	assert := assert.New(t)

	// when
	doc, warnings := mustParse(t, "invalid/element-unknown.bpmn")

	// then
	unknownTask := doc.ElementById("unknownTask")
	assert.NotNil(unknownTask)
	assert.Equal(ElementUnsupported, unknownTask.Kind)
	assert.Equal([]string{"f1"}, unknownTask.Incoming)
	assert.Equal([]string{"f2"}, unknownTask.Outgoing)

	assert.Len(warnings, 1)
	assert.Equal(WarningUnsupportedElement, warnings[0].Type)
	assert.Equal(SeverityInfo, warnings[0].Severity)
}

func TestSelfLoop(t *testing.T) {
	assert := assert.New(t)

	// when
	doc, warnings := mustParse(t, "self-loop.bpmn")

	// then
	assert.Empty(warnings)

	pollTask := doc.ElementById("pollTask")
	assert.Equal([]string{"f1", "loop"}, pollTask.Incoming)
	assert.Equal([]string{"loop", "f2"}, pollTask.Outgoing)
}
