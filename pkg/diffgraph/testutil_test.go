package diffgraph

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// sumOp adds every node connected to x_i.
func sumOp() *Operation {
	return NewOperation("sum",
		[]Port{NewPort("x_i", true)},
		"f = sum(x_i)",
		"dfdx = has(x_i, target)",
	)
}

// mulOp multiplies a and b.
func mulOp() *Operation {
	return NewOperation("mul",
		[]Port{NewPort("a", false), NewPort("b", false)},
		"f = a * b",
		"dfdx = has(a, target) * b + has(b, target) * a",
	)
}

// squareOp squares x.
func squareOp() *Operation {
	return NewOperation("square",
		[]Port{NewPort("x", false)},
		"f = x ^ 2",
		"dfdx = has(x, target) * 2 * x",
	)
}

// testOps resolves the test operations by id.
func testOps() OperationResolver {
	ops := map[string]*Operation{}
	for _, op := range []*Operation{sumOp(), mulOp(), squareOp()} {
		ops[op.ID()] = op
	}
	return OperationResolverFunc(func(id string) (*Operation, error) {
		op, ok := ops[id]
		if !ok {
			return nil, ErrUnknownOperation
		}
		return op, nil
	})
}

// mustAdd adds nodes, failing the test on error.
func mustAdd(t *testing.T, g *Graph, nodes ...Node) {
	t.Helper()
	for _, n := range nodes {
		require.NoError(t, g.AddNode(n))
	}
}

// edge is src → dst.port.
type edge struct {
	src, dst, port string
}

// mustConnect connects edges, failing the test on error.
func mustConnect(t *testing.T, g *Graph, edges ...edge) {
	t.Helper()
	for _, e := range edges {
		require.NoError(t, g.Connect(e.src, e.dst, e.port))
	}
}

// sumGraph builds v1=2, v2=1 → s = sum.
func sumGraph(t *testing.T, opts ...Option) *Graph {
	t.Helper()
	g := NewGraph(opts...)
	mustAdd(t, g,
		NewVariable("v1", "2"),
		NewVariable("v2", "1"),
		NewOperationNode("s", sumOp()),
	)
	mustConnect(t, g,
		edge{"v1", "s", "x_i"},
		edge{"v2", "s", "x_i"},
	)
	return g
}

// chainGraph builds v=3 → sq1 → sq2, so sq2 = v^4.
func chainGraph(t *testing.T, opts ...Option) *Graph {
	t.Helper()
	g := NewGraph(opts...)
	mustAdd(t, g,
		NewVariable("v", "3"),
		NewOperationNode("sq1", squareOp()),
		NewOperationNode("sq2", squareOp()),
	)
	mustConnect(t, g,
		edge{"v", "sq1", "x"},
		edge{"sq1", "sq2", "x"},
	)
	return g
}

// fakeEvaluator returns a canned result, or panics when panicWith is set.
type fakeEvaluator struct {
	result    any
	err       error
	panicWith any
}

func (f fakeEvaluator) EvalF(string, map[string][]string, map[string]string) (any, error) {
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	return f.result, f.err
}

func (f fakeEvaluator) EvalDfdx(string, map[string][]string, map[string]string, string) (any, error) {
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	return f.result, f.err
}

// recordingMetrics captures every metric call.
type recordingMetrics struct {
	mu           sync.Mutex
	propagations []propagationRecord
	connections  []string
	userCode     []string
}

type propagationRecord struct {
	kind  string
	nodes int
	err   error
}

func (m *recordingMetrics) RecordPropagation(_ context.Context, kind string, nodes int, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.propagations = append(m.propagations, propagationRecord{kind: kind, nodes: nodes, err: err})
}

func (m *recordingMetrics) RecordConnection(_ context.Context, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections = append(m.connections, outcome)
}

func (m *recordingMetrics) RecordUserCodeError(_ context.Context, operationID, function string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userCode = append(m.userCode, operationID+"/"+function)
}

// recordingSpans counts span lifecycle calls.
type recordingSpans struct {
	started []string
	ended   []error
	events  []string
}

func (s *recordingSpans) StartPropagationSpan(ctx context.Context, _, kind string) (context.Context, trace.Span) {
	s.started = append(s.started, kind)
	return ctx, noop.Span{}
}

func (s *recordingSpans) EndSpanWithError(_ trace.Span, err error) {
	s.ended = append(s.ended, err)
}

func (s *recordingSpans) AddSpanEvent(_ context.Context, name string, _ ...attribute.KeyValue) {
	s.events = append(s.events, name)
}
