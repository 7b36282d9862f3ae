package salesrecon

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var errTransport = errors.New("upstream timeout")

type fakeProducts struct {
	mu       sync.Mutex
	items    map[string]Product
	failing  map[string]bool
	calls    map[string]int
	delay    time.Duration
	inflight atomic.Int64
	peak     atomic.Int64
}

func newFakeProducts(items ...Product) *fakeProducts {
	f := &fakeProducts{items: map[string]Product{}, failing: map[string]bool{}, calls: map[string]int{}}
	for _, p := range items {
		f.items[p.Code] = p
	}
	return f
}

func (f *fakeProducts) ProductByCode(ctx context.Context, code string) (Product, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[code]++
	if f.failing[code] {
		return Product{}, errTransport
	}
	p, ok := f.items[code]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (f *fakeProducts) callCount(code string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[code]
}

func (f *fakeProducts) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

type fakeDepartments struct {
	mu    sync.Mutex
	items map[string]Department
	calls int
}

func newFakeDepartments(items ...Department) *fakeDepartments {
	f := &fakeDepartments{items: map[string]Department{}}
	for _, d := range items {
		f.items[d.BranchCode] = d
	}
	return f
}

func (f *fakeDepartments) DepartmentByBranchCode(ctx context.Context, code string) (Department, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	d, ok := f.items[code]
	if !ok {
		return Department{}, ErrNotFound
	}
	return d, nil
}

type fakeSource struct {
	mu      sync.Mutex
	orders  []Order
	details map[string]Order
	failing map[string]bool
	listErr error
	total   int
	calls   map[string]int
	lists   []int
}

func (f *fakeSource) ListOrders(ctx context.Context, filter Filter, page, limit int) ([]Order, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists = append(f.lists, limit)
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	start := min(page*limit, len(f.orders))
	end := min(start+limit, len(f.orders))
	out := make([]Order, end-start)
	copy(out, f.orders[start:end])
	return out, f.total, nil
}

func (f *fakeSource) OrderDetail(ctx context.Context, docCode string) (Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[docCode]++
	if f.failing[docCode] {
		return Order{}, errTransport
	}
	o, ok := f.details[docCode]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o.Clone(), nil
}

func (f *fakeSource) detailCalls(docCode string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[docCode]
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) ReferenceFetch(kind, outcome string) {
	r.add(kind + "/" + outcome)
}

func (r *countingRecorder) Hydration(outcome string) {
	r.add("hydration/" + outcome)
}

func (r *countingRecorder) add(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	r.counts[key]++
}

func (r *countingRecorder) get(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[key]
}

func line(itemCode string) SaleLine {
	return SaleLine{ItemCode: itemCode, Qty: AmountFromInt(1), LineTotal: AmountFromInt(1000), Revenue: AmountFromInt(1000)}
}
