package combine

import (
	"errors"
	"log/slog"
	"slices"
	"sync"
	"testing"
)

// mockAccelerator implements GPUAccelerator for testing.
type mockAccelerator struct {
	name      string
	initErr   error
	combineFn func(CombineJob) error
	formats   []Format
	logger    *slog.Logger
	closed    bool
	calls     int
	mu        sync.Mutex
}

func (m *mockAccelerator) Name() string { return m.name }

func (m *mockAccelerator) Init() error { return m.initErr }

func (m *mockAccelerator) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

func (m *mockAccelerator) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockAccelerator) SetLogger(l *slog.Logger) { m.logger = l }

func (m *mockAccelerator) CanAccelerate(f Format) bool {
	return m.formats == nil || slices.Contains(m.formats, f)
}

func (m *mockAccelerator) Combine(job CombineJob) error {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.combineFn == nil {
		return ErrFallbackToCPU
	}
	return m.combineFn(job)
}

// resetAccelerator clears the global accelerator state between tests.
func resetAccelerator() {
	accelMu.Lock()
	accel = nil
	accelMu.Unlock()
}

func TestRegisterAcceleratorNil(t *testing.T) {
	resetAccelerator()

	err := RegisterAccelerator(nil)
	if err == nil {
		t.Fatal("expected error when registering nil accelerator")
	}
	if err.Error() != "combine: accelerator must not be nil" {
		t.Errorf("unexpected error message: %s", err.Error())
	}
	if Accelerator() != nil {
		t.Error("accelerator should remain nil after failed registration")
	}
}

func TestRegisterAcceleratorInitError(t *testing.T) {
	resetAccelerator()

	initErr := errors.New("GPU init failed")
	mock := &mockAccelerator{name: "failing", initErr: initErr}

	err := RegisterAccelerator(mock)
	if !errors.Is(err, initErr) {
		t.Errorf("expected init error, got: %v", err)
	}
	if Accelerator() != nil {
		t.Error("accelerator should remain nil after Init failure")
	}
}

func TestRegisterAcceleratorReplacesOld(t *testing.T) {
	resetAccelerator()
	t.Cleanup(resetAccelerator)

	first := &mockAccelerator{name: "first"}
	second := &mockAccelerator{name: "second"}

	if err := RegisterAccelerator(first); err != nil {
		t.Fatalf("unexpected error registering first: %v", err)
	}
	if err := RegisterAccelerator(second); err != nil {
		t.Fatalf("unexpected error registering second: %v", err)
	}

	if !first.isClosed() {
		t.Error("expected first accelerator to be closed after replacement")
	}
	if a := Accelerator(); a == nil || a.Name() != "second" {
		t.Errorf("Accelerator() = %v, want second", a)
	}
	if second.isClosed() {
		t.Error("second accelerator should not be closed")
	}
}

func TestExecuteFallsBackToCPU(t *testing.T) {
	tests := []struct {
		name string
		fn   func(CombineJob) error
	}{
		{"declined", nil},
		{"failed", func(CombineJob) error { return errors.New("device lost") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetAccelerator()
			t.Cleanup(resetAccelerator)

			mock := &mockAccelerator{name: "mock", combineFn: tt.fn}
			if err := RegisterAccelerator(mock); err != nil {
				t.Fatal(err)
			}

			dst := MustNewMultiImage(Shape{4, 2}, FormatYUYV422)
			if err := Combine(yuvSources(t), FormatYUYV422, dst); err != nil {
				t.Fatalf("Combine() error = %v", err)
			}
			if mock.calls != 1 {
				t.Errorf("accelerator called %d times, want 1", mock.calls)
			}
			want := []byte{10, 30, 11, 50, 12, 32, 13, 52}
			if got := dst.Plane(0).Row(0); !slices.Equal(got, want) {
				t.Errorf("row 0 = %v, want %v", got, want)
			}
		})
	}
}

func TestExecuteUsesAccelerator(t *testing.T) {
	resetAccelerator()
	t.Cleanup(resetAccelerator)

	var seen CombineJob
	mock := &mockAccelerator{name: "mock", combineFn: func(job CombineJob) error {
		seen = job
		for _, p := range job.Planes {
			p.Fill(0x5A)
		}
		return nil
	}}
	if err := RegisterAccelerator(mock); err != nil {
		t.Fatal(err)
	}

	dst := MustNewMultiImage(Shape{4, 4}, FormatNV12)
	if err := Combine(chromaSources(t), FormatNV12, dst); err != nil {
		t.Fatal(err)
	}
	if seen.Format != FormatNV12 || seen.Shape != (Shape{4, 4}) || len(seen.Sources) != 3 || len(seen.Planes) != 2 {
		t.Errorf("accelerator got job %v %v with %d sources, %d planes",
			seen.Format, seen.Shape, len(seen.Sources), len(seen.Planes))
	}
	for _, b := range dst.Plane(1).Bytes() {
		if b != 0x5A {
			t.Fatal("CPU kernel ran after a successful accelerator combine")
		}
	}
}

func TestExecuteSkipsAccelerator(t *testing.T) {
	resetAccelerator()
	t.Cleanup(resetAccelerator)

	mock := &mockAccelerator{name: "mock", formats: []Format{FormatNV12}}
	if err := RegisterAccelerator(mock); err != nil {
		t.Fatal(err)
	}

	dst := MustNewMultiImage(Shape{4, 4}, FormatIYUV)
	if err := Combine(chromaSources(t), FormatIYUV, dst); err != nil {
		t.Fatal(err)
	}
	nv12 := MustNewMultiImage(Shape{4, 4}, FormatNV12)
	if err := Combine(chromaSources(t), FormatNV12, nv12, WithoutAccelerator()); err != nil {
		t.Fatal(err)
	}
	if mock.calls != 0 {
		t.Errorf("accelerator called %d times, want 0", mock.calls)
	}
}

func TestSetAcceleratorDeviceProviderNoAccelerator(t *testing.T) {
	resetAccelerator()
	if err := SetAcceleratorDeviceProvider(struct{}{}); err != nil {
		t.Errorf("SetAcceleratorDeviceProvider() = %v, want nil", err)
	}
}
