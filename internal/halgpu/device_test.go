package halgpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/ggedit/core"
	"github.com/gogpu/ggedit/internal/gpucore"
	"github.com/gogpu/ggedit/internal/shader"
	"github.com/gogpu/ggedit/internal/vertex"
)

// createNoopDevice opens a noop hal device and queue.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		t.Fatal("no adapters")
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return openDev.Device, openDev.Queue, func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
}

func newTestDevice(t *testing.T) *Device {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	d := New(device, queue)
	t.Cleanup(func() {
		d.Destroy()
		cleanup()
	})
	return d
}

func TestCompileBuiltins(t *testing.T) {
	d := newTestDevice(t)
	lib, err := shader.NewLibrary(d)
	if err != nil {
		t.Fatalf("NewLibrary: %v", err)
	}
	defer lib.Destroy()

	for _, src := range shader.Builtins() {
		p, ok := lib.Program(src.Name)
		if !ok {
			t.Errorf("program %s missing", src.Name)
			continue
		}
		if _, ok := d.programs[p.ID()]; !ok {
			t.Errorf("program %s not registered on device", src.Name)
		}
	}
}

func TestUniformPacking(t *testing.T) {
	d := newTestDevice(t)
	lib, err := shader.NewLibrary(d)
	if err != nil {
		t.Fatalf("NewLibrary: %v", err)
	}
	defer lib.Destroy()

	p, _ := lib.Program(shader.ProgramTint)
	if err := p.SetUniform("offset", gpucore.Vec4(0.5, -0.25, 0, 0)); err != nil {
		t.Fatal(err)
	}
	prog := d.programs[p.ID()]
	want := floatBytes([]float32{0.5, -0.25, 0, 0})
	info, _ := prog.desc.Uniform("offset")
	got := prog.fragmentBlock[info.Offset : info.Offset+16]
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("fragment block = %v, want %v", got, want)
		}
	}
	if err := d.SetUniform(p.ID(), "missing", gpucore.Float(1)); !errors.Is(err, gpucore.ErrUnknownUniform) {
		t.Errorf("unknown uniform = %v, want ErrUnknownUniform", err)
	}
	if err := d.SetUniform(p.ID(), "offset", gpucore.Float(1)); !errors.Is(err, gpucore.ErrUniformType) {
		t.Errorf("mismatched type = %v, want ErrUniformType", err)
	}
}

func TestPassRecordsSnapshots(t *testing.T) {
	d := newTestDevice(t)
	lib, err := shader.NewLibrary(d)
	if err != nil {
		t.Fatalf("NewLibrary: %v", err)
	}
	defer lib.Destroy()

	target, err := d.CreateTexture(&gpucore.TextureDescriptor{
		Label: "target", Width: 8, Height: 8, Format: gpucore.TextureFormatRGBA8, RenderTarget: true,
	})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	p, _ := lib.Program(vertex.ProgramFlatColor)

	if err := d.BeginPass(target, gpucore.LoadClear, core.Black); err != nil {
		t.Fatal(err)
	}
	if err := p.Bind(); err != nil {
		t.Fatal(err)
	}
	quad := make([]float32, 6*gpucore.FormatPositionColor.Components())
	_ = p.SetUniform("transform", gpucore.Mat4(core.Identity()))
	if err := d.Draw(quad); err != nil {
		t.Fatal(err)
	}
	_ = p.SetUniform("transform", gpucore.Mat4(core.Ortho(0, 8, 8, 0, -1, 1)))
	if err := d.Draw(quad); err != nil {
		t.Fatal(err)
	}

	draws := d.pass.draws
	if len(draws) != 2 {
		t.Fatalf("recorded %d draws, want 2", len(draws))
	}
	if string(draws[0].vertexBlock) == string(draws[1].vertexBlock) {
		t.Error("second transform overwrote the first draw's uniforms")
	}
	if err := d.EndPass(); err != nil {
		t.Fatalf("EndPass: %v", err)
	}
	if d.pass != nil {
		t.Error("pass still active after EndPass")
	}
	s := d.Stats()
	if s.Passes != 1 || s.Draws != 2 || s.ProgramBinds != 1 {
		t.Errorf("stats = %+v", s)
	}
}

func TestDrawValidation(t *testing.T) {
	d := newTestDevice(t)
	if err := d.Draw(nil); !errors.Is(err, gpucore.ErrNoPass) {
		t.Errorf("Draw outside pass = %v, want ErrNoPass", err)
	}
	target, _ := d.CreateTexture(&gpucore.TextureDescriptor{
		Label: "target", Width: 4, Height: 4, Format: gpucore.TextureFormatRGBA8, RenderTarget: true,
	})
	_ = d.BeginPass(target, gpucore.LoadClear, core.Black)
	if err := d.Draw(nil); !errors.Is(err, gpucore.ErrNoProgram) {
		t.Errorf("Draw without program = %v, want ErrNoProgram", err)
	}
	if err := d.BindTexture(gpucore.MaxTextureUnits, target); !errors.Is(err, gpucore.ErrTextureUnit) {
		t.Errorf("BindTexture out of range = %v, want ErrTextureUnit", err)
	}
	if err := d.BeginPass(target, gpucore.LoadClear, core.Black); !errors.Is(err, gpucore.ErrPassActive) {
		t.Errorf("nested BeginPass = %v, want ErrPassActive", err)
	}
}

func TestTextureValidation(t *testing.T) {
	d := newTestDevice(t)
	if _, err := d.CreateTexture(&gpucore.TextureDescriptor{Width: DefaultMaxTextureSize + 1, Height: 1}); err == nil {
		t.Error("oversized texture accepted")
	}
	id, err := d.CreateTexture(&gpucore.TextureDescriptor{Label: "mask", Width: 4, Height: 4, Format: gpucore.TextureFormatR8})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	if err := d.WriteTexture(id, make([]byte, 15)); !errors.Is(err, gpucore.ErrDataSize) {
		t.Errorf("short write = %v, want ErrDataSize", err)
	}
	if err := d.WriteTextureRegion(id, 3, 3, 2, 2, make([]byte, 4)); err == nil {
		t.Error("out of bounds region accepted")
	}
	if err := d.WriteTexture(id, make([]byte, 16)); err != nil {
		t.Errorf("WriteTexture: %v", err)
	}
	if d.Stats().Uploads != 1 {
		t.Errorf("Uploads = %d, want 1", d.Stats().Uploads)
	}
	d.DestroyTexture(id)
	if err := d.WriteTexture(id, make([]byte, 16)); !errors.Is(err, gpucore.ErrUnknownTexture) {
		t.Errorf("write after destroy = %v, want ErrUnknownTexture", err)
	}
}

// === Provider ===

type mockDevice struct{}

func (m *mockDevice) Poll(wait bool) {}
func (m *mockDevice) Destroy()       {}

type mockQueue struct{}

type mockAdapter struct{}

type mockProvider struct {
	device hal.Device
	queue  hal.Queue
}

func (m *mockProvider) Device() gpucontext.Device             { return &mockDevice{} }
func (m *mockProvider) Queue() gpucontext.Queue               { return &mockQueue{} }
func (m *mockProvider) Adapter() gpucontext.Adapter           { return &mockAdapter{} }
func (m *mockProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatRGBA8Unorm }

// halMockProvider also exposes the hal device and queue.
type halMockProvider struct {
	mockProvider
}

func (m *halMockProvider) HalDevice() any { return m.device }
func (m *halMockProvider) HalQueue() any  { return m.queue }

func TestNewFromProvider(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	tests := []struct {
		name     string
		provider gpucontext.DeviceProvider
		wantErr  bool
	}{
		{"nil", nil, true},
		{"without hal accessors", &mockProvider{}, true},
		{"hal accessors returning nil", &halMockProvider{}, true},
		{"shared device", &halMockProvider{mockProvider{device: device, queue: queue}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewFromProvider(tt.provider)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewFromProvider() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if d.Name() != "hal-shared" {
				t.Errorf("Name() = %q, want hal-shared", d.Name())
			}
			d.Destroy()
		})
	}
}
