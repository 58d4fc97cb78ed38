//go:build !nogpu

package gpu

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unsafe"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/combine"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// MinPixels is the smallest image the accelerator takes. Below it the upload
// and readback cost more than the CPU kernel.
const MinPixels = 256 * 256

// submitTimeout bounds the wait for one combine submission.
const submitTimeout = 5 * time.Second

// pollInterval is the sleep between completion polls.
const pollInterval = 200 * time.Microsecond

// CombineAccelerator runs channel combines as wgpu/hal compute passes.
// It implements combine.GPUAccelerator.
//
// All sources are uploaded into one storage buffer, one compute pass per
// destination plane fills a tightly packed storage buffer, and the results
// are read back into the (possibly strided) destination planes. Any failure
// before readback leaves the destination untouched, so the CPU fallback can
// take over.
type CombineAccelerator struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline

	gpuReady       bool
	externalDevice bool // true when using a shared device (don't destroy on Close)
	minPixels      int
	timeout        time.Duration
}

var _ combine.GPUAccelerator = (*CombineAccelerator)(nil)

// NewCombineAccelerator returns an accelerator that takes images of at least
// minPixels pixels. A minPixels of 0 uses MinPixels.
func NewCombineAccelerator(minPixels int) *CombineAccelerator {
	if minPixels <= 0 {
		minPixels = MinPixels
	}
	return &CombineAccelerator{minPixels: minPixels, timeout: submitTimeout}
}

func (a *CombineAccelerator) Name() string { return "wgpu" }

// CanAccelerate reports true for every known format; readiness and size are
// checked per job.
func (a *CombineAccelerator) CanAccelerate(f combine.Format) bool {
	return f.IsValid()
}

// SetLogger sets the logger used by the accelerator.
// Called by combine.SetLogger to propagate logging configuration.
func (a *CombineAccelerator) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// Ready reports whether a device and pipeline are available.
func (a *CombineAccelerator) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gpuReady
}

// Init opens a Vulkan device. A missing GPU is not an error: the accelerator
// stays registered and declines every job.
func (a *CombineAccelerator) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.minPixels <= 0 {
		a.minPixels = MinPixels
	}
	if err := a.initGPU(); err != nil {
		slogger().Warn("gpu-combine: GPU init failed, using CPU", "err", err)
	}
	return nil
}

func (a *CombineAccelerator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.destroyPipelines()
	if !a.externalDevice {
		if a.device != nil {
			a.device.Destroy()
		}
		if a.instance != nil {
			a.instance.Destroy()
		}
	}
	a.device = nil
	a.instance = nil
	a.queue = nil
	a.gpuReady = false
	a.externalDevice = false
}

// halProvider is implemented by device providers that expose wgpu/hal types.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// SetDeviceProvider switches the accelerator to a shared device. The provider
// must be a gpucontext.DeviceProvider that also exposes HalDevice and HalQueue.
func (a *CombineAccelerator) SetDeviceProvider(provider any) error {
	if _, ok := provider.(gpucontext.DeviceProvider); !ok {
		return fmt.Errorf("gpu-combine: provider %T is not a gpucontext.DeviceProvider", provider)
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("gpu-combine: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("gpu-combine: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("gpu-combine: provider HalQueue is not hal.Queue")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.destroyPipelines()
	if !a.externalDevice && a.device != nil {
		a.device.Destroy()
	}
	if a.instance != nil {
		a.instance.Destroy()
		a.instance = nil
	}

	a.device = device
	a.queue = queue
	a.externalDevice = true
	if err := a.createPipelines(); err != nil {
		a.gpuReady = false
		return fmt.Errorf("gpu-combine: create pipelines with shared device: %w", err)
	}
	a.gpuReady = true
	slogger().Info("gpu-combine: switched to shared GPU device")
	return nil
}

// Combine runs job on the GPU. It returns combine.ErrFallbackToCPU when no
// device is ready or the image is below the size threshold.
func (a *CombineAccelerator) Combine(job combine.CombineJob) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.gpuReady || job.Shape.Pixels() < a.minPixels {
		return combine.ErrFallbackToCPU
	}
	fi, err := combine.Describe(job.Format)
	if err != nil {
		return err
	}
	return a.dispatch(job, fi)
}

// packSources concatenates the tightly packed sources, padded to a whole
// number of u32 words.
func packSources(sources []*combine.Plane, shape combine.Shape) []byte {
	n := shape.Pixels()
	out := make([]byte, alignWord(n*len(sources)))
	for i, src := range sources {
		base := i * n
		for y := range shape.Height {
			copy(out[base+y*shape.Width:], src.Row(y))
		}
	}
	return out
}

// unpackPlane copies a tightly packed readback into a strided plane.
func unpackPlane(packed []byte, dst *combine.Plane) {
	rb := dst.RowBytes()
	for y := range dst.Height {
		copy(dst.Row(y), packed[y*rb:(y+1)*rb])
	}
}

func alignWord(n int) int {
	return (n + 3) &^ 3
}

// planeResources holds the per-plane buffers of one dispatch.
type planeResources struct {
	params  planeParams
	uniform hal.Buffer
	storage hal.Buffer
	staging hal.Buffer
	bind    hal.BindGroup
	size    uint64
}

func (a *CombineAccelerator) dispatch(job combine.CombineJob, fi combine.FormatInfo) error {
	srcBytes := packSources(job.Sources, job.Shape)
	srcBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "combine_sources", Size: uint64(len(srcBytes)),
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create source buffer: %w", err)
	}
	defer a.device.DestroyBuffer(srcBuf)
	if err := a.queue.WriteBuffer(srcBuf, 0, srcBytes); err != nil {
		return fmt.Errorf("upload sources: %w", err)
	}

	planes := make([]*planeResources, 0, len(job.Planes))
	defer func() {
		for _, pr := range planes {
			a.destroyPlane(pr)
		}
	}()
	for i := range job.Planes {
		pr, err := a.createPlane(newPlaneParams(fi, i, job.Shape), srcBuf, uint64(len(srcBytes)))
		if pr != nil {
			planes = append(planes, pr)
		}
		if err != nil {
			return fmt.Errorf("plane %d: %w", i, err)
		}
	}

	if err := a.submit(planes); err != nil {
		return err
	}
	slogger().Debug("gpu-combine: dispatched", "format", job.Format, "shape", job.Shape, "planes", len(planes))

	readbacks := make([][]byte, len(planes))
	for i, pr := range planes {
		readbacks[i], err = a.readback(pr)
		if err != nil {
			return fmt.Errorf("readback plane %d: %w", i, err)
		}
	}
	// Destination bytes are written only after every readback succeeded.
	for i, dst := range job.Planes {
		unpackPlane(readbacks[i], dst)
	}
	return nil
}

func (a *CombineAccelerator) createPlane(params planeParams, srcBuf hal.Buffer, srcSize uint64) (*planeResources, error) {
	pr := &planeResources{params: params, size: uint64(params.words()) * 4}

	var err error
	pr.uniform, err = a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "combine_params", Size: planeParamsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return pr, fmt.Errorf("create uniform buffer: %w", err)
	}
	if err := a.queue.WriteBuffer(pr.uniform, 0, params.toBytes()); err != nil {
		return pr, fmt.Errorf("upload params: %w", err)
	}

	pr.storage, err = a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "combine_plane", Size: pr.size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return pr, fmt.Errorf("create plane buffer: %w", err)
	}

	pr.staging, err = a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "combine_staging", Size: pr.size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return pr, fmt.Errorf("create staging buffer: %w", err)
	}

	pr.bind, err = a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "combine_bind", Layout: a.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: pr.uniform.NativeHandle(), Offset: 0, Size: planeParamsSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: srcBuf.NativeHandle(), Offset: 0, Size: srcSize}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: pr.storage.NativeHandle(), Offset: 0, Size: pr.size}},
		},
	})
	if err != nil {
		return pr, fmt.Errorf("create bind group: %w", err)
	}
	return pr, nil
}

func (a *CombineAccelerator) destroyPlane(pr *planeResources) {
	if pr.bind != nil {
		a.device.DestroyBindGroup(pr.bind)
	}
	for _, b := range []hal.Buffer{pr.uniform, pr.storage, pr.staging} {
		if b != nil {
			a.device.DestroyBuffer(b)
		}
	}
}

// submit encodes one compute pass per plane plus the staging copies, and
// waits until the queue reports the submission complete.
func (a *CombineAccelerator) submit(planes []*planeResources) error {
	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "combine_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	defer encoder.Destroy()
	if err := encoder.BeginEncoding("combine"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	for _, pr := range planes {
		gx, gy := dispatchSize(pr.params.TotalBytes)
		pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "combine_pass"})
		pass.SetPipeline(a.pipeline)
		pass.SetBindGroup(0, pr.bind, nil)
		pass.Dispatch(gx, gy, 1)
		pass.End()
	}
	for _, pr := range planes {
		encoder.CopyBufferToBuffer(pr.storage, pr.staging, []hal.BufferCopy{
			{SrcOffset: 0, DstOffset: 0, Size: pr.size},
		})
	}

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer a.device.FreeCommandBuffer(cmdBuf)

	index, err := a.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	return a.waitSubmission(index)
}

// waitSubmission polls the queue until submission index has completed or
// the accelerator timeout passes.
func (a *CombineAccelerator) waitSubmission(index uint64) error {
	timeout := a.timeout
	if timeout <= 0 {
		timeout = submitTimeout
	}
	deadline := time.Now().Add(timeout)
	for a.queue.PollCompleted() < index {
		if time.Now().After(deadline) {
			return fmt.Errorf("wait for GPU: submission %d still pending after %v", index, timeout)
		}
		time.Sleep(pollInterval)
	}
	return nil
}

// readback maps the staging buffer of pr and copies its contents out.
func (a *CombineAccelerator) readback(pr *planeResources) ([]byte, error) {
	m, err := a.device.MapBuffer(pr.staging, 0, pr.size)
	if err != nil {
		return nil, fmt.Errorf("map staging buffer: %w", err)
	}
	out := make([]byte, pr.size)
	copy(out, unsafe.Slice((*byte)(m.Ptr), pr.size))
	if err := a.device.UnmapBuffer(pr.staging); err != nil {
		return nil, fmt.Errorf("unmap staging buffer: %w", err)
	}
	return out, nil
}

func (a *CombineAccelerator) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	a.instance = instance
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	a.device = openDev.Device
	a.queue = openDev.Queue
	if err := a.createPipelines(); err != nil {
		a.device.Destroy()
		a.device = nil
		a.queue = nil
		return fmt.Errorf("create pipelines: %w", err)
	}
	a.gpuReady = true
	slogger().Info("gpu-combine: GPU accelerator initialized", "adapter", selected.Info.Name)
	return nil
}

// compileShader compiles WGSL to SPIR-V words.
func compileShader(wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}
	// SPIR-V is little-endian 32-bit words.
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return code, nil
}

func (a *CombineAccelerator) createPipelines() error {
	code, err := compileShader(combineShaderSource)
	if err != nil {
		return err
	}
	shader, err := a.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "combine",
		Source: hal.ShaderSource{SPIRV: code},
	})
	if err != nil {
		return fmt.Errorf("create combine shader module: %w", err)
	}
	a.shader = shader

	bindLayout, err := a.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "combine_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create combine bind group layout: %w", err)
	}
	a.bindLayout = bindLayout

	pipeLayout, err := a.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "combine_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{a.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create combine pipeline layout: %w", err)
	}
	a.pipeLayout = pipeLayout

	pipeline, err := a.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "combine_pipeline", Layout: a.pipeLayout,
		Compute: hal.ComputeState{Module: a.shader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("create combine compute pipeline: %w", err)
	}
	a.pipeline = pipeline
	return nil
}

func (a *CombineAccelerator) destroyPipelines() {
	if a.device == nil {
		return
	}
	if a.pipeline != nil {
		a.device.DestroyComputePipeline(a.pipeline)
		a.pipeline = nil
	}
	if a.pipeLayout != nil {
		a.device.DestroyPipelineLayout(a.pipeLayout)
		a.pipeLayout = nil
	}
	if a.bindLayout != nil {
		a.device.DestroyBindGroupLayout(a.bindLayout)
		a.bindLayout = nil
	}
	if a.shader != nil {
		a.device.DestroyShaderModule(a.shader)
		a.shader = nil
	}
}
