package gpucore

import "errors"

// Device errors.
var (
	// ErrOutOfMemory is returned when a device cannot allocate storage.
	ErrOutOfMemory = errors.New("gpucore: out of device memory")

	// ErrUnknownProgram is returned for a destroyed or never created program.
	ErrUnknownProgram = errors.New("gpucore: unknown program")

	// ErrUnknownTexture is returned for a destroyed or never created texture.
	ErrUnknownTexture = errors.New("gpucore: unknown texture")

	// ErrUnknownUniform is returned when a program declares no such uniform.
	ErrUnknownUniform = errors.New("gpucore: unknown uniform")

	// ErrUniformType is returned when a value does not match the declared type.
	ErrUniformType = errors.New("gpucore: uniform type mismatch")

	// ErrNoPass is returned by draw state calls outside BeginPass/EndPass.
	ErrNoPass = errors.New("gpucore: no active render pass")

	// ErrPassActive is returned by BeginPass while another pass is open.
	ErrPassActive = errors.New("gpucore: render pass already active")

	// ErrNoProgram is returned by Draw before UseProgram.
	ErrNoProgram = errors.New("gpucore: no program bound")

	// ErrDataSize is returned when pixel data does not match the texture size.
	ErrDataSize = errors.New("gpucore: pixel data size mismatch")

	// ErrUnsupportedFormat is returned for unsupported pixel layouts.
	ErrUnsupportedFormat = errors.New("gpucore: unsupported pixel format")

	// ErrUnsupportedKernel is returned by devices that execute built-in
	// kernels when a program names a kernel they do not implement.
	ErrUnsupportedKernel = errors.New("gpucore: unsupported program kernel")

	// ErrTextureUnit is returned for texture units outside [0, MaxTextureUnits).
	ErrTextureUnit = errors.New("gpucore: texture unit out of range")
)
