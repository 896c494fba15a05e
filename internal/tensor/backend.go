package tensor

// Backend defines the interface that compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// The operation set is scoped to what the VAE pipeline exercises:
// elementwise arithmetic with broadcasting, matmul, 2D convolution and
// transposed convolution with their gradient kernels, shape manipulation,
// scalar ops, the math primitives the losses need, and reductions.
//
// Implementations:
//   - backend/cpu: Pure Go reference implementation
//
// Decorator backends for additional functionality:
//   - autodiff: Automatic differentiation (wraps any backend)
type Backend interface {
	// Element-wise binary operations (NumPy-style broadcasting).
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Matrix multiplication for 2D tensors: (M, K) @ (K, N) -> (M, N).
	MatMul(a, b *RawTensor) *RawTensor

	// Convolutional operations (NCHW layout).
	//
	// Conv2D kernel layout: [C_out, C_in, K_h, K_w].
	// ConvTranspose2D kernel layout: [C_in, C_out, K_h, K_w]; outputPadding
	// adds rows/columns to the bottom/right edge of the output, resolving
	// the output-size ambiguity of strided transposed convolution.
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor
	Conv2DInputBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor
	Conv2DKernelBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor
	ConvTranspose2D(input, kernel *RawTensor, stride, padding, outputPadding int) *RawTensor
	ConvTranspose2DInputBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor
	ConvTranspose2DKernelBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Scalar operations (element-wise with scalar). The scalar is
	// converted to the tensor's element type.
	MulScalar(x *RawTensor, scalar float64) *RawTensor
	AddScalar(x *RawTensor, scalar float64) *RawTensor

	// Math operations (element-wise).
	Exp(x *RawTensor) *RawTensor
	Log(x *RawTensor) *RawTensor
	Sqrt(x *RawTensor) *RawTensor

	// Reduction operations.
	Sum(x *RawTensor) *RawTensor
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}
