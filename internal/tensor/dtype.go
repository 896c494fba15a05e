// Package tensor provides the core tensor types and operations for FaceVAE.
package tensor

// DType constrains the element types a Tensor can carry. Training runs
// entirely in float32; the other types exist for dataset ingestion.
type DType interface {
	~float32 | ~float64 | ~int32 | ~uint8
}

// DataType is the runtime tag mirroring DType for untyped RawTensors.
type DataType int

const (
	Float32 DataType = iota
	Float64
	Int32
	Uint8
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	case Float64:
		return 8
	case Uint8:
		return 1
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Uint8:
		return "uint8"
	default:
		return "unknown"
	}
}

// inferDataType infers DataType from a generic type T.
func inferDataType[T DType](dummy T) DataType {
	switch any(dummy).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case int32:
		return Int32
	case uint8:
		return Uint8
	default:
		panic("unsupported type")
	}
}
