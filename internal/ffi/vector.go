package ffi

import "unsafe"

// vecInfo mirrors ngspice's struct vector_info field for field:
//
//	typedef struct vector_info {
//	    char       *v_name;
//	    int         v_type;
//	    short       v_flags;
//	    double     *v_realdata;
//	    ngcomplex_t *v_compdata;
//	    int         v_length;
//	} vector_info;
//
// Go's natural field alignment reproduces the C layout on 64-bit targets
// (pointers 8-aligned, 2 bytes of padding after v_flags, 4 after v_length).
type vecInfo struct {
	name     uintptr
	vtype    int32
	flags    int16
	realdata uintptr
	compdata uintptr
	length   int32
}

// Vector is a read-only view over one engine vector_info record. It is
// valid only while the engine lock is held and until the next engine call;
// accessor methods that return slices copy the payload out.
type Vector struct {
	raw *vecInfo
}

// Name returns the vector's name. No encoding check happens here; callers
// validate UTF-8 and decide how loudly to fail.
func (v Vector) Name() string { return goString(v.raw.name) }

// Type returns the engine's numeric type tag for this vector.
func (v Vector) Type() int { return int(v.raw.vtype) }

// Length returns the declared number of values.
func (v Vector) Length() int { return int(v.raw.length) }

// HasReal reports whether the real payload pointer is populated.
func (v Vector) HasReal() bool { return v.raw.realdata != 0 }

// HasComplex reports whether the complex payload pointer is populated.
func (v Vector) HasComplex() bool { return v.raw.compdata != 0 }

// Real copies the real payload into an owned slice.
func (v Vector) Real() []float64 {
	n := int(v.raw.length)
	out := make([]float64, n)
	if n > 0 {
		copy(out, unsafe.Slice((*float64)(unsafe.Pointer(v.raw.realdata)), n))
	}
	return out
}

// Complex copies the complex payload into an owned slice. ngcomplex_t is
// two adjacent doubles (real then imaginary), the same layout as Go's
// complex128; vector_test.go asserts this equivalence.
func (v Vector) Complex() []complex128 {
	n := int(v.raw.length)
	out := make([]complex128, n)
	if n > 0 {
		copy(out, unsafe.Slice((*complex128)(unsafe.Pointer(v.raw.compdata)), n))
	}
	return out
}
