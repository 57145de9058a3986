package spice

import (
	"encoding/json"
	"fmt"
)

// DataType identifies the physical quantity a result vector carries.
type DataType int

// Data types reported by ngspice. Tags the engine reports that are not in
// this table decode as DataTypeUnknown; new engine releases may add types
// and that must not be an error.
const (
	DataTypeUnknown DataType = iota
	DataTypeTime
	DataTypeFrequency
	DataTypeVoltage
	DataTypeCurrent
	DataTypeVoltageDensity
	DataTypeCurrentDensity
	DataTypeSqrVoltageDensity
	DataTypeSqrCurrentDensity
	DataTypeSqrVoltage
	DataTypeSqrCurrent
	DataTypePole
	DataTypeZero
	DataTypeSParam
	DataTypeTemperature
	DataTypeResistance
	DataTypeImpedance
	DataTypeAdmittance
	DataTypePower
	DataTypePhase
	DataTypeDecibel
	DataTypeCapacitance
	DataTypeCharge
)

var dataTypeNames = []string{
	"unknown",
	"time",
	"frequency",
	"voltage",
	"current",
	"voltage_density",
	"current_density",
	"sqr_voltage_density",
	"sqr_current_density",
	"sqr_voltage",
	"sqr_current",
	"pole",
	"zero",
	"s_param",
	"temperature",
	"resistance",
	"impedance",
	"admittance",
	"power",
	"phase",
	"decibel",
	"capacitance",
	"charge",
}

// dataTypeFromTag maps an engine type tag to a DataType. The constants
// above are declared in the engine's own tag order, so known tags map by
// value; everything else is Unknown.
func dataTypeFromTag(tag int) DataType {
	if tag > 0 && tag < len(dataTypeNames) {
		return DataType(tag)
	}
	return DataTypeUnknown
}

// String returns the lowercase name of the data type.
func (d DataType) String() string {
	if d >= 0 && int(d) < len(dataTypeNames) {
		return dataTypeNames[d]
	}
	return "unknown"
}

// MarshalJSON encodes the data type as its string name.
func (d DataType) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a data type from its string name. Unrecognized
// names decode as DataTypeUnknown for the same forward-compatibility
// reason unrecognized engine tags do.
func (d *DataType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for i, n := range dataTypeNames {
		if n == name {
			*d = DataType(i)
			return nil
		}
	}
	*d = DataTypeUnknown
	return nil
}

// VectorValues holds the payload of one result vector. Exactly one of Real
// and Complex is non-nil, determined by which payload the engine populated.
type VectorValues struct {
	Real    []float64
	Complex []complex128
}

// IsComplex reports whether the vector carries complex values.
func (v VectorValues) IsComplex() bool { return v.Complex != nil }

// Len returns the number of values in the populated payload.
func (v VectorValues) Len() int {
	if v.IsComplex() {
		return len(v.Complex)
	}
	return len(v.Real)
}

// vectorValuesJSON is the serialized form: one of the two keys present,
// complex values as [real, imaginary] pairs (complex128 has no native JSON
// representation).
type vectorValuesJSON struct {
	Real    []float64    `json:"real,omitempty"`
	Complex [][2]float64 `json:"complex,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (v VectorValues) MarshalJSON() ([]byte, error) {
	out := vectorValuesJSON{Real: v.Real}
	if v.Complex != nil {
		out.Complex = make([][2]float64, len(v.Complex))
		for i, c := range v.Complex {
			out.Complex[i] = [2]float64{real(c), imag(c)}
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *VectorValues) UnmarshalJSON(data []byte) error {
	var in vectorValuesJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Real != nil && in.Complex != nil {
		return fmt.Errorf("spice: vector values with both real and complex payloads")
	}
	v.Real = in.Real
	v.Complex = nil
	if in.Complex != nil {
		v.Complex = make([]complex128, len(in.Complex))
		for i, pair := range in.Complex {
			v.Complex[i] = complex(pair[0], pair[1])
		}
	}
	return nil
}

// VectorInfo describes one named result vector of a simulation.
type VectorInfo struct {
	DataType DataType     `json:"datatype"`
	Values   VectorValues `json:"values"`
}

// Simulation is the result of one engine run. It is an owned snapshot with
// no remaining ties to the engine; callers may retain it indefinitely.
type Simulation struct {
	// Stdout is the diagnostic output the engine routed to its standard
	// stream during this run.
	Stdout string `json:"stdout"`

	// Stderr is the diagnostic output the engine routed to its error
	// stream during this run.
	Stderr string `json:"stderr"`

	// Vectors maps vector name to its data, for every vector of the
	// run's result set.
	Vectors map[string]VectorInfo `json:"vectors"`
}
