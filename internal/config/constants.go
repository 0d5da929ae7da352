package config

// ScenarioFileExt is the canonical extension of scenario files.
const ScenarioFileExt = ".yaml"

// ScenarioFileExtensions are all recognized scenario file extensions
var ScenarioFileExtensions = []string{".yaml", ".yml"}

// IsTestMode indicates if the program is running in test mode.
// When set, fresh inference variables print as "?T" so output is stable.
var IsTestMode = false

// Primitive type names
const (
	BoolTypeName  = "bool"
	CharTypeName  = "char"
	StrTypeName   = "str"
	F32TypeName   = "f32"
	F64TypeName   = "f64"
	NeverTypeName = "!"
	ErrorTypeName = "{error}"
)

// SignedIntTypeNames lists the signed integer primitives.
var SignedIntTypeNames = []string{"i8", "i16", "i32", "i64", "i128", "isize"}

// UnsignedIntTypeNames lists the unsigned integer primitives.
var UnsignedIntTypeNames = []string{"u8", "u16", "u32", "u64", "u128", "usize"}

// FloatTypeNames lists the floating-point primitives.
var FloatTypeNames = []string{F32TypeName, F64TypeName}

// Fallback types for unconstrained literals
const (
	IntFallbackTypeName   = "i32"
	FloatFallbackTypeName = "f64"
)

// The canonical growable string type
const (
	StringTypeName   = "String"
	StringTypeModule = "std::string"
)

// Marker trait paths that are not operators
const (
	CopyTraitPath  = "std::marker::Copy"
	DerefTraitPath = "std::ops::Deref"
)

// Prelude origin for built-in symbols
const PreludeOrigin = "prelude"

// Version of the opcheck tool
const Version = "0.1.0"
