package arch

// exceptions.go classifies which exception vectors use which IST stack and
// which are fatal in this core. The actual handler bodies are wired by the
// top-level kernel package, which has access to the console (for
// diagnostics) and the fatal package (to halt); arch only describes the
// policy so that wiring is table-driven rather than ad hoc.

// ISTForVector returns the IST index a vector's gate should use, and ok=true
// if the vector uses a dedicated IST rather than the TSS's default
// privilege stack.
func ISTForVector(vector uint8) (index int, ok bool) {
	switch vector {
	case VecDoubleFault:
		return ISTDoubleFault, true
	case VecPageFault:
		return ISTPageFault, true
	case VecGeneralProtection:
		return ISTGeneralProtectionFault, true
	default:
		return 0, false
	}
}

// Fatal reports whether a hard fault at this vector is unrecoverable in
// this core, per spec §7: double fault, page fault, general protection,
// stack-segment, and segment-not-present all print and halt.
func Fatal(vector uint8) bool {
	switch vector {
	case VecDoubleFault, VecPageFault, VecGeneralProtection, VecStackSegment, VecSegmentNotPresent:
		return true
	default:
		return false
	}
}

// Recoverable reports the vectors that print a diagnostic but resume
// execution: breakpoint and divide-by-zero.
func Recoverable(vector uint8) bool {
	switch vector {
	case VecBreakpoint, VecDivideByZero:
		return true
	default:
		return false
	}
}
