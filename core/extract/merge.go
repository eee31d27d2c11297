package extract

// fill sets *dst to v when *dst is still the zero value. Generic extractors
// use it so a value decoded earlier is kept.
func fill[T comparable](dst *T, v T) {
	var zero T
	if *dst == zero && v != zero {
		*dst = v
	}
}

// override sets *dst to v unless v is the zero value. Vendor extractors use
// it for the fields they own.
func override[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}
