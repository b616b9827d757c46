package lead

// Merge reconciles a freshly extracted record into the known one. Each field
// takes the incoming value when it is non-empty and keeps the existing value
// otherwise, so a known fact is never lost.
//
// Constrained fields are validated at this boundary: an incoming value outside
// the legal set counts as unknown and does not displace a known legal value,
// and a field that still holds an illegal value after the fill is reset to "".
func Merge(existing, incoming Record) Record {
	var out Record
	for _, f := range Fields {
		in := incoming.Get(f)
		set, constrained := Constrained[f]
		if constrained && !set.Contains(in) {
			in = ""
		}
		v := existing.Get(f)
		if in != "" {
			v = in
		}
		if constrained && !set.Contains(v) {
			v = ""
		}
		_ = out.Set(f, v)
	}
	return out
}

// Sanitize drops illegal values from constrained fields.
func Sanitize(r Record) Record {
	return Merge(r, Record{})
}
