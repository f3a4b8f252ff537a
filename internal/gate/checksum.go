package gate

import "quillfire.xyz/ipgate/internal/core"

// maxFolds bounds the carry-fold loop. A 20-bit accumulator over ten words
// converges within four folds.
const maxFolds = 4

// ChecksumResult is the checksum engine output for one tick. Valid pulses
// exactly one tick after the engine was enabled.
type ChecksumResult struct {
	Valid  bool
	Err    bool
	Header core.Header
}

// ChecksumEngine recomputes the IPv4 ones-complement header checksum with
// one-tick output latency. When verification is enabled the Err output
// reports whether the *input* header carried a bad checksum; when disabled
// Err is always false.
type ChecksumEngine struct {
	verify  bool
	pending bool
	in      core.Header
	orig    core.Header
}

// NewChecksumEngine creates an engine. verify toggles input-checksum
// verification; it is fixed for the lifetime of the engine.
func NewChecksumEngine(verify bool) *ChecksumEngine {
	return &ChecksumEngine{verify: verify}
}

// Reset discards any in-flight input.
func (e *ChecksumEngine) Reset() {
	e.pending = false
	e.in = core.Header{}
	e.orig = core.Header{}
}

// Step advances the engine one tick. The new checksum is computed over in;
// verification checks orig, the unmodified session input — the TTL stage has
// already changed in by the time the engine runs, so in can never satisfy its
// own carried checksum.
func (e *ChecksumEngine) Step(enable bool, in, orig core.Header) ChecksumResult {
	var out ChecksumResult
	if e.pending {
		out.Valid = true
		out.Header = e.in
		out.Header.Checksum = ComputeChecksum(e.in)
		if e.verify {
			out.Err = !VerifyHeader(e.orig)
		}
	}
	e.pending = enable
	if enable {
		e.in = in
		e.orig = orig
	}
	return out
}

// ComputeChecksum returns the checksum for h, computed over a working copy
// with the checksum field zeroed.
func ComputeChecksum(h core.Header) uint16 {
	h.Checksum = 0
	return ^foldChecksum(sumWords(h.Words()))
}

// VerifyHeader reports whether the checksum field of h is consistent with
// the rest of the header: the folded ones-complement sum over all ten words,
// checksum included, must be all-ones.
func VerifyHeader(h core.Header) bool {
	return foldChecksum(sumWords(h.Words())) == 0xffff
}

// sumWords adds the ten header words with a balanced adder tree: pairwise
// sums first, then combined level by level, carries preserved at each level
// up to a 20-bit accumulator.
func sumWords(w [10]uint16) uint32 {
	// level 1: five pairwise 17-bit sums
	s0 := uint32(w[0]) + uint32(w[1])
	s1 := uint32(w[2]) + uint32(w[3])
	s2 := uint32(w[4]) + uint32(w[5])
	s3 := uint32(w[6]) + uint32(w[7])
	s4 := uint32(w[8]) + uint32(w[9])
	// level 2: two 18-bit sums, s4 carried forward
	t0 := s0 + s1
	t1 := s2 + s3
	// level 3: 19-bit + 17-bit into the 20-bit accumulator
	return (t0 + t1) + s4
}

// foldChecksum folds the accumulator's overflow bits (16-19) back into the
// low 16 bits until no carry remains.
func foldChecksum(sum uint32) uint16 {
	for i := 0; i < maxFolds && sum > 0xffff; i++ {
		sum = (sum >> 16) + (sum & 0xffff)
	}
	return uint16(sum)
}
