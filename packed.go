package genodata

// callsPerByte is the number of two-bit genotype codes in one packed byte.
const callsPerByte = 4

// packedRowLength is the number of bytes one marker occupies in a BED file.
func packedRowLength(nSamples int) int {
	return (nSamples + callsPerByte - 1) / callsPerByte
}

// unpackByte decodes the four calls of a packed byte. The lowest bit pair
// holds the first sample.
func unpackByte(b byte) [callsPerByte]Call {
	var out [callsPerByte]Call
	for k := 0; k < callsPerByte; k++ {
		out[k] = callFromBits((b >> (2 * k)) & 3)
	}
	return out
}

// packCalls encodes up to four calls into one byte. Unused trailing pairs
// are zero.
func packCalls(calls []Call) byte {
	var b byte
	for k, c := range calls {
		if k == callsPerByte {
			break
		}
		b |= c.bits() << (2 * k)
	}
	return b
}

// unpackRow decodes one marker's packed bytes, keeping only the samples
// flagged in keep, and appends them to dst in sample order.
func unpackRow(dst []Call, packed []byte, keep []bool) []Call {
	for j, b := range packed {
		window := unpackByte(b)
		for k := 0; k < callsPerByte; k++ {
			sample := j*callsPerByte + k
			if sample >= len(keep) {
				break
			}
			if keep[sample] {
				dst = append(dst, window[k])
			}
		}
	}
	return dst
}
