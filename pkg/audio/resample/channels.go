// ABOUTME: Channel layout conversion for interleaved 16-bit audio
// ABOUTME: Duplicates mono into stereo and averages down to mono
package resample

// MapChannels converts interleaved frames from inCh to outCh channels and
// returns the number of frames written. Downmixing to mono averages all
// channels; other layouts repeat input channels in order.
func MapChannels(dst, src []int16, inCh, outCh int) int {
	if inCh <= 0 || outCh <= 0 {
		return 0
	}

	frames := len(src) / inCh
	if max := len(dst) / outCh; frames > max {
		frames = max
	}

	if inCh == outCh {
		copy(dst, src[:frames*inCh])
		return frames
	}

	for i := 0; i < frames; i++ {
		in := src[i*inCh : (i+1)*inCh]
		out := dst[i*outCh : (i+1)*outCh]

		if outCh == 1 {
			var sum int32
			for _, s := range in {
				sum += int32(s)
			}
			out[0] = int16(sum / int32(inCh))
			continue
		}

		for c := range out {
			out[c] = in[c%inCh]
		}
	}
	return frames
}
