package fingerprint

// Peak is a (frequency-bin, time-frame) coordinate at which the
// spectrogram is a local maximum in its neighborhood (ties with a
// neighbor included) and strictly exceeds the amplitude floor.
type Peak struct {
	Freq int
	Time int
}

// footprintOffset is one (dt, df) offset in the structuring-element
// footprint built by PickPeaks.
type footprintOffset struct{ dt, df int }

// buildFootprint returns the neighborhood offsets produced by iterating
// a 3x3 structuring element `neighborhood` times: connectivity 2 (Moore)
// gives a (2*neighborhood+1) square (Chebyshev distance), connectivity 1
// (von Neumann) gives a diamond (Manhattan distance). This is an
// algorithm equivalent to repeated binary dilation, as spec.md §9
// permits, rather than a literal iterated-convolution implementation.
func buildFootprint(neighborhood, connectivity int) []footprintOffset {
	var offsets []footprintOffset
	for dt := -neighborhood; dt <= neighborhood; dt++ {
		for df := -neighborhood; df <= neighborhood; df++ {
			switch connectivity {
			case 1:
				if abs(dt)+abs(df) <= neighborhood {
					offsets = append(offsets, footprintOffset{dt, df})
				}
			default:
				offsets = append(offsets, footprintOffset{dt, df})
			}
		}
	}
	return offsets
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// PickPeaks finds local maxima of the spectrogram above amplitude floor
// p.AmpMin, using a neighborhood of size p.PeakNeighborhood and
// connectivity p.ConnectivityMask, per spec.md §4.2. Peaks are returned
// temporally sorted (time ascending, then frequency ascending).
func PickPeaks(spec Spectrogram, p Params) []Peak {
	T := spec.T()
	if T == 0 {
		return nil
	}
	F := spec.FreqBins
	footprint := buildFootprint(p.PeakNeighborhood, p.ConnectivityMask)

	var peaks []Peak
	for t := 0; t < T; t++ {
		for f := 0; f < F; f++ {
			val := spec.At(t, f)

			isLocalMax := true
			allZeroBackground := true
			for _, off := range footprint {
				nt, nf := t+off.dt, f+off.df
				if nt < 0 || nt >= T || nf < 0 || nf >= F {
					// out of bounds: background for both the dilation
					// (ignored, can't exceed center) and the erosion
					// (counts as zero per border_value=1 convention).
					continue
				}
				neighbor := spec.At(nt, nf)
				if neighbor > val {
					isLocalMax = false
				}
				if neighbor != 0 {
					allZeroBackground = false
				}
			}

			isPeak := isLocalMax != allZeroBackground // XOR
			if isPeak && val > p.AmpMin {
				peaks = append(peaks, Peak{Freq: f, Time: t})
			}
		}
	}
	return peaks
}
