package parallel

import "runtime"
import "strconv"

import "github.com/klauspost/cpuid/v2"

// Threads reports the default number of worker goroutines: the number of
// logical cores reported by the cpu, or GOMAXPROCS when unknown.
func Threads() int {
	if n := cpuid.CPU.LogicalCores; n > 0 {
		if max := runtime.GOMAXPROCS(0); n > max {
			return max
		}
		return n
	}
	return runtime.GOMAXPROCS(0)
}

// CPU describes the processor for the logs, e.g. "AMD EPYC 7B13 (16 cores, avx2 fma3)".
func CPU() string {
	var feats string
	for _, f := range []struct {
		id   cpuid.FeatureID
		name string
	}{{cpuid.AVX2, "avx2"}, {cpuid.FMA3, "fma3"}, {cpuid.AVX512F, "avx512f"}, {cpuid.ASIMD, "neon"}} {
		if cpuid.CPU.Supports(f.id) {
			if feats != "" {
				feats += " "
			}
			feats += f.name
		}
	}
	name := cpuid.CPU.BrandName
	if name == "" {
		name = runtime.GOARCH
	}
	return name + " (" + strconv.Itoa(Threads()) + " cores, " + feats + ")"
}
