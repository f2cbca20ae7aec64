package distance

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// CPUFeatures records the vector extensions of the host. Timings are only
// comparable between runs on machines with the same features because gonum
// dispatches to assembly kernels on some architectures.
type CPUFeatures struct {
	GOARCH  string `json:"goarch" yaml:"goarch"`
	NumCPU  int    `json:"numCPU" yaml:"numCPU"`
	SSE3    bool   `json:"sse3" yaml:"sse3"`
	AVX2    bool   `json:"avx2" yaml:"avx2"`
	FMA     bool   `json:"fma" yaml:"fma"`
	AVX512F bool   `json:"avx512f" yaml:"avx512f"`
	ASIMD   bool   `json:"asimd" yaml:"asimd"`
}

func DetectCPU() CPUFeatures {
	return CPUFeatures{
		GOARCH:  runtime.GOARCH,
		NumCPU:  runtime.NumCPU(),
		SSE3:    cpu.X86.HasSSE3,
		AVX2:    cpu.X86.HasAVX2,
		FMA:     cpu.X86.HasFMA,
		AVX512F: cpu.X86.HasAVX512F,
		ASIMD:   cpu.ARM64.HasASIMD,
	}
}

// HasVectorSupport mirrors the requirements of the x86 fused kernels.
func (f CPUFeatures) HasVectorSupport() bool {
	return (f.AVX2 && f.FMA && f.SSE3) || f.ASIMD
}
