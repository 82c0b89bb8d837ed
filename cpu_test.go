package fmtconv_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gen2brain/fmtconv"
)

func TestCPUFlagsStable(t *testing.T) {
	first := fmtconv.CPUFlags()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, first, fmtconv.CPUFlags())
		}()
	}
	wg.Wait()

	assert.Equal(t, first, fmtconv.DefaultEngine().CPUFlags())
}

func TestCPUFlagString(t *testing.T) {
	assert.Equal(t, "none", fmtconv.CPU_FLAG_NONE.String())
	assert.Equal(t, "sse2", fmtconv.CPU_FLAG_SSE2.String())
	assert.Equal(t, "sse2,avx2,neon", (fmtconv.CPU_FLAG_SSE2 | fmtconv.CPU_FLAG_AVX2 | fmtconv.CPU_FLAG_NEON).String())
}

func TestParseCPUFlags(t *testing.T) {
	testCases := map[string]fmtconv.CPUFlag{
		"":                 fmtconv.CPU_FLAG_NONE,
		"none":             fmtconv.CPU_FLAG_NONE,
		"sse2":             fmtconv.CPU_FLAG_SSE2,
		"SSE2, AVX2":       fmtconv.CPU_FLAG_SSE2 | fmtconv.CPU_FLAG_AVX2,
		"avx512f,neon":     fmtconv.CPU_FLAG_AVX512F | fmtconv.CPU_FLAG_NEON,
		"ssse3,sse41,fma3": fmtconv.CPU_FLAG_SSSE3 | fmtconv.CPU_FLAG_SSE41 | fmtconv.CPU_FLAG_FMA3,
	}

	for s, want := range testCases {
		t.Run(s, func(t *testing.T) {
			flags, err := fmtconv.ParseCPUFlags(s)
			require.NoError(t, err)
			assert.Equal(t, want, flags)

			back, err := fmtconv.ParseCPUFlags(flags.String())
			require.NoError(t, err)
			assert.Equal(t, flags, back)
		})
	}

	_, err := fmtconv.ParseCPUFlags("sse2,mmx")
	assert.Error(t, err)
}

func TestCPUFlagHas(t *testing.T) {
	flags := fmtconv.CPU_FLAG_SSE2 | fmtconv.CPU_FLAG_AVX2

	assert.True(t, flags.Has(fmtconv.CPU_FLAG_NONE))
	assert.True(t, flags.Has(fmtconv.CPU_FLAG_AVX2))
	assert.True(t, flags.Has(fmtconv.CPU_FLAG_SSE2|fmtconv.CPU_FLAG_AVX2))
	assert.False(t, flags.Has(fmtconv.CPU_FLAG_AVX512F))
	assert.False(t, flags.Has(fmtconv.CPU_FLAG_AVX2|fmtconv.CPU_FLAG_NEON))
}
