package audio

// Timing constants
// Reference: https://gbdev.io/pandocs/Audio_details.html
const (
	// SampleRate is the output rate of the sample buffer.
	SampleRate = 48000

	cpuFrequency = 4194304

	// samplesPerFrame is roughly SampleRate / 59.73 frames per second.
	samplesPerFrame = 804
)

// Channel constants
const (
	// waveRAMSize is the size of wave pattern RAM in bytes (16 bytes = 32 nibbles)
	waveRAMSize = 16
)
