// Package audio plays the soundtrack and exposes live frequency data.
//
// The analyser mirrors the byte frequency data of a Web Audio AnalyserNode:
// Blackman-windowed FFT, exponential smoothing over time and a linear
// decibel-to-byte mapping. Samples reach it from the audio output goroutine
// through Tap; the render goroutine reads it with ByteFrequencyData.
package audio
