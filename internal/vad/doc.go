// Package vad tracks speech activity across the live capture. It smooths
// per-tick loudness readings and raises an end-of-speech signal after a
// configurable run of consecutive silent ticks.
package vad
