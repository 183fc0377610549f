// Package buffer provides the sample containers of the render engine.
//
// AudioBuffer is a multichannel PCM container at a fixed sample rate. Its
// contents move in and out by copy only, so two buffers never alias the same
// samples. A buffer is frozen once it is handed to a playback node and stays
// read-only afterwards.
//
// Bus is the planar scratch block a node reads from and writes to during one
// render quantum. Buses are preallocated and recycled between quanta; summing
// two buses up-mixes the smaller channel count (mono is duplicated to every
// channel, other layouts map channel i to channel i and leave the rest
// silent).
//
// Pool recycles AudioBuffers for producers that allocate one buffer per
// quantum, such as capture taps feeding a relay queue.
package buffer
