// Package device connects a webaudio.Context to sound cards: PortAudio
// capture feeding a MediaStreamSourceNode, and PortAudio or oto playback
// consuming the quanta of Context.Run.
package device
