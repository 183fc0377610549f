package device

import (
	"fmt"
	"io"
	"text/template"

	pa "github.com/gordonklaus/portaudio"
)

var hostAPITemplate = template.Must(template.New("hostapis").Parse(
	`Detected {{len .}} host API(s):
{{range .}}
Name:                   {{.Name}}
{{- if .DefaultInputDevice}}
Default input device:   {{.DefaultInputDevice.Name}}{{end}}
{{- if .DefaultOutputDevice}}
Default output device:  {{.DefaultOutputDevice.Name}}{{end}}
Devices:{{range .Devices}}
	{{.Name}}
		inputs: {{.MaxInputChannels}}  outputs: {{.MaxOutputChannels}}  rate: {{.DefaultSampleRate}}
		low latency in/out:  {{.DefaultLowInputLatency}} / {{.DefaultLowOutputLatency}}
		high latency in/out: {{.DefaultHighInputLatency}} / {{.DefaultHighOutputLatency}}
{{- end}}
{{end}}`))

// Enumerate writes every PortAudio host API and its devices to w.
func Enumerate(w io.Writer) error {
	if err := pa.Initialize(); err != nil {
		return fmt.Errorf("%w: %w", ErrDevice, err)
	}
	defer pa.Terminate()

	apis, err := pa.HostApis()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDevice, err)
	}
	return hostAPITemplate.Execute(w, apis)
}
