package diagnostics

import "fmt"

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// Phase reports a sequencer transition.
func Phase(from, to string, cycle int) Diagnostic {
	return Diagnostic{
		Severity: Info,
		Code:     "SEQ.PHASE",
		Summary:  fmt.Sprintf("phase %s", to),
		Evidence: map[string]any{"from": from, "to": to, "cycle": cycle},
	}
}

func CycleDone(cycle int) Diagnostic {
	return Diagnostic{
		Severity: Info,
		Code:     "SEQ.CYCLE",
		Summary:  fmt.Sprintf("cycle %d complete", cycle),
		Evidence: map[string]any{"cycle": cycle},
	}
}

// DriverFailed describes a frame sink that rejected a write or failed to open.
func DriverFailed(name string, err error) Diagnostic {
	d := Diagnostic{
		Severity: Err,
		Code:     "DRIVER.FAILED",
		Summary:  fmt.Sprintf("driver %s failed", name),
		Evidence: map[string]any{"driver": name},
	}
	if err != nil {
		d.Detail = err.Error()
	}
	switch name {
	case "led":
		d.LikelyCauses = []string{"SPI disabled or not present", "no permission on /dev/spidev*"}
		d.SuggestedFixes = []string{"enable SPI in the boot config", "run as a member of the spi group", "set led.dev"}
	case "term":
		d.LikelyCauses = []string{"stdout is not a terminal"}
		d.SuggestedFixes = []string{"drop term from render.drivers when running headless"}
	}
	return d
}

// UnsupportedControl flags a control message carrying nothing the server acts on.
func UnsupportedControl(keys []string) Diagnostic {
	return Diagnostic{
		Severity:       Warn,
		Code:           "CONTROL.UNSUPPORTED",
		Summary:        "control message ignored",
		Detail:         "only orbit and zoom are accepted",
		SuggestedFixes: []string{`send {"orbit":{"azimuth":0.1,"polar":0}} or {"zoom":0.9}`},
		Evidence:       map[string]any{"keys": keys},
	}
}
